package plural

import (
	"io"
	"log/slog"

	"nickandperla.net/plural/internal/store"
)

// Option configures Compile and New.
type Option func(*config)

type config struct {
	gnu        bool
	store      store.Store
	sqlitePath string
	logger     *slog.Logger
	noDefaults bool
	rules      map[string]string
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// WithGNUTernary groups chained ternaries as C and GNU gettext do.
func WithGNUTernary() Option {
	return func(c *config) {
		c.gnu = true
	}
}

// WithSQLiteStore configures SQLite persistence at the given path. The
// database is opened by New.
func WithSQLiteStore(path string) Option {
	return func(c *config) {
		c.sqlitePath = path
		c.store = nil
	}
}

// WithMemoryStore configures an in-memory store (the default).
func WithMemoryStore() Option {
	return func(c *config) {
		c.store = store.NewMemory()
		c.sqlitePath = ""
	}
}

// WithStore uses a custom store. The catalog closes it on Close.
func WithStore(s Store) Option {
	return func(c *config) {
		c.store = s
		c.sqlitePath = ""
	}
}

// WithLogger sets the logger for catalog activity.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithNoDefaults disables the built-in locale rules.
func WithNoDefaults() Option {
	return func(c *config) {
		c.noDefaults = true
	}
}

// WithRules adds rules keyed by locale. They take precedence over the
// built-in rules but not over stored ones.
func WithRules(rules map[string]string) Option {
	return func(c *config) {
		if c.rules == nil {
			c.rules = make(map[string]string, len(rules))
		}
		for k, v := range rules {
			c.rules[k] = v
		}
	}
}

// Store interface for custom stores.
type Store = store.Store

// Rule is a stored Plural-Forms rule.
type Rule = store.Rule
