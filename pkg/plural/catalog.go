package plural

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/tevino/abool/v2"

	"nickandperla.net/plural/internal/stdlib"
	"nickandperla.net/plural/internal/store"
)

// Catalog maps locales to compiled plural rules. Rules are looked up in
// the store first, then in the rules given to New, then in the built-in
// defaults. A Catalog is safe for concurrent use.
type Catalog struct {
	store    store.Store
	defaults map[string]string
	gnu      bool
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[uint64]*Program // keyed by fnv1a of the source

	closed *abool.AtomicBool
}

// Revision is one stored version of a locale's rule.
type Revision struct {
	Version int
	Source  string
	Digest  string
	Time    string
}

// New creates a catalog with the given options.
func New(opts ...Option) (*Catalog, error) {
	cfg := newConfig(opts)

	s := cfg.store
	if cfg.sqlitePath != "" {
		db, err := store.NewSQLite(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.sqlitePath, err)
		}
		s = db
	}
	if s == nil {
		s = store.NewMemory()
	}

	defaults := make(map[string]string)
	if !cfg.noDefaults {
		defaults = stdlib.Rules()
	}
	for locale, rule := range cfg.rules {
		defaults[normalize(locale)] = rule
	}

	return &Catalog{
		store:    s,
		defaults: defaults,
		gnu:      cfg.gnu,
		logger:   cfg.logger,
		cache:    make(map[uint64]*Program),
		closed:   abool.NewBool(false),
	}, nil
}

// Register compiles source and stores it as the rule for locale.
func (c *Catalog) Register(locale, source string) error {
	if c.closed.IsSet() {
		return ErrClosed
	}
	locale = normalize(locale)
	if locale == "" {
		return errors.New("plural: empty locale")
	}
	if _, err := c.program(source); err != nil {
		return fmt.Errorf("%s: %w", locale, err)
	}
	if err := c.store.Put(store.NewRule(locale, source)); err != nil {
		return fmt.Errorf("store %s: %w", locale, err)
	}
	c.logger.Debug("registered plural rule", "locale", locale, "source", source)
	return nil
}

// Lookup returns the program for locale. A locale with a territory such
// as pt_BR falls back to its language when it has no rule of its own.
func (c *Catalog) Lookup(locale string) (*Program, error) {
	if c.closed.IsSet() {
		return nil, ErrClosed
	}
	for _, candidate := range candidates(locale) {
		source, ok, err := c.source(candidate)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if candidate != normalize(locale) {
			c.logger.Debug("plural rule fallback", "locale", locale, "using", candidate)
		}
		p, err := c.program(source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", candidate, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
}

// Select returns the message form index for n in locale.
func (c *Catalog) Select(locale string, n int64) (int, error) {
	p, err := c.Lookup(locale)
	if err != nil {
		return 0, err
	}
	return p.Select(n)
}

// Evaluate returns all bindings of locale's rule for n.
func (c *Catalog) Evaluate(locale string, n int64) (map[string]int64, error) {
	p, err := c.Lookup(locale)
	if err != nil {
		return nil, err
	}
	return p.Evaluate(n)
}

// Remove deletes the stored rule for locale. Built-in rules are not
// affected.
func (c *Catalog) Remove(locale string) error {
	if c.closed.IsSet() {
		return ErrClosed
	}
	locale = normalize(locale)
	if err := c.store.Delete(locale); err != nil {
		return err
	}
	c.logger.Debug("removed plural rule", "locale", locale)
	return nil
}

// Locales returns every locale with a rule, sorted.
func (c *Catalog) Locales() ([]string, error) {
	if c.closed.IsSet() {
		return nil, ErrClosed
	}
	stored, err := c.store.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored)+len(c.defaults))
	var locales []string
	for _, l := range stored {
		if !seen[l] {
			seen[l] = true
			locales = append(locales, l)
		}
	}
	for l := range c.defaults {
		if !seen[l] {
			seen[l] = true
			locales = append(locales, l)
		}
	}
	sort.Strings(locales)
	return locales, nil
}

// History returns the stored revisions of locale, newest first. Stores
// without history report none.
func (c *Catalog) History(locale string, limit int) ([]Revision, error) {
	if c.closed.IsSet() {
		return nil, ErrClosed
	}
	hs, ok := c.store.(store.HistoryStore)
	if !ok {
		return nil, nil
	}
	entries, err := hs.GetHistory(normalize(locale), limit)
	if err != nil {
		return nil, err
	}
	revs := make([]Revision, len(entries))
	for i, e := range entries {
		revs[i] = Revision{Version: e.Version, Source: e.Source, Digest: e.Digest, Time: e.Ts}
	}
	return revs, nil
}

// Close releases the store. Further calls return ErrClosed.
func (c *Catalog) Close() error {
	if !c.closed.SetToIf(false, true) {
		return ErrClosed
	}
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()
	return c.store.Close()
}

func (c *Catalog) source(locale string) (string, bool, error) {
	r, err := c.store.Get(locale)
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", locale, err)
	}
	if r != nil {
		return r.Source, true, nil
	}
	s, ok := c.defaults[locale]
	return s, ok, nil
}

// program returns the cached compilation of source.
func (c *Catalog) program(source string) (*Program, error) {
	key := fnv1a.HashString64(source)

	c.mu.RLock()
	p, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && p.source == source {
		return p, nil
	}

	p, err := compile(source, c.gnu)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.cache != nil {
		c.cache[key] = p
	}
	c.mu.Unlock()
	return p, nil
}

// normalize maps "pt-BR.UTF-8@euro" to "pt_BR".
func normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ReplaceAll(locale, "-", "_")
}

// candidates lists the locales to try for locale, most specific first.
func candidates(locale string) []string {
	locale = normalize(locale)
	if locale == "" {
		return nil
	}
	out := []string{locale}
	if lang, _, ok := strings.Cut(locale, "_"); ok && lang != "" {
		out = append(out, lang)
	}
	return out
}
