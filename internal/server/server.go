// Package server exposes a Catalog over HTTP.
//
//	GET /select?locale=pl&n=5   {"locale":"pl","n":5,"index":2}
//	GET /eval?expr=...&n=5      {"n":5,"plural":1,...}
//	GET /locales                ["ar","be",...]
//	GET /stats                  expvar counters
package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"

	"nickandperla.net/plural/pkg/plural"
)

// Various counters - see https://pkg.go.dev/expvar for details.
var (
	requests = expvar.NewInt("pluralRequests")
	selects  = expvar.NewInt("pluralSelects")
	evals    = expvar.NewInt("pluralEvals")
	failures = expvar.NewInt("pluralFailures")
)

// Catalog is the part of *plural.Catalog the server needs.
type Catalog interface {
	Select(locale string, n int64) (int, error)
	Locales() ([]string, error)
}

// Server answers plural selection requests.
type Server struct {
	catalog Catalog
	opts    []plural.Option
	logger  *log.Logger
	srv     *fasthttp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithGNUTernary compiles /eval expressions with GNU ternary grouping.
func WithGNUTernary() Option {
	return func(s *Server) {
		s.opts = append(s.opts, plural.WithGNUTernary())
	}
}

// WithLogger sets the logger for server messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server for catalog.
func New(catalog Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "plural",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Serve listens on addr until Shutdown.
func (s *Server) Serve(addr string) error {
	s.logger.Printf("Starting HTTP server on %q", addr)
	return s.srv.ListenAndServe(addr)
}

// ServeListener serves on ln until Shutdown.
func (s *Server) ServeListener(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops the server, waiting for open requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	requests.Add(1)
	switch string(ctx.Path()) {
	case "/select":
		s.handleSelect(ctx)
	case "/eval":
		s.handleEval(ctx)
	case "/locales":
		s.handleLocales(ctx)
	case "/stats":
		expvarhandler.ExpvarHandler(ctx)
	default:
		s.fail(ctx, fasthttp.StatusNotFound, errors.New("not found"))
	}
}

type selectResponse struct {
	Locale string `json:"locale"`
	N      int64  `json:"n"`
	Index  int    `json:"index"`
}

func (s *Server) handleSelect(ctx *fasthttp.RequestCtx) {
	selects.Add(1)
	locale := string(ctx.QueryArgs().Peek("locale"))
	n, err := count(ctx)
	if err != nil {
		s.fail(ctx, fasthttp.StatusBadRequest, err)
		return
	}
	idx, err := s.catalog.Select(locale, n)
	if errors.Is(err, plural.ErrUnknownLocale) {
		s.fail(ctx, fasthttp.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(ctx, fasthttp.StatusUnprocessableEntity, err)
		return
	}
	s.reply(ctx, selectResponse{Locale: locale, N: n, Index: idx})
}

func (s *Server) handleEval(ctx *fasthttp.RequestCtx) {
	evals.Add(1)
	source := string(ctx.QueryArgs().Peek("expr"))
	n, err := count(ctx)
	if err != nil {
		s.fail(ctx, fasthttp.StatusBadRequest, err)
		return
	}
	p, err := plural.Compile(source, s.opts...)
	if err != nil {
		s.fail(ctx, fasthttp.StatusBadRequest, err)
		return
	}
	vars, err := p.Evaluate(n)
	if err != nil {
		s.fail(ctx, fasthttp.StatusUnprocessableEntity, err)
		return
	}
	s.reply(ctx, vars)
}

func (s *Server) handleLocales(ctx *fasthttp.RequestCtx) {
	locales, err := s.catalog.Locales()
	if err != nil {
		s.fail(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	s.reply(ctx, locales)
}

func count(ctx *fasthttp.RequestCtx) (int64, error) {
	raw := ctx.QueryArgs().Peek("n")
	if len(raw) == 0 {
		return 0, errors.New("missing n")
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, errors.New("n must be an integer")
	}
	return n, nil
}

func (s *Server) reply(ctx *fasthttp.RequestCtx, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		s.fail(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	ctx.Success("application/json", buf)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, err error) {
	failures.Add(1)
	buf, _ := json.Marshal(map[string]string{"error": err.Error()})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(buf)
}
