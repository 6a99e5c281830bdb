package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"nickandperla.net/plural/pkg/plural"
)

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	c, err := plural.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	opts = append(opts, WithLogger(log.New(io.Discard, "", 0)))
	return New(c, opts...)
}

func do(s *Server, uri string) (int, []byte) {
	var req fasthttp.Request
	req.SetRequestURI(uri)
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.Handler(&ctx)
	return ctx.Response.StatusCode(), ctx.Response.Body()
}

func TestSelect(t *testing.T) {
	s := newServer(t)

	status, body := do(s, "/select?locale=pl&n=22")
	if status != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var got selectResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Locale != "pl" || got.N != 22 || got.Index != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestEval(t *testing.T) {
	s := newServer(t)
	expr := url.QueryEscape("x = 1 ? 0 : 1 ? 22 : 33;")

	status, body := do(s, "/eval?n=0&expr="+expr)
	if status != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var vars map[string]int64
	if err := json.Unmarshal(body, &vars); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vars["x"] != 33 || vars["n"] != 0 {
		t.Errorf("got %v", vars)
	}

	gnu := newServer(t, WithGNUTernary())
	_, body = do(gnu, "/eval?n=0&expr="+expr)
	vars = nil
	if err := json.Unmarshal(body, &vars); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vars["x"] != 0 {
		t.Errorf("gnu grouping: got %v", vars)
	}
}

func TestErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		uri    string
		status int
		msg    string
	}{
		{"Unknown locale", "/select?locale=xx&n=1", fasthttp.StatusNotFound, "unknown locale"},
		{"Missing n", "/select?locale=en", fasthttp.StatusBadRequest, "missing n"},
		{"Bad n", "/select?locale=en&n=abc", fasthttp.StatusBadRequest, "integer"},
		{"Compile error", "/eval?n=1&expr=" + url.QueryEscape("x=();"), fasthttp.StatusBadRequest, "empty bracket"},
		{"Evaluation error", "/eval?n=1&expr=" + url.QueryEscape("x=n/0;"), fasthttp.StatusUnprocessableEntity, "division by zero"},
		{"Unknown path", "/nope", fasthttp.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(s, tt.uri)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			var resp map[string]string
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatalf("unmarshal %q: %v", body, err)
			}
			if !strings.Contains(resp["error"], tt.msg) {
				t.Errorf("error = %q, want it to contain %q", resp["error"], tt.msg)
			}
		})
	}
}

func TestLocalesAndStats(t *testing.T) {
	s := newServer(t)

	status, body := do(s, "/locales")
	if status != fasthttp.StatusOK {
		t.Fatalf("status %d", status)
	}
	var locales []string
	if err := json.Unmarshal(body, &locales); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(locales) == 0 || locales[0] != "ar" {
		t.Errorf("locales = %v", locales)
	}

	do(s, "/select?locale=en&n=1")
	status, body = do(s, "/stats")
	if status != fasthttp.StatusOK {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(string(body), "pluralSelects") {
		t.Errorf("stats lack counters: %s", body)
	}
}

func TestServeAndShutdown(t *testing.T) {
	s := newServer(t)
	ln := fasthttputil.NewInmemoryListener()

	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ln) }()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	status, body, err := client.Get(nil, "http://plural/select?locale=ru&n=5")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != fasthttp.StatusOK || !strings.Contains(string(body), `"index":2`) {
		t.Errorf("status %d body %s", status, body)
	}

	client.CloseIdleConnections()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
