// Command plural compiles and evaluates gettext Plural-Forms expressions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"nickandperla.net/plural/internal/server"
	"nickandperla.net/plural/pkg/plural"
)

// maxCounts bounds the values a single -n list may expand to.
const maxCounts = 100000

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plural", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		evalStr    = fs.String("e", "", "Compile a plural-form program")
		headerFile = fs.String("header", "", "Read Plural-Forms from a PO file header (- for stdin)")
		locale     = fs.String("locale", "", "Use or register the rule for a locale")
		counts     = fs.String("n", "", "Counts to evaluate, e.g. 0,1,2,5..10")
		dbPath     = fs.String("db", "plural.db", "SQLite database path (empty for memory only)")
		register   = fs.Bool("register", false, "Store the -e or -header rule under -locale")
		list       = fs.Bool("list", false, "List known locales")
		history    = fs.Bool("history", false, "Show stored revisions of -locale")
		showAST    = fs.Bool("ast", false, "Print the parsed program")
		serveAddr  = fs.String("serve", "", "Serve the catalog over HTTP on this address")
		noDefaults = fs.Bool("no-defaults", false, "Disable built-in locale rules")
		noColor    = fs.Bool("no-color", false, "Disable colored output")
		gnu        = fs.Bool("gnu", false, "Group chained ternaries as C and GNU gettext do")
		verbose    = fs.Bool("v", false, "Log catalog activity")
		check      = fs.Bool("check", false, "Check the Plural-Forms of PO files given as arguments")
		checkDir   = fs.String("dir", "", "With -check, also check every PO file under this directory")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *noColor {
		color.NoColor = true
	}
	errOut := color.New(color.FgRed)
	fail := func(format string, a ...any) int {
		errOut.Fprintf(stderr, "Error: "+format+"\n", a...)
		return 1
	}

	if *check {
		return runCheck(fs.Args(), *checkDir, *gnu, stdout, stderr)
	}

	// Build options
	opts := []plural.Option{}
	if *dbPath != "" {
		opts = append(opts, plural.WithSQLiteStore(*dbPath))
	} else {
		opts = append(opts, plural.WithMemoryStore())
	}
	if *gnu {
		opts = append(opts, plural.WithGNUTernary())
	}
	if *noDefaults {
		opts = append(opts, plural.WithNoDefaults())
	}
	if *verbose {
		opts = append(opts, plural.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	catalog, err := plural.New(opts...)
	if err != nil {
		return fail("%v", err)
	}
	defer catalog.Close()

	ns, err := parseCounts(*counts)
	if err != nil {
		return fail("-n: %v", err)
	}

	switch {
	case *serveAddr != "":
		return serve(catalog, *serveAddr, *gnu, stderr)

	case *list:
		locales, err := catalog.Locales()
		if err != nil {
			return fail("%v", err)
		}
		for _, l := range locales {
			p, err := catalog.Lookup(l)
			if err != nil {
				return fail("%s: %v", l, err)
			}
			fmt.Fprintf(stdout, "%s\t%s\n", l, p.Source())
		}
		return 0

	case *history:
		if *locale == "" {
			return fail("-history needs -locale")
		}
		revs, err := catalog.History(*locale, 0)
		if err != nil {
			return fail("%v", err)
		}
		for _, r := range revs {
			fmt.Fprintf(stdout, "v%d\t%s\t%s\t%s\n", r.Version, r.Time, shortDigest(r.Digest), r.Source)
		}
		return 0
	}

	// Determine the program
	var (
		source     string
		fromLocale bool
	)
	switch {
	case *evalStr != "":
		source = *evalStr
	case *headerFile != "":
		data, err := readFile(*headerFile, stdin)
		if err != nil {
			return fail("%v", err)
		}
		source, err = plural.ParseHeader(string(data))
		if err != nil {
			return fail("%s: %v", *headerFile, err)
		}
	case *locale != "":
		fromLocale = true
	case isTerminal(stdin):
		runREPL(newSession(catalog, *gnu, stdout, stderr), stdin)
		return 0
	default:
		// Piped input
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fail("reading stdin: %v", err)
		}
		source = string(data)
	}

	var prog *plural.Program
	if !fromLocale {
		var copts []plural.Option
		if *gnu {
			copts = append(copts, plural.WithGNUTernary())
		}
		prog, err = plural.Compile(source, copts...)
		if err != nil {
			return fail("%v", err)
		}
		if *register {
			if *locale == "" {
				return fail("-register needs -locale")
			}
			if err := catalog.Register(*locale, source); err != nil {
				return fail("%v", err)
			}
			fmt.Fprintf(stdout, "registered %s\n", *locale)
		}
	} else {
		prog, err = catalog.Lookup(*locale)
		if err != nil {
			return fail("%v", err)
		}
	}

	if *showAST || (len(ns) == 0 && !*register) {
		fmt.Fprintln(stdout, prog.String())
	}
	for _, n := range ns {
		line, err := describe(prog, n)
		if err != nil {
			return fail("n=%d: %v", n, err)
		}
		fmt.Fprintln(stdout, line)
	}
	return 0
}

func serve(catalog *plural.Catalog, addr string, gnu bool, stderr io.Writer) int {
	logger := log.New(stderr, "", log.LstdFlags)
	var sopts []server.Option
	sopts = append(sopts, server.WithLogger(logger))
	if gnu {
		sopts = append(sopts, server.WithGNUTernary())
	}
	srv := server.New(catalog, sopts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Serve(addr); err != nil {
		logger.Printf("error in ListenAndServe: %v", err)
		return 1
	}
	return 0
}

// describe evaluates prog for n and formats the bindings in declaration
// order, followed by the selected form when the program has one.
func describe(prog *plural.Program, n int64) (string, error) {
	vars, err := prog.Evaluate(n)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "n=%d", n)
	for _, name := range prog.Names() {
		if name == "n" {
			continue
		}
		fmt.Fprintf(&sb, " %s=%d", name, vars[name])
	}
	idx, err := prog.Select(n)
	if err == nil {
		fmt.Fprintf(&sb, " -> form %d", idx)
	} else if !errors.Is(err, plural.ErrNoPlural) {
		return "", err
	}
	return sb.String(), nil
}

// parseCounts parses "0,1,5..10" into a list of counts.
func parseCounts(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "..")
		if !isRange {
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid count %q", part)
			}
			out = append(out, n)
			continue
		}
		a, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q", lo)
		}
		b, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q", hi)
		}
		if b < a {
			return nil, fmt.Errorf("empty range %s", part)
		}
		if width := uint64(b) - uint64(a); width >= maxCounts || uint64(len(out))+width >= maxCounts {
			return nil, fmt.Errorf("too many counts (max %d)", maxCounts)
		}
		for n := a; ; n++ {
			out = append(out, n)
			if n == b {
				break
			}
		}
	}
	return out, nil
}

// shortDigest abbreviates a digest for display.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
