package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nickandperla.net/plural/pkg/plural"
)

// checkLimit is the largest count tried when checking a rule's range.
const checkLimit = 1000

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path     string
	source   string
	errors   []string
	noHeader bool
}

// checkFile extracts the Plural-Forms header of a PO file, compiles it and
// checks that plural stays within [0, nplurals) for counts 0..checkLimit.
func checkFile(path string, opts ...plural.Option) checkResult {
	res := checkResult{path: path}
	content, err := os.ReadFile(path)
	if err != nil {
		res.errors = []string{fmt.Sprintf("read error: %v", err)}
		return res
	}

	res.source, err = plural.ParseHeader(string(content))
	if errors.Is(err, plural.ErrNoPluralForms) {
		res.noHeader = true
		return res
	}
	if err != nil {
		res.errors = []string{err.Error()}
		return res
	}

	p, err := plural.Compile(res.source, opts...)
	if err != nil {
		res.errors = []string{err.Error()}
		return res
	}
	nplurals, ok := p.NPlurals()
	if !ok {
		res.errors = append(res.errors, "nplurals is not a literal")
	}
	for n := int64(0); n <= checkLimit; n++ {
		vars, err := p.Evaluate(n)
		if err != nil {
			res.errors = append(res.errors, fmt.Sprintf("n=%d: %v", n, err))
			break
		}
		v, has := vars[plural.PluralVar]
		if !has {
			res.errors = append(res.errors, "plural is not declared")
			break
		}
		if ok && (v < 0 || v >= int64(nplurals)) {
			res.errors = append(res.errors, fmt.Sprintf("n=%d: plural=%d out of range for nplurals=%d", n, v, nplurals))
			break
		}
	}
	return res
}

// findPOFiles recursively finds all .po and .pot files under dir.
func findPOFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (strings.HasSuffix(d.Name(), ".po") || strings.HasSuffix(d.Name(), ".pot")) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// runCheck checks files and every PO file under dir. It returns the exit
// status: 1 if any file failed.
func runCheck(files []string, dir string, gnu bool, stdout, stderr io.Writer) int {
	if dir != "" {
		found, err := findPOFiles(dir)
		if err != nil {
			fmt.Fprintf(stderr, "Error scanning directory %s: %v\n", dir, err)
			return 1
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		fmt.Fprintln(stderr, "No .po files found")
		return 1
	}

	var opts []plural.Option
	if gnu {
		opts = append(opts, plural.WithGNUTernary())
	}

	passed := 0
	failed := 0
	skipped := 0

	for _, f := range files {
		result := checkFile(f, opts...)
		switch {
		case result.noHeader:
			skipped++
			fmt.Fprintf(stdout, "SKIP %s (no Plural-Forms)\n", f)
		case len(result.errors) > 0:
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n", f)
			for _, e := range result.errors {
				fmt.Fprintf(stdout, "     %s\n", e)
			}
		default:
			passed++
			fmt.Fprintf(stdout, "OK   %s\n", f)
		}
	}

	fmt.Fprintf(stdout, "\n--- Summary ---\n")
	fmt.Fprintf(stdout, "Passed:  %d\n", passed)
	fmt.Fprintf(stdout, "Skipped: %d\n", skipped)
	fmt.Fprintf(stdout, "Failed:  %d\n", failed)
	fmt.Fprintf(stdout, "Total:   %d\n", len(files))

	if failed > 0 {
		return 1
	}
	return 0
}
