package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePO(t *testing.T, dir, name, pluralForms string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("msgid \"\"\nmsgstr \"\"\n\"Content-Type: text/plain; charset=UTF-8\\n\"\n")
	if pluralForms != "" {
		sb.WriteString("\"Plural-Forms: " + pluralForms + "\\n\"\n")
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		forms    string
		noHeader bool
		errMsg   string
	}{
		{"pl.po", "nplurals=3; plural=(n==1 ? 0 : (n%10>=2 && n%10<=4 && (n%100<12 || n%100>14) ? 1 : 2));", false, ""},
		{"range.po", "nplurals=2; plural=n;", false, "n=2: plural=2 out of range for nplurals=2"},
		{"syntax.po", "nplurals=2; plural=(n != 1;", false, "missing close bracket"},
		{"eval.po", "nplurals=2; plural=n / (n - 3);", false, "n=3:"},
		{"computed.po", "nplurals=1+1; plural=0;", false, "nplurals is not a literal"},
		{"missing.po", "nplurals=2; x=n;", false, "plural is not declared"},
		{"plain.po", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checkFile(writePO(t, dir, tt.name, tt.forms))
			if res.noHeader != tt.noHeader {
				t.Errorf("noHeader = %v, want %v", res.noHeader, tt.noHeader)
			}
			if tt.errMsg == "" {
				if len(res.errors) != 0 {
					t.Errorf("unexpected errors %v", res.errors)
				}
				return
			}
			if len(res.errors) == 0 || !strings.Contains(strings.Join(res.errors, "\n"), tt.errMsg) {
				t.Errorf("errors %v do not mention %q", res.errors, tt.errMsg)
			}
		})
	}

	if res := checkFile(filepath.Join(dir, "absent.po")); len(res.errors) == 0 {
		t.Error("expected read error")
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	good := writePO(t, dir, "de/messages.po", "nplurals=2; plural=(n != 1);")
	writePO(t, dir, "fr/messages.pot", "nplurals=2; plural=(n > 1);")
	writePO(t, dir, "xx/messages.po", "nplurals=2; plural=n;")
	writePO(t, dir, "yy/messages.po", "")
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("Plural-Forms: x"), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if code := runCheck(nil, dir, false, &out, &errOut); code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	got := out.String()
	for _, want := range []string{
		"OK   " + good,
		"OK   " + filepath.Join(dir, "fr/messages.pot"),
		"FAIL " + filepath.Join(dir, "xx/messages.po"),
		"SKIP " + filepath.Join(dir, "yy/messages.po"),
		"Passed:  2\n",
		"Skipped: 1\n",
		"Failed:  1\n",
		"Total:   4\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "README") {
		t.Error("non-PO file was checked")
	}

	out.Reset()
	if code := runCheck([]string{good}, "", false, &out, &errOut); code != 0 {
		t.Errorf("single good file: exit %d\n%s", code, out.String())
	}

	errOut.Reset()
	if code := runCheck(nil, t.TempDir(), false, &out, &errOut); code != 1 {
		t.Errorf("empty dir: exit %d", code)
	}
	if !strings.Contains(errOut.String(), "No .po files found") {
		t.Errorf("stderr %q", errOut.String())
	}
}

func TestRunCheckFlag(t *testing.T) {
	path := writePO(t, t.TempDir(), "messages.po", "nplurals=2; plural=(n != 1);")
	code, out, errOut := runCLI(t, "", "-check", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "OK   "+path) {
		t.Errorf("unexpected output:\n%s", out)
	}
}
