// Package stdlib holds the default Plural-Forms rules shipped with the
// binary.
package stdlib

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed rules.tsv
var rulesTSV string

var (
	parseOnce sync.Once
	rules     map[string]string
	parseErr  error
)

func load() {
	rules, parseErr = Parse(rulesTSV)
}

// Parse reads locale<TAB>rule lines. Blank lines and lines starting with
// '#' are skipped.
func Parse(data string) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		locale, rule, ok := strings.Cut(text, "\t")
		locale, rule = strings.TrimSpace(locale), strings.TrimSpace(rule)
		if !ok || locale == "" || rule == "" {
			return nil, fmt.Errorf("rules line %d: expected locale<TAB>rule", line)
		}
		if _, dup := out[locale]; dup {
			return nil, fmt.Errorf("rules line %d: duplicate locale %q", line, locale)
		}
		out[locale] = rule
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Rules returns a copy of the embedded rules keyed by locale.
func Rules() map[string]string {
	parseOnce.Do(load)
	if parseErr != nil {
		panic("stdlib: embedded rules: " + parseErr.Error())
	}
	out := make(map[string]string, len(rules))
	for k, v := range rules {
		out[k] = v
	}
	return out
}

// Lookup returns the embedded rule for a locale.
func Lookup(locale string) (string, bool) {
	parseOnce.Do(load)
	r, ok := rules[locale]
	return r, ok
}
