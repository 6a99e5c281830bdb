// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides persistence for plural-form rules.
package store

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrDigestMismatch is returned when a stored rule no longer matches the
// digest recorded for it.
var ErrDigestMismatch = errors.New("rule digest mismatch")

// Rule is the Plural-Forms source registered for a locale.
type Rule struct {
	Locale string
	Source string
	Digest string // hex BLAKE3 of Source
}

// NewRule creates a rule with its digest filled in.
func NewRule(locale, source string) Rule {
	return Rule{Locale: locale, Source: source, Digest: Digest(source)}
}

// Digest returns the hex BLAKE3-256 digest of source.
func Digest(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Verify checks the rule's digest against its source.
func (r Rule) Verify() error {
	if want := Digest(r.Source); r.Digest != want {
		return fmt.Errorf("%s: %w", r.Locale, ErrDigestMismatch)
	}
	return nil
}

// seal fills in a missing digest and rejects a wrong one.
func seal(r Rule) (Rule, error) {
	if r.Locale == "" {
		return r, errors.New("rule has no locale")
	}
	if r.Digest == "" {
		r.Digest = Digest(r.Source)
		return r, nil
	}
	return r, r.Verify()
}

// Store is the interface for rule persistence.
type Store interface {
	// Get retrieves the current rule for a locale. Returns nil if not found.
	Get(locale string) (*Rule, error)
	// Put stores a rule, replacing the current one for its locale.
	Put(r Rule) error
	// Delete removes a locale and its history.
	Delete(locale string) error
	// List returns the stored locales in sorted order.
	List() ([]string, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a stored rule.
type VersionEntry struct {
	Version int
	Source  string
	Digest  string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(locale string, limit int) ([]VersionEntry, error)
}
