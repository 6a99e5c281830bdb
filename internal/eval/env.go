// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval evaluates compiled plural-form programs.
package eval

// Env holds the variable bindings of one evaluation. Each Evaluate call
// builds its own Env, so it carries no lock.
type Env struct {
	vars map[string]int64
}

// NewEnv creates a new empty environment.
func NewEnv() *Env {
	return &Env{
		vars: make(map[string]int64),
	}
}

// Get retrieves a binding by name.
func (e *Env) Get(name string) (int64, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Set binds name to v, replacing any earlier binding.
func (e *Env) Set(name string, v int64) {
	e.vars[name] = v
}

// Has returns true if the name is bound.
func (e *Env) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Map returns a copy of the bindings.
func (e *Env) Map() map[string]int64 {
	out := make(map[string]int64, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}
