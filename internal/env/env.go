// Package env composes the child process environment: OS environment as the
// base, configured overrides on top, then per-launch entries last.
package env

import (
	"os"
	"sort"
	"strings"
)

type Var map[string]string

type Env struct {
	Var Var // configured overrides (K->V)
	env Var // cached base from OS environment
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			base[k] = kv[i+1:]
		}
	}
	e.env = base
}

// Set records an override K=V.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// SetAll records every entry of m as an override.
func (e *Env) SetAll(m map[string]string) {
	for k, v := range m {
		e.Set(k, v)
	}
}

// Merge composes the final environment slice in "K=V" form. Precedence:
// OS base, then e.Var, then perLaunch last. Output is sorted for
// deterministic child environments.
func (e *Env) Merge(perLaunch []string) []string {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var, len(e.env)+len(e.Var)+len(perLaunch))
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	for _, kv := range perLaunch {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			m[k] = kv[i+1:]
		}
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
