// Package guard gates destructive API operations behind explicit
// confirmation.
package guard

import (
	"fmt"
	"net/http"
	"strings"
)

// DefaultDestructiveMethods are the HTTP methods gated by default.
var DefaultDestructiveMethods = []string{http.MethodDelete, http.MethodPut, http.MethodPatch}

// Verdict is the outcome of a guardrail check.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Warning string `json:"warning,omitempty"`
}

// Guardrails classifies operations as destructive and blocks them until
// the caller confirms. Pure logic, no I/O.
type Guardrails struct {
	destructive map[string]bool
}

// New creates guardrails for the given destructive methods, defaulting
// to DELETE, PUT, and PATCH when none are given.
func New(methods ...string) *Guardrails {
	if len(methods) == 0 {
		methods = DefaultDestructiveMethods
	}
	destructive := make(map[string]bool, len(methods))
	for _, m := range methods {
		destructive[strings.ToUpper(m)] = true
	}
	return &Guardrails{destructive: destructive}
}

// IsDestructive reports whether the method is gated.
func (g *Guardrails) IsDestructive(method string) bool {
	return g.destructive[strings.ToUpper(method)]
}

// Check decides whether an operation may proceed. Safe methods always
// pass; destructive ones pass only when confirmed.
func (g *Guardrails) Check(method, path string, confirmed bool) Verdict {
	method = strings.ToUpper(method)

	if !g.destructive[method] || confirmed {
		return Verdict{Allowed: true}
	}

	return Verdict{
		Allowed: false,
		Warning: fmt.Sprintf(
			"This is a destructive operation (%s %s). Set confirmed=true to proceed with this operation.",
			method, path,
		),
	}
}
