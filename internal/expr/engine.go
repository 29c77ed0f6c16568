// Package expr compiles and evaluates the user-authored expression sources a
// form carries: computed property expressions, action bodies, slot
// conditions and validation guards. Sources use HCL expression syntax and
// see a sandboxed scope exposing `form.data`, `form.parentData` and
// `form.rootData` plus any call-site bindings (`e`, `args`, `item`,
// `index`). Compiled expressions are cached by source-string identity and
// never re-parsed; the cache is eviction-free because sources are
// form-author controlled and bounded in number.
package expr

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/formweave/internal/ctxlog"
)

// RefScope names the data scope a reference resolves against.
type RefScope string

const (
	RefData   RefScope = "data"
	RefParent RefScope = "parentData"
	RefRoot   RefScope = "rootData"
)

// Ref is one statically extracted data reference of an expression. The
// reactive graph uses these as the expression's read-set.
type Ref struct {
	Scope RefScope
	Key   string
}

// Compiled is a parsed expression plus its extracted references.
type Compiled struct {
	Source string
	Expr   hclsyntax.Expression
	Refs   []Ref
}

// Engine caches compiled expressions by source string.
type Engine struct {
	mu    sync.Mutex
	cache map[string]*Compiled
}

// NewEngine creates an empty expression engine.
func NewEngine() *Engine {
	return &Engine{cache: map[string]*Compiled{}}
}

// Compile parses source into an expression, consulting the cache first.
// Syntax errors are returned to the caller, which by contract logs them and
// treats the expression as producing no value.
func (e *Engine) Compile(ctx context.Context, source string) (*Compiled, error) {
	e.mu.Lock()
	if c, ok := e.cache[source]; ok {
		e.mu.Unlock()
		return c, nil
	}
	e.mu.Unlock()

	parsed, diags := hclsyntax.ParseExpression([]byte(source), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		ctxlog.FromContext(ctx).Warn("Expression failed to compile.",
			"source", source, "error", diags.Error())
		return nil, fmt.Errorf("failed to compile expression %q: %w", source, diags)
	}

	c := &Compiled{Source: source, Expr: parsed, Refs: extractRefs(parsed)}
	e.mu.Lock()
	e.cache[source] = c
	e.mu.Unlock()
	return c, nil
}

// CacheSize reports how many distinct sources are compiled, for diagnostics.
func (e *Engine) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// extractRefs walks the expression's variable traversals and keeps the ones
// rooted in the form data scopes. The traversal set is a static
// over-approximation of the expression's reads, which is exactly what
// dependency tracking needs.
func extractRefs(expr hclsyntax.Expression) []Ref {
	seen := map[Ref]struct{}{}
	var refs []Ref
	for _, traversal := range expr.Variables() {
		ref, ok := refFromTraversal(traversal)
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

func refFromTraversal(t hcl.Traversal) (Ref, bool) {
	if len(t) < 2 || t.RootName() != "form" {
		return Ref{}, false
	}
	scopeAttr, ok := t[1].(hcl.TraverseAttr)
	if !ok {
		return Ref{}, false
	}
	scope := RefScope(scopeAttr.Name)
	switch scope {
	case RefData, RefParent, RefRoot:
	default:
		return Ref{}, false
	}
	if len(t) < 3 {
		// A bare `form.data` read depends on every key; the empty key is
		// the wildcard the reactive graph understands.
		return Ref{Scope: scope}, true
	}
	keyAttr, ok := t[2].(hcl.TraverseAttr)
	if !ok {
		return Ref{Scope: scope}, true
	}
	return Ref{Scope: scope, Key: keyAttr.Name}, true
}
