package loader

import (
	"sync"

	"github.com/pthm/hxpostcode/widget"
)

// Namespaces the vendor script publishes its constructor under.
const (
	PrimaryNamespace   = "kakao"
	SecondaryNamespace = "daum"
)

// Resolver looks up an already-published constructor. It has no side effects.
type Resolver interface {
	Resolve() (widget.Constructor, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func() (widget.Constructor, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve() (widget.Constructor, bool) {
	return f()
}

// Globals is the shared environment scripts publish constructors into,
// keyed by namespace. Safe for concurrent use.
type Globals struct {
	mu sync.RWMutex
	ns map[string]widget.Constructor
}

// NewGlobals returns an empty environment.
func NewGlobals() *Globals {
	return &Globals{ns: make(map[string]widget.Constructor)}
}

// Set publishes ctor under namespace.
func (g *Globals) Set(namespace string, ctor widget.Constructor) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ns[namespace] = ctor
}

// Get returns the constructor under namespace.
func (g *Globals) Get(namespace string) (widget.Constructor, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ctor, ok := g.ns[namespace]
	return ctor, ok && ctor != nil
}

// Delete removes namespace.
func (g *Globals) Delete(namespace string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ns, namespace)
}

// NamespaceResolver resolves from Globals, preferring Primary over Secondary.
type NamespaceResolver struct {
	Globals   *Globals
	Primary   string
	Secondary string
}

// NewNamespaceResolver resolves kakao first, then daum.
func NewNamespaceResolver(g *Globals) *NamespaceResolver {
	return &NamespaceResolver{
		Globals:   g,
		Primary:   PrimaryNamespace,
		Secondary: SecondaryNamespace,
	}
}

// Resolve implements Resolver.
func (r *NamespaceResolver) Resolve() (widget.Constructor, bool) {
	if r.Globals == nil {
		return nil, false
	}
	if ctor, ok := r.Globals.Get(r.Primary); ok {
		return ctor, true
	}
	if r.Secondary == "" {
		return nil, false
	}
	return r.Globals.Get(r.Secondary)
}
