package widget

import "sync"

// Element is the anchor an instance embeds into. Implementations are
// compared by identity.
type Element interface {
	ID() string
	// SetContent replaces the element's inner HTML.
	SetContent(html string)
	// ClearContent empties the element.
	ClearContent()
}

// Anchor is an in-memory Element. Components render its content inside the
// mount surface they emit.
type Anchor struct {
	id string

	mu      sync.RWMutex
	content string
}

// NewAnchor returns an empty anchor with the given DOM id.
func NewAnchor(id string) *Anchor {
	return &Anchor{id: id}
}

// ID returns the DOM id.
func (a *Anchor) ID() string { return a.id }

// SetContent replaces the anchor's inner HTML.
func (a *Anchor) SetContent(html string) {
	a.mu.Lock()
	a.content = html
	a.mu.Unlock()
}

// ClearContent empties the anchor.
func (a *Anchor) ClearContent() {
	a.SetContent("")
}

// Content returns the anchor's inner HTML.
func (a *Anchor) Content() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.content
}
