package loader

import (
	"sync"
	"sync/atomic"
)

// Script is a script element injected into a Document.
type Script struct {
	ID    uint64
	Src   string
	Async bool
}

// Document tracks the script elements of a page. Injectors add one script
// per attempt and remove it again on timeout or error; scripts that loaded
// stay so the page can render them.
type Document struct {
	mu      sync.Mutex
	scripts []*Script
	nextID  atomic.Uint64
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// AppendScript adds an async script element for src.
func (d *Document) AppendScript(src string) *Script {
	s := &Script{ID: d.nextID.Add(1), Src: src, Async: true}
	d.mu.Lock()
	d.scripts = append(d.scripts, s)
	d.mu.Unlock()
	return s
}

// Remove detaches s. Removing a script twice is a no-op.
func (d *Document) Remove(s *Script) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, cur := range d.scripts {
		if cur == s {
			d.scripts = append(d.scripts[:i], d.scripts[i+1:]...)
			return true
		}
	}
	return false
}

// Scripts returns a copy of the attached scripts in insertion order.
func (d *Document) Scripts() []Script {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Script, len(d.scripts))
	for i, s := range d.scripts {
		out[i] = *s
	}
	return out
}

// Sources returns the distinct script sources in insertion order.
func (d *Document) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range d.Scripts() {
		if !seen[s.Src] {
			seen[s.Src] = true
			out = append(out, s.Src)
		}
	}
	return out
}
