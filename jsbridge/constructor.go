// Package jsbridge implements widget.Constructor by emitting the browser
// JavaScript that drives the real vendor widget.
//
// Instances do not talk to the vendor at all. Open records a statement the
// caller sends to the browser; Embed writes a script into the anchor element.
// Widget callbacks become fetch calls that POST the callback payload back to
// the server, where the callback registry hands them to the owning binding.
package jsbridge

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// EventURLFunc returns the URL a callback for key should be posted to.
type EventURLFunc func(key, event string) string

// Constructor builds script-emitting instances.
type Constructor struct {
	// Namespace is the global the vendor constructor lives under.
	Namespace string
	// EventURL wires widget callbacks. Nil leaves callbacks unwired.
	EventURL EventURLFunc
}

// New returns a Constructor for the primary namespace.
func New(eventURL EventURLFunc) *Constructor {
	return &Constructor{Namespace: loader.PrimaryNamespace, EventURL: eventURL}
}

// New implements widget.Constructor. Callback URLs are built from opts.Key.
func (c *Constructor) New(opts widget.Options) widget.Instance {
	return &Instance{ctor: c, opts: opts, key: opts.Key}
}

// Instance records the JavaScript for one widget instance.
type Instance struct {
	ctor *Constructor
	opts widget.Options
	key  string

	mu         sync.Mutex
	statements []string
}

// Open implements widget.Instance.
func (i *Instance) Open(opts widget.OpenOptions) {
	stmt := fmt.Sprintf("%s.open(%s);", i.construct(), mustJSON(opts))
	i.mu.Lock()
	i.statements = append(i.statements, stmt)
	i.mu.Unlock()
}

// Embed implements widget.Instance.
func (i *Instance) Embed(el widget.Element, opts widget.EmbedOptions) {
	stmt := fmt.Sprintf("%s.embed(document.getElementById(%s), %s);",
		i.construct(), mustJSON(el.ID()), mustJSON(opts))
	el.SetContent("<script>" + stmt + "</script>")
}

// Script returns the statements recorded by Open, in order.
func (i *Instance) Script() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return strings.Join(i.statements, "\n")
}

// Key returns the key callbacks are tagged with.
func (i *Instance) Key() string {
	return i.key
}

// Options returns the options the instance was built with.
func (i *Instance) Options() widget.Options {
	return i.opts
}

func (i *Instance) construct() string {
	ns := i.ctor.Namespace
	if ns == "" {
		ns = loader.PrimaryNamespace
	}
	return fmt.Sprintf("new %s.Postcode(%s)", ns, i.optionsJS())
}

// optionsJS renders the options object. Callbacks cannot be expressed in
// JSON, so they are merged in with Object.assign.
func (i *Instance) optionsJS() string {
	base := mustJSON(i.opts)
	if i.ctor.EventURL == nil || i.key == "" {
		return base
	}

	var cbs []string
	add := func(name, event string, set bool) {
		if !set {
			return
		}
		url := i.ctor.EventURL(i.key, event)
		cbs = append(cbs, fmt.Sprintf("%s:function(d){fetch(%s,{method:\"POST\",headers:{\"Content-Type\":\"application/json\",\"HX-Request\":\"true\"},body:JSON.stringify(d)})}",
			name, mustJSON(url)))
	}
	add("oncomplete", widget.EventComplete, i.opts.OnComplete != nil)
	add("onresize", widget.EventResize, i.opts.OnResize != nil)
	add("onclose", widget.EventClose, i.opts.OnClose != nil)
	add("onsearch", widget.EventSearch, i.opts.OnSearch != nil)

	if len(cbs) == 0 {
		return base
	}
	return fmt.Sprintf("Object.assign(%s,{%s})", base, strings.Join(cbs, ","))
}

// mustJSON encodes v for inline use in a script element. encoding/json
// escapes <, > and &, so the output cannot close the element.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
