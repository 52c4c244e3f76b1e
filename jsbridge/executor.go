package jsbridge

import (
	"bytes"
	"context"
	"errors"

	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// ErrNoConstructor is returned when a fetched script does not look like the
// postcode bundle.
var ErrNoConstructor = errors.New("jsbridge: script does not define Postcode")

// Executor stands in for the browser evaluating the vendor script: once the
// body has been fetched it publishes Constructor under Namespace.
type Executor struct {
	Globals     *loader.Globals
	Namespace   string
	Constructor widget.Constructor
	// Marker, when set, must appear in the script body.
	Marker []byte
}

// NewExecutor publishes ctor under the primary namespace, requiring the body
// to mention "Postcode".
func NewExecutor(g *loader.Globals, ctor widget.Constructor) *Executor {
	return &Executor{
		Globals:     g,
		Namespace:   loader.PrimaryNamespace,
		Constructor: ctor,
		Marker:      []byte("Postcode"),
	}
}

// Execute implements loader.Executor.
func (e *Executor) Execute(ctx context.Context, s loader.Script, body []byte) error {
	if len(e.Marker) > 0 && !bytes.Contains(body, e.Marker) {
		return ErrNoConstructor
	}
	// The injector has already given up on this script.
	if err := ctx.Err(); err != nil {
		return err
	}
	e.Globals.Set(e.Namespace, e.Constructor)
	return nil
}
