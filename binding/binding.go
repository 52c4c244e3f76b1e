// Package binding drives a loader on behalf of one mounted consumer and
// manages the widget instance it creates.
//
// A Binding is the framework-independent form of a UI hook: it tracks load
// status, instantiates the widget with the most recently supplied options,
// and exposes Open, EmbedRef and Close. Load failures never propagate out of
// these calls; they surface through Status, Err, OnError and OnStateChange.
package binding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// ErrUnknownEvent is returned by Dispatch for unrecognised callback names.
var ErrUnknownEvent = errors.New("binding: unknown event")

// State is a snapshot of a binding's reactive state.
type State struct {
	Status loader.Status
	Err    error
}

// Binding coordinates a loader and the widget instance for one consumer.
type Binding struct {
	id     string
	logger *zap.Logger

	shared     *loader.Loader
	loaderOpts []loader.Option

	// latest holds the most recent Options. Instances read it when they are
	// constructed and callbacks read it when they fire.
	latest latestCell

	mu       sync.Mutex
	private  *loader.Loader
	ctor     widget.Constructor
	instance widget.Instance
	embedded widget.Element
	status   loader.Status
	err      error
}

// New creates a binding.
func New(opts Options, bopts ...Option) *Binding {
	cfg := &config{}
	for _, o := range bopts {
		o(cfg)
	}

	b := &Binding{
		id:         cfg.id,
		logger:     cfg.logger,
		shared:     cfg.shared,
		loaderOpts: cfg.loaderOpts,
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.latest.store(opts)
	return b
}

// ID uniquely identifies the binding.
func (b *Binding) ID() string {
	return b.id
}

// Update replaces the options. Instances built afterwards, and callbacks of
// existing instances, see the new values.
func (b *Binding) Update(opts Options) {
	b.latest.store(opts)
}

// Options returns the most recently supplied options.
func (b *Binding) Options() Options {
	return b.latest.load()
}

// Status returns the load status as seen by this binding.
func (b *Binding) Status() loader.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Err returns the last load error, if the status is error.
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// State returns a snapshot of status and error.
func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Status: b.status, Err: b.err}
}

// Instance returns the current widget instance, or nil.
func (b *Binding) Instance() widget.Instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instance
}

// Embedded returns the element the widget is embedded in, or nil.
func (b *Binding) Embedded() widget.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.embedded
}

// Loader returns the loader this binding uses.
func (b *Binding) Loader() *loader.Loader {
	opts := b.latest.load()

	b.mu.Lock()
	defer b.mu.Unlock()

	if opts.customLoader() {
		if b.private == nil {
			lopts := append(append([]loader.Option{}, b.loaderOpts...), opts.loaderConfig()...)
			b.private = loader.New(lopts...)
		}
		return b.private
	}
	if b.shared == nil {
		b.shared = loader.New(b.loaderOpts...)
	}
	return b.shared
}

// Mount warms the loader cache. Failures are ignored and the binding's
// status is left alone; they surface on the next Open or EmbedRef.
func (b *Binding) Mount(ctx context.Context) {
	l := b.Loader()
	go func() {
		if _, err := l.Load(ctx); err != nil {
			b.logger.Debug("postcode preload failed", zap.String("binding", b.id), zap.Error(err))
		}
	}()
}

// Open loads the widget if needed and opens a fresh instance in a popup.
// Fields set in opts override the configured query and auto-close.
func (b *Binding) Open(ctx context.Context, opts *widget.OpenOptions) {
	_, _ = b.OpenInstance(ctx, opts)
}

// OpenInstance is Open returning the instance it opened, or the error that
// prevented it. The error has already been reported through the binding's
// state; callers serving concurrent requests use the result instead of
// reading Instance and State afterwards.
func (b *Binding) OpenInstance(ctx context.Context, opts *widget.OpenOptions) (widget.Instance, error) {
	ctor, err := b.loadConstructor(ctx)
	if err != nil {
		return nil, err
	}

	cur := b.latest.load()
	open := widget.OpenOptions{
		Q:         widget.String(cur.DefaultQuery),
		AutoClose: widget.Bool(cur.autoClose()),
	}
	if opts != nil {
		open = opts.Merge(open)
	}

	inst := b.newInstance(ctor)
	b.mu.Lock()
	b.instance = inst
	b.mu.Unlock()

	inst.Open(open)
	return inst, nil
}

// EmbedRef embeds the widget into el. It is a mount guard rather than a
// toggle: nil and the currently embedded element are ignored.
func (b *Binding) EmbedRef(ctx context.Context, el widget.Element) {
	if el == nil {
		return
	}
	b.mu.Lock()
	if b.embedded == el {
		b.mu.Unlock()
		return
	}
	b.embedded = el
	b.mu.Unlock()

	ctor, err := b.loadConstructor(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned rather than failed: let the next call embed el.
			b.mu.Lock()
			if b.embedded == el {
				b.embedded = nil
			}
			b.mu.Unlock()
		}
		return
	}

	cur := b.latest.load()
	inst := b.newInstance(ctor)
	b.mu.Lock()
	b.instance = inst
	b.mu.Unlock()

	inst.Embed(el, widget.EmbedOptions{
		Q:         widget.String(cur.DefaultQuery),
		AutoClose: widget.Bool(cur.autoClose()),
	})
}

// Close clears the embedded element and reports a forced close. It does not
// touch the loader or the widget instance.
func (b *Binding) Close() {
	b.mu.Lock()
	el := b.embedded
	b.embedded = nil
	b.mu.Unlock()

	if el != nil {
		el.ClearContent()
	}
	if fn := b.latest.load().OnClose; fn != nil {
		fn(widget.ForceClose)
	}
}

// Dispatch delivers a widget callback received from outside the process.
// payload is the JSON the widget passed to its raw callback.
func (b *Binding) Dispatch(event string, payload []byte) error {
	cur := b.latest.load()

	switch event {
	case widget.EventComplete:
		var addr widget.Address
		if err := json.Unmarshal(payload, &addr); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		if cur.OnComplete != nil {
			cur.OnComplete(addr)
		}
	case widget.EventResize:
		var size widget.Size
		if err := json.Unmarshal(payload, &size); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		if cur.OnResize != nil {
			cur.OnResize(size)
		}
	case widget.EventClose:
		var state widget.CloseState
		if err := json.Unmarshal(payload, &state); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		if cur.OnClose != nil {
			cur.OnClose(state)
		}
	case widget.EventSearch:
		var data widget.SearchData
		if err := json.Unmarshal(payload, &data); err != nil {
			return fmt.Errorf("decode %s payload: %w", event, err)
		}
		if cur.OnSearch != nil {
			cur.OnSearch(data)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return nil
}

func (b *Binding) loadConstructor(ctx context.Context) (widget.Constructor, error) {
	b.mu.Lock()
	if b.ctor != nil {
		ctor := b.ctor
		b.mu.Unlock()
		return ctor, nil
	}
	prev := State{Status: b.status, Err: b.err}
	b.mu.Unlock()

	b.setState(loader.StatusLoading, nil)

	ctor, err := b.Loader().Load(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Only this caller stopped waiting; the shared load carries on.
		b.setState(prev.Status, prev.Err)
		return nil, err
	}
	if err != nil {
		b.logger.Warn("postcode load failed", zap.String("binding", b.id), zap.Error(err))
		b.setState(loader.StatusError, err)
		if fn := b.latest.load().OnError; fn != nil {
			fn(err)
		}
		return nil, err
	}

	b.mu.Lock()
	b.ctor = ctor
	b.mu.Unlock()
	b.setState(loader.StatusReady, nil)
	return ctor, nil
}

// newInstance builds an instance whose callbacks always reach the latest
// user-supplied handlers.
func (b *Binding) newInstance(ctor widget.Constructor) widget.Instance {
	opts := b.latest.load().Options
	opts.Key = b.id
	opts.OnComplete = func(a widget.Address) {
		if fn := b.latest.load().OnComplete; fn != nil {
			fn(a)
		}
	}
	opts.OnResize = func(s widget.Size) {
		if fn := b.latest.load().OnResize; fn != nil {
			fn(s)
		}
	}
	opts.OnClose = func(s widget.CloseState) {
		if fn := b.latest.load().OnClose; fn != nil {
			fn(s)
		}
	}
	opts.OnSearch = func(d widget.SearchData) {
		if fn := b.latest.load().OnSearch; fn != nil {
			fn(d)
		}
	}
	return ctor.New(opts)
}

func (b *Binding) setState(status loader.Status, err error) {
	b.mu.Lock()
	b.status = status
	b.err = err
	b.mu.Unlock()

	if fn := b.latest.load().OnStateChange; fn != nil {
		fn(State{Status: status, Err: err})
	}
}

// latestCell is the current-value indirection for Options.
type latestCell struct {
	mu   sync.RWMutex
	opts Options
}

func (c *latestCell) store(o Options) {
	c.mu.Lock()
	c.opts = o
	c.mu.Unlock()
}

func (c *latestCell) load() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}
