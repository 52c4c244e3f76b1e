package hxpostcode

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/widget"
)

// DefaultPrefix is where Registry routes are mounted.
const DefaultPrefix = "/_postcode/"

// maxPayload caps callback request bodies.
const maxPayload = 64 << 10

// Scripter is implemented by widget instances whose Open produces browser
// script (see package jsbridge).
type Scripter interface {
	Script() string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrefix sets the URL prefix. It must start and end with "/".
func WithPrefix(prefix string) RegistryOption {
	return func(reg *Registry) {
		reg.prefix = prefix
	}
}

// WithSealedTokens encrypts binding tokens instead of signing them.
func WithSealedTokens() RegistryOption {
	return func(reg *Registry) {
		reg.sealed = true
	}
}

// WithRateLimit limits callback and open requests across all bindings.
func WithRateLimit(limit rate.Limit, burst int) RegistryOption {
	return func(reg *Registry) {
		reg.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(reg *Registry) {
		reg.logger = l
	}
}

// Registry tracks live bindings and serves the routes browsers use to reach
// them: opening a popup and delivering widget callbacks.
//
//	reg := hxpostcode.NewRegistry(key)
//	reg.Add(b)
//	http.Handle(hxpostcode.DefaultPrefix, reg.Handler())
type Registry struct {
	mu       sync.RWMutex
	mux      *http.ServeMux
	encoder  *Encoder
	bindings map[string]*binding.Binding
	prefix   string
	sealed   bool
	limiter  *rate.Limiter
	logger   *zap.Logger

	// OnError is called when a request cannot be served.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a registry whose tokens are protected with key.
func NewRegistry(key []byte, opts ...RegistryOption) *Registry {
	enc, err := NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("hxpostcode: failed to create encoder: %v", err))
	}

	reg := &Registry{
		mux:      http.NewServeMux(),
		encoder:  enc,
		bindings: make(map[string]*binding.Binding),
		prefix:   DefaultPrefix,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(reg)
	}

	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case IsNotFound(err):
			http.Error(w, "Not found", http.StatusNotFound)
		case IsTokenError(err):
			http.Error(w, "Bad request", http.StatusBadRequest)
		case IsRateLimited(err):
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		default:
			http.Error(w, "Bad request", http.StatusBadRequest)
		}
	}

	reg.mux.HandleFunc("POST "+reg.prefix+"{token}/open", reg.handleOpen)
	reg.mux.HandleFunc("POST "+reg.prefix+"{token}/event/{event}", reg.handleEvent)
	return reg
}

// Prefix returns the URL prefix routes are mounted under.
func (reg *Registry) Prefix() string {
	return reg.prefix
}

// Add registers bindings. Adding the same binding twice is a no-op.
func (reg *Registry) Add(bindings ...*binding.Binding) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, b := range bindings {
		reg.bindings[b.ID()] = b
	}
}

// Remove unregisters a binding. Tokens issued for it stop resolving.
func (reg *Registry) Remove(b *binding.Binding) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.bindings, b.ID())
}

// Get returns the binding registered under id.
func (reg *Registry) Get(id string) (*binding.Binding, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	b, ok := reg.bindings[id]
	return b, ok
}

// Token issues the URL token for a binding ID.
func (reg *Registry) Token(id string) string {
	token, err := reg.encoder.Token(id, reg.sealed)
	if err != nil {
		reg.logger.Error("issue token", zap.String("binding", id), zap.Error(err))
		return ""
	}
	return token
}

// OpenURL is the route that opens b's popup.
func (reg *Registry) OpenURL(b *binding.Binding) string {
	return reg.prefix + reg.Token(b.ID()) + "/open"
}

// EventURL is the route the widget posts event callbacks for id to. Its
// signature matches jsbridge.EventURLFunc.
func (reg *Registry) EventURL(id, event string) string {
	return reg.prefix + reg.Token(id) + "/event/" + event
}

// Handler returns the HTTP handler for registry routes.
// Mount this at Prefix() in your application.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Mutating methods require the header HTMX and the widget bridge send.
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if r.Header.Get("HX-Request") != "true" {
				http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
				return
			}
		}
		if reg.limiter != nil && !reg.limiter.Allow() {
			reg.OnError(w, r, ErrRateLimited)
			return
		}
		reg.mux.ServeHTTP(w, r)
	})
}

func (reg *Registry) lookup(r *http.Request) (*binding.Binding, error) {
	claims, err := reg.encoder.Open(r.PathValue("token"), reg.sealed)
	if err != nil {
		return nil, wrapEncodingError(err)
	}
	b, ok := reg.Get(claims.BindingID)
	if !ok {
		return nil, ErrUnknownBinding
	}
	return b, nil
}

func (reg *Registry) handleOpen(w http.ResponseWriter, r *http.Request) {
	b, err := reg.lookup(r)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		reg.OnError(w, r, fmt.Errorf("%w: %v", ErrBadPayload, err))
		return
	}

	inst, err := b.OpenInstance(r.Context(), openOptionsFromForm(r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		w.Header().Set("HX-Trigger", BuildTriggerHeader("postcode:error", map[string]any{
			"message": err.Error(),
		}))
		w.WriteHeader(http.StatusOK)
		return
	}

	if s, ok := inst.(Scripter); ok {
		_, _ = io.WriteString(w, "<script>"+s.Script()+"</script>")
	}
}

func (reg *Registry) handleEvent(w http.ResponseWriter, r *http.Request) {
	b, err := reg.lookup(r)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		reg.OnError(w, r, fmt.Errorf("%w: %v", ErrBadPayload, err))
		return
	}

	event := r.PathValue("event")
	if err := b.Dispatch(event, payload); err != nil {
		reg.logger.Debug("dispatch failed", zap.String("binding", b.ID()), zap.String("event", event), zap.Error(err))
		if !IsNotFound(err) {
			err = fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		reg.OnError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// openOptionsFromForm reads open-time options posted by PostcodePopup.
// Absent fields stay unset so the binding's defaults apply.
func openOptionsFromForm(r *http.Request) *widget.OpenOptions {
	opts := &widget.OpenOptions{
		PopupTitle: r.Form.Get("popupTitle"),
		PopupKey:   r.Form.Get("popupKey"),
	}
	if r.Form.Has("q") {
		opts.Q = widget.String(r.Form.Get("q"))
	}
	if v := r.Form.Get("left"); v != "" {
		opts.Left = position(v)
	}
	if v := r.Form.Get("top"); v != "" {
		opts.Top = position(v)
	}
	if v := r.Form.Get("autoClose"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.AutoClose = widget.Bool(b)
		}
	}
	return opts
}

// position keeps numeric offsets numeric and passes CSS lengths through.
func position(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return strings.TrimSpace(v)
}
