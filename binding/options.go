package binding

import (
	"time"

	"go.uber.org/zap"

	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// Options configures a Binding. It is the widget's own options plus
// lifecycle callbacks and loader settings.
type Options struct {
	widget.Options

	// OnError is called when loading the widget fails.
	OnError func(error)
	// OnStateChange is called after every status transition.
	OnStateChange func(State)

	// Loader settings. Any non-zero value gives the binding a private loader.
	ScriptURL  string
	Timeout    time.Duration
	MaxRetries int

	// DefaultQuery pre-fills the search box.
	DefaultQuery string
	// AutoClose closes the widget after a selection. Nil means true.
	AutoClose *bool
}

func (o Options) autoClose() bool {
	return o.AutoClose == nil || *o.AutoClose
}

func (o Options) customLoader() bool {
	return o.ScriptURL != "" || o.Timeout != 0 || o.MaxRetries != 0
}

func (o Options) loaderConfig() []loader.Option {
	var opts []loader.Option
	if o.ScriptURL != "" {
		opts = append(opts, loader.WithScriptURL(o.ScriptURL))
	}
	if o.Timeout != 0 {
		opts = append(opts, loader.WithTimeout(o.Timeout))
	}
	if o.MaxRetries != 0 {
		opts = append(opts, loader.WithMaxRetries(o.MaxRetries))
	}
	return opts
}

// Option configures how a Binding is constructed.
type Option func(*config)

type config struct {
	shared     *loader.Loader
	loaderOpts []loader.Option
	logger     *zap.Logger
	id         string
}

// WithLoader shares l with other bindings. It is used unless Options ask
// for a private loader.
func WithLoader(l *loader.Loader) Option {
	return func(c *config) {
		c.shared = l
	}
}

// WithLoaderOptions supplies the resolver, injector and similar settings
// used when the binding has to build a loader itself.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(c *config) {
		c.loaderOpts = append(c.loaderOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithID overrides the generated binding ID.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}
