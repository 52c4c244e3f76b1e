package loader

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultScriptURL is the vendor endpoint for the postcode widget script.
const DefaultScriptURL = "https://t1.kakaocdn.net/mapjsapi/bundle/postcode/prod/postcode.v2.js"

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
)

// Config controls where the script is fetched from and how hard the Loader
// tries. Zero values fall back to the defaults.
type Config struct {
	ScriptURL  string
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is waited between attempts. Zero retries immediately.
	RetryDelay time.Duration
}

// IsZero reports whether c leaves every loader setting at its default.
func (c Config) IsZero() bool {
	return c.ScriptURL == "" && c.Timeout == 0 && c.MaxRetries == 0 && c.RetryDelay == 0
}

func (c Config) withDefaults() Config {
	if c.ScriptURL == "" {
		c.ScriptURL = DefaultScriptURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	cfg        Config
	maxRetries *int
	resolver   Resolver
	injector   Injector
	logger     *zap.Logger
	tracer     trace.Tracer
}

// WithConfig replaces the loader settings. Later WithScriptURL, WithTimeout
// and WithMaxRetries options still apply on top.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
		if cfg.MaxRetries != 0 {
			n := cfg.MaxRetries
			o.maxRetries = &n
		}
	}
}

// WithScriptURL sets the script URL.
func WithScriptURL(url string) Option {
	return func(o *options) {
		o.cfg.ScriptURL = url
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Timeout = d
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
// Zero means a single attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = &n
	}
}

// WithRetryDelay sets a constant delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.cfg.RetryDelay = d
	}
}

// WithResolver sets how the constructor is looked up.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithInjector sets how the script is injected.
func WithInjector(inj Injector) Option {
	return func(o *options) {
		o.injector = inj
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer used for load spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}
