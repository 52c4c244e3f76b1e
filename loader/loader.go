package loader

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/pthm/hxpostcode/widget"
)

// Future is the shared handle of one attempt sequence.
type Future struct {
	done chan struct{}
	ctor widget.Constructor
	err  error
}

// Done is closed once the sequence settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the sequence settles or ctx ends. ctx only bounds this
// caller's wait; the sequence itself keeps running.
func (f *Future) Wait(ctx context.Context) (widget.Constructor, error) {
	select {
	case <-f.done:
		return f.ctor, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Settled reports whether the sequence has finished.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Loader resolves the widget constructor, injecting the script when needed.
type Loader struct {
	cfg      Config
	resolver Resolver
	injector Injector
	logger   *zap.Logger
	tracer   trace.Tracer

	mu     sync.Mutex
	status Status
	cached *Future
}

// New creates a Loader. Without WithResolver the loader resolves nothing
// from the environment; without WithInjector every attempt fails.
func New(opts ...Option) *Loader {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if o.maxRetries != nil {
		cfg.MaxRetries = *o.maxRetries
	} else {
		cfg.MaxRetries = DefaultMaxRetries
	}
	cfg = cfg.withDefaults()

	l := &Loader{
		cfg:      cfg,
		resolver: o.resolver,
		injector: o.injector,
		logger:   o.logger,
		tracer:   o.tracer,
	}
	if l.resolver == nil {
		l.resolver = ResolverFunc(func() (widget.Constructor, bool) { return nil, false })
	}
	if l.injector == nil {
		l.injector = InjectorFunc(func(_ context.Context, url string, _ time.Duration) error {
			return &LoadError{Kind: KindScript, URL: url}
		})
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.tracer == nil {
		l.tracer = noop.NewTracerProvider().Tracer("")
	}
	return l
}

// Config returns the effective settings.
func (l *Loader) Config() Config {
	return l.cfg
}

// Status returns the current phase.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Begin returns the pending or completed Future, starting a new attempt
// sequence if there is none.
func (l *Loader) Begin() *Future {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached
	}

	f := &Future{done: make(chan struct{})}
	l.cached = f
	l.status = StatusLoading
	go l.run(f)
	return f
}

// Load waits for the constructor. Concurrent calls share one attempt
// sequence.
func (l *Loader) Load(ctx context.Context) (widget.Constructor, error) {
	return l.Begin().Wait(ctx)
}

// Reset forgets the cached result and returns to idle. A sequence still in
// flight settles its own Future but no longer affects the Loader.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = StatusIdle
	l.cached = nil
}

func (l *Loader) run(f *Future) {
	ctor, err := l.attemptLoad(context.Background())

	l.mu.Lock()
	if l.cached == f {
		if err != nil {
			l.status = StatusError
			l.cached = nil
		} else {
			l.status = StatusReady
		}
	}
	l.mu.Unlock()

	f.ctor, f.err = ctor, err
	close(f.done)
}

func (l *Loader) attemptLoad(ctx context.Context) (widget.Constructor, error) {
	ctx, span := l.tracer.Start(ctx, "loader.load", trace.WithAttributes(
		attribute.String("script.url", l.cfg.ScriptURL),
		attribute.Int("loader.max_retries", l.cfg.MaxRetries),
	))
	defer span.End()

	if ctor, ok := l.resolver.Resolve(); ok {
		span.SetAttributes(attribute.Bool("loader.preloaded", true))
		return ctor, nil
	}

	var (
		ctor    widget.Constructor
		attempt int
	)
	operation := func() error {
		attempt++
		c, err := l.attempt(ctx, attempt)
		if err != nil {
			return err
		}
		ctor = c
		return nil
	}

	err := backoff.Retry(operation, l.backOff())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("postcode script load failed",
			zap.String("url", l.cfg.ScriptURL),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return nil, err
	}
	return ctor, nil
}

func (l *Loader) attempt(ctx context.Context, n int) (widget.Constructor, error) {
	ctx, span := l.tracer.Start(ctx, "loader.attempt", trace.WithAttributes(
		attribute.Int("loader.attempt", n),
	))
	defer span.End()

	l.logger.Debug("loading postcode script", zap.String("url", l.cfg.ScriptURL), zap.Int("attempt", n))

	err := l.injector.Inject(ctx, l.cfg.ScriptURL, l.cfg.Timeout)
	if err == nil {
		if ctor, ok := l.resolver.Resolve(); ok {
			return ctor, nil
		}
		err = &LoadError{Kind: KindConstructorMissing, URL: l.cfg.ScriptURL}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.Debug("postcode script attempt failed", zap.Int("attempt", n), zap.Error(err))
	return nil, err
}

func (l *Loader) backOff() backoff.BackOff {
	// WithMaxRetries treats zero as unlimited.
	if l.cfg.MaxRetries == 0 {
		return &backoff.StopBackOff{}
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if l.cfg.RetryDelay > 0 {
		b = backoff.NewConstantBackOff(l.cfg.RetryDelay)
	}
	return backoff.WithMaxRetries(b, uint64(l.cfg.MaxRetries))
}
