package loader

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Injector performs one script load attempt. Implementations do not
// deduplicate; that is the Loader's job.
type Injector interface {
	Inject(ctx context.Context, url string, timeout time.Duration) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ctx context.Context, url string, timeout time.Duration) error

// Inject calls f.
func (f InjectorFunc) Inject(ctx context.Context, url string, timeout time.Duration) error {
	return f(ctx, url, timeout)
}

// Executor evaluates a fetched script body, publishing whatever the script
// defines into the environment. A non-nil error is reported as a script
// error.
type Executor interface {
	Execute(ctx context.Context, s Script, body []byte) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, s Script, body []byte) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, s Script, body []byte) error {
	return f(ctx, s, body)
}

// ScriptInjector adds a script element to a Document, fetches its source and
// hands the body to an Executor.
type ScriptInjector struct {
	doc      *Document
	fetcher  Fetcher
	executor Executor
	logger   *zap.Logger
}

// NewScriptInjector creates an injector. exec may be nil, in which case a
// successful fetch counts as a successful load.
func NewScriptInjector(doc *Document, f Fetcher, exec Executor) *ScriptInjector {
	return &ScriptInjector{
		doc:      doc,
		fetcher:  f,
		executor: exec,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the injector's logger.
func (si *ScriptInjector) WithLogger(l *zap.Logger) *ScriptInjector {
	if l != nil {
		si.logger = l
	}
	return si
}

// Document returns the document scripts are injected into.
func (si *ScriptInjector) Document() *Document {
	return si.doc
}

// Inject implements Injector.
//
// The script is removed from the document on timeout, error and context
// cancellation, and kept on success.
func (si *ScriptInjector) Inject(ctx context.Context, url string, timeout time.Duration) error {
	script := si.doc.AppendScript(url)

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- si.load(loadCtx, *script)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			si.doc.Remove(script)
			si.logger.Debug("script error", zap.String("url", url), zap.Error(err))
			return &LoadError{Kind: KindScript, URL: url, Err: err}
		}
		return nil
	case <-timer.C:
		si.doc.Remove(script)
		si.logger.Debug("script timeout", zap.String("url", url), zap.Duration("timeout", timeout))
		return &LoadError{Kind: KindTimeout, URL: url, Timeout: timeout}
	case <-ctx.Done():
		si.doc.Remove(script)
		return ctx.Err()
	}
}

func (si *ScriptInjector) load(ctx context.Context, s Script) error {
	body, err := si.fetcher.Fetch(ctx, s.Src)
	if err != nil {
		return err
	}
	if si.executor == nil {
		return nil
	}
	return si.executor.Execute(ctx, s, body)
}
