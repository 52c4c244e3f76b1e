package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxpostcode/widget"
)

type fakeInstance struct{}

func (fakeInstance) Open(widget.OpenOptions)                  {}
func (fakeInstance) Embed(widget.Element, widget.EmbedOptions) {}

type fakeCtor struct{ name string }

func (c *fakeCtor) New(widget.Options) widget.Instance { return fakeInstance{} }

// countingInjector records every attempt and delegates to fn.
type countingInjector struct {
	calls atomic.Int32
	fn    func(n int32) error
}

func (ci *countingInjector) Inject(ctx context.Context, url string, timeout time.Duration) error {
	n := ci.calls.Add(1)
	if ci.fn == nil {
		return nil
	}
	return ci.fn(n)
}

func failingInjector() *countingInjector {
	return &countingInjector{fn: func(int32) error {
		return &LoadError{Kind: KindScript, URL: DefaultScriptURL}
	}}
}

func TestLoader_FailsAfterMaxRetriesPlusOne(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		inj := failingInjector()
		l := New(WithMaxRetries(n), WithInjector(inj))

		_, err := l.Load(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(n+1), inj.calls.Load(), "maxRetries=%d", n)
		assert.Equal(t, StatusError, l.Status())
	}
}

func TestLoader_ZeroRetriesSettles(t *testing.T) {
	inj := failingInjector()
	l := New(WithMaxRetries(0), WithInjector(inj))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := l.Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsScriptFailure(err))
	assert.Equal(t, int32(1), inj.calls.Load())
	assert.Equal(t, StatusError, l.Status())
}

func TestLoader_DefaultMaxRetries(t *testing.T) {
	inj := failingInjector()
	l := New(WithInjector(inj))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(DefaultMaxRetries+1), inj.calls.Load())
}

func TestLoader_ScriptErrorMessage(t *testing.T) {
	l := New(WithMaxRetries(0), WithInjector(failingInjector()))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load script")
	assert.True(t, IsScriptFailure(err))
	assert.Equal(t, StatusError, l.Status())
}

func TestLoader_ResolvesPrimaryAfterInjection(t *testing.T) {
	globals := NewGlobals()
	ctor := &fakeCtor{name: "kakao"}
	inj := &countingInjector{fn: func(int32) error {
		globals.Set(PrimaryNamespace, ctor)
		return nil
	}}
	l := New(WithResolver(NewNamespaceResolver(globals)), WithInjector(inj))

	assert.Equal(t, StatusIdle, l.Status())
	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, ctor, got)
	assert.Equal(t, StatusReady, l.Status())
	assert.Equal(t, int32(1), inj.calls.Load())
}

func TestLoader_PreexistingConstructorSkipsInjection(t *testing.T) {
	globals := NewGlobals()
	ctor := &fakeCtor{name: "daum"}
	globals.Set(SecondaryNamespace, ctor)
	inj := &countingInjector{}
	l := New(WithResolver(NewNamespaceResolver(globals)), WithInjector(inj))

	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, ctor, got)
	assert.Zero(t, inj.calls.Load())
}

func TestLoader_MissingConstructorAfterLoad(t *testing.T) {
	inj := &countingInjector{}
	l := New(WithMaxRetries(1), WithResolver(NewNamespaceResolver(NewGlobals())), WithInjector(inj))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsConstructorMissing(err))
	assert.Equal(t, "Kakao Postcode constructor not found after script load", err.Error())
	assert.Equal(t, int32(2), inj.calls.Load())
}

func TestLoader_RecoversOnRetry(t *testing.T) {
	globals := NewGlobals()
	ctor := &fakeCtor{}
	inj := &countingInjector{fn: func(n int32) error {
		if n < 3 {
			return &LoadError{Kind: KindTimeout, URL: "u", Timeout: time.Millisecond}
		}
		globals.Set(PrimaryNamespace, ctor)
		return nil
	}}
	l := New(WithMaxRetries(2), WithResolver(NewNamespaceResolver(globals)), WithInjector(inj))

	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, ctor, got)
	assert.Equal(t, int32(3), inj.calls.Load())
}

func TestLoader_SurfacesLastError(t *testing.T) {
	last := errors.New("third")
	inj := &countingInjector{fn: func(n int32) error {
		if n == 3 {
			return last
		}
		return errors.New("earlier")
	}}
	l := New(WithMaxRetries(2), WithInjector(inj))

	_, err := l.Load(context.Background())
	assert.Same(t, last, err)
}

func TestLoader_SingleFlight(t *testing.T) {
	globals := NewGlobals()
	ctor := &fakeCtor{}
	release := make(chan struct{})
	inj := &countingInjector{fn: func(int32) error {
		<-release
		globals.Set(PrimaryNamespace, ctor)
		return nil
	}}
	l := New(WithResolver(NewNamespaceResolver(globals)), WithInjector(inj))

	f1 := l.Begin()
	f2 := l.Begin()
	assert.Same(t, f1, f2)
	assert.Equal(t, StatusLoading, l.Status())
	assert.False(t, f1.Settled())

	var wg sync.WaitGroup
	results := make([]widget.Constructor, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := l.Load(context.Background())
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	close(release)
	wg.Wait()

	for _, c := range results {
		assert.Same(t, ctor, c)
	}
	assert.Equal(t, int32(1), inj.calls.Load())

	// Success is cached.
	assert.Same(t, f1, l.Begin())
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), inj.calls.Load())
}

func TestLoader_SharedFailureSettlesIdentically(t *testing.T) {
	release := make(chan struct{})
	inj := &countingInjector{fn: func(int32) error {
		<-release
		return &LoadError{Kind: KindScript, URL: "u"}
	}}
	l := New(WithMaxRetries(0), WithInjector(inj))

	f1, f2 := l.Begin(), l.Begin()
	close(release)

	_, err1 := f1.Wait(context.Background())
	_, err2 := f2.Wait(context.Background())
	require.Error(t, err1)
	assert.Same(t, err1, err2)
}

func TestLoader_FailureIsNotCached(t *testing.T) {
	inj := failingInjector()
	l := New(WithMaxRetries(1), WithInjector(inj))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(4), inj.calls.Load())
}

func TestLoader_ResetStartsFreshSequence(t *testing.T) {
	inj := failingInjector()
	l := New(WithMaxRetries(2), WithInjector(inj))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), inj.calls.Load())

	l.Reset()
	assert.Equal(t, StatusIdle, l.Status())

	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(6), inj.calls.Load())
}

func TestLoader_ResetAfterSuccess(t *testing.T) {
	globals := NewGlobals()
	inj := &countingInjector{fn: func(int32) error {
		globals.Set(PrimaryNamespace, &fakeCtor{})
		return nil
	}}
	l := New(WithResolver(NewNamespaceResolver(globals)), WithInjector(inj))

	_, err := l.Load(context.Background())
	require.NoError(t, err)
	l.Reset()
	assert.Equal(t, StatusIdle, l.Status())

	// Already published, so the fresh sequence resolves without injecting.
	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), inj.calls.Load())
	assert.Equal(t, StatusReady, l.Status())
}

func TestLoader_ResetDuringFlightDetachesSequence(t *testing.T) {
	release := make(chan struct{})
	inj := &countingInjector{fn: func(int32) error {
		<-release
		return &LoadError{Kind: KindScript, URL: "u"}
	}}
	l := New(WithMaxRetries(0), WithInjector(inj))

	f := l.Begin()
	l.Reset()
	close(release)

	_, err := f.Wait(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusIdle, l.Status())
}

func TestLoader_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	inj := &countingInjector{fn: func(int32) error {
		<-release
		return nil
	}}
	l := New(WithInjector(inj))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusLoading, l.Status())
}

func TestLoader_RetryDelay(t *testing.T) {
	inj := failingInjector()
	l := New(WithMaxRetries(2), WithRetryDelay(10*time.Millisecond), WithInjector(inj))

	start := time.Now()
	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(3), inj.calls.Load())
}

func TestLoader_Config(t *testing.T) {
	l := New()
	cfg := l.Config()
	assert.Equal(t, DefaultScriptURL, cfg.ScriptURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)

	l = New(WithConfig(Config{ScriptURL: "https://example.test/p.js", Timeout: time.Second}), WithMaxRetries(0))
	cfg = l.Config()
	assert.Equal(t, "https://example.test/p.js", cfg.ScriptURL)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusLoading, "loading"},
		{StatusReady, "ready"},
		{StatusError, "error"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
