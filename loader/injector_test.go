package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptInjector_SuccessKeepsScript(t *testing.T) {
	doc := NewDocument()
	var executed Script
	exec := ExecutorFunc(func(ctx context.Context, s Script, body []byte) error {
		executed = s
		assert.Equal(t, "window.kakao = {}", string(body))
		return nil
	})
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte("window.kakao = {}"), nil
	})

	err := NewScriptInjector(doc, fetch, exec).Inject(context.Background(), "https://cdn.test/p.js", time.Second)
	require.NoError(t, err)

	scripts := doc.Scripts()
	require.Len(t, scripts, 1)
	assert.Equal(t, "https://cdn.test/p.js", scripts[0].Src)
	assert.True(t, scripts[0].Async)
	assert.Equal(t, scripts[0].ID, executed.ID)
}

func TestScriptInjector_FetchErrorRemovesScript(t *testing.T) {
	doc := NewDocument()
	cause := errors.New("connection refused")
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return nil, cause
	})

	err := NewScriptInjector(doc, fetch, nil).Inject(context.Background(), "https://cdn.test/p.js", time.Second)
	require.Error(t, err)
	assert.Equal(t, "Failed to load script: https://cdn.test/p.js", err.Error())
	assert.True(t, IsScriptFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, doc.Scripts())
}

func TestScriptInjector_ExecutorErrorRemovesScript(t *testing.T) {
	doc := NewDocument()
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte("syntax error"), nil
	})
	exec := ExecutorFunc(func(ctx context.Context, s Script, body []byte) error {
		return errors.New("eval failed")
	})

	err := NewScriptInjector(doc, fetch, exec).Inject(context.Background(), "u", time.Second)
	assert.True(t, IsScriptFailure(err))
	assert.Empty(t, doc.Scripts())
}

func TestScriptInjector_TimeoutRemovesScript(t *testing.T) {
	doc := NewDocument()
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	err := NewScriptInjector(doc, fetch, nil).Inject(context.Background(), "https://cdn.test/slow.js", 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "Script load timeout after 20ms: https://cdn.test/slow.js", err.Error())
	assert.Empty(t, doc.Scripts())
}

func TestScriptInjector_ContextCancelRemovesScript(t *testing.T) {
	doc := NewDocument()
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewScriptInjector(doc, fetch, nil).Inject(ctx, "u", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doc.Scripts())
}

func TestScriptInjector_OneScriptPerCall(t *testing.T) {
	doc := NewDocument()
	fetch := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return nil, nil
	})
	si := NewScriptInjector(doc, fetch, nil)

	require.NoError(t, si.Inject(context.Background(), "a.js", time.Second))
	require.NoError(t, si.Inject(context.Background(), "a.js", time.Second))
	assert.Len(t, doc.Scripts(), 2)
	assert.Equal(t, []string{"a.js"}, doc.Sources())
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.js":
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte("var kakao = {};"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())

	body, err := f.Fetch(context.Background(), srv.URL+"/ok.js")
	require.NoError(t, err)
	assert.Equal(t, "var kakao = {};", string(body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.js")
	assert.ErrorContains(t, err, "unexpected status 404")
}

// A slow server with a short timeout produces a timeout error through the
// whole loader stack.
func TestLoader_TimeoutAgainstSlowServer(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	doc := NewDocument()
	inj := NewScriptInjector(doc, NewHTTPFetcher(srv.Client()), nil)
	l := New(
		WithScriptURL(srv.URL+"/postcode.js"),
		WithTimeout(30*time.Millisecond),
		WithMaxRetries(0),
		WithInjector(inj),
	)

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Empty(t, doc.Scripts())
	assert.Equal(t, StatusError, l.Status())
}

func TestLoadError_Is(t *testing.T) {
	err := &LoadError{Kind: KindTimeout, URL: "u", Timeout: time.Second}
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrScriptFailed)
	assert.Equal(t, "timeout", err.Kind.String())
}
