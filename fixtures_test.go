package hxpostcode

import (
	"context"
	"time"

	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/jsbridge"
	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

var testKey = []byte("test-key-for-hxpostcode-registry")

// env wires a registry, jsbridge constructor and loader the way an
// application would, with an in-memory fetcher.
type env struct {
	reg     *Registry
	doc     *loader.Document
	globals *loader.Globals
	ctor    *jsbridge.Constructor
	shared  *loader.Loader
}

func newEnv(fetch loader.FetcherFunc) *env {
	e := &env{
		reg:     NewRegistry(testKey),
		doc:     loader.NewDocument(),
		globals: loader.NewGlobals(),
	}
	e.ctor = jsbridge.New(e.reg.EventURL)
	if fetch == nil {
		fetch = func(ctx context.Context, url string) ([]byte, error) {
			return []byte("window.kakao={Postcode:function(){}}"), nil
		}
	}
	e.shared = loader.New(
		loader.WithMaxRetries(0),
		loader.WithTimeout(time.Second),
		loader.WithResolver(loader.NewNamespaceResolver(e.globals)),
		loader.WithInjector(loader.NewScriptInjector(e.doc, fetch, jsbridge.NewExecutor(e.globals, e.ctor))),
	)
	return e
}

func (e *env) binding(opts binding.Options) *binding.Binding {
	b := binding.New(opts, binding.WithLoader(e.shared))
	e.reg.Add(b)
	return b
}

func failingFetch(ctx context.Context, url string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

var _ widget.Instance = (*jsbridge.Instance)(nil)
