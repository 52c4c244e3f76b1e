// Package loader resolves the postcode widget constructor, injecting the
// vendor script when the environment does not already provide one.
//
// A Loader is single-flight: concurrent Begin/Load calls share one attempt
// sequence, and a successful result is cached for the Loader's lifetime.
// Failed sequences are not cached, so the next Load starts over.
//
//	l := loader.New(
//	    loader.WithResolver(loader.NewNamespaceResolver(globals)),
//	    loader.WithInjector(loader.NewScriptInjector(doc, loader.NewHTTPFetcher(nil), exec)),
//	)
//	ctor, err := l.Load(ctx)
//
// Each attempt sequence checks the Resolver once, then tries the script up to
// MaxRetries+1 times. Every attempt is bounded by Timeout.
package loader
