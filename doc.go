// Package hxpostcode embeds the Kakao/Daum postcode (address lookup) widget
// in server-rendered pages built with templ and HTMX.
//
// The vendor widget is a remotely hosted script that publishes a global
// `Postcode` constructor. hxpostcode models that environment on the server
// so the same lifecycle a browser hook would run can be driven, tested and
// observed from Go.
//
// # Layers
//
// Data flows in one direction:
//
//	Postcode / PostcodePopup  (this package, templ components)
//	  -> binding.Binding      (per-consumer hook: open, embedRef, close)
//	    -> loader.Loader      (single-flight, retrying, per-attempt timeout)
//	      -> loader.Injector / loader.Resolver  (script list, globals)
//
// The Loader is the core. Concurrent loads share one attempt sequence; a
// success is cached for the Loader's lifetime and a failure is not, so the
// next load starts over. Before injecting anything the Loader asks its
// Resolver whether a constructor is already published.
//
// # Browser bridge
//
// Package jsbridge provides a widget.Constructor whose instances emit the
// JavaScript that drives the real widget. Its callbacks POST back to the
// Registry, which verifies the binding token and hands the payload to the
// binding's latest OnComplete/OnResize/OnClose/OnSearch handler:
//
//	globals := loader.NewGlobals()
//	doc := loader.NewDocument()
//	reg := hxpostcode.NewRegistry(key)
//	ctor := jsbridge.New(reg.EventURL)
//	shared := loader.New(
//	    loader.WithResolver(loader.NewNamespaceResolver(globals)),
//	    loader.WithInjector(loader.NewScriptInjector(doc, loader.NewHTTPFetcher(nil), jsbridge.NewExecutor(globals, ctor))),
//	)
//
//	b := binding.New(binding.Options{
//	    Options: widget.Options{OnComplete: saveAddress},
//	    OnError: logErr,
//	}, binding.WithLoader(shared))
//	reg.Add(b)
//	http.Handle(hxpostcode.DefaultPrefix, reg.Handler())
//
// # Errors
//
// Components never fail because the widget failed to load. Postcode renders
// an alert in place of the mount surface and PostcodePopup relies on the
// caller observing the binding's status or the postcode:error event.
package hxpostcode
