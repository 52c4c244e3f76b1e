// Package widget defines the contract of the Kakao/Daum postcode widget as
// seen from Go: the constructor published by the vendor script, the instance
// it produces, and the payloads its callbacks deliver.
//
// The widget itself is an opaque collaborator. Implementations of Constructor
// live elsewhere (see package jsbridge for the browser-script implementation)
// and tests supply their own fakes.
package widget

// Instance is a constructed postcode widget.
type Instance interface {
	// Open shows the widget in a popup window.
	Open(opts OpenOptions)
	// Embed renders the widget inside el.
	Embed(el Element, opts EmbedOptions)
}

// Constructor builds widget instances. It corresponds to the global
// `Postcode` constructor the vendor script publishes under `kakao` or `daum`.
//
// Constructors are compared by identity, so implementations should be
// pointer types.
type Constructor interface {
	New(opts Options) Instance
}
