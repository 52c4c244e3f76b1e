package hxpostcode

// SwapMode is an hx-swap strategy. PostcodePopup uses it to decide where the
// script returned by the open request goes.
//
// See https://htmx.org/attributes/hx-swap/.
type SwapMode string

const (
	// SwapBeforeEnd appends the response to the end of the target's contents.
	// This is the default for popup scripts.
	SwapBeforeEnd SwapMode = "beforeend"

	// SwapInner replaces only the target's contents.
	SwapInner SwapMode = "innerHTML"

	// SwapOuter replaces the whole target element.
	SwapOuter SwapMode = "outerHTML"

	// SwapNone discards the response. Useful when the open request is made
	// only for its side effects.
	SwapNone SwapMode = "none"
)
