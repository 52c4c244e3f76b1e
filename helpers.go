package hxpostcode

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxpostcode.Render(w, r, page())
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// BuildTriggerHeader builds an HX-Trigger header value.
//
// Without data the event name is returned as-is; with data the header is a
// JSON object so listeners receive the data as evt.detail:
//
//	BuildTriggerHeader("postcode:error", nil)  // postcode:error
//	BuildTriggerHeader("postcode:error", map[string]any{"message": "..."})
//	// {"postcode:error":{"message":"..."}}
func BuildTriggerHeader(event string, data map[string]any) string {
	if event == "" {
		return ""
	}
	if data == nil {
		return event
	}
	b, err := json.Marshal(map[string]any{event: data})
	if err != nil {
		return event
	}
	return string(b)
}
