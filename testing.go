package hxpostcode

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// TestResult holds the output of rendering a component or calling a
// registry route in tests.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
}

// TestRender renders a component and returns testable output.
//
//	result, err := hxpostcode.TestRender(hxpostcode.Postcode(b, props))
//	if !result.HTMLContains(`role="alert"`) {
//	    t.Fatal("expected error fallback")
//	}
func TestRender(component templ.Component) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), component)
}

// TestRenderWithContext renders a component with a custom context.
func TestRenderWithContext(ctx context.Context, component templ.Component) (*TestResult, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}, nil
}

// TestOpen posts an open request the way PostcodePopup's attributes do.
func TestOpen(h http.Handler, openURL string, formData map[string]string) *TestResult {
	form := url.Values{}
	for k, v := range formData {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, openURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return serve(h, req)
}

// TestEvent posts a widget callback payload the way the browser bridge does.
func TestEvent(h http.Handler, eventURL string, payload string) *TestResult {
	req := httptest.NewRequest(http.MethodPost, eventURL, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HX-Request", "true")
	return serve(h, req)
}

func serve(h http.Handler, req *http.Request) *TestResult {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	result := &TestResult{
		HTML:       string(body),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.TriggeredEvents = parseTriggerHeader(trigger)
	}
	return result
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if an event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// parseTriggerHeader extracts event names from an HX-Trigger header, which
// is either a comma-separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	if strings.HasPrefix(trigger, "{") {
		var events []string
		depth := 0
		inString := false
		stringStart := -1

		for i := 0; i < len(trigger); i++ {
			c := trigger[i]

			if inString && c == '\\' && i+1 < len(trigger) {
				i++
				continue
			}

			if c == '"' {
				if !inString {
					inString = true
					stringStart = i + 1
					continue
				}
				inString = false
				if depth == 1 {
					j := i + 1
					for j < len(trigger) && (trigger[j] == ' ' || trigger[j] == '\t') {
						j++
					}
					if j < len(trigger) && trigger[j] == ':' {
						events = append(events, trigger[stringStart:i])
					}
				}
				stringStart = -1
			} else if !inString {
				switch c {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
		}
		return events
	}

	parts := strings.Split(trigger, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}
