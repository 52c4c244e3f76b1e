package hxpostcode

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// DefaultErrorMessage is shown when loading fails without an error value.
const DefaultErrorMessage = "Failed to load Kakao Postcode"

// Style is a set of CSS declarations.
type Style map[string]string

// DefaultStyle sizes the embedded widget.
var DefaultStyle = Style{
	"width":  "100%",
	"height": "400px",
}

// merge returns s overlaid with o; o wins.
func (s Style) merge(o Style) Style {
	out := make(Style, len(s)+len(o))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// String renders the declarations sorted by property.
func (s Style) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(s[k])
	}
	return sb.String()
}

// PostcodeProps configures the embedded widget's mount surface.
type PostcodeProps struct {
	Class string
	Style Style
}

// AnchorID is the DOM id of b's mount surface.
func AnchorID(b *binding.Binding) string {
	return "postcode-" + b.ID()
}

// Postcode embeds the widget.
//
// Rendering embeds b into its anchor (loading the widget if needed). When
// loading fails it renders an alert with the error message instead of the
// mount surface.
//
//	@hxpostcode.Postcode(b, hxpostcode.PostcodeProps{Class: "address"})
func Postcode(b *binding.Binding, props PostcodeProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		anchor := anchorFor(b)
		b.EmbedRef(ctx, anchor)

		if state := b.State(); state.Status == loader.StatusError {
			msg := DefaultErrorMessage
			if state.Err != nil {
				msg = state.Err.Error()
			}
			_, err := io.WriteString(w, `<p role="alert">`+templ.EscapeString(msg)+`</p>`)
			return err
		}

		var sb strings.Builder
		sb.WriteString(`<div id="`)
		sb.WriteString(templ.EscapeString(anchor.ID()))
		sb.WriteString(`"`)
		if props.Class != "" {
			sb.WriteString(` class="`)
			sb.WriteString(templ.EscapeString(props.Class))
			sb.WriteString(`"`)
		}
		sb.WriteString(` style="`)
		sb.WriteString(templ.EscapeString(DefaultStyle.merge(props.Style).String()))
		sb.WriteString(`">`)
		sb.WriteString(anchor.Content())
		sb.WriteString(`</div>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// anchorFor reuses the anchor b is already embedded in so repeated renders
// hit EmbedRef's guard instead of embedding again. After a failed load a
// fresh anchor is used, so the next render retries.
func anchorFor(b *binding.Binding) *widget.Anchor {
	if b.Status() != loader.StatusError {
		if el, ok := b.Embedded().(*widget.Anchor); ok && el != nil {
			return el
		}
	}
	return widget.NewAnchor(AnchorID(b))
}

// Scripts renders the script elements retained in doc, typically the vendor
// bundle after a successful load. Place it in the page head, after the
// components that load the widget have rendered, so embed scripts in the body
// find the constructor.
func Scripts(doc *loader.Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, src := range doc.Sources() {
			if _, err := io.WriteString(w, `<script src="`+templ.EscapeString(src)+`"></script>`); err != nil {
				return err
			}
		}
		return nil
	})
}
