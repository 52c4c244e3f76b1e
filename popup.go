package hxpostcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

// PopupAPI is handed to render-callback children.
type PopupAPI struct {
	// Open holds the attributes that make an element open the popup when
	// clicked. Spread them onto any element.
	Open templ.Attributes
	// Status is the binding's load status at render time.
	Status loader.Status
}

// Children is what PostcodePopup wraps. Build one with RenderChild,
// InteractiveChild or OpaqueChild.
type Children interface {
	render(ctx context.Context, w io.Writer, api PopupAPI) error
}

type renderChild func(PopupAPI) templ.Component

func (fn renderChild) render(ctx context.Context, w io.Writer, api PopupAPI) error {
	c := fn(api)
	if c == nil {
		return nil
	}
	return c.Render(ctx, w)
}

// RenderChild calls fn with the popup API and renders what it returns.
func RenderChild(fn func(PopupAPI) templ.Component) Children {
	return renderChild(fn)
}

type interactiveChild struct {
	tag   string
	attrs templ.Attributes
	body  templ.Component
}

func (c interactiveChild) render(ctx context.Context, w io.Writer, api PopupAPI) error {
	attrs := make(templ.Attributes, len(c.attrs)+len(api.Open))
	if ownsRequest(c.attrs) {
		// The element already issues its own HTMX request; open the popup
		// from a click listener alongside it.
		attrs[clickAttr] = ajaxOpen(api.Open)
	} else {
		for k, v := range api.Open {
			attrs[k] = v
		}
	}
	// The element's own attributes win, including onclick and any hx-*.
	for k, v := range c.attrs {
		if k == clickAttr {
			if ours, ok := attrs[k].(string); ok {
				attrs[k] = ours + ";" + fmt.Sprint(v)
				continue
			}
		}
		attrs[k] = v
	}

	if _, err := io.WriteString(w, "<"+c.tag+renderAttrs(attrs)+">"); err != nil {
		return err
	}
	if c.body != nil {
		if err := c.body.Render(ctx, w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+c.tag+">")
	return err
}

const clickAttr = "hx-on:click"

var requestAttrs = []string{"hx-get", "hx-post", "hx-put", "hx-patch", "hx-delete"}

func ownsRequest(attrs templ.Attributes) bool {
	for _, k := range requestAttrs {
		if _, ok := attrs[k]; ok {
			return true
		}
	}
	return false
}

// ajaxOpen expresses the open attributes as an htmx.ajax call.
func ajaxOpen(open templ.Attributes) string {
	opts := map[string]any{
		"target": open["hx-target"],
		"swap":   open["hx-swap"],
	}
	if vals, ok := open["hx-vals"].(string); ok {
		opts["values"] = json.RawMessage(vals)
	}
	url, _ := json.Marshal(open["hx-post"])
	data, _ := json.Marshal(opts)
	return "htmx.ajax(\"POST\"," + string(url) + "," + string(data) + ")"
}

// InteractiveChild renders a single element whose clicks also open the
// popup. Existing attributes, including onclick and hx-* attributes, are
// preserved. An element that already makes its own HTMX request keeps it and
// opens the popup from an hx-on:click listener instead.
func InteractiveChild(tag string, attrs templ.Attributes, body templ.Component) Children {
	if tag == "" {
		tag = "button"
	}
	return interactiveChild{tag: tag, attrs: attrs, body: body}
}

type opaqueChild struct {
	c templ.Component
}

func (c opaqueChild) render(ctx context.Context, w io.Writer, _ PopupAPI) error {
	if c.c == nil {
		return nil
	}
	return c.c.Render(ctx, w)
}

// OpaqueChild renders c as-is, with no popup wiring.
func OpaqueChild(c templ.Component) Children {
	return opaqueChild{c: c}
}

// PopupProps configures PostcodePopup.
type PopupProps struct {
	// OpenOptions are sent with every open request.
	OpenOptions *widget.OpenOptions
	Children    Children
	// Target is the hx-target for the returned script. Defaults to "body".
	Target string
	// Swap defaults to SwapBeforeEnd.
	Swap SwapMode
}

// PostcodePopup renders Children wired to open b's widget in a popup.
//
//	@hxpostcode.PostcodePopup(reg, b, hxpostcode.PopupProps{
//	    Children: hxpostcode.InteractiveChild("button", nil, templ.Raw("Find address")),
//	})
//
// Clicking issues an HTMX request to the registry's open route; the response
// is the script that opens the vendor popup. The popup has no error surface
// of its own: failures are reported through the binding and the
// postcode:error event.
func PostcodePopup(reg *Registry, b *binding.Binding, props PopupProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if props.Children == nil {
			return nil
		}
		api := PopupAPI{
			Open:   OpenAttrs(reg, b, props),
			Status: b.Status(),
		}
		return props.Children.render(ctx, w, api)
	})
}

// OpenAttrs builds the HTMX attributes that open b's popup on click.
func OpenAttrs(reg *Registry, b *binding.Binding, props PopupProps) templ.Attributes {
	target := props.Target
	if target == "" {
		target = "body"
	}
	swap := props.Swap
	if swap == "" {
		swap = SwapBeforeEnd
	}

	attrs := templ.Attributes{
		"hx-post":    reg.OpenURL(b),
		"hx-trigger": "click",
		"hx-target":  target,
		"hx-swap":    string(swap),
	}
	if vals := openVals(props.OpenOptions); len(vals) > 0 {
		data, _ := json.Marshal(vals)
		attrs["hx-vals"] = string(data)
	}
	return attrs
}

// openVals flattens open options into the form fields the registry reads.
func openVals(o *widget.OpenOptions) map[string]string {
	if o == nil {
		return nil
	}
	vals := make(map[string]string)
	if o.Q != nil {
		vals["q"] = *o.Q
	}
	if o.Left != nil {
		vals["left"] = fmt.Sprint(o.Left)
	}
	if o.Top != nil {
		vals["top"] = fmt.Sprint(o.Top)
	}
	if o.PopupTitle != "" {
		vals["popupTitle"] = o.PopupTitle
	}
	if o.PopupKey != "" {
		vals["popupKey"] = o.PopupKey
	}
	if o.AutoClose != nil {
		vals["autoClose"] = fmt.Sprint(*o.AutoClose)
	}
	return vals
}

// renderAttrs writes attributes in key order. Boolean true renders as a bare
// attribute and false omits it.
func renderAttrs(attrs templ.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				sb.WriteString(" " + templ.EscapeString(k))
			}
		default:
			sb.WriteString(" " + templ.EscapeString(k) + `="` + templ.EscapeString(fmt.Sprint(v)) + `"`)
		}
	}
	return sb.String()
}
