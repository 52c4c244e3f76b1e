package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pthm/hxpostcode"
	hxpostcodeecho "github.com/pthm/hxpostcode/adapters/echo"
	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

type app struct {
	reg    *hxpostcode.Registry
	doc    *loader.Document
	embed  *binding.Binding
	popup  *binding.Binding
	logger *zap.Logger

	mu       sync.RWMutex
	selected *widget.Address
}

func (a *app) complete(addr widget.Address) {
	a.logger.Info("address selected",
		zap.String("zonecode", addr.Zonecode),
		zap.String("address", addr.Address),
		zap.Bool("apartment", addr.IsApartment()),
	)
	a.mu.Lock()
	a.selected = &addr
	a.mu.Unlock()
}

func (a *app) handleIndex(c echo.Context) error {
	return hxpostcodeecho.Render(c, a.page())
}

func (a *app) handleSelected(c echo.Context) error {
	a.mu.RLock()
	addr := a.selected
	a.mu.RUnlock()
	if addr == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, addr)
}

func (a *app) page() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		// The body renders first: embedding loads the widget, and the head
		// needs the resulting script tags.
		var body bytes.Buffer
		popup := hxpostcode.PostcodePopup(a.reg, a.popup, hxpostcode.PopupProps{
			OpenOptions: &widget.OpenOptions{PopupTitle: "우편번호 검색"},
			Children:    hxpostcode.InteractiveChild("button", templ.Attributes{"type": "button"}, templ.Raw("팝업으로 찾기")),
		})
		embed := hxpostcode.Postcode(a.embed, hxpostcode.PostcodeProps{
			Style: hxpostcode.Style{"border": "1px solid #ddd"},
		})
		for _, c := range []templ.Component{popup, embed} {
			if err := c.Render(ctx, &body); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8"><title>Postcode</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`); err != nil {
			return err
		}
		if err := hxpostcode.Scripts(a.doc).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</head><body><h1>주소 검색</h1>`); err != nil {
			return err
		}
		if _, err := body.WriteTo(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
