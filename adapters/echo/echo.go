// Package hxpostcodeecho provides Echo framework integration for the
// postcode registry.
//
// Mount the registry onto an Echo instance or group:
//
//	e := echo.New()
//	reg := hxpostcodeecho.Mount(e, hxpostcodeecho.WithKey(key))
//	reg.Add(b)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxpostcodeecho.MountGroup(g, "/app")
//	reg.Add(b)
package hxpostcodeecho

import (
	"crypto/rand"
	"fmt"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxpostcode"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key     []byte
	path    string
	regOpts []hxpostcode.RegistryOption
}

// WithKey sets the token key for the registry.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL path prefix for registry routes.
// Defaults to hxpostcode.DefaultPrefix.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithRegistryOptions passes options through to hxpostcode.NewRegistry.
func WithRegistryOptions(opts ...hxpostcode.RegistryOption) Option {
	return func(o *options) {
		o.regOpts = append(o.regOpts, opts...)
	}
}

// Mount creates a registry and mounts its handler on an Echo instance.
//
//	e := echo.New()
//	reg := hxpostcodeecho.Mount(e)
//	reg.Add(b)
func Mount(e *echo.Echo, opts ...Option) *hxpostcode.Registry {
	reg, path := newRegistry("", opts)
	e.Any(path+"*", echo.WrapHandler(reg.Handler()))
	return reg
}

// MountGroup creates a registry and mounts its handler on an Echo group so
// widget callbacks share the group's middleware. base must be the prefix the
// group was created with.
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxpostcodeecho.MountGroup(g, "/app")
func MountGroup(g *echo.Group, base string, opts ...Option) *hxpostcode.Registry {
	reg, path := newRegistry(base, opts)
	g.Any(path+"*", echo.WrapHandler(reg.Handler()))
	return reg
}

func newRegistry(base string, opts []Option) (*hxpostcode.Registry, string) {
	o := &options{path: hxpostcode.DefaultPrefix}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("hxpostcodeecho: failed to generate random key: %v", err))
		}
	}

	regOpts := append([]hxpostcode.RegistryOption{hxpostcode.WithPrefix(base + o.path)}, o.regOpts...)
	return hxpostcode.NewRegistry(key, regOpts...), o.path
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxpostcodeecho.Render(c, hxpostcode.Postcode(b, hxpostcode.PostcodeProps{}))
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
