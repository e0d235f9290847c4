// Package router assembles the versioned API out of route groups.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Route is one mounted method and path
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string { return r.Method + " " + r.Path }

// API is the /api/<version> tree. Its middleware applies to every group but
// not to routes registered on the engine directly, such as /health.
type API struct {
	version    string
	middleware []gin.HandlerFunc
	groups     []*Group
}

// NewAPI creates an API mounted under /api/<version>
func NewAPI(version string) *API {
	if version == "" {
		version = "v1"
	}
	return &API{version: version}
}

// Use appends middleware run before every group's own
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Add appends route groups
func (a *API) Add(groups ...*Group) *API {
	a.groups = append(a.groups, groups...)
	return a
}

// Mount registers every group on r and returns the absolute routes it added
func (a *API) Mount(r gin.IRouter) []Route {
	base := "/api/" + a.version
	api := r.Group(base, a.middleware...)

	var mounted []Route
	for _, g := range a.groups {
		g.mount(api)
		for _, route := range g.routes {
			mounted = append(mounted, Route{
				Method: route.Method,
				Path:   joinPath(base, g.prefix, route.Path),
			})
		}
	}
	return mounted
}

// Group is the routes of one area of the API under a shared prefix
type Group struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []groupRoute
}

type groupRoute struct {
	Route
	handlers []gin.HandlerFunc
}

// NewGroup creates an empty group
func NewGroup(name, prefix string) *Group {
	return &Group{name: name, prefix: prefix}
}

func (g *Group) Name() string   { return g.name }
func (g *Group) Prefix() string { return g.prefix }

// Use appends middleware run before this group's handlers
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *Group) GET(p string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodGet, p, handlers)
}

func (g *Group) POST(p string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodPost, p, handlers)
}

func (g *Group) PUT(p string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodPut, p, handlers)
}

func (g *Group) DELETE(p string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodDelete, p, handlers)
}

func (g *Group) handle(method, p string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, groupRoute{Route: Route{Method: method, Path: p}, handlers: handlers})
	return g
}

func (g *Group) mount(r gin.IRouter) {
	rg := r.Group(g.prefix, g.middleware...)
	for _, route := range g.routes {
		rg.Handle(route.Method, route.Path, route.handlers...)
	}
}

// joinPath mirrors the absolute path gin computes for a group route
func joinPath(parts ...string) string {
	joined := path.Join(parts...)
	if joined == "." {
		return "/"
	}
	return joined
}
