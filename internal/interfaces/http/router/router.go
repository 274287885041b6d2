// Package router declares the HTTP route table and builds the gin engine.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// DefaultAPIVersion prefixes every resource route as /api/{version}
const DefaultAPIVersion = "v1"

// Route is one endpoint, its path relative to the owning group
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// RouteGroup declares the routes of one resource behind a shared prefix and
// middleware chain. Child groups run the parent's middleware first.
type RouteGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []Route
	children   []*RouteGroup
}

// NewRouteGroup starts a group mounted at prefix
func NewRouteGroup(name, prefix string, middleware ...gin.HandlerFunc) *RouteGroup {
	return &RouteGroup{name: name, prefix: prefix, middleware: middleware}
}

func (g *RouteGroup) Name() string   { return g.name }
func (g *RouteGroup) Prefix() string { return g.prefix }

// Handle declares a route for method
func (g *RouteGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, Route{Method: method, Path: relativePath, Handlers: handlers})
	return g
}

func (g *RouteGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodGet, relativePath, handlers...)
}

func (g *RouteGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPost, relativePath, handlers...)
}

// Child nests a group under this one and returns it
func (g *RouteGroup) Child(name, prefix string, middleware ...gin.HandlerFunc) *RouteGroup {
	child := NewRouteGroup(name, prefix, middleware...)
	g.children = append(g.children, child)
	return child
}

// mount registers the group on parent and appends "METHOD /full/path" for
// each route to mounted.
func (g *RouteGroup) mount(parent *gin.RouterGroup, mounted []string) []string {
	group := parent.Group(g.prefix, g.middleware...)
	for _, r := range g.routes {
		group.Handle(r.Method, r.Path, r.Handlers...)
		mounted = append(mounted, r.Method+" "+path.Join(group.BasePath(), r.Path))
	}
	for _, child := range g.children {
		mounted = child.mount(group, mounted)
	}
	return mounted
}

// Mount registers groups under /api/{version} and returns the mounted routes
// in declaration order. An empty version uses DefaultAPIVersion.
func Mount(engine *gin.Engine, version string, groups ...*RouteGroup) []string {
	if version == "" {
		version = DefaultAPIVersion
	}
	api := engine.Group("/api/" + version)
	var mounted []string
	for _, g := range groups {
		mounted = g.mount(api, mounted)
	}
	return mounted
}
