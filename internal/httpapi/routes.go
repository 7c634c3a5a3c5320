package httpapi

import (
	"net/http"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/obs"
)

// Route names double as keys into the requirement table.
const (
	RouteHealth       = "health"
	RouteReady        = "ready"
	RouteMetrics      = "metrics"
	RouteRegister     = "auth.register"
	RouteLogin        = "auth.login"
	RouteProfile      = "auth.profile"
	RoutePermitCreate = "permits.create"
	RoutePermitList   = "permits.list"
	RoutePermitGet    = "permits.get"
	RoutePermitUpdate = "permits.update"
	RoutePermitStatus = "permits.update_status"
	RoutePermitDelete = "permits.delete"
)

const (
	permitsPath      = "/permit-applications"
	permitPath       = permitsPath + "/{id}"
	permitStatusPath = permitPath + "/status"

	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPageNumber    = 1_000_000
)

type route struct {
	name        string
	method      string
	path        string
	requirement auth.Requirement
	handler     http.Handler
}

func (a *API) routeTable() []route {
	anyRole := auth.RoleRestricted(auth.RoleUser, auth.RoleAdmin)
	return []route{
		{RouteHealth, http.MethodGet, "/healthz", auth.Public(), http.HandlerFunc(a.Healthz)},
		{RouteReady, http.MethodGet, "/readyz", auth.Public(), http.HandlerFunc(a.Ready)},
		{RouteMetrics, http.MethodGet, "/metrics", auth.Public(), obs.Handler()},

		{RouteRegister, http.MethodPost, "/auth/register", auth.Public(), http.HandlerFunc(a.handleRegister)},
		{RouteLogin, http.MethodPost, "/auth/login", auth.Public(), http.HandlerFunc(a.handleLogin)},
		{RouteProfile, http.MethodGet, "/auth/profile", auth.AuthenticatedOnly(), http.HandlerFunc(a.handleProfile)},

		{RoutePermitCreate, http.MethodPost, permitsPath, auth.RoleRestricted(auth.RoleUser), http.HandlerFunc(a.handleCreatePermit)},
		{RoutePermitList, http.MethodGet, permitsPath, anyRole, http.HandlerFunc(a.handleListPermits)},
		{RoutePermitGet, http.MethodGet, permitPath, anyRole, http.HandlerFunc(a.handleGetPermit)},
		{RoutePermitUpdate, http.MethodPatch, permitPath, anyRole, http.HandlerFunc(a.handleUpdatePermit)},
		{RoutePermitStatus, http.MethodPatch, permitStatusPath, auth.RoleRestricted(auth.RoleAdmin), http.HandlerFunc(a.handleUpdatePermitStatus)},
		{RoutePermitDelete, http.MethodDelete, permitPath, anyRole, http.HandlerFunc(a.handleDeletePermit)},
	}
}

func (a *API) registerRoutes() {
	for _, rt := range a.routeTable() {
		a.router.Handle(rt.path, rt.handler).Methods(rt.method).Name(rt.name)
		a.requirements[rt.name] = rt.requirement
	}
	a.router.Use(a.withAccess)
	a.router.NotFoundHandler = http.HandlerFunc(a.notFound)
	a.router.MethodNotAllowedHandler = http.HandlerFunc(a.methodNotAllowed)
}

// requirementFor looks up the requirement of a named route.
func (a *API) requirementFor(name string) (auth.Requirement, bool) {
	req, ok := a.requirements[name]
	return req, ok
}
