package auth

import (
	"net/http"
	"strings"
)

type Provider interface {
	// Authenticate is called to authenticate the request.
	// Provider must update the context with the user and call next.ServeHTTP or return a http error.
	Authenticate(next http.Handler, required bool) http.Handler
}

// Policy describes how requests to a route are authenticated.
// A zero Policy lets requests through anonymously.
type Policy struct {
	Provider Provider
	Required bool
	// Capability must be held by the authenticated user when set.
	Capability string
}

type route struct {
	method   string
	segments []string
	policy   Policy
}

// RouteAuthMiddleware applies the policy of the first route matching a request,
// or the fallback policy when none does. Routes are patterns like
// "POST /api/sources/{id}/search". The method may be "*", and a trailing
// "*" segment matches any remainder of the path.
type RouteAuthMiddleware struct {
	routes     []route
	public     []string
	fallback   Policy
	writeError ErrorWriter
}

func NewRouteAuthMiddleware(fallback Policy, writeError ErrorWriter) *RouteAuthMiddleware {
	if writeError == nil {
		writeError = defaultErrorWriter
	}
	return &RouteAuthMiddleware{
		fallback:   fallback,
		writeError: writeError,
	}
}

// Route sets the policy for pattern. Earlier routes take precedence.
func (m *RouteAuthMiddleware) Route(pattern string, policy Policy) *RouteAuthMiddleware {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		method, path = "*", pattern
	}

	m.routes = append(m.routes, route{
		method:   method,
		segments: splitPath(path),
		policy:   policy,
	})
	return m
}

// Public skips authentication for every path under prefix.
func (m *RouteAuthMiddleware) Public(prefix string) *RouteAuthMiddleware {
	m.public = append(m.public, prefix)
	return m
}

func (m *RouteAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight requests carry no credentials.
		if r.Method == http.MethodOptions || m.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		policy := m.policyFor(r.Method, r.URL.Path)
		if policy.Provider == nil {
			next.ServeHTTP(w, r)
			return
		}

		handler := next
		if policy.Capability != "" {
			handler = RequireCapability(policy.Capability, m.writeError)(handler)
		}
		policy.Provider.Authenticate(handler, policy.Required || policy.Capability != "").ServeHTTP(w, r)
	})
}

func (m *RouteAuthMiddleware) isPublic(path string) bool {
	for _, prefix := range m.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *RouteAuthMiddleware) policyFor(method, path string) Policy {
	segments := splitPath(path)
	for _, rt := range m.routes {
		if rt.matches(method, segments) {
			return rt.policy
		}
	}
	return m.fallback
}

func (rt route) matches(method string, segments []string) bool {
	if rt.method != "*" && rt.method != method {
		return false
	}

	for i, part := range rt.segments {
		if part == "*" && i == len(rt.segments)-1 {
			return true
		}
		if i >= len(segments) {
			return false
		}
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			continue
		}
		if part != segments[i] {
			return false
		}
	}
	return len(segments) == len(rt.segments)
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}
