package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

// mountForTest adapts MountAppRoutes to cartridge's RouteMountFunc shape.
// Route registration never dereferences the CRM handle, so nil is safe here.
func mountForTest(srv *cartridge.Server) {
	MountAppRoutes(srv, nil)
}

func findRoute(routes []fiber.Route, method, path string) *fiber.Route {
	for idx := range routes {
		if routes[idx].Method == method && routes[idx].Path == path {
			return &routes[idx]
		}
	}
	return nil
}

func TestDrilldownRouteProtected(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: mountForTest,
	})
	routes := srv.App.GetRoutes(true)

	reportRoute := findRoute(routes, fiber.MethodPost, "/api/v1/reports/drilldown")
	require.NotNil(t, reportRoute, "expected drilldown route to be registered")

	// The rate limiter is wrapped in a conditional function that only applies
	// in production; the API key check is a middleware closure. Both should
	// sit in front of the handler.
	var hasRateLimiter, hasAPIKeyAuth bool
	var handlerNames []string
	for _, handler := range reportRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
		}
		if strings.Contains(name, "APIKeyAuth") {
			hasAPIKeyAuth = true
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware on the drilldown route, handlers: %v", handlerNames)
	require.Truef(t, hasAPIKeyAuth, "expected API key middleware on the drilldown route, handlers: %v", handlerNames)
}

func TestReportAPIRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: mountForTest,
	})
	routes := srv.App.GetRoutes(true)

	require.NotNil(t, findRoute(routes, fiber.MethodGet, "/api/v1/dimensions"),
		"expected dimensions route to be registered")

	// Preflights are mounted without auth so browsers can negotiate CORS.
	for _, path := range []string{"/api/v1/reports/drilldown", "/api/v1/dimensions"} {
		preflight := findRoute(routes, fiber.MethodOptions, path)
		require.NotNilf(t, preflight, "expected OPTIONS route for %s", path)

		for _, handler := range preflight.Handlers {
			name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
			require.NotContainsf(t, name, "APIKeyAuth",
				"preflight for %s must not require the API key", path)
		}
	}
}

func TestHealthRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: mountForTest,
	})
	routes := srv.App.GetRoutes(true)

	require.NotNil(t, findRoute(routes, fiber.MethodGet, "/_health"),
		"expected health route to be registered")
	require.NotNil(t, findRoute(routes, fiber.MethodHead, "/_health"),
		"expected HEAD health route to be registered")
}
