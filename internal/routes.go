package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"
	"gorm.io/gorm"

	v1 "github.com/adima959/vl-marketing-tool-sub006/api/v1"
	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/http"
	"github.com/adima959/vl-marketing-tool-sub006/internal/http/middleware"
)

// reportAPICORSConfig is the CORS configuration for the reporting API.
// Dashboards are expected to live on other origins, so cross-origin access
// stays permissive; the API key is what actually gates access.
var reportAPICORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// MountAppRoutes mounts all application routes using cartridge's route API.
// The CRM store handle is passed in separately because cartridge's DBManager
// only carries the tracker store; report handlers fan out to both.
func MountAppRoutes(srv *cartridge.Server, crmDB *gorm.DB) {
	cfg := config.GetConfig()
	logger := srv.GetLogger()

	// ============================================
	// REPORT API PROTECTION
	// All /api/v1 endpoints get the following protection:
	// - Rate limiting (30 req/min, production only)
	// - API key auth (Bearer token, constant-time compare)
	// - CORS (permissive, auth happens via the key)
	// ============================================

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Rate limiter for the reporting API (30 requests per minute per IP)
	// Drill-down reports fan out into several aggregate queries per request,
	// so the ceiling is lower than a typical read API
	reportRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(30),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	// Reporting API config
	// CORS runs first so 401/422 responses still carry CORS headers.
	// Sec-Fetch-Site is disabled: server-to-server clients never send it
	reportAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CORSConfig:         reportAPICORSConfig,
		CustomMiddleware: []fiber.Handler{
			reportRateLimiter,
			middleware.APIKeyAuth(cfg.APIKey, logger),
		},
	}

	// Preflight config: same CORS surface, no auth (browsers send OPTIONS
	// without the Authorization header)
	preflightConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CORSConfig:         reportAPICORSConfig,
	}

	// === ROOT ROUTES ===

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === REPORTING API ROUTES ===
	srv.Post("/api/v1/reports/drilldown", v1.DrilldownReportHandler(crmDB), reportAPIConfig)
	srv.Options("/api/v1/reports/drilldown", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, preflightConfig)

	srv.Get("/api/v1/dimensions", v1.ListDimensionsHandler, reportAPIConfig)
	srv.Options("/api/v1/dimensions", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, preflightConfig)
}
