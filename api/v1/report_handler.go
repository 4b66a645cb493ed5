package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"github.com/adima959/vl-marketing-tool-sub006/internal/daterange"
	"github.com/adima959/vl-marketing-tool-sub006/internal/dimensions"
	"github.com/adima959/vl-marketing-tool-sub006/internal/reports"
)

const errInvalidRequest = "Invalid request"

// DrilldownReportParams is the request body for one drill-down level. The
// optional tz names an IANA location for interpreting the day boundaries;
// it defaults to UTC.
type DrilldownReportParams struct {
	Dimensions []string          `json:"dimensions"`
	Depth      int               `json:"depth"`
	Filters    map[string]string `json:"filters"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Timezone   string            `json:"tz"`
	SortBy     string            `json:"sortBy"`
	Limit      int               `json:"limit"`
}

// DrilldownReportHandler serves one level of the attribution drill-down.
// The tracker store comes from the request context; the CRM store handle is
// bound when routes are mounted.
func DrilldownReportHandler(crmDB *gorm.DB) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		var params DrilldownReportParams
		if err := ctx.Ctx.BodyParser(&params); err != nil {
			ctx.Logger.Debug("Failed to parse report request", slog.Any("error", err))
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": errInvalidRequest,
			})
		}

		loc := time.UTC
		if params.Timezone != "" {
			parsed, err := time.LoadLocation(params.Timezone)
			if err != nil {
				return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": fmt.Sprintf("unknown timezone %q", params.Timezone),
				})
			}
			loc = parsed
		}

		dateRange, err := daterange.ParseIn(params.From, params.To, loc)
		if err != nil {
			return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		deps := reports.Deps{
			Visits: ctx.DBManager.GetConnection(),
			CRM:    crmDB,
			Logger: ctx.Logger,
		}

		report, err := reports.Generate(ctx.Ctx.Context(), deps, reports.ReportParams{
			Dimensions: params.Dimensions,
			Depth:      params.Depth,
			Filters:    params.Filters,
			Range:      dateRange,
			SortBy:     params.SortBy,
			Limit:      params.Limit,
		})
		if err != nil {
			if reports.IsValidationError(err) {
				return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": err.Error(),
				})
			}

			// Store and pipeline failures stay opaque to the caller.
			ctx.Logger.Error("Failed to generate report", slog.Any("error", err))
			return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate report",
				"code":  "REPORT_ERROR",
			})
		}

		return ctx.Status(http.StatusOK).JSON(report)
	}
}

// DimensionInfo describes one reportable dimension.
type DimensionInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Mode  string `json:"mode"`
}

// ListDimensionsHandler returns the dimension registry so clients can build
// drill-down hierarchies without hardcoding ids.
func ListDimensionsHandler(ctx *cartridge.Context) error {
	dims := dimensions.All()
	out := make([]DimensionInfo, 0, len(dims))
	for _, dim := range dims {
		out = append(out, DimensionInfo{
			ID:    dim.ID,
			Label: dim.Label,
			Mode:  dim.Mode.String(),
		})
	}
	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"dimensions": out,
	})
}
