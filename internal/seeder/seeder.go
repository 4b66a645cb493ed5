// Package seeder fills both stores with correlated demo data so a fresh
// install renders non-empty drill-down reports.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pariz/gountries"
	"gorm.io/gorm"

	"github.com/adima959/vl-marketing-tool-sub006/internal/crm"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

// Seeder generates demo visitors, their visits in the tracker store and
// the orders some of them placed in the CRM store.
type Seeder struct {
	Tracker      *gorm.DB
	CRM          *gorm.DB
	Logger       *slog.Logger
	VisitorCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(tracker, crmDB *gorm.DB, logger *slog.Logger, visitorCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if visitorCount <= 0 {
		visitorCount = 2000
	}
	return &Seeder{
		Tracker:      tracker,
		CRM:          crmDB,
		Logger:       logger,
		VisitorCount: visitorCount,
	}
}

// campaignSpec describes one traffic source and how well it converts.
type campaignSpec struct {
	network      string
	campaign     string
	adsets       []string
	creatives    []string
	weight       int     // relative share of seeded visitors
	trialRate    float64 // chance a visitor starts a trial
	approvalRate float64 // chance a trial gets approved
}

// campaignCatalog is the fixed media plan the demo data is drawn from.
// The last entry is untracked traffic: direct visits and channels that
// strip tags, which is what the "unknown" buckets in reports come from.
var campaignCatalog = []campaignSpec{
	{
		network:      "google",
		campaign:     "branded-search",
		adsets:       []string{"exact-brand", "broad-brand"},
		creatives:    []string{"headline-a", "headline-b"},
		weight:       30,
		trialRate:    0.18,
		approvalRate: 0.60,
	},
	{
		network:      "google",
		campaign:     "competitor-keywords",
		adsets:       []string{"rivals-us", "rivals-eu"},
		creatives:    []string{"compare-page", "switch-now"},
		weight:       15,
		trialRate:    0.08,
		approvalRate: 0.45,
	},
	{
		network:      "facebook",
		campaign:     "summer-sale",
		adsets:       []string{"lookalike-1pct", "retargeting-30d"},
		creatives:    []string{"video-15s", "carousel-blue", "static-discount"},
		weight:       25,
		trialRate:    0.12,
		approvalRate: 0.50,
	},
	{
		network:      "tiktok",
		campaign:     "ugc-creators",
		adsets:       []string{"gen-z-broad"},
		creatives:    []string{"creator-max", "creator-lena"},
		weight:       10,
		trialRate:    0.06,
		approvalRate: 0.35,
	},
	{
		network:      "",
		campaign:     "",
		adsets:       []string{""},
		creatives:    []string{""},
		weight:       20,
		trialRate:    0.04,
		approvalRate: 0.55,
	},
}

// Visitor profile pools. Repeats skew the distribution the way real
// traffic skews it.
var (
	seedCountries    = []string{"US", "US", "US", "DE", "GB", "FR", "BR", "IN", "CA", "AU"}
	seedDevices      = []string{"desktop", "desktop", "mobile", "mobile", "mobile", "tablet"}
	seedBrowsers     = []string{"chrome", "chrome", "chrome", "safari", "firefox", "edge"}
	seedLanguages    = []string{"en", "en", "en", "de", "fr", "pt", "hi"}
	seedLandingPages = []string{"/", "/pricing", "/features", "/signup", "/blog/attribution-guide"}
)

var countryIndex = gountries.New()

// Run seeds both stores. It refuses to run on a tracker store that already
// holds visits so repeated invocations cannot pile up duplicate demo data.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()

	var existing int64
	if err := s.Tracker.Model(&visits.Visit{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to inspect tracker store: %w", err)
	}
	if existing > 0 {
		s.Logger.Info("Tracker store already holds visits, skipping seed",
			slog.Int64("visits", existing))
		return nil
	}

	s.Logger.Info("Seeding demo data...", slog.Int("visitors", s.VisitorCount))

	var (
		visitRows []visits.Visit
		orderRows []crm.Order
	)

	for i := 0; i < s.VisitorCount; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		visitorID := fmt.Sprintf("visitor-%06d", i+1)
		profile := newProfile()

		spec := pickCampaign()
		lastVisit := appendVisits(&visitRows, visitorID, profile, spec)

		// A slice of visitors shops around: a second campaign touch makes
		// the proportional and visitor-based splits non-trivial.
		if rand.Float64() < 0.15 {
			second := pickCampaign()
			if t := appendVisits(&visitRows, visitorID, profile, second); t.After(lastVisit) {
				lastVisit = t
				spec = second
			}
		}

		if rand.Float64() < spec.trialRate {
			orderRows = append(orderRows, buildOrder(visitorID, profile, spec, lastVisit))
		}
	}

	if err := s.Tracker.CreateInBatches(visitRows, 100).Error; err != nil {
		return fmt.Errorf("failed to seed visits: %w", err)
	}
	if len(orderRows) > 0 {
		if err := s.CRM.CreateInBatches(orderRows, 100).Error; err != nil {
			return fmt.Errorf("failed to seed orders: %w", err)
		}
	}

	s.Logger.Info("Seed completed",
		slog.Int("visits", len(visitRows)),
		slog.Int("orders", len(orderRows)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// profile holds the per-visitor characteristics that stay constant across
// that visitor's visits.
type profile struct {
	countryCode string
	deviceType  string
	browser     string
	language    string
	landingPage string
}

func newProfile() profile {
	return profile{
		countryCode: seedCountries[rand.IntN(len(seedCountries))],
		deviceType:  seedDevices[rand.IntN(len(seedDevices))],
		browser:     seedBrowsers[rand.IntN(len(seedBrowsers))],
		language:    seedLanguages[rand.IntN(len(seedLanguages))],
		landingPage: seedLandingPages[rand.IntN(len(seedLandingPages))],
	}
}

// pickCampaign draws from the catalog proportionally to the weights.
func pickCampaign() campaignSpec {
	total := 0
	for _, c := range campaignCatalog {
		total += c.weight
	}

	n := rand.IntN(total)
	for _, c := range campaignCatalog {
		if n < c.weight {
			return c
		}
		n -= c.weight
	}
	return campaignCatalog[0]
}

// appendVisits adds one to three visits for the visitor within the last
// 30 days and returns the time of the latest one.
func appendVisits(rows *[]visits.Visit, visitorID string, p profile, spec campaignSpec) time.Time {
	count := rand.IntN(3) + 1
	base := time.Now().AddDate(0, 0, -(rand.IntN(28) + 2))

	var last time.Time
	for v := 0; v < count; v++ {
		occurredAt := base.Add(time.Duration(v)*18*time.Hour +
			time.Duration(rand.IntN(3600))*time.Second)
		if occurredAt.After(last) {
			last = occurredAt
		}

		*rows = append(*rows, visits.Visit{
			VisitorID:   visitorID,
			OccurredAt:  occurredAt,
			Network:     spec.network,
			Campaign:    spec.campaign,
			Adset:       spec.adsets[rand.IntN(len(spec.adsets))],
			Creative:    spec.creatives[rand.IntN(len(spec.creatives))],
			CountryCode: p.countryCode,
			DeviceType:  p.deviceType,
			Browser:     p.browser,
			LandingPage: p.landingPage,
			Language:    p.language,
		})
	}
	return last
}

// buildOrder creates the CRM side of a conversion. It reproduces the
// messiness of real CRM writers: some rows carry the literal string "null"
// in tracking columns, some lose the visitor cookie, some miss the billing
// country.
func buildOrder(visitorID string, p profile, spec campaignSpec, lastVisit time.Time) crm.Order {
	createdAt := lastVisit.Add(time.Duration(rand.IntN(71)+1) * time.Hour)

	network, campaign := spec.network, spec.campaign
	adset := spec.adsets[rand.IntN(len(spec.adsets))]
	creative := spec.creatives[rand.IntN(len(spec.creatives))]
	if network == "" && rand.Float64() < 0.5 {
		// Legacy CRM writer spells missing attribution as "null".
		network, campaign, adset, creative = "null", "null", "null", "null"
	}

	order := crm.Order{
		CreatedAt: createdAt,
		VisitorID: visitorID,
		Network:   network,
		Campaign:  campaign,
		Adset:     adset,
		Creative:  creative,
		Country:   countryName(p.countryCode),
		IsTrial:   true,
	}

	if rand.Float64() < 0.1 {
		order.VisitorID = ""
	}
	if rand.Float64() < 0.1 {
		order.Country = ""
	}
	order.IsApproved = rand.Float64() < spec.approvalRate

	return order
}

// countryName resolves an ISO code to the full English name the CRM
// stores, falling back to the code itself.
func countryName(code string) string {
	country, err := countryIndex.FindCountryByAlpha(code)
	if err != nil {
		return code
	}
	return country.Name.Common
}
