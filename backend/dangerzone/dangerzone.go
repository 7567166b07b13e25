package dangerzone

import (
	"time"

	"nightsafe/backend/grid"
	"nightsafe/backend/server/api"
)

const (
	DefaultLookbackDays = 30
	DefaultCellSize     = 0.005 // degrees, roughly 500m at mid latitudes
	DefaultBaseRadius   = 150.0 // meters

	denseClusterReports = 3
	denseRadiusFactor   = 1.5
)

// DefaultCategories are the report categories that carry personal-safety risk.
var DefaultCategories = []api.Category{
	api.CategorySafety,
	api.CategoryTransport,
	api.CategoryPublicSpace,
	api.CategoryLighting,
	api.CategoryHarassment,
}

type Options struct {
	Now          time.Time
	LookbackDays int
	CellSize     float64
	BaseRadius   float64
	Categories   []api.Category
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	if o.CellSize <= 0 {
		o.CellSize = DefaultCellSize
	}
	if o.BaseRadius <= 0 {
		o.BaseRadius = DefaultBaseRadius
	}
	if len(o.Categories) == 0 {
		o.Categories = DefaultCategories
	}
	return o
}

// PressureRadius is how far a zone pushes routes away. Dense clusters reach further.
func PressureRadius(baseRadius float64, reportCount int) float64 {
	if reportCount > denseClusterReports {
		return baseRadius * denseRadiusFactor
	}
	return baseRadius
}

// Filter keeps reports inside the lookback window ending at now whose category
// is one of cats.
func Filter(reports []api.Report, now time.Time, lookbackDays int, cats []api.Category) []api.Report {
	allowed := [api.CategoryCount]bool{}
	for _, c := range cats {
		if c.Valid() {
			allowed[c] = true
		}
	}
	since := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	r := make([]api.Report, 0, len(reports))
	for _, rep := range reports {
		if !rep.Category.Valid() || !allowed[rep.Category] {
			continue
		}
		if rep.EventTime.Before(since) || rep.EventTime.After(now) {
			continue
		}
		r = append(r, rep)
	}
	return r
}

// Aggregate derives danger zones from the report snapshot, heaviest first.
func Aggregate(reports []api.Report, opts Options) ([]api.DangerZone, error) {
	opts = opts.withDefaults()
	recent := Filter(reports, opts.Now, opts.LookbackDays, opts.Categories)
	cells, err := grid.Build(grid.FromReports(recent), opts.CellSize)
	if err != nil {
		return nil, err
	}
	zones := make([]api.DangerZone, 0, len(cells))
	for _, c := range cells {
		zones = append(zones, api.DangerZone{
			CellId:      c.Id,
			Center:      c.Center,
			Weight:      c.Weight,
			ReportCount: c.Count,
			Radius:      PressureRadius(opts.BaseRadius, c.Count),
		})
	}
	return zones, nil
}
