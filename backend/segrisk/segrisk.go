package segrisk

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"nightsafe/backend/geoutil"
	"nightsafe/backend/priority"
	"nightsafe/backend/server/api"

	"github.com/golang/geo/s2"
	"github.com/shopspring/decimal"
)

const (
	DefaultLookbackDays = 30
	DefaultBBoxDelta    = 0.002 // degrees

	nightStartHour = 19
	nightEndHour   = 5

	highRiskScore    = 40.0
	highRiskSignals  = 3
	mediumRiskScore  = 15.0
	maxTopCategories = 3
	maxTopSignals    = 3
)

var ErrInvalidSegment = errors.New("route segment needs at least 2 points")

var relevantCategories = [api.CategoryCount]bool{
	api.CategorySafety:      true,
	api.CategoryTransport:   true,
	api.CategoryPublicSpace: true,
}

type Options struct {
	Now          time.Time
	LookbackDays int
	BBoxDelta    float64
	// Location defines "local" for night hours. Defaults to UTC.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	if o.BBoxDelta <= 0 {
		o.BBoxDelta = DefaultBBoxDelta
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func RiskLevel(score float64, highRiskCount int) api.RiskLevel {
	switch {
	case score >= highRiskScore || highRiskCount >= highRiskSignals:
		return api.RiskHigh
	case score >= mediumRiskScore:
		return api.RiskMedium
	}
	return api.RiskLow
}

func IsNight(t time.Time, loc *time.Location) bool {
	h := t.In(loc).Hour()
	return h >= nightStartHour || h < nightEndHour
}

// BoundingRect is the segment's bounding box expanded by delta degrees on every side.
func BoundingRect(seg api.RouteSegment, delta float64) (s2.Rect, error) {
	if len(seg.Polyline) < 2 {
		return s2.EmptyRect(), fmt.Errorf("%w: segment %q has %d", ErrInvalidSegment, seg.Id, len(seg.Polyline))
	}
	rect := s2.RectFromLatLng(geoutil.LatLng(seg.Polyline[0]))
	for _, p := range seg.Polyline[1:] {
		rect = rect.AddPoint(geoutil.LatLng(p))
	}
	return rect.Expanded(s2.LatLngFromDegrees(delta, delta)), nil
}

func eligible(reports []api.Report, opts Options) []api.Report {
	since := opts.Now.Add(-time.Duration(opts.LookbackDays) * 24 * time.Hour)
	r := make([]api.Report, 0, len(reports))
	for _, rep := range reports {
		if !rep.Category.Valid() || !relevantCategories[rep.Category] {
			continue
		}
		if rep.EventTime.Before(since) || rep.EventTime.After(opts.Now) {
			continue
		}
		if !IsNight(rep.EventTime, opts.Location) {
			continue
		}
		r = append(r, rep)
	}
	return r
}

// Evaluate scores every segment against the night-time reports around it.
// The result is ordered by score, riskiest first.
func Evaluate(segments []api.RouteSegment, reports []api.Report, opts Options) ([]api.SegmentRisk, error) {
	opts = opts.withDefaults()

	rects := make([]s2.Rect, len(segments))
	for i, seg := range segments {
		rect, err := BoundingRect(seg, opts.BBoxDelta)
		if err != nil {
			return nil, err
		}
		rects[i] = rect
	}

	candidates := eligible(reports, opts)
	r := make([]api.SegmentRisk, 0, len(segments))
	for i, seg := range segments {
		matched := make([]api.Report, 0)
		for _, rep := range candidates {
			if rects[i].ContainsLatLng(s2.LatLngFromDegrees(rep.Latitude, rep.Longitude)) {
				matched = append(matched, rep)
			}
		}
		r = append(r, score(seg, matched))
	}

	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Score != r[j].Score {
			return r[i].Score > r[j].Score
		}
		return r[i].SegmentId < r[j].SegmentId
	})
	return r, nil
}

func score(seg api.RouteSegment, matched []api.Report) api.SegmentRisk {
	sum := decimal.Zero
	high := 0
	for _, rep := range matched {
		sum = sum.Add(decimal.NewFromFloat(rep.PriorityScore))
		if rep.PriorityScore >= priority.HighThreshold {
			high++
		}
	}
	total := sum.Round(1).InexactFloat64()
	return api.SegmentRisk{
		SegmentId:     seg.Id,
		RouteId:       seg.RouteId,
		Name:          seg.Name,
		Score:         total,
		RiskLevel:     RiskLevel(total, high),
		MatchedCount:  len(matched),
		HighRiskCount: high,
		TopCategories: topCategories(matched),
		TopSignals:    priority.TopSignals(matched, maxTopSignals),
	}
}

func topCategories(matched []api.Report) []api.Category {
	counts := [api.CategoryCount]int{}
	for _, rep := range matched {
		counts[rep.Category]++
	}
	cats := make([]api.Category, 0, api.CategoryCount)
	for c, n := range counts {
		if n > 0 {
			cats = append(cats, api.Category(c))
		}
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return counts[cats[i]] > counts[cats[j]]
	})
	if len(cats) > maxTopCategories {
		cats = cats[:maxTopCategories]
	}
	return cats
}

// RouteRisk sums segment scores per route.
func RouteRisk(risks []api.SegmentRisk) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, sr := range risks {
		sums[sr.RouteId] = sums[sr.RouteId].Add(decimal.NewFromFloat(sr.Score))
	}
	r := make(map[string]float64, len(sums))
	for id, s := range sums {
		r[id] = s.InexactFloat64()
	}
	return r
}

// RankRoutes lists routes by summed segment risk, riskiest first.
func RankRoutes(risks []api.SegmentRisk) []api.RouteRisk {
	r := make([]api.RouteRisk, 0)
	for id, s := range RouteRisk(risks) {
		r = append(r, api.RouteRisk{RouteId: id, Score: s})
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].Score != r[j].Score {
			return r[i].Score > r[j].Score
		}
		return r[i].RouteId < r[j].RouteId
	})
	return r
}
