package priority

import (
	"context"
	"errors"
	"sort"

	"nightsafe/backend/server/api"
)

const (
	HighThreshold   = 10.0
	MediumThreshold = 6.0

	DefaultMaxAttempts = 5
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrRetryableConflict = errors.New("confirmation conflict, retry later")
	ErrInvalidConfirm    = errors.New("report id and user id are required")
)

var groupWeight = [api.GroupCount]float64{
	api.GroupWomen:     1.3,
	api.GroupChildren:  1.5,
	api.GroupElderly:   1.4,
	api.GroupDisabled:  1.6,
	api.GroupLowIncome: 1.2,
}

// Confirmer records a user's confirmation of a report. A (reportId, userId)
// pair is recorded at most once; a repeated call reports AlreadyConfirmed.
type Confirmer interface {
	Confirm(ctx context.Context, reportId, userId string) (*api.ConfirmResult, error)
}

func GroupWeight(g api.AffectedGroup) float64 {
	if !g.Valid() {
		return 1
	}
	return groupWeight[g]
}

func VulnerabilityMultiplier(groups []api.AffectedGroup) float64 {
	seen := [api.GroupCount]bool{}
	sum, n := 0.0, 0
	for _, g := range groups {
		if !g.Valid() || seen[g] {
			continue
		}
		seen[g] = true
		sum += groupWeight[g] - 1
		n++
	}
	if n == 0 {
		return 1
	}
	return 1 + sum/float64(n)
}

func Score(severity, confirmations int, groups []api.AffectedGroup) float64 {
	factor := confirmations
	if factor < 1 {
		factor = 1
	}
	return float64(severity) * float64(factor) * VulnerabilityMultiplier(groups)
}

func BadgeFor(score float64) api.Badge {
	switch {
	case score >= HighThreshold:
		return api.BadgeHigh
	case score >= MediumThreshold:
		return api.BadgeMedium
	}
	return api.BadgeLow
}

// Rescore is the only place a report's PriorityScore is written.
func Rescore(r *api.Report) {
	r.PriorityScore = Score(r.Severity, r.ConfirmationsCount, r.AffectedGroups)
}

// TopSignals returns up to n reports ordered by priority, most urgent first.
// The input slice is not modified.
func TopSignals(reports []api.Report, n int) []api.Report {
	if n <= 0 || len(reports) == 0 {
		return []api.Report{}
	}
	sorted := make([]api.Report, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if !a.EventTime.Equal(b.EventTime) {
			return a.EventTime.After(b.EventTime)
		}
		return a.Id < b.Id
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
