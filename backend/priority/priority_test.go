package priority

import (
	"math"
	"testing"
	"time"

	"nightsafe/backend/server/api"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name          string
		severity      int
		confirmations int
		groups        []api.AffectedGroup

		expectScore float64
		expectBadge api.Badge
	}{
		{
			name:          "Disabled, three confirmations",
			severity:      5,
			confirmations: 3,
			groups:        []api.AffectedGroup{api.GroupDisabled},
			expectScore:   24.0,
			expectBadge:   api.BadgeHigh,
		}, {
			name:          "No confirmations, no groups",
			severity:      2,
			confirmations: 0,
			groups:        nil,
			expectScore:   2.0,
			expectBadge:   api.BadgeLow,
		}, {
			name:          "Averaged groups",
			severity:      3,
			confirmations: 1,
			groups:        []api.AffectedGroup{api.GroupWomen, api.GroupChildren},
			expectScore:   4.2,
			expectBadge:   api.BadgeLow,
		}, {
			name:          "Duplicate group counted once",
			severity:      4,
			confirmations: 2,
			groups:        []api.AffectedGroup{api.GroupElderly, api.GroupElderly},
			expectScore:   11.2,
			expectBadge:   api.BadgeHigh,
		}, {
			name:          "Medium boundary",
			severity:      3,
			confirmations: 2,
			groups:        []api.AffectedGroup{},
			expectScore:   6.0,
			expectBadge:   api.BadgeMedium,
		},
	}

	for _, testCase := range testCases {
		s := Score(testCase.severity, testCase.confirmations, testCase.groups)
		if math.Abs(s-testCase.expectScore) > 1e-9 {
			t.Errorf("%s: expected score %f, got %f", testCase.name, testCase.expectScore, s)
		}
		if b := BadgeFor(s); b != testCase.expectBadge {
			t.Errorf("%s: expected badge %s, got %s", testCase.name, testCase.expectBadge, b)
		}
	}
}

func TestScoreMonotonic(t *testing.T) {
	groupSets := [][]api.AffectedGroup{
		nil,
		{api.GroupWomen},
		{api.GroupChildren, api.GroupLowIncome},
		{api.GroupWomen, api.GroupChildren, api.GroupElderly, api.GroupDisabled, api.GroupLowIncome},
	}
	for _, g := range groupSets {
		for s := 1; s <= 5; s++ {
			for c := 0; c <= 20; c++ {
				cur := Score(s, c, g)
				if s < 5 && Score(s+1, c, g) < cur {
					t.Errorf("score decreased in severity at s=%d c=%d groups=%v", s, c, g)
				}
				if Score(s, c+1, g) < cur {
					t.Errorf("score decreased in confirmations at s=%d c=%d groups=%v", s, c, g)
				}
			}
		}
	}
}

func TestGroupWeightTableComplete(t *testing.T) {
	for g := api.AffectedGroup(0); g < api.GroupCount; g++ {
		if GroupWeight(g) <= 1 {
			t.Errorf("group %s has no vulnerability weight", g)
		}
	}
}

func TestRescore(t *testing.T) {
	r := &api.Report{Severity: 5, ConfirmationsCount: 3, AffectedGroups: []api.AffectedGroup{api.GroupDisabled}, PriorityScore: 99}
	Rescore(r)
	if math.Abs(r.PriorityScore-24.0) > 1e-9 {
		t.Errorf("expected 24.0, got %f", r.PriorityScore)
	}
}

func TestTopSignals(t *testing.T) {
	now := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	reports := []api.Report{
		{Id: "a", PriorityScore: 3, EventTime: now},
		{Id: "b", PriorityScore: 12, EventTime: now},
		{Id: "c", PriorityScore: 7, EventTime: now.Add(-time.Hour)},
		{Id: "d", PriorityScore: 7, EventTime: now},
		{Id: "e", PriorityScore: 1, EventTime: now},
	}
	top := TopSignals(reports, 3)
	got := []string{}
	for _, r := range top {
		got = append(got, r.Id)
	}
	expected := []string{"b", "d", "c"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
	if reports[0].Id != "a" {
		t.Errorf("input slice was reordered")
	}
	if len(TopSignals(nil, 3)) != 0 {
		t.Errorf("expected empty result for empty input")
	}
}
