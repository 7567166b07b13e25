package api

import (
	"encoding/json"
	"testing"
)

func TestCategoryNames(t *testing.T) {
	for c := Category(0); c < CategoryCount; c++ {
		if categoryNames[c] == "" {
			t.Errorf("Category %d has no name", int(c))
		}
		back, err := ParseCategory(c.String())
		if err != nil || back != c {
			t.Errorf("ParseCategory(%q): got %v, %v", c.String(), back, err)
		}
	}
	for s := Status(0); s < StatusCount; s++ {
		if statusNames[s] == "" {
			t.Errorf("Status %d has no name", int(s))
		}
	}
	for g := AffectedGroup(0); g < GroupCount; g++ {
		if groupNames[g] == "" {
			t.Errorf("AffectedGroup %d has no name", int(g))
		}
	}
}

func TestReportJSON(t *testing.T) {
	in := `{"id":"r1","category":"public_space","severity":3,"affected_groups":["women","low_income"],"status":"in_progress"}`
	var r Report
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Category != CategoryPublicSpace || r.Status != StatusInProgress {
		t.Errorf("Unmarshal: got category %v, status %v", r.Category, r.Status)
	}
	if len(r.AffectedGroups) != 2 || r.AffectedGroups[1] != GroupLowIncome {
		t.Errorf("Unmarshal: got groups %v", r.AffectedGroups)
	}

	for _, bad := range []string{
		`{"category":"karaoke"}`,
		`{"status":"done"}`,
		`{"affected_groups":["martians"]}`,
	} {
		if err := json.Unmarshal([]byte(bad), &r); err == nil {
			t.Errorf("Unmarshal(%s): expected error", bad)
		}
	}

	if _, err := json.Marshal(Report{Category: CategoryCount}); err == nil {
		t.Errorf("Marshal: expected error for out of range category")
	}
}

func TestViewPortContains(t *testing.T) {
	vp := ViewPort{LatMin: 1, LonMin: 2, LatMax: 3, LonMax: 4}
	if !vp.Contains(1, 4) || vp.Contains(0.9, 3) || vp.Contains(2, 4.1) {
		t.Errorf("Contains: wrong result for %v", vp)
	}
}
