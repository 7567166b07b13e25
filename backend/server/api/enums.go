package api

import (
	"fmt"
)

type Category int

const (
	CategorySafety Category = iota
	CategoryTransport
	CategoryPublicSpace
	CategoryLighting
	CategoryHarassment
	CategoryInfrastructure
	CategorySanitation
	CategoryOther
	CategoryCount
)

var categoryNames = [CategoryCount]string{
	CategorySafety:         "safety",
	CategoryTransport:      "transport",
	CategoryPublicSpace:    "public_space",
	CategoryLighting:       "lighting",
	CategoryHarassment:     "harassment",
	CategoryInfrastructure: "infrastructure",
	CategorySanitation:     "sanitation",
	CategoryOther:          "other",
}

func (c Category) Valid() bool {
	return c >= 0 && c < CategoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

type Status int

const (
	StatusNew Status = iota
	StatusInReview
	StatusInProgress
	StatusResolved
	StatusRejected
	StatusCount
)

var statusNames = [StatusCount]string{
	StatusNew:        "new",
	StatusInReview:   "in_review",
	StatusInProgress: "in_progress",
	StatusResolved:   "resolved",
	StatusRejected:   "rejected",
}

func (s Status) Valid() bool {
	return s >= 0 && s < StatusCount
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

type AffectedGroup int

const (
	GroupWomen AffectedGroup = iota
	GroupChildren
	GroupElderly
	GroupDisabled
	GroupLowIncome
	GroupCount
)

var groupNames = [GroupCount]string{
	GroupWomen:     "women",
	GroupChildren:  "children",
	GroupElderly:   "elderly",
	GroupDisabled:  "disabled",
	GroupLowIncome: "low_income",
}

func (g AffectedGroup) Valid() bool {
	return g >= 0 && g < GroupCount
}

func (g AffectedGroup) String() string {
	if !g.Valid() {
		return fmt.Sprintf("AffectedGroup(%d)", int(g))
	}
	return groupNames[g]
}

func (g AffectedGroup) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("unknown affected group %d", int(g))
	}
	return []byte(groupNames[g]), nil
}

func (g *AffectedGroup) UnmarshalText(b []byte) error {
	v, err := ParseAffectedGroup(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

func ParseAffectedGroup(s string) (AffectedGroup, error) {
	for i, name := range groupNames {
		if name == s {
			return AffectedGroup(i), nil
		}
	}
	return 0, fmt.Errorf("unknown affected group %q", s)
}

type OverlayType string

const (
	OverlaySafe   OverlayType = "safe"
	OverlayUnsafe OverlayType = "unsafe"
)

type Badge string

const (
	BadgeHigh   Badge = "High"
	BadgeMedium Badge = "Medium"
	BadgeLow    Badge = "Low"
)

type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

type Recommendation string

const (
	RecommendSafest      Recommendation = "safest"
	RecommendFastest     Recommendation = "fastest"
	RecommendBoth        Recommendation = "recommended"
	RecommendAlternative Recommendation = "alternative"
)
