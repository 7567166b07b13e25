package api

import (
	"time"
)

type BaseArgs struct {
	Version string `json:"version"` // Must be "2.0"
	Id      string `json:"id"`      // user id
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ViewPort struct {
	LatMin float64 `json:"latmin"`
	LonMin float64 `json:"lonmin"`
	LatMax float64 `json:"latmax"`
	LonMax float64 `json:"lonmax"`
}

func (vp ViewPort) Contains(lat, lon float64) bool {
	return lat >= vp.LatMin && lat <= vp.LatMax && lon >= vp.LonMin && lon <= vp.LonMax
}

// Report is a citizen-submitted geolocated issue.
// PriorityScore is derived, see priority.Rescore.
type Report struct {
	Id                 string          `json:"id"`
	Category           Category        `json:"category"`
	Severity           int             `json:"severity"`
	AffectedGroups     []AffectedGroup `json:"affected_groups"`
	Latitude           float64         `json:"latitude"`
	Longitude          float64         `json:"longitude"`
	Status             Status          `json:"status"`
	ConfirmationsCount int             `json:"confirmations_count"`
	PriorityScore      float64         `json:"priority_score"`
	EventTime          time.Time       `json:"event_time"`
}

type DangerZone struct {
	CellId      string  `json:"cell_id"`
	Center      Point   `json:"center"`
	Weight      float64 `json:"weight"`
	ReportCount int     `json:"report_count"`
	Radius      float64 `json:"radius"` // meters
}

type RouteSegment struct {
	Id       string  `json:"id"`
	RouteId  string  `json:"route_id"`
	Name     string  `json:"name,omitempty"`
	Polyline []Point `json:"polyline"`
}

type SegmentRisk struct {
	SegmentId     string     `json:"segment_id"`
	RouteId       string     `json:"route_id"`
	Name          string     `json:"name,omitempty"`
	Score         float64    `json:"score"`
	RiskLevel     RiskLevel  `json:"risk_level"`
	MatchedCount  int        `json:"matched_count"`
	HighRiskCount int        `json:"high_risk_count"`
	TopCategories []Category `json:"top_categories"`
	TopSignals    []Report   `json:"top_signals"`
}

type RouteRisk struct {
	RouteId string  `json:"route_id"`
	Score   float64 `json:"score"`
}

type RouteOverlay struct {
	Polyline     []Point     `json:"polyline"`
	Type         OverlayType `json:"type"`
	SafetyRating int         `json:"safety_rating"` // 1 (worst) .. 5 (best)
}

type CandidateRoute struct {
	Id               string         `json:"id"`
	Waypoints        []Point        `json:"waypoints"`
	DistanceMeters   float64        `json:"distance_meters"`
	DurationSeconds  float64        `json:"duration_seconds"`
	DangerScore      float64        `json:"danger_score"`
	DangerZonesCount int            `json:"danger_zones_count"`
	Recommendation   Recommendation `json:"recommendation"`
}

type PlanResult struct {
	Routes []CandidateRoute `json:"routes"`
}

type ConfirmResult struct {
	AlreadyConfirmed   bool    `json:"already_confirmed"`
	ConfirmationsCount int     `json:"confirmations_count"`
	PriorityScore      float64 `json:"priority_score"`
}

type HeatCell struct {
	CellId           string   `json:"cell_id"`
	Bounds           ViewPort `json:"bounds"`
	Center           Point    `json:"center"`
	Count            int      `json:"count"`
	Weight           float64  `json:"weight"`
	Intensity        float64  `json:"intensity"`
	DominantCategory Category `json:"dominant_category"`
}

type PriorityArgs struct {
	Version            string          `json:"version"` // Must be "2.0"
	Severity           int             `json:"severity"`
	ConfirmationsCount int             `json:"confirmations_count"`
	AffectedGroups     []AffectedGroup `json:"affected_groups"`
}

type PriorityResponse struct {
	Score float64 `json:"score"`
	Badge Badge   `json:"badge"`
}

type HeatmapArgs struct {
	Version  string   `json:"version"` // Must be "2.0"
	VPort    ViewPort `json:"vport"`
	CellSize float64  `json:"cell_size,omitempty"` // degrees
}

type DangerZonesArgs struct {
	Version      string   `json:"version"` // Must be "2.0"
	VPort        ViewPort `json:"vport"`
	LookbackDays int      `json:"lookback_days,omitempty"`
}

type SegmentRisksArgs struct {
	Version      string  `json:"version"` // Must be "2.0"
	LookbackDays int     `json:"lookback_days,omitempty"`
	BBoxDelta    float64 `json:"bbox_delta,omitempty"`
}

type SegmentRisksResponse struct {
	Segments []SegmentRisk `json:"segments"`
	Routes   []RouteRisk   `json:"routes"`
}

type PlanRouteArgs struct {
	Version  string         `json:"version"` // Must be "2.0"
	Start    Point          `json:"start"`
	End      Point          `json:"end"`
	Overlays []RouteOverlay `json:"overlays,omitempty"`
}

type ConfirmArgs struct {
	Version  string `json:"version"` // Must be "2.0"
	Id       string `json:"id"`      // confirming user id
	ReportId string `json:"report_id"`
}

// ReportConfirmedEvent is published after a confirmation changes a report.
type ReportConfirmedEvent struct {
	ReportId           string  `json:"report_id"`
	UserId             string  `json:"user_id"`
	ConfirmationsCount int     `json:"confirmations_count"`
	PriorityScore      float64 `json:"priority_score"`
	Timestamp          string  `json:"timestamp"`
}
