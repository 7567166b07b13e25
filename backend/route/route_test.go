package route

import (
	"errors"
	"math"
	"testing"

	"nightsafe/backend/geoutil"
	"nightsafe/backend/server/api"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 2km walk due north.
var (
	start = api.Point{Lat: 47.3600, Lon: 8.5300}
	end   = api.Point{Lat: 47.3780, Lon: 8.5300}
	mid   = api.Point{Lat: 47.3690, Lon: 8.5300}
)

func denseZone(center api.Point) api.DangerZone {
	return api.DangerZone{CellId: "z", Center: center, Weight: 20, ReportCount: 5, Radius: 225}
}

// minDistance samples every leg of the path and returns the closest approach to c.
func minDistance(path []api.Point, c api.Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		for k := 0; k <= 50; k++ {
			f := float64(k) / 50
			p := api.Point{Lat: a.Lat + (b.Lat-a.Lat)*f, Lon: a.Lon + (b.Lon-a.Lon)*f}
			best = math.Min(best, geoutil.DistanceMeters(p, c))
		}
	}
	return best
}

func p2(coords ...float64) []r2.Point {
	pts := make([]r2.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, r2.Point{X: coords[i], Y: coords[i+1]})
	}
	return pts
}

func TestPlanNoZones(t *testing.T) {
	res, err := Plan(start, end, nil, nil, Options{})
	require.NoError(t, err)
	require.Len(t, res.Routes, len(DefaultStrategies))

	dLat, dLon := end.Lat-start.Lat, end.Lon-start.Lon
	norm := math.Hypot(dLat, dLon)
	for _, r := range res.Routes {
		assert.Equal(t, 0.0, r.DangerScore)
		assert.Equal(t, 0, r.DangerZonesCount)
		require.Len(t, r.Waypoints, 22)
		assert.Equal(t, start, r.Waypoints[0])
		for _, w := range r.Waypoints {
			off := math.Abs((w.Lat-start.Lat)*dLon-(w.Lon-start.Lon)*dLat) / norm
			assert.Less(t, off, 1e-9, "waypoint %v off the straight line", w)
		}
		last := r.Waypoints[len(r.Waypoints)-1]
		assert.InDelta(t, end.Lat, last.Lat, 1e-9)
		assert.InDelta(t, end.Lon, last.Lon, 1e-9)
		assert.InDelta(t, geoutil.DistanceMeters(start, end), r.DistanceMeters, 0.01)
		assert.InDelta(t, r.DistanceMeters/DefaultWalkingSpeed, r.DurationSeconds, 1e-6)
	}
	assert.Equal(t, api.RecommendBoth, res.Routes[0].Recommendation)
	assert.Equal(t, "direct", res.Routes[0].Id)
}

func TestPlanAvoidsDenseZone(t *testing.T) {
	zone := denseZone(mid)
	res, err := Plan(start, end, []api.DangerZone{zone}, nil, Options{})
	require.NoError(t, err)
	require.Len(t, res.Routes, 3)

	straight := minDistance([]api.Point{start, end}, zone.Center)
	safest := res.Routes[0]
	assert.Equal(t, api.RecommendSafest, safest.Recommendation)
	assert.NotEqual(t, "direct", safest.Id)
	assert.Greater(t, minDistance(safest.Waypoints, zone.Center), straight)

	var direct api.CandidateRoute
	for _, r := range res.Routes {
		if r.Id == "direct" {
			direct = r
		}
	}
	assert.Equal(t, api.RecommendFastest, direct.Recommendation)
	assert.Equal(t, 1, direct.DangerZonesCount)
	assert.Greater(t, direct.DangerScore, safest.DangerScore)
	assert.Greater(t, safest.DistanceMeters, direct.DistanceMeters)

	for i := 1; i < len(res.Routes); i++ {
		assert.LessOrEqual(t, res.Routes[i-1].DangerScore, res.Routes[i].DangerScore)
	}
}

func TestPlanInvalidInput(t *testing.T) {
	_, err := Plan(start, start, nil, nil, Options{})
	assert.True(t, errors.Is(err, ErrDegenerateRoute))

	_, err = Plan(start, end, nil, []api.RouteOverlay{{Type: api.OverlayUnsafe, Polyline: []api.Point{mid}}}, Options{})
	assert.True(t, errors.Is(err, ErrInvalidOverlay))

	_, err = Plan(start, end, nil, []api.RouteOverlay{{Type: "scenic", Polyline: []api.Point{start, end}}}, Options{})
	assert.True(t, errors.Is(err, ErrInvalidOverlay))
}

func TestWaypointCount(t *testing.T) {
	assert.Equal(t, 3, waypointCount(0.5, DefaultStep))
	assert.Equal(t, 3, waypointCount(399, DefaultStep))
	assert.Equal(t, 20, waypointCount(2001.5, DefaultStep))
}

func TestDeflectStrongestOnly(t *testing.T) {
	zones := []api.DangerZone{
		{CellId: "a", Center: mid, Weight: 5, Radius: 200},
		{CellId: "b", Center: mid, Weight: 5, Radius: 300},
	}
	p := newPlanner(start, end, zones, nil, Options{}.withDefaults())
	c := p.proj.ToPlane(mid)
	moved := p.deflect(c, 1)
	assert.InDelta(t, 300, moved.Sub(c).Norm(), 1e-6)
	// Lateral only: no movement along the direct line.
	assert.InDelta(t, 0, moved.Sub(c).Dot(p.to.Sub(p.from).Normalize()), 1e-6)

	far := p.proj.ToPlane(start)
	assert.Equal(t, far, p.deflect(far, 2))
}

func TestSmooth(t *testing.T) {
	pts := p2(0, 0, 4, 4, 0, 0)
	out := smooth(pts)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[2], out[2])
	assert.InDelta(t, 2.0, out[1].X, 1e-12)
	assert.InDelta(t, 2.0, out[1].Y, 1e-12)
}

func directRoute(t *testing.T, res *api.PlanResult) api.CandidateRoute {
	for _, r := range res.Routes {
		if r.Id == "direct" {
			return r
		}
	}
	t.Fatal("no direct route")
	return api.CandidateRoute{}
}

func TestPlanOverlays(t *testing.T) {
	unsafe := api.RouteOverlay{
		Type:         api.OverlayUnsafe,
		SafetyRating: 1,
		Polyline:     []api.Point{{Lat: 47.3650, Lon: 8.5300}, {Lat: 47.3660, Lon: 8.5301}},
	}
	plain, err := Plan(start, end, nil, nil, Options{})
	require.NoError(t, err)
	flagged, err := Plan(start, end, nil, []api.RouteOverlay{unsafe}, Options{})
	require.NoError(t, err)
	assert.Greater(t, directRoute(t, flagged).DangerScore, directRoute(t, plain).DangerScore)
	// Overlay pressure is not a danger zone.
	for _, r := range flagged.Routes {
		assert.Equal(t, 0, r.DangerZonesCount, r.Id)
	}

	safe := api.RouteOverlay{Type: api.OverlaySafe, SafetyRating: 5, Polyline: []api.Point{start, end}}
	zones := []api.DangerZone{denseZone(mid)}
	bare, err := Plan(start, end, zones, nil, Options{})
	require.NoError(t, err)
	lit, err := Plan(start, end, zones, []api.RouteOverlay{safe}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, directRoute(t, bare).DangerScore*0.5, directRoute(t, lit).DangerScore, 1e-9)
}

func TestPlanSingleStrategyFallsBack(t *testing.T) {
	for _, strategies := range [][]Strategy{nil, {}, DefaultStrategies[:1]} {
		res, err := Plan(start, end, nil, nil, Options{Strategies: strategies})
		require.NoError(t, err)
		require.Len(t, res.Routes, len(DefaultStrategies))
		assert.NotEqual(t, api.RecommendAlternative, res.Routes[0].Recommendation)
	}
}
