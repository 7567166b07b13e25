package route

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"nightsafe/backend/geoutil"
	"nightsafe/backend/server/api"

	"github.com/golang/geo/r2"
)

const (
	DefaultStep         = 100.0 // meters between interpolated waypoints
	DefaultBaseRadius   = 150.0 // meters, influence of advisory overlays
	DefaultWalkingSpeed = 1.4   // meters per second

	minWaypoints      = 3
	minRouteMeters    = 1e-3
	epsilon           = 1e-9
	maxSafetyRating   = 5
	safeDiscountPerPt = 0.1
)

var (
	ErrDegenerateRoute = errors.New("route start and end coincide")
	ErrInvalidOverlay  = errors.New("invalid route overlay")
)

// Strategy controls how hard a candidate path is pushed out of danger zones.
// Avoidance 0 keeps the straight line.
type Strategy struct {
	Name      string
	Avoidance float64
}

var DefaultStrategies = []Strategy{
	{Name: "direct", Avoidance: 0},
	{Name: "balanced", Avoidance: 1},
	{Name: "avoidant", Avoidance: 2},
}

type Options struct {
	Step         float64
	BaseRadius   float64
	WalkingSpeed float64
	Strategies   []Strategy
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.BaseRadius <= 0 {
		o.BaseRadius = DefaultBaseRadius
	}
	if o.WalkingSpeed <= 0 {
		o.WalkingSpeed = DefaultWalkingSpeed
	}
	// Ranking needs alternatives to compare.
	if len(o.Strategies) < 2 {
		o.Strategies = DefaultStrategies
	}
	return o
}

type zone struct {
	idx    int // index into the caller's zones, -1 for overlay zones
	center r2.Point
	radius float64
	weight float64
}

type safeLine struct {
	pts      []r2.Point
	radius   float64
	discount float64
}

type planner struct {
	opts   Options
	proj   geoutil.Projection
	from   r2.Point
	to     r2.Point
	normal r2.Point // unit vector perpendicular to the direct line
	zones  []zone
	safe   []safeLine
}

func validate(start, end api.Point, overlays []api.RouteOverlay) error {
	if start == end || geoutil.DistanceMeters(start, end) < minRouteMeters {
		return fmt.Errorf("%w: %v", ErrDegenerateRoute, start)
	}
	for i, o := range overlays {
		if len(o.Polyline) < 2 {
			return fmt.Errorf("%w: overlay %d has %d points", ErrInvalidOverlay, i, len(o.Polyline))
		}
		if o.Type != api.OverlaySafe && o.Type != api.OverlayUnsafe {
			return fmt.Errorf("%w: overlay %d has type %q", ErrInvalidOverlay, i, o.Type)
		}
	}
	return nil
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > maxSafetyRating {
		return maxSafetyRating
	}
	return r
}

func newPlanner(start, end api.Point, zones []api.DangerZone, overlays []api.RouteOverlay, opts Options) *planner {
	p := &planner{
		opts: opts,
		proj: geoutil.NewProjection(start),
	}
	p.from = p.proj.ToPlane(start)
	p.to = p.proj.ToPlane(end)
	p.normal = p.to.Sub(p.from).Normalize().Ortho()

	for i, z := range zones {
		radius := z.Radius
		if radius <= 0 {
			radius = opts.BaseRadius
		}
		p.zones = append(p.zones, zone{
			idx:    i,
			center: p.proj.ToPlane(z.Center),
			radius: radius,
			weight: math.Max(z.Weight, epsilon),
		})
	}
	for _, o := range overlays {
		rating := clampRating(o.SafetyRating)
		switch o.Type {
		case api.OverlayUnsafe:
			for _, pt := range o.Polyline {
				p.zones = append(p.zones, zone{
					idx:    -1,
					center: p.proj.ToPlane(pt),
					radius: opts.BaseRadius,
					weight: float64(maxSafetyRating + 1 - rating),
				})
			}
		case api.OverlaySafe:
			line := safeLine{radius: opts.BaseRadius, discount: float64(rating) * safeDiscountPerPt}
			for _, pt := range o.Polyline {
				line.pts = append(line.pts, p.proj.ToPlane(pt))
			}
			p.safe = append(p.safe, line)
		}
	}
	return p
}

func waypointCount(distance, step float64) int {
	n := int(math.Floor(distance / step))
	if n < minWaypoints {
		return minWaypoints
	}
	return n
}

// deflect applies the strongest single push among the zones covering pt.
// Pushes are lateral to the direct line, toward the side of the line the
// point already lies on relative to the zone center.
func (p *planner) deflect(pt r2.Point, avoidance float64) r2.Point {
	best := 0.0
	var push r2.Point
	for _, z := range p.zones {
		d := pt.Sub(z.center).Norm()
		if d >= z.radius {
			continue
		}
		mag := (z.radius - d) * avoidance
		if mag <= best {
			continue
		}
		side := 1.0
		if pt.Sub(z.center).Dot(p.normal) < -epsilon {
			side = -1
		}
		best = mag
		push = p.normal.Mul(side * mag)
	}
	return pt.Add(push)
}

func smooth(pts []r2.Point) []r2.Point {
	out := make([]r2.Point, len(pts))
	copy(out, pts)
	for i := 1; i < len(pts)-1; i++ {
		out[i] = pts[i-1].Add(pts[i].Mul(2)).Add(pts[i+1]).Mul(0.25)
	}
	return out
}

func (p *planner) path(s Strategy) []r2.Point {
	dir := p.to.Sub(p.from)
	n := waypointCount(dir.Norm(), p.opts.Step)
	pts := make([]r2.Point, 0, n+2)
	pts = append(pts, p.from)
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n+1)
		pts = append(pts, p.deflect(p.from.Add(dir.Mul(f)), s.Avoidance))
	}
	pts = append(pts, p.to)
	return smooth(pts)
}

func segmentDistance(pt, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < epsilon {
		return pt.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/l2))
	return pt.Sub(a.Add(ab.Mul(t))).Norm()
}

func (p *planner) discount(pt r2.Point) float64 {
	best := 0.0
	for _, l := range p.safe {
		for i := 1; i < len(l.pts); i++ {
			if segmentDistance(pt, l.pts[i-1], l.pts[i]) < l.radius && l.discount > best {
				best = l.discount
			}
		}
	}
	return best
}

func (p *planner) pressure(pt r2.Point) float64 {
	total := 0.0
	for _, z := range p.zones {
		d := pt.Sub(z.center).Norm()
		if d < z.radius {
			total += z.weight * (1 - d/z.radius)
		}
	}
	return total * (1 - p.discount(pt))
}

// score samples zone pressure at every waypoint and leg midpoint.
func (p *planner) score(pts []r2.Point) (float64, int) {
	danger := 0.0
	for i, pt := range pts {
		danger += p.pressure(pt)
		if i > 0 {
			danger += p.pressure(pts[i-1].Add(pt).Mul(0.5))
		}
	}
	touched := make(map[int]bool)
	for _, pt := range pts {
		for _, z := range p.zones {
			if z.idx >= 0 && pt.Sub(z.center).Norm() < z.radius {
				touched[z.idx] = true
			}
		}
	}
	return danger, len(touched)
}

func (p *planner) candidate(s Strategy) api.CandidateRoute {
	pts := p.path(s)
	danger, touched := p.score(pts)
	wps := make([]api.Point, 0, len(pts))
	for _, pt := range pts {
		wps = append(wps, p.proj.FromPlane(pt))
	}
	dist := geoutil.PolylineLengthMeters(wps)
	return api.CandidateRoute{
		Id:               s.Name,
		Waypoints:        wps,
		DistanceMeters:   dist,
		DurationSeconds:  dist / p.opts.WalkingSpeed,
		DangerScore:      danger,
		DangerZonesCount: touched,
		Recommendation:   api.RecommendAlternative,
	}
}

// Plan synthesizes candidate paths from start to end that bend around the
// given danger zones. Routes are ranked by danger score, then distance.
func Plan(start, end api.Point, zones []api.DangerZone, overlays []api.RouteOverlay, opts Options) (*api.PlanResult, error) {
	if err := validate(start, end, overlays); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	p := newPlanner(start, end, zones, overlays, opts)

	routes := make([]api.CandidateRoute, 0, len(opts.Strategies))
	for _, s := range opts.Strategies {
		routes = append(routes, p.candidate(s))
	}
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].DangerScore != routes[j].DangerScore {
			return routes[i].DangerScore < routes[j].DangerScore
		}
		return routes[i].DistanceMeters < routes[j].DistanceMeters
	})
	tag(routes)
	return &api.PlanResult{Routes: routes}, nil
}

// tag marks the safest (first after ranking) and the shortest route.
func tag(routes []api.CandidateRoute) {
	if len(routes) == 0 {
		return
	}
	fastest := 0
	for i := range routes {
		if routes[i].DistanceMeters < routes[fastest].DistanceMeters {
			fastest = i
		}
	}
	if fastest == 0 {
		routes[0].Recommendation = api.RecommendBoth
		return
	}
	routes[0].Recommendation = api.RecommendSafest
	routes[fastest].Recommendation = api.RecommendFastest
}
