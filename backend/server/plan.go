package server

import (
	"math"
	"net/http"
	"time"

	"nightsafe/backend/route"
	"nightsafe/backend/server/api"

	"github.com/gin-gonic/gin"
)

// Zones up to this far outside the start/end box can still push a route.
const planMarginDeg = 0.01

func planViewPort(a, b api.Point) api.ViewPort {
	return api.ViewPort{
		LatMin: math.Min(a.Lat, b.Lat) - planMarginDeg,
		LonMin: math.Min(a.Lon, b.Lon) - planMarginDeg,
		LatMax: math.Max(a.Lat, b.Lat) + planMarginDeg,
		LonMax: math.Max(a.Lon, b.Lon) + planMarginDeg,
	}
}

func (s *Service) PlanRoute(c *gin.Context) {
	var args api.PlanRouteArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	if args.Start == args.End {
		fail(c, route.ErrDegenerateRoute)
		return
	}
	vp := planViewPort(args.Start, args.End)
	zones, err := s.dangerZones(c.Request.Context(), &vp, 0)
	if err != nil {
		fail(c, err)
		return
	}

	start := time.Now()
	res, err := route.Plan(args.Start, args.End, zones, args.Overlays, route.Options{
		BaseRadius: s.settings.BaseRadius,
	})
	if err != nil {
		fail(c, err)
		return
	}
	observe("plan_route", len(zones), start)
	c.IndentedJSON(http.StatusOK, res) // 200
}
