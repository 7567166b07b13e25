package server

import (
	"context"
	"net/http"
	"time"

	"nightsafe/backend/dangerzone"
	"nightsafe/backend/server/api"

	"github.com/gin-gonic/gin"
)

// dangerZones reads the reports inside vp and aggregates them into zones.
func (s *Service) dangerZones(ctx context.Context, vp *api.ViewPort, lookbackDays int) ([]api.DangerZone, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.settings.LookbackDays
	}
	now := s.now()
	reports, err := s.reports.ReadReports(ctx, vp, now.AddDate(0, 0, -max(lookbackDays, 1)))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	zones, err := dangerzone.Aggregate(reports, dangerzone.Options{
		Now:          now,
		LookbackDays: lookbackDays,
		CellSize:     s.settings.CellSize,
		BaseRadius:   s.settings.BaseRadius,
	})
	if err != nil {
		return nil, err
	}
	observe("danger_zones", len(reports), start)
	return zones, nil
}

func (s *Service) GetDangerZones(c *gin.Context) {
	var args api.DangerZonesArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	if err := validViewPort(args.VPort); err != nil {
		fail(c, err)
		return
	}
	zones, err := s.dangerZones(c.Request.Context(), &args.VPort, args.LookbackDays)
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, zones) // 200
}
