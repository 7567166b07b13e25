package server

import (
	"net/http"
	"time"

	"nightsafe/backend/segrisk"
	"nightsafe/backend/server/api"

	"github.com/gin-gonic/gin"
)

func (s *Service) GetSegmentRisks(c *gin.Context) {
	var args api.SegmentRisksArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	ctx := c.Request.Context()
	lookback := args.LookbackDays
	if lookback <= 0 {
		lookback = s.settings.LookbackDays
	}
	delta := args.BBoxDelta
	if delta <= 0 {
		delta = s.settings.BBoxDelta
	}

	segments, err := s.reports.ReadSegments(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	now := s.now()
	reports, err := s.reports.ReadReports(ctx, nil, now.AddDate(0, 0, -max(lookback, 1)))
	if err != nil {
		fail(c, err)
		return
	}

	start := time.Now()
	risks, err := segrisk.Evaluate(segments, reports, segrisk.Options{
		Now:          now,
		LookbackDays: lookback,
		BBoxDelta:    delta,
		Location:     s.settings.Location,
	})
	if err != nil {
		fail(c, err)
		return
	}
	observe("segment_risks", len(reports), start)

	c.IndentedJSON(http.StatusOK, &api.SegmentRisksResponse{ // 200
		Segments: risks,
		Routes:   segrisk.RankRoutes(risks),
	})
}
