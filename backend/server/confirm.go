package server

import (
	"net/http"

	"nightsafe/backend/metrics"
	"nightsafe/backend/server/api"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (s *Service) ConfirmReport(c *gin.Context) {
	var args api.ConfirmArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	ctx := c.Request.Context()

	res, err := s.confirmer.Confirm(ctx, args.ReportId, args.Id)
	if err != nil {
		metrics.ConfirmationsTotal.WithLabelValues(s.storeName, "error").Inc()
		fail(c, err)
		return
	}
	if res.AlreadyConfirmed {
		metrics.ConfirmationsTotal.WithLabelValues(s.storeName, "duplicate").Inc()
	} else {
		metrics.ConfirmationsTotal.WithLabelValues(s.storeName, "ok").Inc()
		if s.events != nil {
			if err := s.events.ReportConfirmed(ctx, args.ReportId, args.Id, res); err != nil {
				log.Errorf("Failed to publish confirmation of report %s: %v", args.ReportId, err)
				metrics.PublishErrorTotal.Inc()
			}
		}
	}
	c.IndentedJSON(http.StatusOK, res) // 200
}
