package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Help(c *gin.Context) {
	c.String(http.StatusOK, `
	Nightsafe API:
	night-safety risk and routing server, version 2.0.
	POST /get_priority /get_heatmap /get_danger_zones /get_segment_risks /plan_route /confirm_report
	`)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
