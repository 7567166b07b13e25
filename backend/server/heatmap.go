package server

import (
	"fmt"
	"net/http"
	"time"

	"nightsafe/backend/grid"
	"nightsafe/backend/server/api"

	"github.com/gin-gonic/gin"
)

func validViewPort(vp api.ViewPort) error {
	if vp.LatMin > vp.LatMax || vp.LonMin > vp.LonMax {
		return fmt.Errorf("%w: %+v", errInvalidViewPort, vp)
	}
	return nil
}

func (s *Service) GetHeatmap(c *gin.Context) {
	var args api.HeatmapArgs
	if !bindArgs(c, &args) || !checkVersion(c, args.Version) {
		return
	}
	if err := validViewPort(args.VPort); err != nil {
		fail(c, err)
		return
	}
	cellSize := args.CellSize
	if cellSize == 0 {
		cellSize = s.settings.CellSize
	}

	reports, err := s.reports.ReadReports(c.Request.Context(), &args.VPort, s.since())
	if err != nil {
		fail(c, err)
		return
	}
	start := time.Now()
	cells, err := grid.Build(grid.FromReports(reports), cellSize)
	if err != nil {
		fail(c, err)
		return
	}
	observe("heatmap", len(reports), start)

	r := make([]api.HeatCell, 0, len(cells))
	for _, cell := range cells {
		r = append(r, cell.ToHeatCell())
	}
	c.IndentedJSON(http.StatusOK, r) // 200
}
