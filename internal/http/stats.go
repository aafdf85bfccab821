package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	reports StatsService
}

func NewStatsController(reports StatsService) *StatsController {
	return &StatsController{reports: reports}
}

// GET /api/stats
func (sc *StatsController) GetStats(c *gin.Context) {
	stats, err := sc.reports.Stats(c.Request.Context())
	if err != nil {
		respondLibraryError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
