package handlers

import (
	"net/http"

	"chorely/service"
	"chorely/stats"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the chart series and today's progress ring.
type StatsHandler struct {
	Stats *service.StatsService
}

// Series returns one bucketed line per friend (caller included) for
// ?period=daily|monthly|yearly, defaulting to daily.
func (h *StatsHandler) Series(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	period := stats.Period(c.DefaultQuery("period", string(stats.PeriodDaily)))
	switch period {
	case stats.PeriodDaily, stats.PeriodMonthly, stats.PeriodYearly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily, monthly or yearly"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	series, err := h.Stats.Series(ctx, userID, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "series": series})
}

func (h *StatsHandler) Today(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	progress, err := h.Stats.Today(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
