package controllers

import (
	"net/http"

	"kmj_screener/services/screener"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ScreenerController handles stock screening requests
type ScreenerController struct {
	analyzer Analyzer
}

// NewScreenerController creates a new screener controller
func NewScreenerController(analyzer Analyzer) *ScreenerController {
	return &ScreenerController{analyzer: analyzer}
}

// Screen applies filters and returns matching stocks
// POST /api/v1/screener/screen
func (sc *ScreenerController) Screen(c *gin.Context) {
	var filter screener.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sc.run(c, filter)
}

// GetPresets returns predefined screener configurations
// GET /api/v1/screener/presets
func (sc *ScreenerController) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": screener.GetPresetScreeners()})
}

// RunPreset runs a predefined screener
// GET /api/v1/screener/presets/:id
func (sc *ScreenerController) RunPreset(c *gin.Context) {
	preset, ok := screener.FindPreset(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}
	sc.run(c, preset.Filter)
}

// GetIndustries ranks industry categories by mean score
// GET /api/v1/screener/industries
func (sc *ScreenerController) GetIndustries(c *gin.Context) {
	candidates, err := sc.analyzer.ScoreUniverse(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to score universe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score stocks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": screener.RankIndustries(candidates)})
}

func (sc *ScreenerController) run(c *gin.Context, filter screener.Filter) {
	candidates, err := sc.analyzer.ScoreUniverse(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to score universe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score stocks"})
		return
	}

	filter.Normalize()
	results := screener.Screen(candidates, filter)
	c.JSON(http.StatusOK, gin.H{
		"data":     results,
		"total":    len(results),
		"universe": len(candidates),
		"filter":   filter,
	})
}
