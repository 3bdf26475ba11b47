package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"kmj_screener/models"
	"kmj_screener/services/analysis"
	"kmj_screener/services/kmj"
	"kmj_screener/services/screener"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Analyzer builds per-symbol reports and scores the whole universe
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string, withPoints bool) (*analysis.Report, error)
	ScoreUniverse(ctx context.Context) ([]screener.Candidate, error)
}

// StockLister lists the tracked stocks
type StockLister interface {
	Stocks(ctx context.Context) ([]models.Stock, error)
}

// StockController handles stock-related requests
type StockController struct {
	stocks   StockLister
	analyzer Analyzer
}

// NewStockController creates a new stock controller
func NewStockController(stocks StockLister, analyzer Analyzer) *StockController {
	return &StockController{stocks: stocks, analyzer: analyzer}
}

// GetStocks returns tracked stocks, optionally narrowed by board or category
// GET /api/v1/stocks
func (sc *StockController) GetStocks(c *gin.Context) {
	stocks, err := sc.stocks.Stocks(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list stocks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stocks"})
		return
	}

	board := c.Query("board")
	category := c.Query("industry_category")
	data := make([]models.Stock, 0, len(stocks))
	for _, s := range stocks {
		if board != "" && !screener.BoardOf(s.Symbol).InSegment(board) {
			continue
		}
		if category != "" && category != "all" && s.IndustryCategory != category {
			continue
		}
		data = append(data, s)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": len(data),
	})
}

// GetKMJ returns the full KMJ report with the annotated series
// GET /api/v1/stocks/:symbol/kmj
func (sc *StockController) GetKMJ(c *gin.Context) {
	report, ok := sc.analyze(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetScore returns only the composite score
// GET /api/v1/stocks/:symbol/score
func (sc *StockController) GetScore(c *gin.Context) {
	report, ok := sc.analyze(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":  report.Symbol,
		"score":   report.Score,
		"trend":   report.Trend,
		"faulted": report.Faulted,
	})
}

func (sc *StockController) analyze(c *gin.Context, withPoints bool) (*analysis.Report, bool) {
	symbol := normalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return nil, false
	}

	report, err := sc.analyzer.AnalyzeSymbol(c.Request.Context(), symbol, withPoints)
	switch {
	case err == nil:
		return report, true
	case errors.Is(err, analysis.ErrStockNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found", "symbol": symbol})
	case errors.Is(err, kmj.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("symbol", symbol).Msg("KMJ analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze stock"})
	}
	return nil, false
}

// normalizeSymbol accepts 600519 or 600519.SH
func normalizeSymbol(raw string) string {
	symbol, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	return symbol
}
