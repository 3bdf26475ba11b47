package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kmj_screener/models"
	"kmj_screener/services/kmj"
	"kmj_screener/services/screener"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Labels used for the latest-bar signals in a Report
const (
	SignalBuy     = "buy"
	SignalSell    = "sell"
	SignalLimitUp = "limit_up"
)

const insufficientData = "insufficient data"

// Report is the per-symbol KMJ analysis
type Report struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	Industry         string          `json:"industry"`
	IndustryCategory string          `json:"industry_category"`
	Board            screener.Board  `json:"board"`
	Bars             int             `json:"bars"`
	AsOf             *time.Time      `json:"as_of,omitempty"`
	Trend            string          `json:"trend"`
	Signals          []string        `json:"signals"`
	Score            float64         `json:"score"`
	ScoreDetail      kmj.ScoreResult `json:"score_detail"`
	Faulted          bool            `json:"faulted"`
	KMJ2             kmj.Value       `json:"kmj2"`
	KMJ3             kmj.Value       `json:"kmj3"`
	Change5D         kmj.Value       `json:"change_5d"`
	Change20D        kmj.Value       `json:"change_20d"`
	Indicators       Indicators      `json:"indicators"`
	Summary          string          `json:"summary"`
	Points           []kmj.Point     `json:"points,omitempty"`
}

// TechnicalAnalysis runs the KMJ pipeline over stored prices
type TechnicalAnalysis struct {
	store   PriceStore
	days    int
	workers int
}

// NewTechnicalAnalysis creates a new technical analysis instance
func NewTechnicalAnalysis(store PriceStore, days, workers int) *TechnicalAnalysis {
	if days < kmj.MinBarsForSignals {
		days = kmj.MinBarsForSignals
	}
	if workers < 1 {
		workers = 1
	}
	return &TechnicalAnalysis{store: store, days: days, workers: workers}
}

// AnalyzeSymbol loads recent prices for symbol and builds its report.
// withPoints attaches the full annotated series.
func (ta *TechnicalAnalysis) AnalyzeSymbol(ctx context.Context, symbol string, withPoints bool) (*Report, error) {
	stock, err := ta.store.StockBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	prices, err := ta.store.RecentPrices(ctx, stock.ID, ta.days)
	if err != nil {
		return nil, err
	}

	report, err := BuildReport(*stock, prices)
	if err != nil {
		return nil, err
	}
	if !withPoints {
		report.Points = nil
	}
	return report, nil
}

// BuildReport analyzes prices, oldest first, for stock
func BuildReport(stock models.Stock, prices []models.StockPrice) (*Report, error) {
	report := &Report{
		Symbol:           stock.Symbol,
		Name:             stock.Name,
		Industry:         stock.Industry,
		IndustryCategory: categoryOf(stock),
		Board:            boardOf(stock),
		Bars:             len(prices),
		Trend:            insufficientData,
		Signals:          []string{},
	}
	if len(prices) == 0 {
		report.Faulted = true
		report.Summary = "No price history available"
		return report, nil
	}

	series := make(kmj.Series, len(prices))
	for i, p := range prices {
		series[i] = p.ToBar()
	}
	annotated, err := kmj.Analyze(series)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", stock.Symbol, err)
	}

	latest, _ := annotated.Latest()
	asOf := latest.Date
	report.AsOf = &asOf
	report.KMJ2 = latest.KMJ2
	report.KMJ3 = latest.KMJ3
	report.Change5D = changeOver(series, 5)
	report.Change20D = changeOver(series, 20)
	report.Indicators = ComputeIndicators(series)
	report.Points = annotated.Points()

	if len(prices) < kmj.MinBarsForSignals {
		report.Summary = fmt.Sprintf("Only %d bars available, %d required", len(prices), kmj.MinBarsForSignals)
		return report, nil
	}

	report.Trend = latest.Trend.String()
	if latest.Buy {
		report.Signals = append(report.Signals, SignalBuy)
	}
	if latest.Sell {
		report.Signals = append(report.Signals, SignalSell)
	}
	if latest.LimitUp {
		report.Signals = append(report.Signals, SignalLimitUp)
	}

	report.ScoreDetail = kmj.EvaluateScore(annotated)
	report.Faulted = report.ScoreDetail.Faulted()
	if !report.Faulted {
		report.Score = report.ScoreDetail.Value
	}
	report.Summary = summarize(report, latest.Bar)
	return report, nil
}

func summarize(r *Report, last kmj.Bar) string {
	signals := "none"
	if len(r.Signals) > 0 {
		signals = strings.Join(r.Signals, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Industry: %s\n", r.Industry)
	fmt.Fprintf(&b, "Trend: %s\n", r.Trend)
	fmt.Fprintf(&b, "Technical score: %.2f\n", r.Score)
	fmt.Fprintf(&b, "KMJ2: %s, KMJ3: %s\n", r.KMJ2, r.KMJ3)
	if k2, ok := r.KMJ2.Get(); ok {
		if k3, ok := r.KMJ3.Get(); ok && k3 != 0 {
			fmt.Fprintf(&b, "KMJ2 vs KMJ3: %+.2f%%\n", (k2/k3-1)*100)
		}
	}
	if c, ok := r.Change5D.Get(); ok {
		fmt.Fprintf(&b, "5-day change: %.2f%%\n", c)
	}
	if c, ok := r.Change20D.Get(); ok {
		fmt.Fprintf(&b, "20-day change: %.2f%%\n", c)
	}
	for _, line := range indicatorLines(r.Indicators, last.Close, last.Volume) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Latest signals: %s", signals)
	return b.String()
}

// indicatorLines describes MACD, RSI, volume and Bollinger readings
func indicatorLines(ind Indicators, lastClose, volume float64) []string {
	var lines []string
	if m, ok := ind.MACD.Get(); ok {
		if s, ok := ind.MACDSignal.Get(); ok {
			if m > s {
				lines = append(lines, "MACD: above signal line, rising")
			} else {
				lines = append(lines, "MACD: below signal line, falling")
			}
		}
	}
	if rsi, ok := ind.RSI.Get(); ok {
		switch {
		case rsi > RSIOverbought:
			lines = append(lines, fmt.Sprintf("RSI: %.2f overbought", rsi))
		case rsi < RSIOversold:
			lines = append(lines, fmt.Sprintf("RSI: %.2f oversold", rsi))
		default:
			lines = append(lines, fmt.Sprintf("RSI: %.2f neutral", rsi))
		}
	}
	if ma5, ok := ind.VolumeMA5.Get(); ok {
		if ma10, ok := ind.VolumeMA10.Get(); ok {
			switch {
			case volume > ma5 && ma5 > ma10:
				lines = append(lines, "Volume: expanding")
			case volume < ma5 && ma5 < ma10:
				lines = append(lines, "Volume: contracting")
			}
		}
	}
	if upper, ok := ind.BollUpper.Get(); ok {
		lower, _ := ind.BollLower.Get()
		switch {
		case lastClose > upper:
			lines = append(lines, "Bollinger: close above upper band, possibly overbought")
		case lastClose < lower:
			lines = append(lines, "Bollinger: close below lower band, possibly oversold")
		default:
			lines = append(lines, "Bollinger: close inside the bands")
		}
	}
	return lines
}

// changeOver is the percent close change across the last n bars
func changeOver(series kmj.Series, n int) kmj.Value {
	if len(series) <= n {
		return kmj.None()
	}
	base := series[len(series)-1-n].Close
	if base == 0 {
		return kmj.None()
	}
	return kmj.Some((series[len(series)-1].Close/base - 1) * 100)
}

// ScoreUniverse scores every active stock in parallel. A failing symbol is
// logged and kept with score 0; only store or context errors abort.
func (ta *TechnicalAnalysis) ScoreUniverse(ctx context.Context) ([]screener.Candidate, error) {
	stocks, err := ta.store.Stocks(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates := make([]screener.Candidate, len(stocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ta.workers)
	for i := range stocks {
		i := i
		stock := stocks[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = ta.scoreStock(gctx, stock)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score universe: %w", err)
	}

	log.Info().
		Int("stocks", len(stocks)).
		Dur("elapsed", time.Since(start)).
		Msg("Universe scored")
	return candidates, nil
}

func (ta *TechnicalAnalysis) scoreStock(ctx context.Context, stock models.Stock) screener.Candidate {
	c := screener.Candidate{
		Symbol:           stock.Symbol,
		Name:             stock.Name,
		Industry:         stock.Industry,
		IndustryCategory: categoryOf(stock),
		Board:            boardOf(stock),
		Faulted:          true,
	}

	prices, err := ta.store.RecentPrices(ctx, stock.ID, ta.days)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("Failed to load prices")
		}
		return c
	}
	report, err := BuildReport(stock, prices)
	if err != nil {
		log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("Failed to analyze stock")
		return c
	}

	c.Score = report.Score
	c.Faulted = report.Faulted
	if latest := report.Points; len(latest) > 0 {
		p := latest[len(latest)-1]
		c.Trend = p.Trend
		c.BuySignal = p.Buy
		c.SellSignal = p.Sell
		c.LimitUp = p.LimitUp
	}
	return c
}

func categoryOf(stock models.Stock) string {
	if stock.IndustryCategory != "" {
		return stock.IndustryCategory
	}
	return screener.CategoryOf(stock.Industry)
}

func boardOf(stock models.Stock) screener.Board {
	if stock.Board != "" {
		return screener.Board(stock.Board)
	}
	return screener.BoardOf(stock.Symbol)
}
