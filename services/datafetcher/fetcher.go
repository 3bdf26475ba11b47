package datafetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"kmj_screener/models"
	"kmj_screener/services/kmj"
	"kmj_screener/services/screener"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultDays is the history length used when callers pass zero
const DefaultDays = 60

// BarCache stores fetched histories between runs
type BarCache interface {
	Get(ctx context.Context, code Code, days int) ([]kmj.Bar, bool)
	Put(ctx context.Context, code Code, bars []kmj.Bar) error
}

// PriceWriter persists stocks and daily prices
type PriceWriter interface {
	ActiveStocks(ctx context.Context) ([]models.Stock, error)
	UpsertStocks(ctx context.Context, stocks []models.Stock) error
	UpsertPrices(ctx context.Context, prices []models.StockPrice) error
	DeletePricesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// DataFetcher pulls daily history from the configured sources into storage
type DataFetcher struct {
	source Provider
	lister Lister
	cache  BarCache
	store  PriceWriter
	now    func() time.Time
}

// NewDataFetcher creates a new data fetcher instance. cache and lister may be nil.
func NewDataFetcher(source Provider, cache BarCache, store PriceWriter, lister Lister) *DataFetcher {
	return &DataFetcher{
		source: source,
		lister: lister,
		cache:  cache,
		store:  store,
		now:    time.Now,
	}
}

// FetchBars returns up to days of the most recent daily bars for code,
// serving from cache when a fresh entry is long enough
func (df *DataFetcher) FetchBars(ctx context.Context, code Code, days int) ([]kmj.Bar, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if df.cache != nil {
		if bars, ok := df.cache.Get(ctx, code, days); ok {
			log.Debug().Str("code", code.String()).Int("bars", len(bars)).Msg("Cache hit")
			return bars, nil
		}
	}

	// calendar days include weekends and holidays
	end := df.now()
	start := end.AddDate(0, 0, -2*days)
	bars, err := df.source.FetchDaily(ctx, code, start, end)
	if err != nil {
		return nil, err
	}

	bars = normalizeBars(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", code, ErrNoData)
	}
	if df.cache != nil {
		if err := df.cache.Put(ctx, code, bars); err != nil {
			log.Warn().Err(err).Str("code", code.String()).Msg("Failed to cache bars")
		}
	}

	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// normalizeBars sorts by date, keeps the last bar for a repeated date and
// drops bars with non-finite prices. A missing volume is stored as 0.
func normalizeBars(in []kmj.Bar) []kmj.Bar {
	bars := make([]kmj.Bar, 0, len(in))
	for _, b := range in {
		if !finite(b.Open, b.High, b.Low, b.Close) {
			continue
		}
		if !finite(b.Volume) {
			b.Volume = 0
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SyncHistory fetches the last days bars for stock and upserts them
func (df *DataFetcher) SyncHistory(ctx context.Context, stock models.Stock, days int) (int, error) {
	code, err := ParseCode(stock.Code())
	if err != nil {
		return 0, err
	}
	bars, err := df.FetchBars(ctx, code, days)
	if err != nil {
		return 0, err
	}

	rows := make([]models.StockPrice, len(bars))
	for i, b := range bars {
		rows[i] = models.StockPriceFromBar(stock.ID, b)
	}
	if err := df.store.UpsertPrices(ctx, rows); err != nil {
		return 0, fmt.Errorf("store prices for %s: %w", code, err)
	}
	return len(rows), nil
}

// SyncResult summarizes a SyncAll run
type SyncResult struct {
	Stocks  int           `json:"stocks"`
	Synced  int           `json:"synced"`
	Failed  []string      `json:"failed"`
	Bars    int           `json:"bars"`
	Elapsed time.Duration `json:"elapsed"`
}

// SyncAll syncs history for every active stock. Per-stock failures are
// collected; only cancellation or a store listing error stops the run.
func (df *DataFetcher) SyncAll(ctx context.Context, days int) (*SyncResult, error) {
	start := df.now()
	stocks, err := df.store.ActiveStocks(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Stocks: len(stocks), Failed: []string{}}
	for _, stock := range stocks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := df.SyncHistory(ctx, stock, days)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("History sync failed")
			result.Failed = append(result.Failed, stock.Symbol)
			continue
		}
		result.Synced++
		result.Bars += n
	}

	result.Elapsed = df.now().Sub(start)
	log.Info().
		Int("stocks", result.Stocks).
		Int("synced", result.Synced).
		Int("failed", len(result.Failed)).
		Int("bars", result.Bars).
		Dur("elapsed", result.Elapsed).
		Msg("History sync finished")
	return result, nil
}

// SyncStockList refreshes the stock table from the lister, classifying
// board and industry category for each listing
func (df *DataFetcher) SyncStockList(ctx context.Context) (int, error) {
	if df.lister == nil {
		return 0, errors.New("no stock lister configured")
	}
	listings, err := df.lister.ListStocks(ctx)
	if err != nil {
		return 0, err
	}

	stocks := make([]models.Stock, 0, len(listings))
	for _, l := range listings {
		symbol := bareSymbol(l.Symbol)
		code, err := ParseCode(symbol + "." + MarketOf(symbol))
		if err != nil {
			log.Debug().Str("symbol", l.Symbol).Msg("Skipping listing with invalid symbol")
			continue
		}
		stocks = append(stocks, models.Stock{
			Symbol:           code.Symbol,
			Name:             l.Name,
			Market:           code.Market,
			Industry:         l.Industry,
			IndustryCategory: screener.CategoryOf(l.Industry),
			Board:            string(screener.BoardOf(code.Symbol)),
			Status:           "active",
		})
	}
	if err := df.store.UpsertStocks(ctx, stocks); err != nil {
		return 0, fmt.Errorf("store stock list: %w", err)
	}
	return len(stocks), nil
}

// Cleanup drops stored prices older than cutoff and expired cache entries
func (df *DataFetcher) Cleanup(ctx context.Context, cutoff time.Time) error {
	n, err := df.store.DeletePricesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune prices: %w", err)
	}
	var purged int64
	if p, ok := df.cache.(purger); ok {
		if purged, err = p.Purge(ctx); err != nil {
			return err
		}
	}
	log.Info().Int64("prices", n).Int64("cache_entries", purged).Time("cutoff", cutoff).Msg("Cleanup completed")
	return nil
}

// bareSymbol strips market qualifiers in either order: sh.600000, 600000.SH
func bareSymbol(raw string) string {
	for _, part := range strings.Split(strings.TrimSpace(raw), ".") {
		if len(part) == 6 && allDigits(part) {
			return part
		}
	}
	return raw
}

// GormPriceWriter implements PriceWriter on the main database
type GormPriceWriter struct {
	db *gorm.DB
}

// NewGormPriceWriter creates a writer backed by db
func NewGormPriceWriter(db *gorm.DB) *GormPriceWriter {
	return &GormPriceWriter{db: db}
}

func (w *GormPriceWriter) ActiveStocks(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := w.db.WithContext(ctx).Where("status = ?", "active").Order("symbol").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("list active stocks: %w", err)
	}
	return stocks, nil
}

func (w *GormPriceWriter) UpsertStocks(ctx context.Context, stocks []models.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "market", "industry", "industry_category", "board", "status", "updated_at"}),
	}).CreateInBatches(stocks, 500).Error
}

func (w *GormPriceWriter) UpsertPrices(ctx context.Context, prices []models.StockPrice) error {
	if len(prices) == 0 {
		return nil
	}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(prices, 500).Error
}

func (w *GormPriceWriter) DeletePricesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := w.db.WithContext(ctx).Where("date < ?", cutoff).Delete(&models.StockPrice{})
	return res.RowsAffected, res.Error
}
