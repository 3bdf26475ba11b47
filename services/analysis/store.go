package analysis

import (
	"context"
	"errors"
	"fmt"

	"kmj_screener/models"

	"gorm.io/gorm"
)

// ErrStockNotFound is returned when a symbol is not in the stock table
var ErrStockNotFound = errors.New("stock not found")

// PriceStore is the read side of stock and price persistence
type PriceStore interface {
	Stocks(ctx context.Context) ([]models.Stock, error)
	StockBySymbol(ctx context.Context, symbol string) (*models.Stock, error)
	// RecentPrices returns up to days rows for stockID, oldest first
	RecentPrices(ctx context.Context, stockID uint, days int) ([]models.StockPrice, error)
}

// GormPriceStore reads stocks and prices through gorm
type GormPriceStore struct {
	db *gorm.DB
}

// NewGormPriceStore creates a store backed by db
func NewGormPriceStore(db *gorm.DB) *GormPriceStore {
	return &GormPriceStore{db: db}
}

// Stocks lists active stocks ordered by symbol
func (s *GormPriceStore) Stocks(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	err := s.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("symbol ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	return stocks, nil
}

// StockBySymbol loads one stock
func (s *GormPriceStore) StockBySymbol(ctx context.Context, symbol string) (*models.Stock, error) {
	var stock models.Stock
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStockNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("load stock %s: %w", symbol, err)
	}
	return &stock, nil
}

// RecentPrices returns the last days bars in chronological order
func (s *GormPriceStore) RecentPrices(ctx context.Context, stockID uint, days int) ([]models.StockPrice, error) {
	var prices []models.StockPrice
	err := s.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Order("date DESC").
		Limit(days).
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("load prices for stock %d: %w", stockID, err)
	}

	// Reverse to get chronological order
	for i := 0; i < len(prices)/2; i++ {
		prices[i], prices[len(prices)-1-i] = prices[len(prices)-1-i], prices[i]
	}
	return prices, nil
}
