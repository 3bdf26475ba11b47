package models

import (
	"time"

	"kmj_screener/services/kmj"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stock represents a China A-share listing
type Stock struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Symbol           string    `gorm:"uniqueIndex;size:6;not null" json:"symbol"`
	Name             string    `json:"name"`
	Market           string    `gorm:"size:2" json:"market"` // SH, SZ
	Industry         string    `json:"industry"`
	IndustryCategory string    `gorm:"index" json:"industry_category"`
	Board            string    `gorm:"index" json:"board"`  // sh_main, sz_main, sme, chinext, star
	Status           string    `gorm:"index" json:"status"` // active, delisted, suspended
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Code returns the exchange qualified code, e.g. 600519.SH
func (s Stock) Code() string {
	return s.Symbol + "." + s.Market
}

// StockPrice is one daily bar
type StockPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StockID   uint            `gorm:"uniqueIndex:idx_stock_date;not null" json:"stock_id"`
	Stock     Stock           `gorm:"foreignKey:StockID" json:"stock,omitempty"`
	Date      time.Time       `gorm:"uniqueIndex:idx_stock_date;type:date;not null" json:"date"`
	Open      decimal.Decimal `gorm:"type:decimal(15,4)" json:"open"`
	High      decimal.Decimal `gorm:"type:decimal(15,4)" json:"high"`
	Low       decimal.Decimal `gorm:"type:decimal(15,4)" json:"low"`
	Close     decimal.Decimal `gorm:"type:decimal(15,4)" json:"close"`
	Volume    int64           `json:"volume"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToBar converts a stored row into an indicator input bar
func (p StockPrice) ToBar() kmj.Bar {
	return kmj.Bar{
		Date:   p.Date,
		Open:   p.Open.InexactFloat64(),
		High:   p.High.InexactFloat64(),
		Low:    p.Low.InexactFloat64(),
		Close:  p.Close.InexactFloat64(),
		Volume: float64(p.Volume),
	}
}

// StockPriceFromBar builds a row for stockID from a fetched bar
func StockPriceFromBar(stockID uint, b kmj.Bar) StockPrice {
	return StockPrice{
		StockID: stockID,
		Date:    b.Date,
		Open:    decimal.NewFromFloat(b.Open),
		High:    decimal.NewFromFloat(b.High),
		Low:     decimal.NewFromFloat(b.Low),
		Close:   decimal.NewFromFloat(b.Close),
		Volume:  int64(b.Volume),
	}
}

// MigrateStockModels runs database migrations for stock-related models
func MigrateStockModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Stock{},
		&StockPrice{},
	)
}
