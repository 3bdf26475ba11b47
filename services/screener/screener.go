package screener

import (
	"sort"
	"strings"

	"kmj_screener/services/kmj"

	"github.com/shopspring/decimal"
)

// Default and upper bound for Filter.MaxCount
const (
	DefaultMaxCount = 50
	MaxMaxCount     = 500
)

// Presentation orderings accepted by Filter.SortBy
const (
	SortByScore  = "score"
	SortBySymbol = "symbol"
	SortByName   = "name"
)

// Candidate is one scored stock offered to the screener
type Candidate struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Industry         string    `json:"industry"`
	IndustryCategory string    `json:"industry_category"`
	Board            Board     `json:"board"`
	Score            float64   `json:"score"`
	Trend            kmj.Trend `json:"trend"`
	BuySignal        bool      `json:"buy_signal"`
	SellSignal       bool      `json:"sell_signal"`
	LimitUp          bool      `json:"limit_up"`
	Faulted          bool      `json:"faulted,omitempty"`
}

// Filter represents screening criteria
type Filter struct {
	MinScore         float64 `json:"min_score"`
	IndustryCategory string  `json:"industry_category"` // category name, "" or "all"
	Board            string  `json:"board"`             // board, "main", "" or "all"
	MaxCount         int     `json:"max_count"`
	SortBy           string  `json:"sort_by"` // score, symbol, name
}

// Normalize fills defaults and clamps the result size
func (f *Filter) Normalize() {
	if f.MaxCount <= 0 {
		f.MaxCount = DefaultMaxCount
	}
	if f.MaxCount > MaxMaxCount {
		f.MaxCount = MaxMaxCount
	}
	if f.SortBy == "" {
		f.SortBy = SortByScore
	}
	f.IndustryCategory = strings.TrimSpace(f.IndustryCategory)
	f.Board = strings.TrimSpace(f.Board)
}

// Screen keeps candidates matching the filter, takes the top MaxCount by
// score and orders them for display. Ties keep their input order.
// The input slice is not modified.
func Screen(candidates []Candidate, filter Filter) []Candidate {
	filter.Normalize()

	matched := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < filter.MinScore {
			continue
		}
		if !categoryMatches(c.IndustryCategory, filter.IndustryCategory) {
			continue
		}
		if !c.Board.InSegment(filter.Board) {
			continue
		}
		matched = append(matched, c)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})
	if len(matched) > filter.MaxCount {
		matched = matched[:filter.MaxCount]
	}

	sortResults(matched, filter.SortBy)
	return matched
}

func categoryMatches(category, want string) bool {
	if want == "" || want == SegmentAll {
		return true
	}
	return category == want
}

// sortResults applies the display ordering; score order is already in place
func sortResults(results []Candidate, sortBy string) {
	switch sortBy {
	case SortBySymbol:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Symbol < results[j].Symbol
		})
	case SortByName:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Name < results[j].Name
		})
	}
}

// Preset is a named screening configuration
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Filter      Filter `json:"filter"`
}

// GetPresetScreeners returns predefined screener configurations
func GetPresetScreeners() []Preset {
	return []Preset{
		{
			ID:          "strong_uptrend",
			Name:        "Strong Uptrend",
			Description: "Confirmed KMJ uptrend with positive momentum (score >= 80)",
			Filter:      Filter{MinScore: 80, SortBy: SortByScore},
		},
		{
			ID:          "main_board_leaders",
			Name:        "Main Board Leaders",
			Description: "Top scoring main board stocks",
			Filter:      Filter{MinScore: 60, Board: SegmentMain, MaxCount: 20},
		},
		{
			ID:          "chinext_momentum",
			Name:        "ChiNext Momentum",
			Description: "ChiNext stocks scoring 70 or above",
			Filter:      Filter{MinScore: 70, Board: string(BoardChiNext)},
		},
		{
			ID:          "star_momentum",
			Name:        "STAR Momentum",
			Description: "STAR market stocks scoring 70 or above",
			Filter:      Filter{MinScore: 70, Board: string(BoardSTAR)},
		},
		{
			ID:          "all",
			Name:        "Full Ranking",
			Description: "Every scored stock, best first",
			Filter:      Filter{MaxCount: MaxMaxCount},
		},
	}
}

// FindPreset looks up a preset by id
func FindPreset(id string) (Preset, bool) {
	for _, p := range GetPresetScreeners() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

func roundScore(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
