package screener

import (
	"testing"
)

func candidates(scores ...float64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		out[i] = Candidate{
			Symbol:           string(rune('A' + i)),
			Name:             string(rune('z' - i)),
			Score:            s,
			Board:            BoardShanghaiMain,
			IndustryCategory: "banking",
		}
	}
	return out
}

func symbols(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Symbol
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScreen_TopCountIsStable(t *testing.T) {
	in := candidates(80, 90, 70, 80)

	for run := 0; run < 20; run++ {
		got := Screen(in, Filter{MaxCount: 3})
		if want := []string{"B", "A", "D"}; !equalStrings(symbols(got), want) {
			t.Fatalf("run %d: got %v, want %v", run, symbols(got), want)
		}
	}
	if in[0].Symbol != "A" || in[1].Symbol != "B" {
		t.Error("input slice must not be reordered")
	}
}

func TestScreen_TiesKeepInputOrder(t *testing.T) {
	in := candidates(90, 80, 80, 70)
	got := Screen(in, Filter{MaxCount: 3})

	if want := []string{"A", "B", "C"}; !equalStrings(symbols(got), want) {
		t.Fatalf("got %v, want %v", symbols(got), want)
	}
}

func TestScreen_Filters(t *testing.T) {
	in := []Candidate{
		{Symbol: "600001", Score: 85, Board: BoardOf("600001"), IndustryCategory: "banking"},
		{Symbol: "000002", Score: 75, Board: BoardOf("000002"), IndustryCategory: "real_estate"},
		{Symbol: "300003", Score: 95, Board: BoardOf("300003"), IndustryCategory: "technology"},
		{Symbol: "688004", Score: 40, Board: BoardOf("688004"), IndustryCategory: "technology"},
		{Symbol: "002005", Score: 60, Board: BoardOf("002005"), IndustryCategory: "consumer"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"300003", "600001", "000002", "002005", "688004"}},
		{"min score", Filter{MinScore: 75}, []string{"300003", "600001", "000002"}},
		{"main board", Filter{Board: SegmentMain}, []string{"600001", "000002"}},
		{"chinext", Filter{Board: "chinext"}, []string{"300003"}},
		{"all board", Filter{Board: SegmentAll, MinScore: 90}, []string{"300003"}},
		{"category", Filter{IndustryCategory: "technology"}, []string{"300003", "688004"}},
		{"category and score", Filter{IndustryCategory: "technology", MinScore: 50}, []string{"300003"}},
		{"sort by symbol", Filter{MinScore: 60, SortBy: SortBySymbol}, []string{"000002", "002005", "300003", "600001"}},
		{"no match", Filter{MinScore: 99}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Screen(in, tt.filter)
			if !equalStrings(symbols(got), tt.want) {
				t.Errorf("got %v, want %v", symbols(got), tt.want)
			}
		})
	}
}

func TestScreen_SortByNameAfterTopN(t *testing.T) {
	in := []Candidate{
		{Symbol: "1", Name: "Charlie", Score: 10},
		{Symbol: "2", Name: "Alpha", Score: 30},
		{Symbol: "3", Name: "Bravo", Score: 20},
	}
	got := Screen(in, Filter{MaxCount: 2, SortBy: SortByName})
	if want := []string{"2", "3"}; !equalStrings(symbols(got), want) {
		t.Errorf("got %v, want %v", symbols(got), want)
	}
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{MaxCount: 10000, Board: " main "}
	f.Normalize()
	if f.MaxCount != MaxMaxCount {
		t.Errorf("MaxCount = %d, want %d", f.MaxCount, MaxMaxCount)
	}
	if f.SortBy != SortByScore || f.Board != SegmentMain {
		t.Errorf("unexpected normalized filter %+v", f)
	}

	f = Filter{}
	f.Normalize()
	if f.MaxCount != DefaultMaxCount {
		t.Errorf("MaxCount = %d, want %d", f.MaxCount, DefaultMaxCount)
	}
}

func TestBoardOf(t *testing.T) {
	tests := map[string]Board{
		"600519":    BoardShanghaiMain,
		"601318.SH": BoardShanghaiMain,
		"603288":    BoardShanghaiMain,
		"000001.SZ": BoardShenzhenMain,
		"002415":    BoardSME,
		"300750":    BoardChiNext,
		"688981":    BoardSTAR,
		"830799":    BoardOther,
		"":          BoardOther,
	}
	for symbol, want := range tests {
		if got := BoardOf(symbol); got != want {
			t.Errorf("BoardOf(%q) = %s, want %s", symbol, got, want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	tests := map[string]string{
		"银行":                    "banking",
		"保险":                    "banking",
		"证券":                    "finance",
		"计算机应用":                 "technology",
		"Electronic Components": "technology",
		"食品饮料":                  "consumer",
		"":                      CategoryOther,
		"综合":                    CategoryOther,
		"something unheard":     CategoryOther,
	}
	for industry, want := range tests {
		if got := CategoryOf(industry); got != want {
			t.Errorf("CategoryOf(%q) = %s, want %s", industry, got, want)
		}
	}
}

func TestRankIndustries(t *testing.T) {
	in := []Candidate{
		{IndustryCategory: "banking", Score: 60},
		{IndustryCategory: "technology", Score: 90},
		{IndustryCategory: "banking", Score: 80},
		{IndustryCategory: "technology", Score: 70},
		{IndustryCategory: "", Score: 10},
	}

	got := RankIndustries(in)
	if len(got) != 3 {
		t.Fatalf("got %d ranks, want 3", len(got))
	}

	first := got[0]
	if first.Category != "technology" || first.Rank != 1 || first.Count != 2 ||
		first.MeanScore != 80 || first.MaxScore != 90 || first.MinScore != 70 {
		t.Errorf("unexpected first rank %+v", first)
	}
	if got[1].Category != "banking" || got[1].MeanScore != 70 {
		t.Errorf("unexpected second rank %+v", got[1])
	}
	if got[2].Category != CategoryOther || got[2].Rank != 3 {
		t.Errorf("unexpected last rank %+v", got[2])
	}
}

func TestFindPreset(t *testing.T) {
	p, ok := FindPreset("main_board_leaders")
	if !ok {
		t.Fatal("preset not found")
	}
	if p.Filter.Board != SegmentMain {
		t.Errorf("unexpected preset filter %+v", p.Filter)
	}
	if _, ok := FindPreset("missing"); ok {
		t.Error("unknown preset should not be found")
	}
}
