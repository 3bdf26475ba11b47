package screener

import (
	"sort"
	"strings"
)

// CategoryOther collects industries that match no keyword
const CategoryOther = "other"

type industryCategory struct {
	name     string
	keywords []string
}

// industryCategories is ordered; the first category with a matching keyword wins
var industryCategories = []industryCategory{
	{"banking", []string{"银行", "保险", "bank", "insurance"}},
	{"real_estate", []string{"房地产", "建筑", "建材", "real estate", "construction", "building material"}},
	{"healthcare", []string{"医药生物", "医疗器械", "生物制品", "pharma", "medical", "biotech"}},
	{"technology", []string{"计算机", "通信", "电子", "传媒", "computer", "telecom", "electronic", "media", "software"}},
	{"consumer", []string{"食品饮料", "家用电器", "纺织服装", "商业贸易", "休闲服务", "food", "beverage", "appliance", "apparel", "retail"}},
	{"manufacturing", []string{"机械设备", "电气设备", "国防军工", "汽车", "交通运输", "machinery", "electrical equipment", "defense", "automobile", "transport"}},
	{"energy", []string{"石油化工", "煤炭", "有色金属", "钢铁", "电力", "采掘", "petrochemical", "coal", "metal", "steel", "power", "mining"}},
	{"finance", []string{"证券", "多元金融", "securities", "financial"}},
	{"utilities", []string{"公用事业", "环保", "水务", "utilities", "environmental", "water"}},
	{"agriculture", []string{"农林牧渔", "agriculture", "farming", "fishery"}},
	{CategoryOther, []string{"综合", "conglomerate"}},
}

// Categories lists the known industry categories in display order
func Categories() []string {
	names := make([]string, len(industryCategories))
	for i, c := range industryCategories {
		names[i] = c.name
	}
	return names
}

// CategoryOf maps a free-text industry name to its category
func CategoryOf(industry string) string {
	s := strings.ToLower(strings.TrimSpace(industry))
	if s == "" {
		return CategoryOther
	}
	for _, c := range industryCategories {
		for _, kw := range c.keywords {
			if strings.Contains(s, kw) {
				return c.name
			}
		}
	}
	return CategoryOther
}

// IndustryRank summarizes scores for one industry category
type IndustryRank struct {
	Rank      int     `json:"rank"`
	Category  string  `json:"category"`
	MeanScore float64 `json:"mean_score"`
	Count     int     `json:"count"`
	MaxScore  float64 `json:"max_score"`
	MinScore  float64 `json:"min_score"`
}

// RankIndustries groups candidates by category and orders categories by mean score
func RankIndustries(candidates []Candidate) []IndustryRank {
	byCategory := make(map[string]*IndustryRank)
	var order []string
	sums := make(map[string]float64)

	for _, c := range candidates {
		cat := c.IndustryCategory
		if cat == "" {
			cat = CategoryOther
		}
		r, ok := byCategory[cat]
		if !ok {
			r = &IndustryRank{Category: cat, MaxScore: c.Score, MinScore: c.Score}
			byCategory[cat] = r
			order = append(order, cat)
		}
		r.Count++
		sums[cat] += c.Score
		if c.Score > r.MaxScore {
			r.MaxScore = c.Score
		}
		if c.Score < r.MinScore {
			r.MinScore = c.Score
		}
	}

	ranks := make([]IndustryRank, 0, len(order))
	for _, cat := range order {
		r := byCategory[cat]
		r.MeanScore = roundScore(sums[cat] / float64(r.Count))
		ranks = append(ranks, *r)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].MeanScore != ranks[j].MeanScore {
			return ranks[i].MeanScore > ranks[j].MeanScore
		}
		return ranks[i].Category < ranks[j].Category
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}
