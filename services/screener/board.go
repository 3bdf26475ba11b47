package screener

import "strings"

// Board is the listing segment a symbol trades on
type Board string

const (
	BoardShanghaiMain Board = "sh_main"
	BoardShenzhenMain Board = "sz_main"
	BoardSME          Board = "sme"
	BoardChiNext      Board = "chinext"
	BoardSTAR         Board = "star"
	BoardOther        Board = "other"
)

// Segment filter values accepted by Filter.Board
const (
	SegmentAll  = "all"
	SegmentMain = "main"
)

// String returns the string representation of Board
func (b Board) String() string {
	return string(b)
}

// BoardOf classifies a six digit exchange code by its prefix.
// A market suffix such as ".SH" is ignored.
func BoardOf(symbol string) Board {
	code, _, _ := strings.Cut(symbol, ".")
	switch {
	case hasAnyPrefix(code, "600", "601", "603"):
		return BoardShanghaiMain
	case strings.HasPrefix(code, "000"):
		return BoardShenzhenMain
	case strings.HasPrefix(code, "002"):
		return BoardSME
	case strings.HasPrefix(code, "300"):
		return BoardChiNext
	case strings.HasPrefix(code, "688"):
		return BoardSTAR
	default:
		return BoardOther
	}
}

// InSegment reports whether the board belongs to a segment filter value.
// "main" groups both main boards; "" and "all" match everything.
func (b Board) InSegment(segment string) bool {
	switch segment {
	case "", SegmentAll:
		return true
	case SegmentMain:
		return b == BoardShanghaiMain || b == BoardShenzhenMain
	default:
		return string(b) == segment
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
