package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw     string
		want    Code
		wantErr bool
	}{
		{raw: "600519.SH", want: Code{"600519", "SH"}},
		{raw: "600519.ss", want: Code{"600519", "SH"}},
		{raw: " 000001.SZ ", want: Code{"000001", "SZ"}},
		{raw: "600519", wantErr: true},
		{raw: "60051.SH", wantErr: true},
		{raw: "60051A.SH", wantErr: true},
		{raw: "600519.HK", wantErr: true},
		{raw: "830799.BJ", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCode(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCode) {
					t.Errorf("err = %v, want ErrInvalidCode", err)
				}
				if ValidCode(tt.raw) {
					t.Error("ValidCode should be false")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMarketOf(t *testing.T) {
	for symbol, want := range map[string]string{
		"600519": "SH",
		"688981": "SH",
		"900901": "SH",
		"000001": "SZ",
		"200596": "SZ",
		"300750": "SZ",
		"430047": "BJ",
		"830799": "BJ",
		"920002": "BJ",
		"510300": "",
		"110030": "",
	} {
		if got := MarketOf(symbol); got != want {
			t.Errorf("MarketOf(%s) = %q, want %q", symbol, got, want)
		}
	}
}

func TestBareSymbol(t *testing.T) {
	for raw, want := range map[string]string{
		"sh.600000": "600000",
		"600000.SH": "600000",
		"000001":    "000001",
		"bogus":     "bogus",
	} {
		if got := bareSymbol(raw); got != want {
			t.Errorf("bareSymbol(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestHTTPProvider_FetchDaily(t *testing.T) {
	var logins, logouts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			logins.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"token": "t0k"})
		case "/logout":
			logouts.Add(1)
			if r.Header.Get("Authorization") != "Bearer t0k" {
				w.WriteHeader(http.StatusUnauthorized)
			}
		case "/daily":
			if r.Header.Get("Authorization") != "Bearer t0k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("code") != "600519.SH" || r.URL.Query().Get("start") != "2024-01-01" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
				{"date": "2024-01-03", "open": 11, "high": 12, "low": 10, "close": 11.5, "volume": 2000},
				{"date": "2024-01-02", "open": 10, "high": 11, "low": 9, "close": 10.5, "volume": 1000},
				{"date": "2024-01-04", "open": nil, "high": nil, "low": nil, "close": nil, "volume": nil},
				{"date": "2024-01-05", "open": 12, "high": 12.5, "low": 11, "close": 12, "volume": nil},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL)
	p.LoginPath = "/login"
	p.LogoutPath = "/logout"

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := p.FetchDaily(context.Background(), Code{"600519", "SH"}, start, start.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3 (suspended day skipped)", len(bars))
	}
	if bars[0].Close != 10.5 || bars[1].Close != 11.5 {
		t.Errorf("bars not sorted by date: %+v", bars)
	}
	if !math.IsNaN(bars[2].Volume) {
		t.Errorf("missing volume should be NaN, got %v", bars[2].Volume)
	}
	if logins.Load() != 1 || logouts.Load() != 1 {
		t.Errorf("logins = %d, logouts = %d, want one each", logins.Load(), logouts.Load())
	}
}

func TestHTTPProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("code") {
		case "000001.SZ":
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		case "000002.SZ":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL)
	now := time.Now()

	_, err := p.FetchDaily(context.Background(), Code{"000001", "SZ"}, now, now)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("empty data: err = %v, want ErrNoData", err)
	}

	_, err = p.FetchDaily(context.Background(), Code{"000002", "SZ"}, now, now)
	var se *StatusError
	if !errors.As(err, &se) || !se.Temporary() {
		t.Errorf("503: err = %v, want temporary StatusError", err)
	}

	_, err = p.FetchDaily(context.Background(), Code{"000003", "SZ"}, now, now)
	if !errors.As(err, &se) || se.Temporary() {
		t.Errorf("404: err = %v, want permanent StatusError", err)
	}
}

func TestHTTPProvider_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL)
	p.LoginPath = "/login"
	if _, err := p.FetchDaily(context.Background(), Code{"600519", "SH"}, time.Now(), time.Now()); err == nil {
		t.Fatal("expected login error")
	}
}

func TestHTTPProvider_ListStocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []Listing{
			{Symbol: "sh.600000", Name: "SPDB", Industry: "银行"},
		}})
	}))
	defer srv.Close()

	got, err := NewHTTPProvider("test", srv.URL).ListStocks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "SPDB" {
		t.Errorf("got %+v", got)
	}
}
