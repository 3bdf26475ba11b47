package datafetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"kmj_screener/services/kmj"

	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// ErrNoData is returned when a provider answers with an empty history
var ErrNoData = errors.New("no data returned")

// Provider fetches daily bars for one code over [start, end]
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, code Code, start, end time.Time) ([]kmj.Bar, error)
}

// Listing is a stock known to a provider
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// Lister is implemented by providers that can enumerate the market
type Lister interface {
	ListStocks(ctx context.Context) ([]Listing, error)
}

// HTTPProvider reads daily bars from a JSON endpoint:
//
//	GET {BaseURL}/daily?code=600519.SH&start=2024-01-01&end=2024-03-01
//	GET {BaseURL}/stocks
//
// When LoginPath is set every call opens its own Session first.
type HTTPProvider struct {
	name       string
	baseURL    string
	LoginPath  string
	LogoutPath string
	client     *http.Client
}

// NewHTTPProvider creates a provider rooted at baseURL
func NewHTTPProvider(name, baseURL string) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

// Session is an authenticated conversation with a provider. It belongs to
// one request and must be closed by its opener.
type Session struct {
	provider *HTTPProvider
	token    string
	closed   bool
}

type loginResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Open starts a session; without LoginPath the session is anonymous
func (p *HTTPProvider) Open(ctx context.Context) (*Session, error) {
	s := &Session{provider: p}
	if p.LoginPath == "" {
		return s, nil
	}

	var resp loginResponse
	if err := p.do(ctx, http.MethodPost, p.LoginPath, nil, "", &resp); err != nil {
		return nil, fmt.Errorf("%s login: %w", p.name, err)
	}
	if resp.Error != "" || resp.Token == "" {
		return nil, fmt.Errorf("%s login rejected: %s", p.name, resp.Error)
	}
	s.token = resp.Token
	return s, nil
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	p := s.provider
	if s.token == "" || p.LogoutPath == "" {
		return
	}
	if err := p.do(ctx, http.MethodPost, p.LogoutPath, nil, s.token, nil); err != nil {
		log.Warn().Err(err).Str("provider", p.name).Msg("Logout failed")
	}
}

type dailyResponse struct {
	Data []struct {
		Date   string   `json:"date"`
		Open   *float64 `json:"open"`
		High   *float64 `json:"high"`
		Low    *float64 `json:"low"`
		Close  *float64 `json:"close"`
		Volume *float64 `json:"volume"`
	} `json:"data"`
	Error string `json:"error"`
}

// FetchDaily implements Provider
func (p *HTTPProvider) FetchDaily(ctx context.Context, code Code, start, end time.Time) ([]kmj.Bar, error) {
	session, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close(context.WithoutCancel(ctx))

	q := url.Values{}
	q.Set("code", code.String())
	q.Set("start", start.Format(dateLayout))
	q.Set("end", end.Format(dateLayout))

	var resp dailyResponse
	if err := p.do(ctx, http.MethodGet, "/daily", q, session.token, &resp); err != nil {
		return nil, fmt.Errorf("%s daily %s: %w", p.name, code, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s daily %s: %s", p.name, code, resp.Error)
	}

	bars := make([]kmj.Bar, 0, len(resp.Data))
	for _, row := range resp.Data {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("%s daily %s: bad date %q: %w", p.name, code, row.Date, err)
		}
		if row.Close == nil {
			continue // suspended day
		}
		bars = append(bars, kmj.Bar{
			Date:   date,
			Open:   orNaN(row.Open),
			High:   orNaN(row.High),
			Low:    orNaN(row.Low),
			Close:  *row.Close,
			Volume: orNaN(row.Volume),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s daily %s: %w", p.name, code, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ListStocks implements Lister
func (p *HTTPProvider) ListStocks(ctx context.Context) ([]Listing, error) {
	session, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close(context.WithoutCancel(ctx))

	var resp struct {
		Data []Listing `json:"data"`
	}
	if err := p.do(ctx, http.MethodGet, "/stocks", nil, session.token, &resp); err != nil {
		return nil, fmt.Errorf("%s stock list: %w", p.name, err)
	}
	return resp.Data, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, q url.Values, token string, out any) error {
	u := p.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// StatusError is a non-200 provider answer
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying may help
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
