package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinFetch/internal/models"
	"FinFetch/internal/provider"
	xhttp "FinFetch/pkg/http"
	"FinFetch/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

// chartBody builds a v8 chart response with the given timestamps. A nil
// entry in closes renders as JSON null.
func chartBody(timestamps []int64, closes []*float64) string {
	ts := make([]string, len(timestamps))
	for i, v := range timestamps {
		ts[i] = fmt.Sprint(v)
	}
	cl := make([]string, len(closes))
	vol := make([]string, len(closes))
	for i, v := range closes {
		if v == nil {
			cl[i] = "null"
			vol[i] = "null"
		} else {
			cl[i] = fmt.Sprint(*v)
			vol[i] = "1000"
		}
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {
					"currency": "USD",
					"symbol": "AAPL",
					"regularMarketPrice": 190.5,
					"chartPreviousClose": 188.0,
					"regularMarketDayHigh": 191.0,
					"regularMarketDayLow": 187.5,
					"regularMarketVolume": 52000000,
					"regularMarketTime": %d
				},
				"timestamp": [%s],
				"indicators": {
					"quote": [{
						"open": [%s], "high": [%s], "low": [%s],
						"close": [%s], "volume": [%s]
					}]
				}
			}],
			"error": null
		}
	}`, time.Now().Unix(),
		strings.Join(ts, ","),
		strings.Join(cl, ","), strings.Join(cl, ","), strings.Join(cl, ","),
		strings.Join(cl, ","), strings.Join(vol, ","))
}

func f(v float64) *float64 { return &v }

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &provider.Config{
		ID:         "yahoo_finance",
		Locator:    Locator,
		BaseURL:    srv.URL,
		Categories: []provider.Category{provider.CategoryEquity},
	}
	cfg.Normalize()

	p, err := New(cfg, provider.Deps{
		Logger:     testLogger(t),
		HTTPClient: xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
	})
	require.NoError(t, err)
	return p.(*Provider), srv
}

func TestHistoricalBarsNormalizesSeries(t *testing.T) {
	now := time.Now()
	timestamps := []int64{
		now.Add(-48 * time.Hour).Unix(),
		now.Add(-24 * time.Hour).Unix(),
		now.Add(-30 * time.Minute).Unix(),
	}

	var gotPath string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NotEmpty(t, r.URL.Query().Get("period1"))
		require.NotEmpty(t, r.URL.Query().Get("period2"))
		fmt.Fprint(w, chartBody(timestamps, []*float64{f(100), f(101), f(102)}))
	})

	resp, err := p.HistoricalBars(context.Background(), "AAPL", "", "", nil)
	require.NoError(t, err)
	require.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	require.Equal(t, "yahoo_finance", resp.Provider)
	require.False(t, resp.Cached)
	require.Equal(t, 1, resp.Attempts)

	series, ok := resp.Data.(*models.PriceSeries)
	require.True(t, ok)
	require.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, "1d", series.Interval)
	require.Equal(t, "USD", series.Currency)
	require.Len(t, series.Points, 3)
	require.Equal(t, 102.0, series.Points[2].Close)
	require.Equal(t, timestamps[0], series.Points[0].Timestamp.Unix())

	require.Equal(t, 0.95, resp.Quality.Accuracy)
	require.Equal(t, 1.0, resp.Quality.Completeness)
	require.Greater(t, resp.Quality.Timeliness, 0.4)
	require.Less(t, resp.Quality.Timeliness, 0.6)
	require.Equal(t, resp.Quality.Overall(), resp.Score)
}

func TestSeriesQualityCountsNullCells(t *testing.T) {
	now := time.Now()
	timestamps := []int64{now.Add(-2 * time.Minute).Unix(), now.Add(-time.Minute).Unix()}

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(timestamps, []*float64{f(100), nil}))
	})

	resp, err := p.HistoricalBars(context.Background(), "AAPL", "", "", nil)
	require.NoError(t, err)

	series := resp.Data.(*models.PriceSeries)
	require.Len(t, series.Points, 2)
	require.Zero(t, series.Points[1].Close)

	// one of the two bars is entirely null, so half the cells are filled
	require.InDelta(t, 0.5, resp.Quality.Completeness, 1e-9)
}

func TestEmptySeriesGetsResidualConfidence(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(nil, nil))
	})

	resp, err := p.HistoricalBars(context.Background(), "AAPL", "", "", nil)
	require.NoError(t, err)
	require.Empty(t, resp.Data.(*models.PriceSeries).Points)

	require.Zero(t, resp.Quality.Accuracy)
	require.Zero(t, resp.Quality.Completeness)
	require.Zero(t, resp.Quality.Timeliness)
	require.Equal(t, 0.5, resp.Quality.Confidence)
}

func TestRealTimeQuote(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1m", r.URL.Query().Get("interval"))
		require.Equal(t, "1d", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartBody(nil, nil))
	})

	resps, err := p.RealTimeQuote(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, resps, 1)

	q, ok := resps[0].Data.(*models.Quote)
	require.True(t, ok)
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, 190.5, q.Price)
	require.Equal(t, 188.0, q.PrevClose)
	require.InDelta(t, 2.5, q.Change, 1e-9)
	require.InDelta(t, 2.5/188.0*100, q.ChangePercent, 1e-9)
}

func TestCompanyInfoNormalizesProfile(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		require.Equal(t, "assetProfile,price", r.URL.Query().Get("modules"))
		fmt.Fprint(w, `{
			"quoteSummary": {
				"result": [{
					"assetProfile": {
						"sector": "Technology",
						"industry": "Consumer Electronics",
						"country": "United States",
						"website": "https://www.apple.com"
					},
					"price": {
						"longName": "Apple Inc.",
						"currency": "USD",
						"exchangeName": "NMS",
						"marketCap": {"raw": 2900000000000}
					}
				}],
				"error": null
			}
		}`)
	})

	resps, err := p.CompanyInfo(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, resps, 1)

	profile, ok := resps[0].Data.(*models.CompanyProfile)
	require.True(t, ok)
	require.Equal(t, "Apple Inc.", profile.Name)
	require.Equal(t, "Technology", profile.Sector)
	require.Equal(t, "NMS", profile.Exchange)
	require.Equal(t, 2.9e12, profile.MarketCap)

	require.InDelta(t, 1.0, resps[0].Quality.Completeness, 1e-9)
}

func TestChartAPIErrorPropagates(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`)
	})

	_, err := p.HistoricalBars(context.Background(), "NOPE", "", "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "No data found")
}

func TestValidateRequest(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	require.True(t, p.ValidateRequest(provider.Params{"symbol": "AAPL"}))
	require.True(t, p.ValidateRequest(provider.Params{"symbol": "AAPL", "data_type": "quote"}))
	require.False(t, p.ValidateRequest(provider.Params{}))
	require.False(t, p.ValidateRequest(provider.Params{"symbol": "AAPL", "data_type": "dividends"}))

	_, err := p.GetData(context.Background(), provider.Params{"data_type": "quote"})
	require.Equal(t, provider.KindValidation, provider.KindOf(err))
}

func TestSecondFetchIsServedFromCache(t *testing.T) {
	calls := 0
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, chartBody([]int64{time.Now().Unix()}, []*float64{f(100)}))
	})

	first, err := p.HistoricalBars(context.Background(), "AAPL", "2025-08-01", "2025-08-29", nil)
	require.NoError(t, err)
	second, err := p.HistoricalBars(context.Background(), "AAPL", "2025-08-01", "2025-08-29", nil)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.False(t, first.Cached)
	require.True(t, second.Cached)
	require.NotEqual(t, first.RequestID, second.RequestID)
	require.Equal(t, first.Score, second.Score)
}
