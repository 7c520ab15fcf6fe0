package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
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

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &provider.Config{
		ID:         "finnhub",
		Locator:    Locator,
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Categories: []provider.Category{provider.CategoryEquity, provider.CategoryNews},
	}
	cfg.Normalize()

	p, err := New(cfg, provider.Deps{
		Logger:     testLogger(t),
		HTTPClient: xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
	})
	require.NoError(t, err)
	return p.(*Provider)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(&provider.Config{ID: "finnhub", Locator: Locator}, provider.Deps{Logger: testLogger(t)})
	require.Error(t, err)
}

func TestQuoteSendsTokenAndNormalizes(t *testing.T) {
	now := time.Now()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("token"))
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprintf(w, `{"c": 190.5, "d": 2.5, "dp": 1.33, "h": 191.0, "l": 187.5, "o": 188.2, "pc": 188.0, "t": %d}`, now.Unix())
	})

	resps, err := p.RealTimeQuote(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, resps, 1)

	q, ok := resps[0].Data.(*models.Quote)
	require.True(t, ok)
	require.Equal(t, 190.5, q.Price)
	require.Equal(t, 188.0, q.PrevClose)
	require.Equal(t, now.Unix(), q.AsOf.Unix())

	require.Equal(t, 0.93, resps[0].Quality.Accuracy)
	require.Equal(t, 1.0, resps[0].Quality.Completeness)
	require.Greater(t, resps[0].Quality.Timeliness, 0.9)
}

func TestHistoricalBarsNormalizesCandles(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/candle", r.URL.Path)
		require.Equal(t, "D", r.URL.Query().Get("resolution"))
		require.NotEmpty(t, r.URL.Query().Get("from"))
		require.NotEmpty(t, r.URL.Query().Get("to"))
		fmt.Fprint(w, `{
			"c": [100, 101], "h": [102, 103], "l": [99, 100],
			"o": [100, 100], "v": [5000, 6000],
			"t": [1724976000, 1725062400], "s": "ok"
		}`)
	})

	resp, err := p.HistoricalBars(context.Background(), "AAPL", "2024-08-01", "2024-08-30", nil)
	require.NoError(t, err)

	series, ok := resp.Data.(*models.PriceSeries)
	require.True(t, ok)
	require.Len(t, series.Points, 2)
	require.Equal(t, 101.0, series.Points[1].Close)
	require.Equal(t, 6000.0, series.Points[1].Volume)
}

func TestHistoricalBarsNoDataStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s": "no_data"}`)
	})

	_, err := p.HistoricalBars(context.Background(), "NOPE", "2024-08-01", "2024-08-30", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no_data")
}

func TestNewsBySymbolMergesArticles(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/company-news", r.URL.Path)
		sym := r.URL.Query().Get("symbol")
		fmt.Fprintf(w, `[
			{"id": 1, "headline": "%[1]s earnings beat", "source": "wire", "related": "%[1]s", "url": "https://example.com/1", "datetime": %[2]d},
			{"id": 2, "headline": "%[1]s guidance raised", "source": "wire", "related": "%[1]s", "url": "https://example.com/2", "datetime": %[2]d}
		]`, sym, time.Now().Unix())
	})

	resp, err := p.NewsBySymbol(context.Background(), []string{"AAPL", "MSFT"}, 10)
	require.NoError(t, err)

	articles, ok := resp.Data.([]models.NewsArticle)
	require.True(t, ok)
	require.Len(t, articles, 4)
	require.Equal(t, []string{"AAPL"}, articles[0].Symbols)
}

func TestGeneralNewsUsesCategory(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news", r.URL.Path)
		require.Equal(t, "merger", r.URL.Query().Get("category"))
		fmt.Fprint(w, `[{"id": 9, "headline": "deal announced", "url": "https://example.com/9", "datetime": 1724976000}]`)
	})

	resp, err := p.News(context.Background(), "merger", 5)
	require.NoError(t, err)
	require.Len(t, resp.Data.([]models.NewsArticle), 1)
}

func TestNewsLimitTruncates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 1, "headline": "a", "url": "u", "datetime": 1724976000},
			{"id": 2, "headline": "b", "url": "u", "datetime": 1724976000},
			{"id": 3, "headline": "c", "url": "u", "datetime": 1724976000}
		]`)
	})

	resp, err := p.News(context.Background(), "general", 2)
	require.NoError(t, err)
	require.Len(t, resp.Data.([]models.NewsArticle), 2)
}

func TestValidateRequest(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	require.True(t, p.ValidateRequest(provider.Params{"symbol": "AAPL"}))
	require.True(t, p.ValidateRequest(provider.Params{"data_type": "news", "query": "general"}))
	require.False(t, p.ValidateRequest(provider.Params{"data_type": "news"}))
	require.False(t, p.ValidateRequest(provider.Params{"data_type": "historical"}))
}

func TestCompanyInfoUnsupported(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := p.CompanyInfo(context.Background(), []string{"AAPL"})
	require.Equal(t, provider.KindValidation, provider.KindOf(err))
}
