// Package finnhub implements the Finnhub data source: REST quote,
// candle, and news endpoints plus the websocket trade stream.
package finnhub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FinFetch/internal/models"
	"FinFetch/internal/provider"
	xhttp "FinFetch/pkg/http"
	"FinFetch/pkg/logger"
	"FinFetch/pkg/util"
)

// Locator is the registry key this factory is bound to.
const Locator = "finnhub"

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	defaultWSURL   = "wss://ws.finnhub.io"
)

type rawPayload struct {
	kind    string
	symbol  string
	quote   *quoteResponse
	candles *candleResponse
	news    []newsItem
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type candleResponse struct {
	Close     []float64 `json:"c"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Open      []float64 `json:"o"`
	Volume    []float64 `json:"v"`
	Timestamp []int64   `json:"t"`
	Status    string    `json:"s"`
}

type newsItem struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// Provider fetches equity and news data from Finnhub.
type Provider struct {
	*provider.Base
	log     *logger.Logger
	client  *xhttp.Client
	apiKey  string
	baseURL string
	wsURL   string
	now     func() time.Time
}

// New is the provider factory. The API key is required.
func New(cfg *provider.Config, deps provider.Deps) (provider.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("finnhub: api key is required")
	}
	p := &Provider{
		log:     deps.Logger.Named("finnhub"),
		client:  deps.HTTPClient,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		wsURL:   defaultWSURL,
		now:     time.Now,
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	if ws, ok := cfg.Params["websocket_url"].(string); ok && ws != "" {
		p.wsURL = ws
	}
	if p.client == nil {
		p.client = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout))
	}
	p.Base = provider.NewBase(cfg, p.log, p, provider.WithRecorder(deps.Recorder))
	return p, nil
}

func (p *Provider) get(ctx context.Context, path string, query map[string][]string, dest any) error {
	if query == nil {
		query = map[string][]string{}
	}
	query["token"] = []string{p.apiKey}
	return p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         p.baseURL + path,
		QueryParams: query,
	}, dest)
}

// ValidateCredentials makes a minimal authenticated quote call.
func (p *Provider) ValidateCredentials(ctx context.Context) bool {
	var q quoteResponse
	if err := p.get(ctx, "/quote", map[string][]string{"symbol": {"AAPL"}}, &q); err != nil {
		p.log.Warn("credential check failed", logger.Error(err))
		return false
	}
	return true
}

// TestConnection is the same probe; Finnhub has no unauthenticated
// endpoint to distinguish reachability from auth.
func (p *Provider) TestConnection(ctx context.Context) bool {
	return p.ValidateCredentials(ctx)
}

// HealthCheck satisfies the optional manager probe.
func (p *Provider) HealthCheck(ctx context.Context) (bool, error) {
	return p.TestConnection(ctx), nil
}

// ValidateRequest checks the parameter bag per data type. News
// requests accept either a symbol or a category.
func (p *Provider) ValidateRequest(params provider.Params) bool {
	switch params.StrDefault("data_type", "quote") {
	case "quote", "historical":
		return params.Str("symbol") != ""
	case "news":
		return params.Str("symbol") != "" || params.Str("query") != ""
	}
	return false
}

// Fetch routes to the matching REST endpoint.
func (p *Provider) Fetch(ctx context.Context, params provider.Params) (any, error) {
	symbol := params.Str("symbol")
	switch params.StrDefault("data_type", "quote") {
	case "historical":
		return p.fetchCandles(ctx, symbol, params)
	case "news":
		return p.fetchNews(ctx, params)
	default:
		var q quoteResponse
		if err := p.get(ctx, "/quote", map[string][]string{"symbol": {symbol}}, &q); err != nil {
			return nil, err
		}
		return &rawPayload{kind: "quote", symbol: symbol, quote: &q}, nil
	}
}

func (p *Provider) fetchCandles(ctx context.Context, symbol string, params provider.Params) (*rawPayload, error) {
	to := p.now()
	from := to.AddDate(0, -1, 0)
	if t, ok := util.ParseDate(params.Str("start_date")); ok {
		from = t
	}
	if t, ok := util.ParseDate(params.Str("end_date")); ok {
		to = t.Add(24 * time.Hour)
	}
	var c candleResponse
	err := p.get(ctx, "/stock/candle", map[string][]string{
		"symbol":     {symbol},
		"resolution": {params.StrDefault("interval", "D")},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}, &c)
	if err != nil {
		return nil, err
	}
	if c.Status != "ok" && c.Status != "" {
		return nil, fmt.Errorf("candle api status %s for %s", c.Status, symbol)
	}
	return &rawPayload{kind: "historical", symbol: symbol, candles: &c}, nil
}

func (p *Provider) fetchNews(ctx context.Context, params provider.Params) (*rawPayload, error) {
	symbol := params.Str("symbol")
	var items []newsItem
	if symbol != "" {
		to := p.now()
		from := to.AddDate(0, 0, -7)
		err := p.get(ctx, "/company-news", map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
		}, &items)
		if err != nil {
			return nil, err
		}
	} else {
		err := p.get(ctx, "/news", map[string][]string{
			"category": {params.StrDefault("query", "general")},
		}, &items)
		if err != nil {
			return nil, err
		}
	}
	if limit := params.Int("limit", 0); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return &rawPayload{kind: "news", symbol: symbol, news: items}, nil
}

// Normalize maps raw payloads into the common shapes.
func (p *Provider) Normalize(raw any) (any, error) {
	payload, ok := raw.(*rawPayload)
	if !ok {
		return nil, provider.NewError(provider.KindInternal, "unexpected raw payload type %T", raw)
	}
	switch payload.kind {
	case "historical":
		return p.normalizeCandles(payload), nil
	case "news":
		return p.normalizeNews(payload), nil
	default:
		q := payload.quote
		return &models.Quote{
			Symbol:        payload.symbol,
			Price:         q.Current,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Open:          q.Open,
			High:          q.High,
			Low:           q.Low,
			PrevClose:     q.PrevClose,
			AsOf:          time.Unix(q.Timestamp, 0).UTC(),
		}, nil
	}
}

func (p *Provider) normalizeCandles(payload *rawPayload) *models.PriceSeries {
	c := payload.candles
	series := &models.PriceSeries{Symbol: payload.symbol, Interval: "1d"}
	for i, ts := range c.Timestamp {
		point := models.PricePoint{
			Symbol:    payload.symbol,
			Timestamp: time.Unix(ts, 0).UTC(),
		}
		if i < len(c.Open) {
			point.Open = c.Open[i]
		}
		if i < len(c.High) {
			point.High = c.High[i]
		}
		if i < len(c.Low) {
			point.Low = c.Low[i]
		}
		if i < len(c.Close) {
			point.Close = c.Close[i]
		}
		if i < len(c.Volume) {
			point.Volume = c.Volume[i]
		}
		series.Points = append(series.Points, point)
	}
	return series
}

func (p *Provider) normalizeNews(payload *rawPayload) []models.NewsArticle {
	out := make([]models.NewsArticle, 0, len(payload.news))
	for _, item := range payload.news {
		article := models.NewsArticle{
			ID:          strconv.FormatInt(item.ID, 10),
			Headline:    item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			ImageURL:    item.Image,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		}
		if item.Related != "" {
			article.Symbols = []string{item.Related}
		}
		out = append(out, article)
	}
	return out
}

// AssessQuality scores normalized payloads. Finnhub quotes carry
// exchange timestamps, so timeliness tracks the reported tick age.
func (p *Provider) AssessQuality(normalized any) provider.Quality {
	switch v := normalized.(type) {
	case *models.Quote:
		if v.Price == 0 {
			return provider.Quality{Confidence: 0.5}
		}
		filled, total := 0, 5
		for _, f := range []float64{v.Price, v.Open, v.High, v.Low, v.PrevClose} {
			if f != 0 {
				filled++
			}
		}
		return provider.Quality{
			Accuracy:     0.93,
			Completeness: float64(filled) / float64(total),
			Timeliness:   timelinessFromAge(p.now().Sub(v.AsOf)),
			Confidence:   0.9,
		}
	case *models.PriceSeries:
		if len(v.Points) == 0 {
			return provider.Quality{Confidence: 0.5}
		}
		last := v.Points[len(v.Points)-1].Timestamp
		return provider.Quality{
			Accuracy:     0.93,
			Completeness: 1,
			Timeliness:   timelinessFromAge(p.now().Sub(last)),
			Confidence:   0.9,
		}
	case []models.NewsArticle:
		if len(v) == 0 {
			return provider.Quality{Confidence: 0.5}
		}
		filled := 0
		for _, a := range v {
			if a.Headline != "" && a.URL != "" {
				filled++
			}
		}
		newest := v[0].PublishedAt
		for _, a := range v {
			if a.PublishedAt.After(newest) {
				newest = a.PublishedAt
			}
		}
		return provider.Quality{
			Accuracy:     0.9,
			Completeness: float64(filled) / float64(len(v)),
			Timeliness:   newsTimeliness(p.now().Sub(newest)),
			Confidence:   0.85,
		}
	default:
		return provider.Quality{Confidence: 0.5}
	}
}

// timelinessFromAge decays linearly to zero over one hour.
func timelinessFromAge(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	v := 1 - age.Seconds()/3600
	if v < 0 {
		return 0
	}
	return v
}

// newsTimeliness decays over a day; news stays useful longer than a
// price tick.
func newsTimeliness(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	v := 1 - age.Hours()/24
	if v < 0 {
		return 0
	}
	return v
}

// RealTimeQuote fetches quotes for each symbol through the pipeline.
func (p *Provider) RealTimeQuote(ctx context.Context, symbols []string) ([]*provider.Response, error) {
	out := make([]*provider.Response, 0, len(symbols))
	for _, s := range symbols {
		resp, err := p.GetData(ctx, provider.Params{"symbol": s, "data_type": "quote"})
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// HistoricalBars fetches daily candles through the pipeline.
func (p *Provider) HistoricalBars(ctx context.Context, symbol, start, end string, opts provider.Params) (*provider.Response, error) {
	params := provider.Params{"symbol": symbol, "data_type": "historical"}
	if start != "" {
		params["start_date"] = start
	}
	if end != "" {
		params["end_date"] = end
	}
	for k, v := range opts {
		params[k] = v
	}
	return p.GetData(ctx, params)
}

// CompanyInfo is not served by this source's free tier.
func (p *Provider) CompanyInfo(ctx context.Context, symbols []string) ([]*provider.Response, error) {
	return nil, provider.NewError(provider.KindValidation, "company info is not supported by finnhub provider")
}

// News fetches general market news by category.
func (p *Provider) News(ctx context.Context, query string, limit int) (*provider.Response, error) {
	return p.GetData(ctx, provider.Params{"data_type": "news", "query": query, "limit": limit})
}

// NewsBySymbol fetches company news per symbol through the pipeline
// and merges the articles into the last envelope.
func (p *Provider) NewsBySymbol(ctx context.Context, symbols []string, limit int) (*provider.Response, error) {
	if len(symbols) == 0 {
		return nil, provider.NewError(provider.KindValidation, "at least one symbol is required")
	}
	var merged []models.NewsArticle
	var last *provider.Response
	for _, s := range symbols {
		resp, err := p.GetData(ctx, provider.Params{"data_type": "news", "symbol": s, "limit": limit})
		if err != nil {
			return nil, err
		}
		if articles, ok := resp.Data.([]models.NewsArticle); ok {
			merged = append(merged, articles...)
		}
		last = resp
	}
	last.Data = merged
	return last, nil
}
