// Package yahoo implements the Yahoo Finance data source over the
// public chart and quoteSummary APIs. It serves historical bars,
// real-time quotes, and company profiles without credentials.
package yahoo

import (
	"context"
	"time"

	"FinFetch/internal/models"
	"FinFetch/internal/provider"
	xhttp "FinFetch/pkg/http"
	"FinFetch/pkg/logger"
	"FinFetch/pkg/util"
)

// Locator is the registry key this factory is bound to.
const Locator = "yahoo"

type rawPayload struct {
	kind     string
	chart    *chartResult
	summary  *summaryResponse
	symbol   string
	interval string
}

// Provider fetches equity data from Yahoo Finance.
type Provider struct {
	*provider.Base
	log     *logger.Logger
	client  *xhttp.Client
	baseURL string
	now     func() time.Time
}

// New is the provider factory.
func New(cfg *provider.Config, deps provider.Deps) (provider.Provider, error) {
	p := &Provider{
		log:     deps.Logger.Named("yahoo"),
		client:  deps.HTTPClient,
		baseURL: cfg.BaseURL,
		now:     time.Now,
	}
	if p.baseURL == "" {
		p.baseURL = defaultBaseURL
	}
	if p.client == nil {
		p.client = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout))
	}
	p.Base = provider.NewBase(cfg, p.log, p, provider.WithRecorder(deps.Recorder))
	return p, nil
}

// ValidateCredentials always succeeds: the public endpoints need no
// API key.
func (p *Provider) ValidateCredentials(ctx context.Context) bool {
	return true
}

// TestConnection fetches a one-day chart for a liquid symbol.
func (p *Provider) TestConnection(ctx context.Context) bool {
	_, err := p.fetchChart(ctx, "AAPL", "1d", 0, 0)
	if err != nil {
		p.log.Warn("connectivity check failed", logger.Error(err))
		return false
	}
	return true
}

// HealthCheck reuses the connectivity probe.
func (p *Provider) HealthCheck(ctx context.Context) (bool, error) {
	if p.TestConnection(ctx) {
		return true, nil
	}
	return false, nil
}

// ValidateRequest requires a symbol and a known data type.
func (p *Provider) ValidateRequest(params provider.Params) bool {
	if params.Str("symbol") == "" {
		return false
	}
	switch params.StrDefault("data_type", "historical") {
	case "historical", "quote", "info":
		return true
	}
	return false
}

// Fetch calls the API matching the requested data type and tags the
// payload so Normalize can route it.
func (p *Provider) Fetch(ctx context.Context, params provider.Params) (any, error) {
	symbol := params.Str("symbol")
	dataType := params.StrDefault("data_type", "historical")

	switch dataType {
	case "quote":
		chart, err := p.fetchChart(ctx, symbol, "1m", 0, 0)
		if err != nil {
			return nil, err
		}
		return &rawPayload{kind: "quote", chart: chart, symbol: symbol}, nil

	case "info":
		summary, err := p.fetchSummary(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return &rawPayload{kind: "info", summary: summary, symbol: symbol}, nil

	default:
		interval := params.StrDefault("interval", "1d")
		period1, period2 := p.periodRange(params)
		chart, err := p.fetchChart(ctx, symbol, interval, period1, period2)
		if err != nil {
			return nil, err
		}
		return &rawPayload{kind: "historical", chart: chart, symbol: symbol, interval: interval}, nil
	}
}

// periodRange turns start/end date params into unix bounds, defaulting
// to the trailing month.
func (p *Provider) periodRange(params provider.Params) (int64, int64) {
	end := p.now()
	start := end.AddDate(0, -1, 0)
	if t, ok := util.ParseDate(params.Str("start_date")); ok {
		start = t
	}
	if t, ok := util.ParseDate(params.Str("end_date")); ok {
		end = t.Add(24 * time.Hour)
	}
	start, end = util.AlignFromTo(start, end, params.StrDefault("interval", "1d"))
	return start.Unix(), end.Unix()
}

// Normalize maps the tagged raw payload into the common data shapes.
func (p *Provider) Normalize(raw any) (any, error) {
	payload, ok := raw.(*rawPayload)
	if !ok {
		return nil, provider.NewError(provider.KindInternal, "unexpected raw payload type %T", raw)
	}
	switch payload.kind {
	case "quote":
		return p.normalizeQuote(payload), nil
	case "info":
		return p.normalizeProfile(payload), nil
	default:
		return p.normalizeSeries(payload), nil
	}
}

func (p *Provider) normalizeSeries(payload *rawPayload) *models.PriceSeries {
	chart := payload.chart
	series := &models.PriceSeries{
		Symbol:   payload.symbol,
		Interval: payload.interval,
		Currency: chart.Meta.Currency,
	}
	if len(chart.Indicators.Quote) == 0 {
		return series
	}
	quote := chart.Indicators.Quote[0]
	var adj []*float64
	if len(chart.Indicators.AdjClose) > 0 {
		adj = chart.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range chart.Timestamp {
		point := models.PricePoint{
			Symbol:    payload.symbol,
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      deref(at(quote.Open, i)),
			High:      deref(at(quote.High, i)),
			Low:       deref(at(quote.Low, i)),
			Close:     deref(at(quote.Close, i)),
			Volume:    deref(at(quote.Volume, i)),
			Currency:  chart.Meta.Currency,
		}
		if v := at(adj, i); v != nil {
			point.AdjClose = *v
		}
		series.Points = append(series.Points, point)
	}
	return series
}

func (p *Provider) normalizeQuote(payload *rawPayload) *models.Quote {
	meta := payload.chart.Meta
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	q := &models.Quote{
		Symbol:    payload.symbol,
		Price:     meta.RegularMarketPrice,
		High:      meta.RegularMarketDayHigh,
		Low:       meta.RegularMarketDayLow,
		PrevClose: prev,
		Volume:    meta.RegularMarketVolume,
		Currency:  meta.Currency,
		AsOf:      time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if prev != 0 {
		q.Change = q.Price - prev
		q.ChangePercent = q.Change / prev * 100
	}
	return q
}

func (p *Provider) normalizeProfile(payload *rawPayload) *models.CompanyProfile {
	profile := &models.CompanyProfile{Symbol: payload.symbol}
	results := payload.summary.QuoteSummary.Result
	if len(results) == 0 {
		return profile
	}
	r := results[0]
	profile.Name = r.Price.LongName
	if profile.Name == "" {
		profile.Name = r.Price.ShortName
	}
	profile.Exchange = r.Price.Exchange
	profile.Currency = r.Price.Currency
	profile.MarketCap = r.Price.MarketCap.Raw
	profile.Sector = r.AssetProfile.Sector
	profile.Industry = r.AssetProfile.Industry
	profile.Country = r.AssetProfile.Country
	profile.Website = r.AssetProfile.Website
	return profile
}

// AssessQuality scores the normalized payload. An empty payload gets
// zero on every axis except a residual confidence.
func (p *Provider) AssessQuality(normalized any) provider.Quality {
	switch v := normalized.(type) {
	case *models.PriceSeries:
		return p.seriesQuality(v)
	case *models.Quote:
		if v.Price == 0 {
			return emptyQuality()
		}
		age := p.now().Sub(v.AsOf)
		return provider.Quality{
			Accuracy:     0.95,
			Completeness: quoteCompleteness(v),
			Timeliness:   timelinessFromAge(age),
			Confidence:   0.9,
		}
	case *models.CompanyProfile:
		if v.Name == "" {
			return emptyQuality()
		}
		return provider.Quality{
			Accuracy:     0.95,
			Completeness: profileCompleteness(v),
			Timeliness:   1.0,
			Confidence:   0.9,
		}
	default:
		return emptyQuality()
	}
}

func (p *Provider) seriesQuality(series *models.PriceSeries) provider.Quality {
	if len(series.Points) == 0 {
		return emptyQuality()
	}
	filled, total := 0, 0
	for _, pt := range series.Points {
		for _, v := range []float64{pt.Open, pt.High, pt.Low, pt.Close, pt.Volume} {
			total++
			if v != 0 {
				filled++
			}
		}
	}
	last := series.Points[len(series.Points)-1].Timestamp
	return provider.Quality{
		Accuracy:     0.95,
		Completeness: float64(filled) / float64(total),
		Timeliness:   timelinessFromAge(p.now().Sub(last)),
		Confidence:   0.9,
	}
}

// emptyQuality is the score for a payload with no usable data: zero on
// every axis but a residual confidence, since an empty answer can
// still be a correct answer.
func emptyQuality() provider.Quality {
	return provider.Quality{Confidence: 0.5}
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

func quoteCompleteness(q *models.Quote) float64 {
	filled, total := 0, 5
	for _, v := range []float64{q.Price, q.High, q.Low, q.PrevClose, q.Volume} {
		if v != 0 {
			filled++
		}
	}
	return float64(filled) / float64(total)
}

func profileCompleteness(c *models.CompanyProfile) float64 {
	filled, total := 0, 5
	for _, v := range []string{c.Name, c.Exchange, c.Sector, c.Industry, c.Country} {
		if v != "" {
			filled++
		}
	}
	return float64(filled) / float64(total)
}

func at(arr []*float64, i int) *float64 {
	if i < len(arr) {
		return arr[i]
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// HistoricalBars is the typed equity capability over GetData.
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

// CompanyInfo fetches company profiles for each symbol.
func (p *Provider) CompanyInfo(ctx context.Context, symbols []string) ([]*provider.Response, error) {
	out := make([]*provider.Response, 0, len(symbols))
	for _, s := range symbols {
		resp, err := p.GetData(ctx, provider.Params{"symbol": s, "data_type": "info"})
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}
