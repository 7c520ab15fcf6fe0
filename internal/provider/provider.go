package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"FinFetch/internal/models"
	xhttp "FinFetch/pkg/http"
	"FinFetch/pkg/logger"
	"FinFetch/pkg/metrics"
)

// Category classifies the data domain a provider can serve. Requests are
// routed to providers by category.
type Category string

const (
	CategoryEquity      Category = "equity"
	CategoryBond        Category = "bond"
	CategoryNews        Category = "news"
	CategoryMacro       Category = "macro"
	CategoryCrypto      Category = "crypto"
	CategoryForex       Category = "forex"
	CategoryCommodities Category = "commodities"
	CategoryAlternative Category = "alternative"
)

var categories = map[string]Category{
	"equity":      CategoryEquity,
	"bond":        CategoryBond,
	"news":        CategoryNews,
	"macro":       CategoryMacro,
	"crypto":      CategoryCrypto,
	"forex":       CategoryForex,
	"commodities": CategoryCommodities,
	"alternative": CategoryAlternative,
}

// ParseCategory converts a string to a Category or errors on unknown values.
func ParseCategory(s string) (Category, error) {
	if c, ok := categories[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown data category '%s'", s)
}

// Region identifies a market region for routing and filtering.
type Region string

const (
	RegionGlobal      Region = "global"
	RegionUS          Region = "us"
	RegionChina       Region = "china"
	RegionEurope      Region = "europe"
	RegionAsiaPacific Region = "asia_pacific"
	RegionEmerging    Region = "emerging"
)

var regions = map[string]Region{
	"global":       RegionGlobal,
	"us":           RegionUS,
	"china":        RegionChina,
	"europe":       RegionEurope,
	"asia_pacific": RegionAsiaPacific,
	"emerging":     RegionEmerging,
}

// ParseRegion converts a string to a Region or errors on unknown values.
func ParseRegion(s string) (Region, error) {
	if r, ok := regions[s]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown market region '%s'", s)
}

// Params is the untyped request parameter bag passed to providers.
// Each provider validates the parameters it needs structurally.
type Params map[string]any

// Str returns the string value for key, or "" when absent or non-string.
func (p Params) Str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// StrDefault returns the string value for key, or def when absent.
func (p Params) StrDefault(key, def string) string {
	if v := p.Str(key); v != "" {
		return v
	}
	return def
}

// Int returns the int value for key, tolerating float64 from JSON decoding.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// CacheKey derives a deterministic key from the parameter bag. Keys are
// sorted so that logically equal bags hash identically.
func (p Params) CacheKey() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, p[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Provider is the uniform contract every external data source implements.
// GetData is the resilient entry point; the remaining methods support
// startup validation and health probing.
type Provider interface {
	ID() string
	Name() string
	Config() *Config

	// ValidateCredentials performs a minimal authenticated call. It
	// reports false on any auth failure and never returns an error.
	ValidateCredentials(ctx context.Context) bool

	// TestConnection checks basic reachability independent of auth.
	TestConnection(ctx context.Context) bool

	// GetData runs the full fetch pipeline for one request.
	GetData(ctx context.Context, params Params) (*Response, error)
}

// Operations are the provider-specific stages the resilience pipeline
// sequences. Fetch is the only stage allowed to fail with an error that
// is retried; ValidateRequest, Normalize, and AssessQuality are pure.
type Operations interface {
	// ValidateRequest structurally checks the parameter bag. It reports
	// false for malformed input instead of returning an error.
	ValidateRequest(params Params) bool

	// Fetch performs the network/SDK call and returns the raw payload.
	Fetch(ctx context.Context, params Params) (any, error)

	// Normalize transforms the raw payload into the common data shape.
	// It must not perform I/O and errors when the shape is unrecognized.
	Normalize(raw any) (any, error)

	// AssessQuality scores the normalized data. It is total: it returns
	// a valid Quality even for empty input.
	AssessQuality(normalized any) Quality
}

// Initializer is an optional startup hook invoked by the manager after
// instantiation.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// HealthChecker is an optional health probe. Providers without one are
// assumed healthy.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (bool, error)
}

// Closer is an optional shutdown hook for releasing connections.
type Closer interface {
	Close() error
}

// EquityProvider is the capability surface for equity-class data sources.
type EquityProvider interface {
	Provider
	HistoricalBars(ctx context.Context, symbol, start, end string, opts Params) (*Response, error)
	RealTimeQuote(ctx context.Context, symbols []string) ([]*Response, error)
	CompanyInfo(ctx context.Context, symbols []string) ([]*Response, error)
}

// NewsProvider is the capability surface for news-class data sources.
// A single struct may implement both EquityProvider and NewsProvider.
type NewsProvider interface {
	Provider
	News(ctx context.Context, query string, limit int) (*Response, error)
	NewsBySymbol(ctx context.Context, symbols []string, limit int) (*Response, error)
}

// TradeStream is a live tick feed opened by a Streamer.
type TradeStream interface {
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Close() error
}

// Streamer is the optional capability for sources with a real-time
// websocket feed.
type Streamer interface {
	OpenStream(ctx context.Context, symbols []string) (TradeStream, error)
}

// Deps carries shared infrastructure handed to provider factories.
type Deps struct {
	Logger     *logger.Logger
	HTTPClient *xhttp.Client
	Recorder   *metrics.Recorder
}

// Factory constructs a provider instance from its configuration.
// Factories are registered against locator strings and resolved at
// startup, so enabling a new vendor is a configuration change.
type Factory func(cfg *Config, deps Deps) (Provider, error)
