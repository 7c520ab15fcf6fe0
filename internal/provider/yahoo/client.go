package yahoo

import (
	"context"
	"fmt"
	"strconv"

	xhttp "FinFetch/pkg/http"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// chartResponse mirrors the v8 chart API shape. Null cells in the
// OHLCV arrays matter for completeness scoring, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency             string  `json:"currency"`
		Symbol               string  `json:"symbol"`
		ExchangeName         string  `json:"exchangeName"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		ChartPreviousClose   float64 `json:"chartPreviousClose"`
		PreviousClose        float64 `json:"previousClose"`
		RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
		RegularMarketVolume  float64 `json:"regularMarketVolume"`
		RegularMarketTime    int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
				Country  string `json:"country"`
				Website  string `json:"website"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				Currency  string `json:"currency"`
				Exchange  string `json:"exchangeName"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

func (p *Provider) fetchChart(ctx context.Context, symbol, interval string, period1, period2 int64) (*chartResult, error) {
	q := map[string][]string{
		"interval":       {interval},
		"includePrePost": {"false"},
		"events":         {"div,splits"},
	}
	if period1 > 0 && period2 > 0 {
		q["period1"] = []string{strconv.FormatInt(period1, 10)}
		q["period2"] = []string{strconv.FormatInt(period2, 10)}
	} else {
		q["range"] = []string{"1d"}
	}

	var out chartResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/v8/finance/chart/%s", p.baseURL, symbol),
		Headers:     map[string]string{"User-Agent": userAgent},
		QueryParams: q,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error %s: %s", out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart api returned no result for %s", symbol)
	}
	return &out.Chart.Result[0], nil
}

func (p *Provider) fetchSummary(ctx context.Context, symbol string) (*summaryResponse, error) {
	var out summaryResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v10/finance/quoteSummary/%s", p.baseURL, symbol),
		Headers: map[string]string{"User-Agent": userAgent},
		QueryParams: map[string][]string{
			"modules": {"assetProfile,price"},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("summary api error %s: %s", out.QuoteSummary.Error.Code, out.QuoteSummary.Error.Description)
	}
	return &out, nil
}

const userAgent = "Mozilla/5.0 (compatible; finfetch/1.0)"
