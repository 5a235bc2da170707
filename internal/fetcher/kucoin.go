package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pump-alerts/internal/model"
)

const (
	allTickersPath = "/api/v1/market/allTickers"
	successCode    = "200000"
)

// ErrUnexpectedCode is returned when the API envelope carries a non-success code.
var ErrUnexpectedCode = errors.New("kucoin: unexpected response code")

// KuCoinOptions parameterise the ticker fetcher.
type KuCoinOptions struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration
	UserAgent   string
	Now         func() time.Time
}

// KuCoin fetches all tickers from the KuCoin spot REST API.
type KuCoin struct {
	opts    KuCoinOptions
	signer  *Signer
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewKuCoin constructs a ticker fetcher.
func NewKuCoin(opts KuCoinOptions, logger zerolog.Logger) *KuCoin {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kucoin.com"
	}

	return &KuCoin{
		opts:    opts,
		signer:  NewSigner(opts.Credentials, opts.Now),
		logger:  logger.With().Str("component", "ticker_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchSnapshot retrieves every ticker of the exchange.
func (k *KuCoin) FetchSnapshot(ctx context.Context) ([]model.Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+allTickersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create ticker request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(k.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	k.signer.Sign(req, allTickersPath, "")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send ticker request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ticker response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	var res allTickersResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode ticker response: %w", err)
	}
	if res.Code != successCode {
		return nil, fmt.Errorf("%w %s: %s", ErrUnexpectedCode, res.Code, res.Msg)
	}

	tickers := make([]model.Ticker, 0, len(res.Data.Ticker))
	for _, t := range res.Data.Ticker {
		tickers = append(tickers, model.Ticker{Symbol: t.Symbol, Last: t.Last})
	}

	k.logger.Debug().Int("tickers", len(tickers)).Int64("server_time", res.Data.Time).Msg("ticker snapshot fetched")
	return tickers, nil
}

type allTickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Time   int64 `json:"time"`
		Ticker []struct {
			Symbol string  `json:"symbol"`
			Last   *string `json:"last"`
		} `json:"ticker"`
	} `json:"data"`
}

type errorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Msg != "" {
		return fmt.Errorf("kucoin api error (%d, code %s): %s", status, apiErr.Code, apiErr.Msg)
	}
	if len(payload) > 0 {
		return fmt.Errorf("kucoin api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("kucoin api error (%d)", status)
}

var _ TickerFetcher = (*KuCoin)(nil)
