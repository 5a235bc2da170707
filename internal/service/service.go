package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pump-alerts/internal/alerting"
	"pump-alerts/internal/config"
	"pump-alerts/internal/fetcher"
	"pump-alerts/internal/indicator"
	"pump-alerts/internal/metrics"
	"pump-alerts/internal/model"
	"pump-alerts/internal/pricestore"
	"pump-alerts/internal/scheduler"
	"pump-alerts/internal/signal"
	"pump-alerts/internal/storage"
	"pump-alerts/internal/variation"
)

// Deps are the collaborators of the monitor loop. Store, Mirror and Metrics
// are optional.
type Deps struct {
	Fetcher fetcher.TickerFetcher
	Outbox  alerting.Outbox
	Store   storage.SignalStore
	Mirror  pricestore.Mirror
	Metrics *metrics.Metrics
}

// Service owns the price history and the signal state and runs one polling
// cycle per scheduler tick.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   fetcher.TickerFetcher
	outbox    alerting.Outbox
	store     storage.SignalStore
	mirror    pricestore.Mirror
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	prices     *pricestore.Store
	indicators *indicator.Engine
	variations *variation.Analyzer
	signals    *signal.Engine

	quoteSuffix       string
	excluded          []string
	notifyFetchErrors bool
	monitoringSent    bool
}

// New constructs the monitoring service.
func New(cfg *config.Config, sched *scheduler.Scheduler, deps Deps, logger zerolog.Logger) *Service {
	horizon := model.Horizon{
		Evaluation: cfg.Monitor.EvaluationPeriod(),
		Trend:      cfg.Monitor.TrendPeriod(),
	}

	excluded := make([]string, 0, len(cfg.Monitor.ExcludedMarkers))
	for _, marker := range cfg.Monitor.ExcludedMarkers {
		if marker = strings.TrimSpace(marker); marker != "" {
			excluded = append(excluded, strings.ToUpper(marker))
		}
	}

	return &Service{
		scheduler:         sched,
		fetcher:           deps.Fetcher,
		outbox:            deps.Outbox,
		store:             deps.Store,
		mirror:            deps.Mirror,
		metrics:           deps.Metrics,
		logger:            logger.With().Str("component", "service").Logger(),
		prices:            pricestore.New(cfg.Monitor.HistorySize),
		indicators:        indicator.NewEngine(horizon),
		variations:        variation.NewAnalyzer(horizon),
		signals:           signal.NewEngine(),
		quoteSuffix:       "-" + strings.ToUpper(strings.TrimSpace(cfg.Monitor.QuoteAsset)),
		excluded:          excluded,
		notifyFetchErrors: cfg.Monitor.NotifyFetchErrors,
	}
}

// Run begins the fixed-delay polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessCycle)
}

// Prices exposes the price history for inspection.
func (s *Service) Prices() *pricestore.Store {
	return s.prices
}

// Signals exposes the signal state for inspection.
func (s *Service) Signals() *signal.Engine {
	return s.signals
}

// ProcessCycle 执行一次轮询: 拉取行情, 记录价格, 计算指标并判定信号。
// A failed fetch skips the cycle without touching any state.
func (s *Service) ProcessCycle(ctx context.Context, at time.Time) error {
	started := time.Now()

	tickers, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		s.metrics.ObserveCycle(time.Since(started), true)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error().Err(err).Time("cycle", at).Msg("ticker fetch failed, cycle skipped")
		if s.notifyFetchErrors {
			s.enqueue(ctx, alerting.FetchFailureMessage(err))
		}
		return nil
	}

	entries := s.ingest(tickers, at)
	s.mirrorEntries(ctx, entries)

	indicators := s.indicators.Batch(s.prices, at)
	variations := s.variations.Batch(s.prices, at)

	pairs := make([]string, 0, len(indicators))
	for pair := range indicators {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	transitions := 0
	for _, pair := range pairs {
		pct, qualifies := variations[pair]
		transition, fired := s.signals.Evaluate(signal.Input{
			Pair:       pair,
			Indicators: indicators[pair],
			Variation:  pct,
			Qualifies:  qualifies,
			Series:     s.prices.Series(pair),
		}, at)
		if !fired {
			continue
		}
		transitions++
		s.handleTransition(ctx, transition)
	}

	if transitions == 0 && !s.monitoringSent {
		s.monitoringSent = true
		s.enqueue(ctx, alerting.MonitoringMessage())
	}

	s.metrics.SetState(len(s.prices.Pairs()), len(s.signals.Open()))
	s.metrics.ObserveCycle(time.Since(started), false)

	s.logger.Debug().Time("cycle", at).
		Int("tickers", len(tickers)).
		Int("recorded", len(entries)).
		Int("evaluated", len(pairs)).
		Int("qualified", len(variations)).
		Int("transitions", transitions).
		Msg("cycle complete")
	return nil
}

// ingest records every accepted ticker and returns what was recorded.
func (s *Service) ingest(tickers []model.Ticker, at time.Time) []pricestore.Entry {
	entries := make([]pricestore.Entry, 0, len(tickers))
	for _, t := range tickers {
		if !s.accepts(t.Symbol) || t.Last == nil {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(*t.Last))
		if err != nil || !price.IsPositive() {
			continue
		}
		s.prices.Record(t.Symbol, price, at)
		entries = append(entries, pricestore.Entry{Pair: t.Symbol, Sample: model.Sample{Price: price, Time: at}})
	}
	return entries
}

// accepts reports whether symbol is quoted in the configured asset and is not
// a leveraged token.
func (s *Service) accepts(symbol string) bool {
	upper := strings.ToUpper(symbol)
	if !strings.HasSuffix(upper, s.quoteSuffix) {
		return false
	}
	for _, marker := range s.excluded {
		if strings.Contains(upper, marker) {
			return false
		}
	}
	return true
}

func (s *Service) mirrorEntries(ctx context.Context, entries []pricestore.Entry) {
	if s.mirror == nil || len(entries) == 0 {
		return
	}
	if err := s.mirror.Append(ctx, entries); err != nil {
		s.logger.Warn().Err(err).Int("entries", len(entries)).Msg("price mirror append failed")
	}
}

func (s *Service) handleTransition(ctx context.Context, t model.Transition) {
	s.logger.Info().Str("pair", t.Pair).
		Str("side", string(t.Side)).
		Str("price", t.Price.String()).
		Str("variation_pct", t.Variation.StringFixed(2)).
		Float64("rsi_evaluation", t.Indicators.Evaluation.RSI).
		Msg("signal transition")

	s.metrics.Transition(string(t.Side))
	s.enqueue(ctx, alerting.TransitionMessage(t))

	if s.store != nil {
		if _, err := s.store.InsertSignal(ctx, storage.RecordFromTransition(t)); err != nil {
			s.logger.Error().Err(err).Str("pair", t.Pair).Msg("failed to persist signal record")
		}
	}
}

func (s *Service) enqueue(ctx context.Context, msg alerting.Message) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Enqueue(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(msg.Kind)).Str("pair", msg.Pair).Msg("alert not queued")
	}
}
