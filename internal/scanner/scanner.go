package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/karbbot/karb/internal/domain"
	"github.com/karbbot/karb/internal/ports"
)

const defaultInterval = 60 * time.Second

// Config contiene la configuración del scanner.
type Config struct {
	Interval     time.Duration
	MinProfitPct float64
	MinSizeUSDC  float64
	MaxMarkets   int
	Live         bool   // habilita la redención on-chain en cada ciclo
	Wallet       string // dirección auditada en las filas de redención
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Interval:     defaultInterval,
		MinProfitPct: defaultMinProfitPct,
		MinSizeUSDC:  defaultMinSizeUSDC,
		MaxMarkets:   200,
	}
}

// Scanner es el orquestador principal del loop de escaneo.
type Scanner struct {
	cfg      Config
	markets  ports.MarketProvider
	books    ports.BookProvider
	notifier ports.Notifier
	redeemer ports.Redeemer
	store    ports.RedemptionStore
	analyzer *Analyzer
}

// New crea un Scanner con todas las dependencias inyectadas.
// redeemer y store pueden ser nil si el modo live está apagado.
func New(
	cfg Config,
	markets ports.MarketProvider,
	books ports.BookProvider,
	notifier ports.Notifier,
	redeemer ports.Redeemer,
	store ports.RedemptionStore,
) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Scanner{
		cfg:      cfg,
		markets:  markets,
		books:    books,
		notifier: notifier,
		redeemer: redeemer,
		store:    store,
		analyzer: NewAnalyzer(cfg.MinProfitPct, cfg.MinSizeUSDC),
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.Interval,
		"live", s.cfg.Live,
	)

	if _, err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if _, err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo completo (escaneo, notificación y,
// en modo live, redención) y devuelve las oportunidades encontradas.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Opportunity, error) {
	return s.runCycle(ctx)
}

// runCycle ejecuta un ciclo completo y notifica los resultados.
func (s *Scanner) runCycle(ctx context.Context) ([]domain.Opportunity, error) {
	start := time.Now()

	opps, err := s.cycle(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, opps); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("scan cycle complete",
		"opportunities", len(opps),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if s.cfg.Live {
		s.checkRedemptions(ctx)
	}
	return opps, nil
}

// cycle hace fetch → analyze → rank y devuelve las oportunidades.
func (s *Scanner) cycle(ctx context.Context) ([]domain.Opportunity, error) {
	markets, err := s.markets.FetchActiveMarkets(ctx, s.cfg.MaxMarkets)
	if err != nil {
		return nil, fmt.Errorf("scanner.cycle: fetch markets: %w", err)
	}

	tokenIDs := extractTokenIDs(markets)
	books, err := s.books.FetchOrderBooks(ctx, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("scanner.cycle: fetch books: %w", err)
	}

	var opps []domain.Opportunity
	for _, market := range markets {
		yesBook, noBook, ok := booksForMarket(market, books)
		if !ok {
			slog.Debug("missing books for market", "condition_id", market.ConditionID)
			continue
		}

		opp, ok := s.analyzer.Analyze(market, yesBook, noBook)
		if !ok {
			continue
		}
		opps = append(opps, opp)
	}

	return rankByProfit(opps), nil
}

// checkRedemptions ejecuta un ciclo de redención. Solo notifica y persiste
// cuando hubo posiciones enviadas; un chequeo vacío solo deja log.
func (s *Scanner) checkRedemptions(ctx context.Context) {
	if s.redeemer == nil {
		return
	}

	start := time.Now().UTC()
	sum, err := s.redeemer.CheckAndRedeem(ctx)
	if err != nil {
		slog.Warn("redemption check failed", "err", err)
		return
	}
	if sum.Submitted() == 0 {
		return
	}

	if err := s.notifier.NotifyRedemption(ctx, sum); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if s.store != nil {
		run := domain.RedemptionRun{
			ID:        uuid.NewString(),
			StartedAt: start,
			Wallet:    s.cfg.Wallet,
			Summary:   sum,
		}
		if err := s.store.SaveRun(ctx, run); err != nil {
			slog.Warn("audit store error", "err", err)
		}
	}
}

// extractTokenIDs extrae todos los token_ids de los mercados.
func extractTokenIDs(markets []domain.Market) []string {
	ids := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		for _, t := range m.Tokens {
			if t.TokenID != "" {
				ids = append(ids, t.TokenID)
			}
		}
	}
	return ids
}

// booksForMarket busca los orderbooks YES y NO para un mercado.
func booksForMarket(m domain.Market, books map[string]domain.OrderBook) (yes, no domain.OrderBook, ok bool) {
	yes, okYes := books[m.YesToken().TokenID]
	no, okNo := books[m.NoToken().TokenID]
	return yes, no, okYes && okNo
}

// rankByProfit ordena las oportunidades por ProfitPct descendente.
func rankByProfit(opps []domain.Opportunity) []domain.Opportunity {
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ProfitPct > opps[j].ProfitPct
	})
	return opps
}
