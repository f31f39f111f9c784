package scanner

import (
	"math"
	"time"

	"github.com/karbbot/karb/internal/domain"
)

const (
	defaultMinProfitPct = 0.5
	defaultMinSizeUSDC  = 10.0
)

// Analyzer evalúa mercados binarios buscando arbitraje: comprar YES y NO
// al mejor ask por menos de $1.00 garantiza $1.00 al resolverse.
type Analyzer struct {
	minProfitPct float64
	minSizeUSDC  float64
}

// NewAnalyzer crea un Analyzer con los umbrales dados.
func NewAnalyzer(minProfitPct, minSizeUSDC float64) *Analyzer {
	if minProfitPct <= 0 {
		minProfitPct = defaultMinProfitPct
	}
	if minSizeUSDC <= 0 {
		minSizeUSDC = defaultMinSizeUSDC
	}
	return &Analyzer{
		minProfitPct: minProfitPct,
		minSizeUSDC:  minSizeUSDC,
	}
}

// Analyze calcula el coste combinado de comprar ambos lados al mejor ask.
// Devuelve ok=false si falta liquidez en algún lado o si el margen no
// supera los umbrales configurados.
func (a *Analyzer) Analyze(market domain.Market, yesBook, noBook domain.OrderBook) (domain.Opportunity, bool) {
	yesAsk := yesBook.BestAsk()
	noAsk := noBook.BestAsk()
	if yesAsk <= 0 || noAsk <= 0 {
		return domain.Opportunity{}, false
	}

	combined := yesAsk + noAsk
	if combined >= 1.0 {
		return domain.Opportunity{}, false
	}

	profitPct := (1.0 - combined) / combined * 100.0
	if profitPct < a.minProfitPct {
		return domain.Opportunity{}, false
	}

	// Pares ejecutables limitados por el lado con menos profundidad.
	maxSize := math.Min(yesBook.BestAskSize(), noBook.BestAskSize())
	if maxSize*combined < a.minSizeUSDC {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Market:       market,
		ScannedAt:    time.Now(),
		YesAsk:       yesAsk,
		NoAsk:        noAsk,
		CombinedCost: combined,
		ProfitPct:    profitPct,
		MaxSize:      maxSize,
	}, true
}
