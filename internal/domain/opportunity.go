package domain

import "time"

// Opportunity es el resultado del análisis de arbitraje de un mercado:
// comprar YES y NO al mejor ask cuesta menos de $1.00 por par.
type Opportunity struct {
	Market    Market
	ScannedAt time.Time

	YesAsk       float64 // mejor ask del token YES
	NoAsk        float64 // mejor ask del token NO
	CombinedCost float64 // YesAsk + NoAsk (< 1.0 = arbitraje)
	ProfitPct    float64 // (1 - CombinedCost) / CombinedCost * 100
	MaxSize      float64 // pares ejecutables al mejor ask (min de ambos lados)
}

// ProfitPerPair devuelve la ganancia en USDC por par YES+NO ejecutado.
func (o Opportunity) ProfitPerPair() float64 {
	return 1.0 - o.CombinedCost
}

// MaxProfitUSD devuelve la ganancia total si se ejecuta el tamaño máximo.
func (o Opportunity) MaxProfitUSD() float64 {
	p := o.ProfitPerPair()
	if p <= 0 {
		return 0
	}
	return p * o.MaxSize
}
