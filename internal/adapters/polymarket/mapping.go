package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/karbbot/karb/internal/domain"
)

// mapPositions convierte los DTOs de la Data API a domain.Position.
func mapPositions(raw []rawPosition) []domain.Position {
	positions := make([]domain.Position, 0, len(raw))
	for _, r := range raw {
		size, _ := r.Size.Float64()
		value, _ := r.CurrentValue.Float64()
		positions = append(positions, domain.Position{
			ConditionID:  r.ConditionID,
			Title:        r.Title,
			Size:         size,
			OutcomeIndex: r.OutcomeIndex,
			CurrentValue: value,
			NegRisk:      r.NegativeRisk,
			Redeemable:   r.Redeemable,
		})
	}
	return positions
}

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market.
// Los mercados sin exactamente dos tokens (no binarios) se descartan.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, gm := range raw {
		m, ok := mapGammaMarket(gm)
		if !ok {
			continue
		}
		markets = append(markets, m)
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket a domain.Market.
// Devuelve false si el mercado no es binario o le faltan token ids.
func mapGammaMarket(gm gammaMarket) (domain.Market, bool) {
	tokenIDs := parseStringArray(gm.ClobTokenIDs)
	outcomes := parseStringArray(gm.Outcomes)
	prices := parseStringArray(gm.OutcomePrices)

	if len(tokenIDs) != 2 {
		return domain.Market{}, false
	}

	m := domain.Market{
		ConditionID: gm.ConditionID,
		Question:    gm.Question,
		Slug:        gm.Slug,
		NegRisk:     gm.NegRisk,
		Active:      gm.Active,
		Closed:      gm.Closed,
		EndDate:     parseEndDate(gm.EndDateISO),
	}

	for i := 0; i < 2; i++ {
		t := domain.Token{TokenID: tokenIDs[i]}
		if i < len(outcomes) {
			t.Outcome = outcomes[i]
		}
		if i < len(prices) {
			t.Price = domain.ParsePrice(prices[i])
		}
		m.Tokens[i] = t
	}

	// Gamma a veces devuelve mercados cerrados aunque el query los excluya.
	if !m.Tradeable() {
		return domain.Market{}, false
	}

	return m, true
}

// parseStringArray decodifica un array JSON doblemente codificado
// (`"[\"a\",\"b\"]"`) a []string. Devuelve nil si no se puede parsear.
func parseStringArray(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// parseEndDate intenta los formatos de fecha que usa Polymarket.
func parseEndDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		ob := domain.OrderBook{
			TokenID: r.AssetID,
			Bids:    mapBookEntries(r.Bids, false),
			Asks:    mapBookEntries(r.Asks, true),
		}
		result[r.AssetID] = ob
	}
	return result
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
