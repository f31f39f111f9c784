package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Data API ---

// rawPosition es una posición del endpoint GET /positions de la Data API.
// size y currentValue llegan a veces como número y a veces como string,
// usamos json.Number para aceptar ambos.
type rawPosition struct {
	ConditionID  string      `json:"conditionId"`
	Title        string      `json:"title"`
	Size         json.Number `json:"size"`
	OutcomeIndex int         `json:"outcomeIndex"`
	CurrentValue json.Number `json:"currentValue"`
	NegativeRisk bool        `json:"negativeRisk"`
	Redeemable   bool        `json:"redeemable"`
}

// --- CLOB API ---

// orderBookRequest es el body del POST /books batch.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de un item en POST /books.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene la metadata de un mercado en Gamma.
// clobTokenIds, outcomes y outcomePrices llegan como JSON doblemente
// codificado (un string que contiene un array JSON).
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	EndDateISO    string `json:"endDateIso"`
	ClobTokenIDs  string `json:"clobTokenIds"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	NegRisk       bool   `json:"negRisk"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
}
