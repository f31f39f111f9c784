package polymarket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/karbbot/karb/internal/adapters/polymarket"
	"github.com/karbbot/karb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPositions_ParsesDirectoryResponse(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		// size/currentValue llegan a veces como string y a veces como número
		fmt.Fprint(w, `[
			{"conditionId":"0xabc","title":"Will X happen?","size":"12.5","outcomeIndex":0,"currentValue":6.25,"negativeRisk":false,"redeemable":true},
			{"conditionId":"0xdef","title":"Other market","size":3,"outcomeIndex":1,"currentValue":"1.5","negativeRisk":true,"redeemable":false}
		]`)
	}))
	defer server.Close()

	client := polymarket.NewClient(server.URL, "", "")
	positions, err := client.FetchPositions(context.Background(), "0xwallet")

	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "/positions", gotPath)
	assert.Contains(t, gotQuery, "user=0xwallet")

	first := positions[0]
	assert.Equal(t, "0xabc", first.ConditionID)
	assert.Equal(t, "Will X happen?", first.Title)
	assert.Equal(t, 12.5, first.Size)
	assert.Equal(t, 0, first.OutcomeIndex)
	assert.Equal(t, 6.25, first.CurrentValue)
	assert.False(t, first.NegRisk)
	assert.True(t, first.Redeemable)

	second := positions[1]
	assert.Equal(t, 3.0, second.Size)
	assert.Equal(t, 1, second.OutcomeIndex)
	assert.Equal(t, 1.5, second.CurrentValue)
	assert.True(t, second.NegRisk)
	assert.False(t, second.Redeemable)
}

func TestFetchPositions_EmptyDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := polymarket.NewClient(server.URL, "", "")
	positions, err := client.FetchPositions(context.Background(), "0xwallet")

	require.NoError(t, err, "una wallet sin posiciones no es un error")
	assert.Empty(t, positions)
}

func TestFetchPositions_DirectoryDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := polymarket.NewClient(server.URL, "", "")
	_, err := client.FetchPositions(context.Background(), "0xwallet")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)
}

func TestFetchPositions_EmptyWalletNeverHitsAPI(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := polymarket.NewClient(server.URL, "", "")
	_, err := client.FetchPositions(context.Background(), "")

	require.ErrorIs(t, err, domain.ErrNoWalletAddress)
	assert.Equal(t, 0, calls)
}

func TestFetchPositions_Paginates(t *testing.T) {
	const perPage = 500

	makePage := func(n, start int) []byte {
		page := make([]map[string]any, n)
		for i := range page {
			page[i] = map[string]any{
				"conditionId":  fmt.Sprintf("0xc%d", start+i),
				"title":        "m",
				"size":         "1",
				"outcomeIndex": 0,
				"currentValue": 0.5,
				"redeemable":   true,
			}
		}
		b, err := json.Marshal(page)
		require.NoError(t, err)
		return b
	}

	var offsets []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		switch offset {
		case 0:
			w.Write(makePage(perPage, 0)) // página llena → hay más
		case perPage:
			w.Write(makePage(2, perPage)) // página parcial → última
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	client := polymarket.NewClient(server.URL, "", "")
	positions, err := client.FetchPositions(context.Background(), "0xwallet")

	require.NoError(t, err)
	assert.Len(t, positions, perPage+2)
	assert.Equal(t, []int{0, perPage}, offsets)
	assert.Equal(t, "0xc0", positions[0].ConditionID)
	assert.Equal(t, fmt.Sprintf("0xc%d", perPage+1), positions[len(positions)-1].ConditionID)
}
