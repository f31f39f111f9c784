package polymarket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/karbbot/karb/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOrderBooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/books", r.URL.Path)

		var body []struct {
			TokenID string `json:"token_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, "111", body[0].TokenID)

		// Niveles desordenados y con dust (size 0) para ejercitar el mapping.
		fmt.Fprint(w, `[
			{"asset_id":"111","bids":[{"price":"0.40","size":"50"},{"price":"0.44","size":"25"}],"asks":[{"price":"0.50","size":"10"},{"price":"0.46","size":"80"},{"price":"0.48","size":"0"}]},
			{"asset_id":"222","bids":[],"asks":[{"price":"0.55","size":"30"}]}
		]`)
	}))
	defer server.Close()

	client := polymarket.NewClient("", server.URL, "")
	books, err := client.FetchOrderBooks(context.Background(), []string{"111", "222"})

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 0.46, books["111"].BestAsk(), "asks ordenados de menor a mayor")
	assert.Equal(t, 80.0, books["111"].BestAskSize())
	assert.Equal(t, 0.44, books["111"].BestBid(), "bids ordenados de mayor a menor")
	assert.Len(t, books["111"].Asks, 2, "los niveles con size 0 se descartan")
	assert.Equal(t, 0.55, books["222"].BestAsk())
}

func TestFetchOrderBooks_SplitsIntoBatches(t *testing.T) {
	ids := make([]string, 45)
	for i := range ids {
		ids[i] = fmt.Sprintf("tok%d", i)
	}

	var mu sync.Mutex
	var batchSizes []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []struct {
			TokenID string `json:"token_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		mu.Lock()
		batchSizes = append(batchSizes, len(body))
		mu.Unlock()

		resp := make([]map[string]any, len(body))
		for i, req := range body {
			resp[i] = map[string]any{
				"asset_id": req.TokenID,
				"bids":     []map[string]string{},
				"asks":     []map[string]string{{"price": "0.50", "size": "10"}},
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := polymarket.NewClient("", server.URL, "")
	books, err := client.FetchOrderBooks(context.Background(), ids)

	require.NoError(t, err)
	assert.Len(t, books, 45, "la unión de los batches cubre todos los tokens")
	for _, id := range ids {
		assert.Contains(t, books, id)
	}

	// Los batches salen en paralelo, el orden de llegada no importa.
	sort.Sort(sort.Reverse(sort.IntSlice(batchSizes)))
	assert.Equal(t, []int{20, 20, 5}, batchSizes)
}

func TestFetchOrderBooks_EmptyInput(t *testing.T) {
	client := polymarket.NewClient("", "http://unused", "")

	books, err := client.FetchOrderBooks(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFetchOrderBooks_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := polymarket.NewClient("", server.URL, "")
	_, err := client.FetchOrderBooks(context.Background(), []string{"111"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POST /books")
}
