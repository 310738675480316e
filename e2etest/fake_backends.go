//go:build e2e

package e2etest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
)

// fakeExchange stands in for the external conversion venue: quotes 1:1 and
// converts exactly at the quoted price.
type fakeExchange struct {
	server *httptest.Server
}

func newFakeExchange(t *testing.T) *fakeExchange {
	f := &fakeExchange{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/quote", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount string `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"proceeds": req.Amount})
	})
	mux.HandleFunc("POST /v1/convert", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RequestId   string `json:"request_id"`
			Account     string `json:"account"`
			Amount      string `json:"amount"`
			MinProceeds string `json:"min_proceeds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{
			"request_id": req.RequestId,
			"proceeds":   req.Amount,
		})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// fakeToken serves a fixed reserve and the same large balance for every
// address.
type fakeToken struct {
	server  *httptest.Server
	reserve sdkmath.Int
	balance sdkmath.Int
}

func newFakeToken(t *testing.T, reserve, balance sdkmath.Int) *fakeToken {
	f := &fakeToken{reserve: reserve, balance: balance}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/reserve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"amount": f.reserve.String()})
	})
	mux.HandleFunc("GET /v1/balance/", func(w http.ResponseWriter, r *http.Request) {
		addr := strings.TrimPrefix(r.URL.Path, "/v1/balance/")
		writeJSON(w, map[string]string{"address": addr, "amount": f.balance.String()})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
