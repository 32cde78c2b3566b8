package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

// fakeMarket implements MarketReader for testing
type fakeMarket struct {
	programID solana.PublicKey
	listings  map[solana.PublicKey]*layout.ItemMetadata
	readErr   error
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		programID: solana.NewWallet().PublicKey(),
		listings:  make(map[solana.PublicKey]*layout.ItemMetadata),
	}
}

func (f *fakeMarket) Addresses(mint solana.PublicKey) (address.Set, error) {
	return address.NewDeriver(f.programID, zerolog.Nop()).Derive(mint)
}

func (f *fakeMarket) GetListing(_ context.Context, mint solana.PublicKey) (*layout.ItemMetadata, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	listing, ok := f.listings[mint]
	if !ok {
		return nil, tyerrors.NewAbsentRecordError(mint.String())
	}
	return listing, nil
}

// fakeJournal implements OperationLister for testing
type fakeJournal struct {
	ops       []store.Operation
	lastLimit int
}

func (f *fakeJournal) ListOperationsByMint(mint string, limit int) ([]store.Operation, error) {
	f.lastLimit = limit
	var out []store.Operation
	for _, op := range f.ops {
		if op.Mint == mint {
			out = append(out, op)
		}
	}
	return out, nil
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	var envelope struct {
		Data      json.RawMessage `json:"data"`
		FetchedAt time.Time       `json:"fetched_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.FetchedAt.IsZero())
	require.NoError(t, json.Unmarshal(envelope.Data, into))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(newFakeMarket(), nil, nil, zerolog.Nop(), 0)

	t.Run("Health check returns OK", func(t *testing.T) {
		w := do(t, server, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("Wrong method is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleAddresses(t *testing.T) {
	fm := newFakeMarket()
	server := NewServer(fm, nil, nil, zerolog.Nop(), 0)
	mint := solana.NewWallet().PublicKey()

	t.Run("returns derived addresses", func(t *testing.T) {
		w := do(t, server, "/api/v1/addresses/"+mint.String())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var got address.Set
		decodeData(t, w, &got)

		want, err := fm.Addresses(mint)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("invalid mint", func(t *testing.T) {
		w := do(t, server, "/api/v1/addresses/not-a-key")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w), "invalid mint")
	})
}

func TestHandleListing(t *testing.T) {
	fm := newFakeMarket()
	server := NewServer(fm, nil, nil, zerolog.Nop(), 0)

	listed := solana.NewWallet().PublicKey()
	fm.listings[listed] = &layout.ItemMetadata{
		Seller:   solana.NewWallet().PublicKey(),
		Mint:     listed,
		Lamports: 1_500_000_000,
		Payment:  solana.NewWallet().PublicKey(),
		Item:     solana.NewWallet().PublicKey(),
	}

	t.Run("listed item", func(t *testing.T) {
		w := do(t, server, "/api/v1/listings/"+listed.String())
		require.Equal(t, http.StatusOK, w.Code)

		var got ListingResponse
		decodeData(t, w, &got)
		assert.Equal(t, listed.String(), got.Mint)
		assert.Equal(t, uint64(1_500_000_000), got.Lamports)
		assert.Equal(t, "1500000000", got.Price)
		assert.Equal(t, fm.listings[listed].Seller.String(), got.Seller)
	})

	t.Run("price rendered with decimals", func(t *testing.T) {
		for decimals, want := range map[string]string{"9": "1.5", "6": "1500", "0": "1500000000"} {
			w := do(t, server, "/api/v1/listings/"+listed.String()+"?decimals="+decimals)
			require.Equal(t, http.StatusOK, w.Code, decimals)

			var got ListingResponse
			decodeData(t, w, &got)
			assert.Equal(t, want, got.Price, decimals)
		}
	})

	t.Run("bad decimals is 400", func(t *testing.T) {
		for _, decimals := range []string{"-1", "19", "six"} {
			w := do(t, server, "/api/v1/listings/"+listed.String()+"?decimals="+decimals)
			assert.Equal(t, http.StatusBadRequest, w.Code, decimals)
		}
	})

	t.Run("unlisted item is 404", func(t *testing.T) {
		w := do(t, server, "/api/v1/listings/"+solana.NewWallet().PublicKey().String())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, decodeError(t, w), "not listed")
	})

	t.Run("ledger failure is 502", func(t *testing.T) {
		fm.readErr = tyerrors.NewRPCError("get account info", errors.New("connection refused"))
		defer func() { fm.readErr = nil }()

		w := do(t, server, "/api/v1/listings/"+listed.String())
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("corrupt record is 500", func(t *testing.T) {
		fm.readErr = tyerrors.NewDecodingError("item_metadata: buffer has 3 bytes, need at least 136")
		defer func() { fm.readErr = nil }()

		w := do(t, server, "/api/v1/listings/"+listed.String())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleOperations(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	journal := &fakeJournal{ops: []store.Operation{
		{OperationID: "01A", Kind: "sell", Mint: mint.String(), Status: store.StatusConfirmed, Signature: "sig"},
		{OperationID: "01B", Kind: "buy", Mint: "other", Status: store.StatusFailed},
	}}

	t.Run("journal disabled", func(t *testing.T) {
		server := NewServer(newFakeMarket(), nil, nil, zerolog.Nop(), 0)
		w := do(t, server, "/api/v1/operations/"+mint.String())
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	server := NewServer(newFakeMarket(), journal, nil, zerolog.Nop(), 0)

	t.Run("lists operations of mint", func(t *testing.T) {
		w := do(t, server, "/api/v1/operations/"+mint.String())
		require.Equal(t, http.StatusOK, w.Code)

		var got []OperationResponse
		decodeData(t, w, &got)
		require.Len(t, got, 1)
		assert.Equal(t, "01A", got[0].OperationID)
		assert.Equal(t, "sig", got[0].Signature)
		assert.Equal(t, defaultOperationsLimit, journal.lastLimit)
	})

	t.Run("custom limit", func(t *testing.T) {
		w := do(t, server, "/api/v1/operations/"+mint.String()+"?limit=5")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, journal.lastLimit)
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "abc", "100000"} {
			w := do(t, server, "/api/v1/operations/"+mint.String()+"?limit="+limit)
			assert.Equal(t, http.StatusBadRequest, w.Code, limit)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("not routed without gatherer", func(t *testing.T) {
		server := NewServer(newFakeMarket(), nil, nil, zerolog.Nop(), 0)
		w := do(t, server, "/metrics")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("exposes registered metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "tradeyard_test_total", Help: "test"})
		reg.MustRegister(counter)
		counter.Inc()

		server := NewServer(newFakeMarket(), nil, reg, zerolog.Nop(), 0)
		w := do(t, server, "/metrics")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "tradeyard_test_total 1")
	})
}
