package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/market"
)

const (
	defaultOperationsLimit = 50
	maxOperationsLimit     = 500
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleAddresses handles GET /api/v1/addresses/{mint}
func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	mint, ok := s.mintParam(w, r)
	if !ok {
		return
	}

	addrs, err := s.market.Addresses(mint)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeData(w, addrs)
}

// handleListing handles GET /api/v1/listings/{mint}?decimals=<n>
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	mint, ok := s.mintParam(w, r)
	if !ok {
		return
	}

	var decimals uint8
	if raw := r.URL.Query().Get("decimals"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n < 0 || n > market.MaxDecimals {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("decimals must be between 0 and %d", market.MaxDecimals))
			return
		}
		decimals = uint8(n)
	}

	listing, err := s.market.GetListing(r.Context(), mint)
	switch {
	case tyerrors.IsAbsent(err):
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("item %s is not listed", mint))
		return
	case tyerrors.IsCode(err, tyerrors.ErrCodeRPC), tyerrors.IsCode(err, tyerrors.ErrCodeTimeout):
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeData(w, ListingResponse{
		Seller:   listing.Seller.String(),
		Mint:     listing.Mint.String(),
		Lamports: listing.Lamports,
		Price:    market.FormatAmount(listing.Lamports, decimals),
		Payment:  listing.Payment.String(),
		Item:     listing.Item.String(),
	})
}

// handleOperations handles GET /api/v1/operations/{mint}?limit=<n>
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "journal is disabled")
		return
	}

	mint, ok := s.mintParam(w, r)
	if !ok {
		return
	}

	limit := defaultOperationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 || n > maxOperationsLimit {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxOperationsLimit))
			return
		}
		limit = n
	}

	ops, err := s.journal.ListOperationsByMint(mint.String(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]OperationResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, OperationResponse{
			OperationID: op.OperationID,
			Kind:        op.Kind,
			Signer:      op.Signer,
			Lamports:    op.Lamports,
			Signature:   op.Signature,
			Status:      op.Status,
			Error:       op.ErrorMsg,
			CreatedAt:   op.CreatedAt,
			UpdatedAt:   op.UpdatedAt,
		})
	}
	s.writeData(w, out)
}

func (s *Server) mintParam(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	raw := mux.Vars(r)["mint"]
	mint, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid mint %q", raw))
		return solana.PublicKey{}, false
	}
	return mint, true
}

func (s *Server) writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(QueryResponse{Data: data, FetchedAt: time.Now().UTC()}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
