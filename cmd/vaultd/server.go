package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenvault/config"
	"tokenvault/crypto"
	"tokenvault/native/airdrop"
	"tokenvault/native/claims"
	"tokenvault/native/escrow"
	"tokenvault/native/membership"
	"tokenvault/native/staking"
	"tokenvault/native/swap"
	"tokenvault/observability"
	"tokenvault/storage"
)

// server exposes the suite's query surface over HTTP. All routes are
// read-only: state transitions happen on the host chain, the daemon only
// answers against the replicated store.
type server struct {
	logger *slog.Logger

	swaps         *swap.Engine
	escrows       *escrow.Engine
	stakingStore  *staking.Store
	stakingClaims *claims.Ledger
	members       *membership.Engine
	airdrops      *airdrop.Store
}

func newServer(cfg *config.Config, db storage.Database, logger *slog.Logger) (*server, error) {
	tokensPerWeight, ok := new(big.Int).SetString(cfg.Membership.TokensPerWeight, 10)
	if !ok {
		return nil, errors.New("vaultd: Membership.TokensPerWeight is not a decimal integer")
	}
	minBond, ok := new(big.Int).SetString(cfg.Membership.MinBond, 10)
	if !ok {
		return nil, errors.New("vaultd: Membership.MinBond is not a decimal integer")
	}
	memberEngine, err := membership.NewEngine(membership.Config{
		Denom:           cfg.Membership.Denom,
		TokensPerWeight: tokensPerWeight,
		MinBond:         minBond,
	}, crypto.Address{}, membership.NewStore(db), membership.NewClaims(db))
	if err != nil {
		return nil, err
	}
	return &server{
		logger:        logger,
		swaps:         swap.NewEngine(swap.NewStore(db)),
		escrows:       escrow.NewEngine(escrow.NewStore(db)),
		stakingStore:  staking.NewStore(db),
		stakingClaims: staking.NewClaims(db),
		members:       memberEngine,
		airdrops:      airdrop.NewStore(db),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(observability.EngineMetrics(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/swaps", s.listSwaps)
		r.Get("/swaps/{id}", s.swapDetails)
		r.Get("/escrows", s.listEscrows)
		r.Get("/escrows/{id}", s.escrowDetails)
		r.Get("/staking/supply", s.stakingSupply)
		r.Get("/staking/token/{addr}", s.stakingToken)
		r.Get("/staking/claims/{addr}", s.stakingPendingClaims)
		r.Get("/members", s.listMembers)
		r.Get("/members/total", s.totalWeight)
		r.Get("/members/{addr}", s.memberWeight)
		r.Get("/airdrop/latest", s.airdropLatest)
		r.Get("/airdrop/root/{stage}", s.airdropRoot)
		r.Get("/airdrop/claimed/{stage}/{addr}", s.airdropClaimed)
	})
	return r
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pageParams(r *http.Request) (string, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return r.URL.Query().Get("start_after"), limit
}

func pathAddr(r *http.Request) (crypto.Address, error) {
	return crypto.DecodeAddress(chi.URLParam(r, "addr"))
}

func (s *server) listSwaps(w http.ResponseWriter, r *http.Request) {
	startAfter, limit := pageParams(r)
	ids, err := s.swaps.List(startAfter, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"swaps": ids})
}

func (s *server) swapDetails(w http.ResponseWriter, r *http.Request) {
	record, err := s.swaps.Details(chi.URLParam(r, "id"))
	if errors.Is(err, swap.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"hash":      hex.EncodeToString(record.Hash[:]),
		"source":    record.Source.String(),
		"recipient": record.Recipient.String(),
		"expires":   record.Expires.String(),
		"native":    record.Funds.Native.String(),
	})
}

func (s *server) listEscrows(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.escrows.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"escrows": ids})
}

func (s *server) escrowDetails(w http.ResponseWriter, r *http.Request) {
	record, err := s.escrows.Details(chi.URLParam(r, "id"))
	if errors.Is(err, escrow.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	whitelist := make([]string, len(record.Whitelist))
	for i, addr := range record.Whitelist {
		whitelist[i] = addr.String()
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"arbiter":    record.Arbiter.String(),
		"recipient":  record.Recipient.String(),
		"source":     record.Source.String(),
		"end_height": record.EndHeight,
		"end_time":   record.EndTime,
		"native":     record.Balance.Native.String(),
		"whitelist":  whitelist,
	})
}

func (s *server) stakingSupply(w http.ResponseWriter, _ *http.Request) {
	supply, err := s.stakingStore.SupplyGet()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"issued": supply.Issued.String(),
		"bonded": supply.Bonded.String(),
		"claims": supply.Claims.String(),
	})
}

func (s *server) stakingToken(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddr(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := s.stakingStore.TokenBalance(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *server) stakingPendingClaims(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddr(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	pending, err := s.stakingClaims.Get(addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]map[string]string, len(pending))
	for i, claim := range pending {
		out[i] = map[string]string{
			"amount":     claim.Amount.String(),
			"release_at": claim.ReleaseAt.String(),
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"claims": out})
}

func (s *server) listMembers(w http.ResponseWriter, r *http.Request) {
	startAfter, limit := pageParams(r)
	var cursor []byte
	if startAfter != "" {
		addr, err := crypto.DecodeAddress(startAfter)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		cursor = addr.Bytes()
	}
	page, err := s.members.ListMembers(cursor, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]map[string]interface{}, len(page))
	for i, member := range page {
		out[i] = map[string]interface{}{
			"addr":   member.Addr.String(),
			"weight": member.Weight,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"members": out})
}

func (s *server) totalWeight(w http.ResponseWriter, r *http.Request) {
	var (
		total uint64
		err   error
	)
	if raw := r.URL.Query().Get("height"); raw != "" {
		height, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, parseErr)
			return
		}
		total, err = s.members.TotalWeightAt(height)
	} else {
		total, err = s.members.TotalWeight()
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"total": total})
}

func (s *server) memberWeight(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddr(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var (
		weight uint64
		member bool
	)
	if raw := r.URL.Query().Get("height"); raw != "" {
		height, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, parseErr)
			return
		}
		weight, member, err = s.members.MemberAt(addr, height)
	} else {
		weight, member, err = s.members.Member(addr)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"member": member,
		"weight": weight,
	})
}

func (s *server) airdropLatest(w http.ResponseWriter, _ *http.Request) {
	stage, err := s.airdrops.LatestStage()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint8{"latest_stage": stage})
}

func (s *server) airdropRoot(w http.ResponseWriter, r *http.Request) {
	stage, err := strconv.ParseUint(chi.URLParam(r, "stage"), 10, 8)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	root, ok, err := s.airdrops.RootGet(uint8(stage))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, airdrop.ErrStageNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"merkle_root": hex.EncodeToString(root[:])})
}

func (s *server) airdropClaimed(w http.ResponseWriter, r *http.Request) {
	stage, err := strconv.ParseUint(chi.URLParam(r, "stage"), 10, 8)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := pathAddr(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	claimed, err := s.airdrops.IsClaimed(uint8(stage), addr)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"claimed": claimed})
}
