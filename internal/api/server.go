// Package api serves the read and quote endpoints over the indexed state.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trasim/internal/domain"
	"trasim/internal/fees"
	"trasim/internal/observability"
	"trasim/internal/quote"
	"trasim/internal/solkey"
	"trasim/internal/storage"
)

const (
	defaultTradesLimit      = 200
	defaultLeaderboardLimit = 100
	maxListLimit            = 1000
)

// Service holds the store handles and quote configuration behind the HTTP
// handlers.
type Service struct {
	trades    storage.TradeStore
	markets   storage.MarketStore
	seasons   storage.SeasonStore
	snapshots storage.SnapshotStore
	claims    storage.RewardClaimStore

	feeSchedule fees.Schedule
	// walletCap is the default per-wallet window capacity used for sell
	// quotes. The authoritative cap depends on on-chain reserve and
	// holdings the indexer does not track; callers can override per
	// request with the cap query parameter.
	walletCap *big.Int

	metrics *observability.Metrics
	logger  *log.Logger
}

// ServiceOptions contains configuration for creating a Service.
type ServiceOptions struct {
	Trades    storage.TradeStore
	Markets   storage.MarketStore
	Seasons   storage.SeasonStore
	Snapshots storage.SnapshotStore
	Claims    storage.RewardClaimStore

	FeeSchedule fees.Schedule
	WalletCap   int64

	Metrics *observability.Metrics
	Logger  *log.Logger
}

// DefaultWalletCap is the fallback sell window capacity: 1000 SOL.
const DefaultWalletCap = int64(1_000_000_000_000)

// NewService creates a new Service.
func NewService(opts ServiceOptions) *Service {
	schedule := opts.FeeSchedule
	var zero fees.Schedule
	if schedule == zero {
		schedule = fees.DefaultSchedule
	}
	walletCap := opts.WalletCap
	if walletCap <= 0 {
		walletCap = DefaultWalletCap
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.Default()
	}

	return &Service{
		trades:      opts.Trades,
		markets:     opts.Markets,
		seasons:     opts.Seasons,
		snapshots:   opts.Snapshots,
		claims:      opts.Claims,
		feeSchedule: schedule,
		walletCap:   big.NewInt(walletCap),
		metrics:     metrics,
		logger:      logger,
	}
}

// Router builds the chi router with all endpoints mounted.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"trasim"}`))
	})

	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/markets", s.ListMarkets)
		r.Get("/markets/{marketID}", s.GetMarket)
		r.Get("/markets/{marketID}/trades", s.ListTrades)
		r.Get("/markets/{marketID}/snapshot", s.GetSnapshot)
		r.Get("/markets/{marketID}/quote/buy", s.QuoteBuy)
		r.Get("/markets/{marketID}/quote/sell", s.QuoteSell)

		r.Get("/seasons/current", s.GetCurrentSeason)
		r.Get("/seasons/{seasonID}/leaderboard", s.GetLeaderboard)
		r.Get("/seasons/{seasonID}/rewards/{wallet}", s.GetRewards)
	})

	return r
}

// ListMarkets handles GET /api/v1/markets.
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.markets.List(r.Context())
	if err != nil {
		s.serverError(w, "list markets", err)
		return
	}
	writeJSON(w, markets)
}

// GetMarket handles GET /api/v1/markets/{marketID}.
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	market, err := s.markets.Get(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, "market not found", http.StatusNotFound)
			return
		}
		s.serverError(w, "get market", err)
		return
	}
	writeJSON(w, market)
}

// ListTrades handles GET /api/v1/markets/{marketID}/trades.
func (s *Service) ListTrades(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	limit := queryLimit(r, defaultTradesLimit)

	trades, err := s.trades.ListByMarket(r.Context(), marketID, limit)
	if err != nil {
		s.serverError(w, "list trades", err)
		return
	}
	if trades == nil {
		trades = []*domain.Trade{}
	}
	writeJSON(w, trades)
}

// GetSnapshot handles GET /api/v1/markets/{marketID}/snapshot.
func (s *Service) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	snap, err := s.snapshots.Latest(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, "no snapshot for market", http.StatusNotFound)
			return
		}
		s.serverError(w, "get snapshot", err)
		return
	}
	writeJSON(w, snap)
}

// buyQuoteResponse serializes exact lamport amounts as decimal strings; a
// buy deep into the curve overflows int64.
type buyQuoteResponse struct {
	TokenAmount   int64  `json:"tokenAmount"`
	CostLamports  string `json:"costLamports"`
	PricePerToken string `json:"pricePerToken"`
	PostSupply    int64  `json:"postSupply"`
}

// QuoteBuy handles GET /api/v1/markets/{marketID}/quote/buy?amount=.
func (s *Service) QuoteBuy(w http.ResponseWriter, r *http.Request) {
	market, supply, ok := s.quoteBase(w, r)
	if !ok {
		return
	}

	amount, err := quote.ParseTokenAmount(r.URL.Query().Get("amount"))
	if err != nil {
		s.metrics.QuoteErrors.WithLabelValues("bad_amount").Inc()
		writeError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	q, err := quote.Buy(market, supply, amount)
	if err != nil {
		s.metrics.QuoteErrors.WithLabelValues("pricing").Inc()
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.metrics.QuotesServed.WithLabelValues("buy").Inc()
	writeJSON(w, buyQuoteResponse{
		TokenAmount:   q.TokenAmount,
		CostLamports:  q.CostLamports.String(),
		PricePerToken: q.PricePerToken.String(),
		PostSupply:    q.PostSupply,
	})
}

type sellQuoteResponse struct {
	TokenAmount      int64  `json:"tokenAmount"`
	ProceedsLamports string `json:"proceedsLamports"`
	FeeLamports      string `json:"feeLamports"`
	NetLamports      string `json:"netLamports"`
	FeeTier          int    `json:"feeTier"`
	PostSupply       int64  `json:"postSupply"`
}

// QuoteSell handles GET /api/v1/markets/{marketID}/quote/sell?amount=&wallet=.
func (s *Service) QuoteSell(w http.ResponseWriter, r *http.Request) {
	market, supply, ok := s.quoteBase(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	amount, err := quote.ParseTokenAmount(q.Get("amount"))
	if err != nil {
		s.metrics.QuoteErrors.WithLabelValues("bad_amount").Inc()
		writeError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	wallet := q.Get("wallet")
	if err := solkey.ValidatePubkey(wallet); err != nil {
		s.metrics.QuoteErrors.WithLabelValues("bad_wallet").Inc()
		writeError(w, "invalid wallet", http.StatusBadRequest)
		return
	}
	// Sells are signed by keypair wallets; program-derived addresses are
	// off-curve and cannot trade.
	if !solkey.OnCurve(wallet) {
		s.metrics.QuoteErrors.WithLabelValues("bad_wallet").Inc()
		writeError(w, "wallet is not a signing key", http.StatusBadRequest)
		return
	}

	walletCap := s.walletCap
	if capParam := q.Get("cap"); capParam != "" {
		parsed, ok := new(big.Int).SetString(capParam, 10)
		if !ok || parsed.Sign() <= 0 {
			writeError(w, "invalid cap", http.StatusBadRequest)
			return
		}
		walletCap = parsed
	}

	since := time.Now().UTC().Add(-domain.SnapshotWindow)
	used, err := s.trades.WindowProceeds(r.Context(), market.MarketID, wallet, since)
	if err != nil {
		s.serverError(w, "window proceeds", err)
		return
	}

	sq, err := quote.Sell(market, supply, amount, quote.WalletUsage{
		UsedInWindow: big.NewInt(used),
		Cap:          walletCap,
	}, s.feeSchedule)
	if err != nil {
		s.metrics.QuoteErrors.WithLabelValues("pricing").Inc()
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.metrics.QuotesServed.WithLabelValues("sell").Inc()
	writeJSON(w, sellQuoteResponse{
		TokenAmount:      sq.TokenAmount,
		ProceedsLamports: sq.ProceedsLamports.String(),
		FeeLamports:      sq.FeeLamports.String(),
		NetLamports:      sq.NetLamports.String(),
		FeeTier:          sq.FeeTier,
		PostSupply:       sq.PostSupply,
	})
}

// quoteBase loads the market and its current supply for a quote request.
func (s *Service) quoteBase(w http.ResponseWriter, r *http.Request) (*domain.Market, int64, bool) {
	marketID := chi.URLParam(r, "marketID")

	market, err := s.markets.Get(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, "market not found", http.StatusNotFound)
			return nil, 0, false
		}
		s.serverError(w, "get market", err)
		return nil, 0, false
	}

	// A market with no trades yet quotes from zero supply.
	var supply int64
	snap, err := s.snapshots.Latest(r.Context(), marketID)
	switch {
	case err == nil:
		supply = snap.Supply
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.serverError(w, "get snapshot", err)
		return nil, 0, false
	}

	return market, supply, true
}

// GetCurrentSeason handles GET /api/v1/seasons/current.
func (s *Service) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.seasons.Current(r.Context(), time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, "no active season", http.StatusNotFound)
			return
		}
		s.serverError(w, "current season", err)
		return
	}
	writeJSON(w, season)
}

// GetLeaderboard handles GET /api/v1/seasons/{seasonID}/leaderboard.
func (s *Service) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.ParseInt(chi.URLParam(r, "seasonID"), 10, 64)
	if err != nil {
		writeError(w, "invalid season id", http.StatusBadRequest)
		return
	}
	limit := queryLimit(r, defaultLeaderboardLimit)

	entries, err := s.trades.Leaderboard(r.Context(), seasonID, limit)
	if err != nil {
		s.serverError(w, "leaderboard", err)
		return
	}
	if entries == nil {
		entries = []*domain.LeaderboardEntry{}
	}
	writeJSON(w, entries)
}

// GetRewards handles GET /api/v1/seasons/{seasonID}/rewards/{wallet}.
func (s *Service) GetRewards(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.ParseInt(chi.URLParam(r, "seasonID"), 10, 64)
	if err != nil {
		writeError(w, "invalid season id", http.StatusBadRequest)
		return
	}
	wallet := chi.URLParam(r, "wallet")
	if err := solkey.ValidatePubkey(wallet); err != nil {
		writeError(w, "invalid wallet", http.StatusBadRequest)
		return
	}
	// Claims are paid to keypair wallets, never to derived addresses.
	if !solkey.OnCurve(wallet) {
		writeError(w, "wallet is not a signing key", http.StatusBadRequest)
		return
	}

	claims, err := s.claims.ListBySeasonWallet(r.Context(), seasonID, wallet)
	if err != nil {
		s.serverError(w, "list rewards", err)
		return
	}
	if claims == nil {
		claims = []*domain.RewardClaim{}
	}
	writeJSON(w, claims)
}

func (s *Service) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("%s: %v", op, err)
	writeError(w, "internal error", http.StatusInternalServerError)
}

func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
