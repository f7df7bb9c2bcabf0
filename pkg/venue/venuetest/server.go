// Package venuetest runs an in-process venue for tests and local dry runs.
package venuetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"

	"github.com/uhyunpark/clobkit/pkg/order"
	"github.com/uhyunpark/clobkit/pkg/venue"
)

// Market is what the fake venue knows about one token.
type Market struct {
	TickSize   string
	NegRisk    bool
	FeeRateBps int64
	Book       *order.OrderBookSummary
}

// Posted is one order submission the server received.
type Posted struct {
	Request order.PostOrderRequest
	Body    string
	Header  http.Header
}

// Server handles the venue's REST endpoints from memory.
type Server struct {
	mu      sync.Mutex
	router  *mux.Router
	http    *httptest.Server
	markets map[string]Market
	lookups map[string]int // path -> count
	posted  []Posted

	rejectMsg  string
	rejectSoft bool
	nextID     int
}

// NewServer starts a server on a loopback port. Close it when done.
func NewServer() *Server {
	s := &Server{
		router:  mux.NewRouter(),
		markets: make(map[string]Market),
		lookups: make(map[string]int),
	}
	s.setupRoutes()
	s.http = httptest.NewServer(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc(venue.PathTickSize, s.handleTickSize).Methods("GET")
	s.router.HandleFunc(venue.PathNegRisk, s.handleNegRisk).Methods("GET")
	s.router.HandleFunc(venue.PathFeeRate, s.handleFeeRate).Methods("GET")
	s.router.HandleFunc(venue.PathBook, s.handleBook).Methods("GET")
	s.router.HandleFunc(venue.PathOrder, s.handleOrder).Methods("POST")
}

func (s *Server) URL() string { return s.http.URL }

func (s *Server) Close() { s.http.Close() }

// AddMarket registers or replaces a token.
func (s *Server) AddMarket(tokenID string, m Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[tokenID] = m
}

// RejectOrders makes every following post fail with msg. Soft rejections
// answer 200 with success=false; hard ones answer 400.
func (s *Server) RejectOrders(msg string, soft bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectMsg = msg
	s.rejectSoft = soft
}

// Lookups reports how many requests hit path.
func (s *Server) Lookups(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[path]
}

// Posted returns every order received so far.
func (s *Server) Posted() []Posted {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Posted, len(s.posted))
	copy(out, s.posted)
	return out
}

func (s *Server) market(w http.ResponseWriter, r *http.Request) (Market, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[r.URL.Path]++

	tokenID := r.URL.Query().Get("token_id")
	m, ok := s.markets[tokenID]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("market not found for token %q", tokenID))
	}
	return m, ok
}

func (s *Server) handleTickSize(w http.ResponseWriter, r *http.Request) {
	m, ok := s.market(w, r)
	if !ok {
		return
	}
	respondJSON(w, map[string]json.Number{"minimum_tick_size": json.Number(m.TickSize)})
}

func (s *Server) handleNegRisk(w http.ResponseWriter, r *http.Request) {
	m, ok := s.market(w, r)
	if !ok {
		return
	}
	respondJSON(w, map[string]bool{"neg_risk": m.NegRisk})
}

func (s *Server) handleFeeRate(w http.ResponseWriter, r *http.Request) {
	m, ok := s.market(w, r)
	if !ok {
		return
	}
	respondJSON(w, map[string]int64{"base_fee": m.FeeRateBps})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	m, ok := s.market(w, r)
	if !ok {
		return
	}
	book := m.Book
	if book == nil {
		book = &order.OrderBookSummary{}
	}
	respondJSON(w, book)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if r.Header.Get("POLY_API_KEY") == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized/Invalid api key")
		return
	}

	var req order.PostOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid order payload: "+err.Error())
		return
	}
	if req.Order == nil || req.Order.Signature == "" {
		respondError(w, http.StatusBadRequest, "missing signature")
		return
	}

	s.mu.Lock()
	s.lookups[r.URL.Path]++
	s.posted = append(s.posted, Posted{Request: req, Body: string(body), Header: r.Header.Clone()})
	msg, soft := s.rejectMsg, s.rejectSoft
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	if msg != "" {
		if soft {
			respondJSON(w, venue.OrderAccepted{Success: false, ErrorMsg: msg})
			return
		}
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	status := "live"
	if req.OrderType.IsMarket() {
		status = "matched"
	}
	respondJSON(w, venue.OrderAccepted{
		Success:      true,
		OrderID:      fmt.Sprintf("0x%064x", id),
		Status:       status,
		MakingAmount: req.Order.MakerAmount.String(),
		TakingAmount: req.Order.TakerAmount.String(),
	})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
