// Package httpserver exposes the read-only market-data surface: depth,
// order lookup, stats, an invariant-check endpoint, and a websocket
// stream of executed trades. Order entry stays in-process; there is no
// write endpoint.
package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"bulkbook/domain/orderbook"
	"bulkbook/service"
)

type Server struct {
	svc    *service.OrderService
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
}

func NewServer(svc *service.OrderService, hub *Hub, log *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		hub:    hub,
		log:    log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/depth/{side}", s.handleDepth).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleOrder).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/debug/invariants", s.handleInvariants).Methods(http.MethodGet)

	if s.hub != nil {
		s.router.HandleFunc("/ws/trades", s.hub.ServeWS)
	}
}

// Handler wraps the router with permissive CORS; the surface is read-only.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(s.router)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	side, ok := parseSide(mux.Vars(r)["side"])
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be bid or ask")
		return
	}
	levels := 0
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "levels must be a non-negative integer")
			return
		}
		levels = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"side":   side.String(),
		"levels": s.svc.Depth(side, levels),
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an unsigned integer")
		return
	}
	ref, ok := s.svc.Order(orderbook.OrderID(id))
	if !ok {
		writeError(w, http.StatusNotFound, "order not resting")
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvariants(w http.ResponseWriter, _ *http.Request) {
	if err := s.svc.VerifyInvariants(); err != nil {
		s.log.Error("invariant check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseSide(s string) (orderbook.Side, bool) {
	switch s {
	case "bid", "bids":
		return orderbook.Bid, true
	case "ask", "asks":
		return orderbook.Ask, true
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
