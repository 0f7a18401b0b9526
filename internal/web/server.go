// Package web serves the browser dashboard: an SSE stream of allocation
// updates, target sliders, and the rebalance trigger.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/folio/internal"
	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/internal/events"
	"github.com/vadiminshakov/folio/internal/services/gate"
)

type rebalancer interface {
	Snapshot() domain.AllocationSnapshot
	Targets() map[string]int
	SetTarget(symbol string, pct int) error
	Preview() ([]domain.TradeInstruction, error)
	Rebalance(ctx context.Context) (string, error)
}

// AdvisorService produces the optional AI commentary shown on the dashboard.
type AdvisorService interface {
	Analyze(ctx context.Context, assets []domain.Asset, snapshot domain.AllocationSnapshot, targets map[string]int) (string, error)
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr        string
	Assets      []domain.Asset
	Rebalancer  rebalancer
	Broadcaster *events.AllocationBroadcaster
	Advisor     AdvisorService
}

// NewServer creates a new web server instance. advisor may be nil.
func NewServer(addr string, assets []domain.Asset, r rebalancer, b *events.AllocationBroadcaster, advisor AdvisorService) *Server {
	return &Server{Addr: addr, Assets: assets, Rebalancer: r, Broadcaster: b, Advisor: advisor}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/allocations/stream", s.handleAllocationStream)
	mux.HandleFunc("/targets", s.handleTargets)
	mux.HandleFunc("/rebalance/preview", s.handlePreview)
	mux.HandleFunc("/rebalance", s.handleRebalance)
	mux.HandleFunc("/advisor", s.handleAdvisor)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic certificates via ACME
// plus a port-80 server for challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domain, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if domain == "" {
		return fmt.Errorf("no domain provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domain),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("acme challenge server: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) currentUpdate() events.AllocationUpdate {
	snapshot := s.Rebalancer.Snapshot()
	update := events.AllocationUpdate{
		Timestamp: time.Now(),
		Percent:   make(map[string]string, len(s.Assets)),
		Values:    make(map[string]string, len(s.Assets)),
		TotalUSD:  snapshot.TotalUSD.StringFixed(2),
		Targets:   s.Rebalancer.Targets(),
	}
	for i := range s.Assets {
		symbol := s.Assets[i].Symbol
		update.Percent[symbol] = snapshot.PercentOf(symbol).StringFixed(1)
		update.Values[symbol] = snapshot.Values[symbol].StringFixed(2)
	}
	return update
}

func (s *Server) handleAllocationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(update events.AllocationUpdate) bool {
		payload, err := json.Marshal(update)
		if err != nil {
			log.Printf("allocation stream marshal: %v", err)
			return false
		}
		fmt.Fprintf(w, "event: allocation\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return true
	}

	// current state first so the page renders before the next poll tick
	if !send(s.currentUpdate()) {
		return
	}

	ch := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(ch)

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case update, open := <-ch:
			if !open {
				return
			}
			if !send(update) {
				return
			}
		}
	}
}

type targetEdit struct {
	Symbol  string `json:"symbol"`
	Percent int    `json:"percent"`
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Rebalancer.Targets())
	case http.MethodPost:
		var edit targetEdit
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := s.Rebalancer.SetTarget(edit.Symbol, edit.Percent); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.Rebalancer.Targets())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type tradeView struct {
	Symbol     string `json:"symbol"`
	AmountUSD  string `json:"amount_usd"`
	CurrentPct string `json:"current_pct"`
	TargetPct  int    `json:"target_pct"`
	Side       string `json:"side"`
}

func tradeViews(trades []domain.TradeInstruction) []tradeView {
	views := make([]tradeView, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		side := "buy"
		if t.IsSell() {
			side = "sell"
		}
		views = append(views, tradeView{
			Symbol:     t.Symbol,
			AmountUSD:  t.AmountUSD.StringFixed(2),
			CurrentPct: t.CurrentPct.StringFixed(1),
			TargetPct:  t.TargetPct,
			Side:       side,
		})
	}
	return views
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trades, err := s.Rebalancer.Preview()
	if err != nil {
		if errors.Is(err, internal.ErrNothingToRebalance) {
			writeJSON(w, http.StatusOK, map[string]any{"needed": false, "trades": []tradeView{}})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"needed": true, "trades": tradeViews(trades)})
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	txHash, err := s.Rebalancer.Rebalance(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"tx_hash": txHash})
	case errors.Is(err, internal.ErrRebalanceInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, internal.ErrNothingToRebalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, gate.ErrDeclined):
		// user cancelled at the confirmation step, not an error
		writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
	default:
		log.Printf("rebalance: %v", err)
		http.Error(w, "failed to execute rebalance", http.StatusBadGateway)
	}
}

func (s *Server) handleAdvisor(w http.ResponseWriter, r *http.Request) {
	if s.Advisor == nil {
		http.Error(w, "advisor not configured", http.StatusServiceUnavailable)
		return
	}

	analysis, err := s.Advisor.Analyze(r.Context(), s.Assets, s.Rebalancer.Snapshot(), s.Rebalancer.Targets())
	if err != nil {
		log.Printf("advisor: %v", err)
		http.Error(w, "advisor request failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, analysis)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
