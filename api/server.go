package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gashedge/gashedge/api/handlers"
	"github.com/gashedge/gashedge/api/middleware"
	"github.com/gashedge/gashedge/api/types"
	"github.com/gashedge/gashedge/api/websocket"
	"github.com/gashedge/gashedge/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	mockMode   bool

	// Services
	positionService  types.PositionService
	insuranceService types.InsuranceService
	systemService    types.SystemService

	// Handlers
	positionHandler  *handlers.PositionHandler
	insuranceHandler *handlers.InsuranceHandler
	systemHandler    *handlers.SystemHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
	BroadcastEvery   time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		BroadcastEvery: 2 * time.Second,
	}
}

// NewServer creates a new API server backed by the in-memory service.
func NewServer(config *Config) *Server {
	mockService := NewMockService()
	s := newServer(config, mockService, mockService, mockService)
	s.mockMode = true
	return s
}

// NewServerWithServices creates a new API server with custom services
func NewServerWithServices(config *Config, positionSvc types.PositionService, insuranceSvc types.InsuranceService, systemSvc types.SystemService) *Server {
	return newServer(config, positionSvc, insuranceSvc, systemSvc)
}

func newServer(config *Config, positionSvc types.PositionService, insuranceSvc types.InsuranceService, systemSvc types.SystemService) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BroadcastEvery <= 0 {
		config.BroadcastEvery = 2 * time.Second
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:           config,
		wsServer:         websocket.NewServer(wsConfig),
		mockMode:         config.MockMode,
		positionService:  positionSvc,
		insuranceService: insuranceSvc,
		systemService:    systemSvc,
		rateLimiter:      rateLimiter,
	}

	s.positionHandler = handlers.NewPositionHandler(s.positionService)
	s.insuranceHandler = handlers.NewInsuranceHandler(s.insuranceService)
	s.systemHandler = handlers.NewSystemHandler(s.systemService)

	return s
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check (support both /health and /v1/health for compatibility)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Position endpoints
	mux.HandleFunc("/v1/positions", s.positionHandler.HandlePositions)
	mux.HandleFunc("/v1/positions/", s.positionHandler.HandlePosition)

	// Oracle price
	mux.HandleFunc("/v1/price", s.positionHandler.HandlePrice)

	// Insurance endpoints
	mux.HandleFunc("/v1/insurance/fund", s.insuranceHandler.HandleFund)
	mux.HandleFunc("/v1/insurance/claims", s.claimsWithRateLimit())
	mux.HandleFunc("/v1/insurance/claims/", s.insuranceHandler.HandleClaim)

	// Breaker and risk aggregates
	mux.HandleFunc("/v1/breaker/status", s.systemHandler.HandleBreakerStatus)
	mux.HandleFunc("/v1/risk/metrics", s.systemHandler.HandleRiskMetrics)
	mux.HandleFunc("/v1/liquidations", s.systemHandler.HandleLiquidations)

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus scrape endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Apply middleware chain: CORS -> RateLimit -> Metrics -> Handler
	var handler http.Handler = metricsMiddleware(mux)
	if s.config.DisableRateLimit {
		handler = corsMiddleware(handler)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(handler),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Push periodic state snapshots to subscribers
	go s.runBroadcaster()

	log.Printf("API server starting on %s (mock mode: %v)", addr, s.mockMode)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsServer.GetHub().Shutdown()
	return s.httpServer.Shutdown(ctx)
}

// claimsWithRateLimit applies the claim submission limiter to POSTs on
// the claims collection. Reads pass through the global limiter only.
func (s *Server) claimsWithRateLimit() http.HandlerFunc {
	if s.config.DisableRateLimit {
		return s.insuranceHandler.HandleClaims
	}
	limited := middleware.ClaimRateLimitMiddleware(s.rateLimiter)(http.HandlerFunc(s.insuranceHandler.HandleClaims))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		s.insuranceHandler.HandleClaims(w, r)
	}
}

// runBroadcaster periodically publishes price, breaker, and fund
// snapshots onto their WebSocket channels.
func (s *Server) runBroadcaster() {
	ticker := time.NewTicker(s.config.BroadcastEvery)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)

		if price, err := s.positionService.GetPrice(ctx); err == nil {
			s.wsServer.BroadcastPrice(&websocket.PriceMessage{
				Symbol:     price.Symbol,
				Price:      price.Price,
				Confidence: price.Confidence,
				Timestamp:  nowMillis(),
			})
			if p, err := strconv.ParseFloat(price.Price, 64); err == nil {
				metrics.GetCollector().RecordOraclePrice(price.Symbol, p, float64(price.Confidence))
			}
		}
		if status, err := s.systemService.GetBreakerStatus(ctx); err == nil {
			s.wsServer.BroadcastBreaker(&websocket.BreakerMessage{
				VolatilityTripped: status.VolatilityTripped,
				VolumeTripped:     status.VolumeTripped,
				CascadeTripped:    status.CascadeTripped,
				Paused:            status.Paused,
				EmergencyMode:     status.EmergencyMode,
				SystemRiskLevel:   status.SystemRiskLevel,
				Timestamp:         nowMillis(),
			})
		}
		if fund, err := s.insuranceService.GetFundStatus(ctx); err == nil {
			s.wsServer.BroadcastFund(&websocket.FundMessage{
				Balance:       fund.Balance,
				TotalPayouts:  fund.TotalPayouts,
				PendingClaims: fund.PendingClaims,
				Timestamp:     nowMillis(),
			})
			if b, err := strconv.ParseFloat(fund.Balance, 64); err == nil {
				metrics.GetCollector().RecordInsuranceFund(b)
				metrics.GetCollector().ClaimsPending.Set(float64(fund.PendingClaims))
			}
		}

		cancel()
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "chain"
	if s.mockMode {
		mode = "standalone"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      mode,
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusRecorder captures the status code written by the wrapped
// handler for the request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latency per route. The
// WebSocket upgrade and the scrape endpoint itself pass through
// unwrapped: the recorder does not forward the Hijacker interface the
// upgrade needs.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		timer := metrics.NewTimer()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.GetCollector().RecordAPIRequest(
			r.Method, r.URL.Path, strconv.Itoa(recorder.status), timer.ElapsedMs())
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Owner-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
