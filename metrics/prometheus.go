package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GasHedge Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all GasHedge metrics
type Collector struct {
	// Position metrics
	PositionsOpen  *prometheus.GaugeVec
	PositionValue  *prometheus.GaugeVec
	HealthFactor   *prometheus.HistogramVec
	Leverage       *prometheus.HistogramVec
	MarginCalls    *prometheus.CounterVec
	PositionsTotal *prometheus.CounterVec

	// Liquidation metrics
	LiquidationsTotal    *prometheus.CounterVec
	LiquidationValue     *prometheus.CounterVec
	LiquidationShortfall *prometheus.CounterVec
	LiquidatorRewards    *prometheus.CounterVec

	// Insurance fund metrics
	InsuranceFundBalance *prometheus.GaugeVec
	InsuranceFundInflow  *prometheus.CounterVec
	InsuranceFundOutflow *prometheus.CounterVec
	ClaimsTotal          *prometheus.CounterVec
	ClaimsPending        prometheus.Gauge

	// Circuit breaker metrics
	BreakerTrips    *prometheus.CounterVec
	BreakerActive   *prometheus.GaugeVec
	SystemRiskLevel prometheus.Gauge
	EmergencyMode   prometheus.Gauge
	DailyLoss       prometheus.Gauge
	TotalExposure   prometheus.Gauge

	// Oracle metrics
	OraclePrice      *prometheus.GaugeVec
	OracleConfidence *prometheus.GaugeVec
	OracleRejections *prometheus.CounterVec
	OracleLatency    *prometheus.HistogramVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	ActiveUsers prometheus.Gauge
	BlockHeight prometheus.Gauge
	BlockTime   *prometheus.HistogramVec
	TxPoolSize  prometheus.Gauge
	PeerCount   prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Position metrics
	c.PositionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "open",
			Help:      "Number of open positions",
		},
		[]string{"state"},
	)

	c.PositionValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "value",
			Help:      "Total position exposure value in base units",
		},
		[]string{"state"},
	)

	c.HealthFactor = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "health_factor_bps",
			Help:      "Position health factor distribution in basis points",
			Buckets:   []float64{2000, 5000, 8000, 9000, 9500, 10000, 12000, 15000},
		},
		[]string{},
	)

	c.Leverage = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "leverage_bps",
			Help:      "Position leverage distribution in basis points",
			Buckets:   []float64{10000, 20000, 30000, 50000, 100000},
		},
		[]string{},
	)

	c.MarginCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "margin_calls_total",
			Help:      "Total margin call transitions",
		},
		[]string{},
	)

	c.PositionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "positions",
			Name:      "total",
			Help:      "Total positions by lifecycle event",
		},
		[]string{"event"},
	)

	// Liquidation metrics
	c.LiquidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "liquidations",
			Name:      "total",
			Help:      "Total number of liquidations",
		},
		[]string{"kind"},
	)

	c.LiquidationValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "liquidations",
			Name:      "value",
			Help:      "Total liquidated value in base units",
		},
		[]string{"kind"},
	)

	c.LiquidationShortfall = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "liquidations",
			Name:      "shortfall",
			Help:      "Total shortfall covered by the insurance fund",
		},
		[]string{},
	)

	c.LiquidatorRewards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "liquidations",
			Name:      "rewards",
			Help:      "Total rewards paid to liquidators",
		},
		[]string{},
	)

	// Insurance fund metrics
	c.InsuranceFundBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "insurance_fund",
			Name:      "balance",
			Help:      "Insurance fund balance in base units",
		},
		[]string{},
	)

	c.InsuranceFundInflow = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "insurance_fund",
			Name:      "inflow",
			Help:      "Total inflow to insurance fund",
		},
		[]string{"source"},
	)

	c.InsuranceFundOutflow = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "insurance_fund",
			Name:      "outflow",
			Help:      "Total outflow from insurance fund",
		},
		[]string{"reason"},
	)

	c.ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "insurance_fund",
			Name:      "claims_total",
			Help:      "Total claims by outcome",
		},
		[]string{"outcome"},
	)

	c.ClaimsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "insurance_fund",
			Name:      "claims_pending",
			Help:      "Number of claims awaiting assessment",
		},
	)

	// Circuit breaker metrics
	c.BreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "trips_total",
			Help:      "Total circuit breaker trips",
		},
		[]string{"breaker"},
	)

	c.BreakerActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "active",
			Help:      "Whether a breaker is currently tripped (0 or 1)",
		},
		[]string{"breaker"},
	)

	c.SystemRiskLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "system_risk_level",
			Help:      "System risk level (0 normal to 3 critical)",
		},
	)

	c.EmergencyMode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "emergency_mode",
			Help:      "Whether emergency mode is active (0 or 1)",
		},
	)

	c.DailyLoss = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "daily_loss",
			Help:      "Accumulated liquidation losses in the rolling window",
		},
	)

	c.TotalExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "breaker",
			Name:      "total_exposure",
			Help:      "System-wide open exposure in base units",
		},
	)

	// Oracle metrics
	c.OraclePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "oracle",
			Name:      "price",
			Help:      "Current accepted oracle price",
		},
		[]string{"symbol"},
	)

	c.OracleConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "oracle",
			Name:      "confidence_bps",
			Help:      "Confidence of the last accepted observation in basis points",
		},
		[]string{"symbol"},
	)

	c.OracleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "oracle",
			Name:      "rejections_total",
			Help:      "Total oracle observations rejected",
		},
		[]string{"reason"},
	)

	c.OracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "oracle",
			Name:      "latency_ms",
			Help:      "Oracle update latency in milliseconds",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2000},
		},
		[]string{"source"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gashedge",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.ActiveUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "system",
			Name:      "active_users",
			Help:      "Number of active users",
		},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.BlockTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gashedge",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Block time in milliseconds",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000},
		},
		[]string{},
	)

	c.TxPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "system",
			Name:      "tx_pool_size",
			Help:      "Transaction pool size",
		},
	)

	c.PeerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gashedge",
			Subsystem: "system",
			Name:      "peer_count",
			Help:      "Number of connected peers",
		},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Position metrics
	prometheus.MustRegister(c.PositionsOpen)
	prometheus.MustRegister(c.PositionValue)
	prometheus.MustRegister(c.HealthFactor)
	prometheus.MustRegister(c.Leverage)
	prometheus.MustRegister(c.MarginCalls)
	prometheus.MustRegister(c.PositionsTotal)

	// Liquidation metrics
	prometheus.MustRegister(c.LiquidationsTotal)
	prometheus.MustRegister(c.LiquidationValue)
	prometheus.MustRegister(c.LiquidationShortfall)
	prometheus.MustRegister(c.LiquidatorRewards)

	// Insurance fund metrics
	prometheus.MustRegister(c.InsuranceFundBalance)
	prometheus.MustRegister(c.InsuranceFundInflow)
	prometheus.MustRegister(c.InsuranceFundOutflow)
	prometheus.MustRegister(c.ClaimsTotal)
	prometheus.MustRegister(c.ClaimsPending)

	// Circuit breaker metrics
	prometheus.MustRegister(c.BreakerTrips)
	prometheus.MustRegister(c.BreakerActive)
	prometheus.MustRegister(c.SystemRiskLevel)
	prometheus.MustRegister(c.EmergencyMode)
	prometheus.MustRegister(c.DailyLoss)
	prometheus.MustRegister(c.TotalExposure)

	// Oracle metrics
	prometheus.MustRegister(c.OraclePrice)
	prometheus.MustRegister(c.OracleConfidence)
	prometheus.MustRegister(c.OracleRejections)
	prometheus.MustRegister(c.OracleLatency)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.ActiveUsers)
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
	prometheus.MustRegister(c.TxPoolSize)
	prometheus.MustRegister(c.PeerCount)
}

// ============ Recording Helpers ============

// RecordPositionEvent records a position lifecycle event
func (c *Collector) RecordPositionEvent(event string) {
	c.PositionsTotal.WithLabelValues(event).Inc()
}

// RecordHealthFactor records a health factor observation
func (c *Collector) RecordHealthFactor(healthBps float64) {
	c.HealthFactor.WithLabelValues().Observe(healthBps)
}

// RecordLeverage records a leverage observation
func (c *Collector) RecordLeverage(leverageBps float64) {
	c.Leverage.WithLabelValues().Observe(leverageBps)
}

// RecordMarginCall records a margin call transition
func (c *Collector) RecordMarginCall() {
	c.MarginCalls.WithLabelValues().Inc()
}

// RecordLiquidation records a liquidation event
func (c *Collector) RecordLiquidation(kind string, value, shortfall, reward float64) {
	c.LiquidationsTotal.WithLabelValues(kind).Inc()
	c.LiquidationValue.WithLabelValues(kind).Add(value)
	if shortfall > 0 {
		c.LiquidationShortfall.WithLabelValues().Add(shortfall)
	}
	if reward > 0 {
		c.LiquidatorRewards.WithLabelValues().Add(reward)
	}
}

// RecordInsuranceFund records the insurance fund balance
func (c *Collector) RecordInsuranceFund(balance float64) {
	c.InsuranceFundBalance.WithLabelValues().Set(balance)
}

// RecordFundFlow records an insurance fund flow
func (c *Collector) RecordFundFlow(inflow bool, label string, amount float64) {
	if inflow {
		c.InsuranceFundInflow.WithLabelValues(label).Add(amount)
	} else {
		c.InsuranceFundOutflow.WithLabelValues(label).Add(amount)
	}
}

// RecordClaim records a claim outcome
func (c *Collector) RecordClaim(outcome string) {
	c.ClaimsTotal.WithLabelValues(outcome).Inc()
}

// RecordBreakerTrip records a circuit breaker trip
func (c *Collector) RecordBreakerTrip(breaker string) {
	c.BreakerTrips.WithLabelValues(breaker).Inc()
	c.BreakerActive.WithLabelValues(breaker).Set(1)
}

// RecordBreakerReset records a circuit breaker reset
func (c *Collector) RecordBreakerReset(breaker string) {
	c.BreakerActive.WithLabelValues(breaker).Set(0)
}

// RecordOraclePrice records an accepted oracle observation
func (c *Collector) RecordOraclePrice(symbol string, price, confidenceBps float64) {
	c.OraclePrice.WithLabelValues(symbol).Set(price)
	c.OracleConfidence.WithLabelValues(symbol).Set(confidenceBps)
}

// RecordOracleRejection records a rejected oracle observation
func (c *Collector) RecordOracleRejection(reason string) {
	c.OracleRejections.WithLabelValues(reason).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// UpdateSystemMetrics updates system-level metrics
func (c *Collector) UpdateSystemMetrics(blockHeight int64, txPoolSize int, peerCount int) {
	c.BlockHeight.Set(float64(blockHeight))
	c.TxPoolSize.Set(float64(txPoolSize))
	c.PeerCount.Set(float64(peerCount))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
