package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Coalescing buffers flushed on a timer
	priceBuffer  *PriceMessage
	healthBuffer map[uint64]*HealthMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Shutdown signal
	done chan struct{}

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Update intervals
	PriceInterval  time.Duration // Default: 500ms
	HealthInterval time.Duration // Default: 1s

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		PriceInterval:    500 * time.Millisecond,
		HealthInterval:   time.Second,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:      make(map[*Client]bool),
		channels:     make(map[string]map[*Client]bool),
		broadcast:    make(chan []byte, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		subscribe:    make(chan *SubscriptionRequest, 256),
		unsubscribe:  make(chan *SubscriptionRequest, 256),
		healthBuffer: make(map[uint64]*HealthMessage),
		done:         make(chan struct{}),
		config:       config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	priceTicker := time.NewTicker(h.config.PriceInterval)
	healthTicker := time.NewTicker(h.config.HealthInterval)

	defer priceTicker.Stop()
	defer healthTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-priceTicker.C:
			h.flushPrice()

		case <-healthTicker.C:
			h.flushHealth()

		case <-h.done:
			return
		}
	}
}

// Shutdown stops the hub's main loop
func (h *Hub) Shutdown() {
	close(h.done)
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channel-specific broadcasts ============

// UpdatePrice updates the coalesced price snapshot
func (h *Hub) UpdatePrice(price *PriceMessage) {
	h.mu.Lock()
	h.priceBuffer = price
	h.mu.Unlock()
}

// UpdateHealth updates the coalesced health snapshot for a position
func (h *Hub) UpdateHealth(positionID uint64, health *HealthMessage) {
	h.mu.Lock()
	h.healthBuffer[positionID] = health
	h.mu.Unlock()
}

// flushPrice broadcasts the latest price snapshot
func (h *Hub) flushPrice() {
	h.mu.RLock()
	price := h.priceBuffer
	h.mu.RUnlock()

	if price == nil {
		return
	}
	msg := &WSMessage{
		Type:    "price",
		Channel: "price",
		Data:    price,
	}
	h.BroadcastToChannel("price", msg)
}

// flushHealth broadcasts pending health snapshots
func (h *Hub) flushHealth() {
	h.mu.Lock()
	if len(h.healthBuffer) == 0 {
		h.mu.Unlock()
		return
	}
	pending := h.healthBuffer
	h.healthBuffer = make(map[uint64]*HealthMessage)
	h.mu.Unlock()

	for _, health := range pending {
		msg := &WSMessage{
			Type:    "health",
			Channel: "health",
			Data:    health,
		}
		h.BroadcastToChannel("health", msg)
	}
}

// BroadcastBreaker broadcasts a breaker state change
func (h *Hub) BroadcastBreaker(breaker *BreakerMessage) {
	msg := &WSMessage{
		Type:    "breaker",
		Channel: "breaker",
		Data:    breaker,
	}
	h.BroadcastToChannel("breaker", msg)
}

// BroadcastFund broadcasts an insurance fund update
func (h *Hub) BroadcastFund(fund *FundMessage) {
	msg := &WSMessage{
		Type:    "fund",
		Channel: "fund",
		Data:    fund,
	}
	h.BroadcastToChannel("fund", msg)
}

// BroadcastLiquidation broadcasts a liquidation event
func (h *Hub) BroadcastLiquidation(liquidation *LiquidationMessage) {
	msg := &WSMessage{
		Type:    "liquidation",
		Channel: "liquidations",
		Data:    liquidation,
	}
	h.BroadcastToChannel("liquidations", msg)
}

// BroadcastPosition broadcasts a position update to a specific owner
func (h *Hub) BroadcastPosition(owner string, position *PositionMessage) {
	channel := "positions:" + owner
	msg := &WSMessage{
		Type:    "position",
		Channel: channel,
		Data:    position,
	}
	h.BroadcastToChannel(channel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// PriceMessage represents an oracle price update
type PriceMessage struct {
	Symbol     string `json:"symbol"`
	Price      string `json:"price"`
	Confidence int64  `json:"confidence"`
	Timestamp  int64  `json:"timestamp"`
}

// HealthMessage represents a position health snapshot
type HealthMessage struct {
	PositionID   uint64 `json:"position_id"`
	HealthFactor int64  `json:"health_factor"`
	RiskLevel    string `json:"risk_level"`
	State        string `json:"state"`
	Timestamp    int64  `json:"timestamp"`
}

// BreakerMessage represents a circuit breaker state change
type BreakerMessage struct {
	VolatilityTripped bool   `json:"volatility_tripped"`
	VolumeTripped     bool   `json:"volume_tripped"`
	CascadeTripped    bool   `json:"cascade_tripped"`
	Paused            bool   `json:"paused"`
	EmergencyMode     bool   `json:"emergency_mode"`
	SystemRiskLevel   string `json:"system_risk_level"`
	Timestamp         int64  `json:"timestamp"`
}

// FundMessage represents an insurance fund update
type FundMessage struct {
	Balance       string `json:"balance"`
	TotalPayouts  string `json:"total_payouts"`
	PendingClaims int    `json:"pending_claims"`
	Timestamp     int64  `json:"timestamp"`
}

// LiquidationMessage represents a liquidation event
type LiquidationMessage struct {
	LiquidationID uint64 `json:"liquidation_id"`
	PositionID    uint64 `json:"position_id"`
	Amount        string `json:"amount"`
	Penalty       string `json:"penalty"`
	Shortfall     string `json:"shortfall"`
	Kind          string `json:"kind"`
	Timestamp     int64  `json:"timestamp"`
}

// PositionMessage represents a position update
type PositionMessage struct {
	PositionID   uint64 `json:"position_id"`
	Owner        string `json:"owner"`
	Exposure     string `json:"exposure"`
	Collateral   string `json:"collateral"`
	HealthFactor int64  `json:"health_factor"`
	State        string `json:"state"`
	Timestamp    int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	userID := r.URL.Query().Get("user_id")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, userID, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
