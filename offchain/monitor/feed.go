package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/gorilla/websocket"
)

const (
	feedDialTimeout    = 10 * time.Second
	feedReconnectDelay = 2 * time.Second
	feedMaxBackoff     = 30 * time.Second
	feedReadLimit      = 1 << 16
)

// Feed streams price and position health updates from the API gateway
// WebSocket endpoint into a Monitor. Positions it has not seen yet are
// hydrated over the REST API.
type Feed struct {
	wsURL   string
	restURL string
	monitor *Monitor

	httpClient *http.Client

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu        sync.RWMutex
	connected bool
}

// NewFeed creates a feed for the given WebSocket and REST endpoints
func NewFeed(wsURL, restURL string, monitor *Monitor) *Feed {
	return &Feed{
		wsURL:   wsURL,
		restURL: restURL,
		monitor: monitor,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		stopCh: make(chan struct{}),
	}
}

// Start starts the feed loop. It reconnects with backoff on failure.
func (f *Feed) Start(ctx context.Context) {
	f.wg.Add(1)
	go f.run(ctx)
}

// Stop stops the feed
func (f *Feed) Stop() {
	close(f.stopCh)
	f.wg.Wait()
}

// Connected reports whether the feed currently holds a connection
func (f *Feed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	backoff := feedReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		default:
		}

		if err := f.connectAndRead(ctx); err != nil {
			log.Printf("Feed disconnected: %v", err)
		}

		f.setConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-f.stopCh:
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > feedMaxBackoff {
			backoff = feedMaxBackoff
		}
	}
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: feedDialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	conn.SetReadLimit(feedReadLimit)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for _, channel := range []string{"price", "health"} {
		sub := map[string]string{"type": "subscribe", "channel": channel}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}

	f.setConnected(true)
	log.Printf("Feed connected to %s", f.wsURL)

	// Close the connection when stop is requested so the read below
	// unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.stopCh:
		case <-done:
			return
		}
		conn.Close()
	}()

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if err := f.handleMessage(ctx, &msg); err != nil {
			log.Printf("Feed message error: %v", err)
		}
	}
}

func (f *Feed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

type wireMessage struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type wirePrice struct {
	Symbol     string `json:"symbol"`
	Price      string `json:"price"`
	Confidence int64  `json:"confidence"`
	Timestamp  int64  `json:"timestamp"`
}

type wireHealth struct {
	PositionID   uint64 `json:"position_id"`
	HealthFactor int64  `json:"health_factor"`
	RiskLevel    string `json:"risk_level"`
	State        string `json:"state"`
	Timestamp    int64  `json:"timestamp"`
}

func (f *Feed) handleMessage(ctx context.Context, msg *wireMessage) error {
	switch msg.Channel {
	case "price":
		var p wirePrice
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		price, ok := math.NewIntFromString(p.Price)
		if !ok {
			return fmt.Errorf("invalid price %q", p.Price)
		}
		f.monitor.SubmitPriceUpdate(price)
	case "health":
		var h wireHealth
		if err := json.Unmarshal(msg.Data, &h); err != nil {
			return fmt.Errorf("decode health: %w", err)
		}
		return f.applyHealth(ctx, &h)
	}
	return nil
}

// applyHealth refreshes the health reading on a tracked position, or
// hydrates an unknown one over REST.
func (f *Feed) applyHealth(ctx context.Context, h *wireHealth) error {
	if h.State == "closed" || h.State == "liquidated" {
		f.monitor.SubmitPositionClosed(h.PositionID)
		return nil
	}

	if pos := f.monitor.GetPosition(h.PositionID); pos != nil {
		updated := *pos
		updated.HealthBps = h.HealthFactor
		f.monitor.SubmitPositionUpdate(&updated)
		return nil
	}

	pos, err := f.fetchPosition(ctx, h.PositionID)
	if err != nil {
		return err
	}
	pos.HealthBps = h.HealthFactor
	f.monitor.SubmitPositionUpdate(pos)
	return nil
}

type restPosition struct {
	Position struct {
		PositionID      uint64 `json:"position_id"`
		Owner           string `json:"owner"`
		Exposure        string `json:"exposure"`
		Collateral      string `json:"collateral"`
		Leverage        int64  `json:"leverage"`
		HealthFactor    int64  `json:"health_factor"`
		State           string `json:"state"`
		AutoLiquidation bool   `json:"auto_liquidation"`
	} `json:"position"`
}

type restHealth struct {
	Health struct {
		LiquidationPrice string `json:"liquidation_price"`
	} `json:"health"`
}

func (f *Feed) fetchPosition(ctx context.Context, positionID uint64) (*PositionSnapshot, error) {
	var pv restPosition
	if err := f.getJSON(ctx, fmt.Sprintf("%s/v1/positions/%d", f.restURL, positionID), &pv); err != nil {
		return nil, fmt.Errorf("fetch position %d: %w", positionID, err)
	}

	exposure, ok := math.NewIntFromString(pv.Position.Exposure)
	if !ok {
		return nil, fmt.Errorf("position %d: invalid exposure %q", positionID, pv.Position.Exposure)
	}
	collateral, ok := math.NewIntFromString(pv.Position.Collateral)
	if !ok {
		return nil, fmt.Errorf("position %d: invalid collateral %q", positionID, pv.Position.Collateral)
	}

	snap := &PositionSnapshot{
		PositionID:       pv.Position.PositionID,
		Owner:            pv.Position.Owner,
		Exposure:         exposure,
		Collateral:       collateral,
		LeverageBps:      pv.Position.Leverage,
		HealthBps:        pv.Position.HealthFactor,
		LiquidationPrice: math.ZeroInt(),
		AutoLiquidation:  pv.Position.AutoLiquidation,
	}

	var hv restHealth
	if err := f.getJSON(ctx, fmt.Sprintf("%s/v1/positions/%d/health", f.restURL, positionID), &hv); err == nil {
		if lp, ok := math.NewIntFromString(hv.Health.LiquidationPrice); ok {
			snap.LiquidationPrice = lp
		}
	}

	return snap, nil
}

func (f *Feed) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
