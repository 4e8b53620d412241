package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cosmossdk.io/math"
)

// Liquidation eligibility thresholds, in basis points. These mirror the
// on-chain parameters; the chain remains the source of truth and will
// reject stale intents.
const (
	liquidationThresholdBps = 8000
	marginCallThresholdBps  = 9000
)

// Config holds the monitor configuration
type Config struct {
	BatchSize     int           // Maximum intents per batch submission
	BatchInterval time.Duration // Time interval for batch submission
	WebSocketURL  string        // WebSocket URL for event listening
	ChainRPCURL   string        // Chain RPC URL for submission
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() *Config {
	return &Config{
		BatchSize:     100,
		BatchInterval: 500 * time.Millisecond,
		WebSocketURL:  "ws://localhost:8080/ws",
		ChainRPCURL:   "http://localhost:26657",
	}
}

// Monitor watches position health off-chain and submits liquidation
// intents for positions that fall through the liquidation threshold.
type Monitor struct {
	config       *Config
	healthIndex  *HealthIndex
	priceLadder  *PriceLadder
	intentBuffer *IntentBuffer
	submitter    TxSubmitter

	// Internal state
	positions map[uint64]*PositionSnapshot
	lastPrice math.Int
	mu        sync.RWMutex

	// Event channel fed by the WebSocket feed
	eventCh chan Event

	// Control channels
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Event represents an incoming event from the chain feed
type Event struct {
	Type      EventType
	Position  *PositionSnapshot
	Price     math.Int
	Timestamp time.Time
}

// EventType represents the type of feed event
type EventType int

const (
	EventTypePositionUpdate EventType = iota
	EventTypePositionClosed
	EventTypePriceUpdate
)

func (e EventType) String() string {
	switch e {
	case EventTypePositionUpdate:
		return "position_update"
	case EventTypePositionClosed:
		return "position_closed"
	case EventTypePriceUpdate:
		return "price_update"
	default:
		return "unknown"
	}
}

// NewMonitor creates a new monitor instance
func NewMonitor(config *Config, submitter TxSubmitter) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}

	return &Monitor{
		config:       config,
		healthIndex:  NewHealthIndex(),
		priceLadder:  NewPriceLadder(),
		intentBuffer: NewIntentBuffer(config.BatchSize),
		submitter:    submitter,
		positions:    make(map[uint64]*PositionSnapshot),
		lastPrice:    math.ZeroInt(),
		eventCh:      make(chan Event, 1000),
		stopCh:       make(chan struct{}),
	}
}

// Start starts the monitor
func (m *Monitor) Start(ctx context.Context) error {
	log.Println("Starting liquidation monitor...")

	m.wg.Add(1)
	go m.eventLoop(ctx)

	m.wg.Add(1)
	go m.batchLoop(ctx)

	log.Println("Liquidation monitor started")
	return nil
}

// Stop stops the monitor
func (m *Monitor) Stop() error {
	log.Println("Stopping liquidation monitor...")
	close(m.stopCh)
	m.wg.Wait()
	log.Println("Liquidation monitor stopped")
	return nil
}

// eventLoop processes incoming events
func (m *Monitor) eventLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case event := <-m.eventCh:
			if err := m.handleEvent(event); err != nil {
				log.Printf("Error handling event: %v", err)
			}
		}
	}
}

// batchLoop periodically submits intent batches to the chain
func (m *Monitor) batchLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Submit any remaining intents before stopping
			m.submitPendingIntents(ctx)
			return
		case <-m.stopCh:
			m.submitPendingIntents(ctx)
			return
		case <-ticker.C:
			m.submitPendingIntents(ctx)
		}
	}
}

// submitPendingIntents submits pending intents to the chain
func (m *Monitor) submitPendingIntents(ctx context.Context) {
	intents := m.intentBuffer.Flush()
	if len(intents) == 0 {
		return
	}

	log.Printf("Submitting %d liquidation intents to chain...", len(intents))
	if err := m.submitter.SubmitLiquidations(ctx, intents); err != nil {
		log.Printf("Error submitting intents: %v", err)
		// Re-add intents to buffer for retry
		for _, intent := range intents {
			m.intentBuffer.Add(intent)
		}
	}
}

// handleEvent handles an incoming event
func (m *Monitor) handleEvent(event Event) error {
	switch event.Type {
	case EventTypePositionUpdate:
		return m.handlePositionUpdate(event.Position)
	case EventTypePositionClosed:
		return m.handlePositionClosed(event.Position.PositionID)
	case EventTypePriceUpdate:
		return m.handlePriceUpdate(event.Price)
	default:
		return fmt.Errorf("unknown event type: %v", event.Type)
	}
}

// handlePositionUpdate reindexes a position and queues it if it is
// already past the liquidation threshold.
func (m *Monitor) handlePositionUpdate(pos *PositionSnapshot) error {
	if pos == nil {
		return fmt.Errorf("nil position snapshot")
	}

	m.mu.Lock()
	m.positions[pos.PositionID] = pos
	m.mu.Unlock()

	m.healthIndex.Upsert(pos.PositionID, pos.HealthBps)
	if pos.LiquidationPrice.IsPositive() {
		m.priceLadder.Upsert(pos.PositionID, pos.LiquidationPrice)
	}

	if pos.AutoLiquidation && pos.HealthBps < liquidationThresholdBps {
		m.queueLiquidation(pos, "health_threshold")
	}
	return nil
}

// handlePositionClosed drops a position from all indexes
func (m *Monitor) handlePositionClosed(positionID uint64) error {
	m.mu.Lock()
	delete(m.positions, positionID)
	m.mu.Unlock()

	m.healthIndex.Delete(positionID)
	m.priceLadder.Delete(positionID)
	return nil
}

// handlePriceUpdate walks the ladder and queues every position whose
// liquidation price has been crossed by the new oracle price.
func (m *Monitor) handlePriceUpdate(price math.Int) error {
	if !price.IsPositive() {
		return fmt.Errorf("invalid price: %s", price)
	}

	m.mu.Lock()
	m.lastPrice = price
	m.mu.Unlock()

	for _, id := range m.priceLadder.AtOrBelow(price) {
		m.mu.RLock()
		pos, ok := m.positions[id]
		m.mu.RUnlock()
		if !ok || !pos.AutoLiquidation {
			continue
		}
		m.queueLiquidation(pos, "price_crossed")
	}
	return nil
}

// queueLiquidation buffers a partial liquidation intent sized to half
// the remaining exposure, matching the on-chain auto fraction.
func (m *Monitor) queueLiquidation(pos *PositionSnapshot, reason string) {
	amount := pos.Exposure.QuoRaw(2)
	if amount.IsZero() {
		amount = pos.Exposure
	}
	if !amount.IsPositive() {
		return
	}

	intent := &LiquidationIntent{
		PositionID: pos.PositionID,
		Amount:     amount,
		Reason:     reason,
	}
	if m.intentBuffer.Add(intent) {
		log.Printf("Queued liquidation: position=%d amount=%s reason=%s", pos.PositionID, amount, reason)
	}
}

// SubmitPositionUpdate feeds a position snapshot into the monitor
func (m *Monitor) SubmitPositionUpdate(pos *PositionSnapshot) {
	m.eventCh <- Event{
		Type:      EventTypePositionUpdate,
		Position:  pos,
		Timestamp: time.Now(),
	}
}

// SubmitPositionClosed feeds a position removal into the monitor
func (m *Monitor) SubmitPositionClosed(positionID uint64) {
	m.eventCh <- Event{
		Type:      EventTypePositionClosed,
		Position:  &PositionSnapshot{PositionID: positionID},
		Timestamp: time.Now(),
	}
}

// SubmitPriceUpdate feeds an oracle price into the monitor
func (m *Monitor) SubmitPriceUpdate(price math.Int) {
	m.eventCh <- Event{
		Type:      EventTypePriceUpdate,
		Price:     price,
		Timestamp: time.Now(),
	}
}

// GetPosition returns a tracked position by ID
func (m *Monitor) GetPosition(positionID uint64) *PositionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[positionID]
}

// WeakestPositions returns position IDs with health under the margin
// call threshold, weakest first.
func (m *Monitor) WeakestPositions() []uint64 {
	return m.healthIndex.Below(marginCallThresholdBps)
}

// Stats returns monitor statistics
type Stats struct {
	PositionCount  int
	LadderSize     int
	PendingIntents int
}

// GetStats returns current monitor statistics
func (m *Monitor) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		PositionCount:  len(m.positions),
		LadderSize:     m.priceLadder.Len(),
		PendingIntents: m.intentBuffer.Len(),
	}
}
