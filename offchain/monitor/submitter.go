package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// TxSubmitter defines the interface for submitting liquidation intents
// to the chain
type TxSubmitter interface {
	SubmitLiquidations(ctx context.Context, intents []*LiquidationIntent) error
	GetStatus() SubmitterStatus
}

// SubmitterStatus represents the status of the transaction submitter
type SubmitterStatus struct {
	Connected         bool
	PendingTxCount    int
	LastSubmitTime    time.Time
	LastError         error
	TotalSubmissions  int64
	FailedSubmissions int64
}

// MockSubmitter is a mock implementation for testing
type MockSubmitter struct {
	status          SubmitterStatus
	mu              sync.RWMutex
	simulateFailure bool
	submitted       []*LiquidationIntent
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		status: SubmitterStatus{Connected: true},
	}
}

// SetSimulateFailure configures the mock to simulate failures
func (ms *MockSubmitter) SetSimulateFailure(fail bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.simulateFailure = fail
}

// SubmitLiquidations records the intents, or fails if configured to
func (ms *MockSubmitter) SubmitLiquidations(ctx context.Context, intents []*LiquidationIntent) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.status.TotalSubmissions++
	ms.status.LastSubmitTime = time.Now()

	if ms.simulateFailure {
		ms.status.FailedSubmissions++
		ms.status.LastError = fmt.Errorf("simulated submission failure")
		return ms.status.LastError
	}

	ms.submitted = append(ms.submitted, intents...)
	ms.status.LastError = nil
	log.Printf("MockSubmitter: submitted %d intents", len(intents))
	return nil
}

// Submitted returns all intents accepted so far
func (ms *MockSubmitter) Submitted() []*LiquidationIntent {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]*LiquidationIntent, len(ms.submitted))
	copy(out, ms.submitted)
	return out
}

// GetStatus returns the current submitter status
func (ms *MockSubmitter) GetStatus() SubmitterStatus {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.status
}

// BatchSubmitter submits intent batches over the chain RPC endpoint
type BatchSubmitter struct {
	rpcURL     string
	httpClient *http.Client
	status     SubmitterStatus
	mu         sync.RWMutex
	maxRetries int
	retryDelay time.Duration
}

// NewBatchSubmitter creates a new batch submitter
func NewBatchSubmitter(rpcURL string) *BatchSubmitter {
	return &BatchSubmitter{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		status:     SubmitterStatus{Connected: true},
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
}

// SubmitLiquidations submits intents with retry
func (bs *BatchSubmitter) SubmitLiquidations(ctx context.Context, intents []*LiquidationIntent) error {
	if len(intents) == 0 {
		return nil
	}

	bs.mu.Lock()
	bs.status.TotalSubmissions++
	bs.status.LastSubmitTime = time.Now()
	bs.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= bs.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(bs.retryDelay * time.Duration(attempt)):
			}
		}

		if err := bs.submitBatch(ctx, intents); err != nil {
			lastErr = err
			log.Printf("Submission attempt %d failed: %v", attempt+1, err)
			continue
		}

		bs.mu.Lock()
		bs.status.LastError = nil
		bs.mu.Unlock()
		return nil
	}

	bs.mu.Lock()
	bs.status.FailedSubmissions++
	bs.status.LastError = lastErr
	bs.mu.Unlock()
	return fmt.Errorf("submission failed after %d attempts: %w", bs.maxRetries+1, lastErr)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type intentPayload struct {
	PositionID uint64 `json:"position_id"`
	Amount     string `json:"amount"`
	Reason     string `json:"reason"`
}

// submitBatch encodes the intents and broadcasts them via JSON-RPC.
// TODO: replace with a signed MsgLiquidatePosition batch once keyring
// wiring lands in the monitor binary.
func (bs *BatchSubmitter) submitBatch(ctx context.Context, intents []*LiquidationIntent) error {
	payload := make([]intentPayload, 0, len(intents))
	for _, intent := range intents {
		payload = append(payload, intentPayload{
			PositionID: intent.PositionID,
			Amount:     intent.Amount.String(),
			Reason:     intent.Reason,
		})
	}

	params, err := json.Marshal(map[string]interface{}{"intents": payload})
	if err != nil {
		return fmt.Errorf("failed to encode intents: %w", err)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "broadcast_tx_async",
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bs.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := bs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc returned status %d", resp.StatusCode)
	}
	return nil
}

// GetStatus returns the current submitter status
func (bs *BatchSubmitter) GetStatus() SubmitterStatus {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.status
}

// SubmitterFactory creates submitters by type name
type SubmitterFactory struct{}

// NewSubmitterFactory creates a submitter factory
func NewSubmitterFactory() *SubmitterFactory {
	return &SubmitterFactory{}
}

// Create creates a submitter of the given type
func (f *SubmitterFactory) Create(submitterType, rpcURL string) (TxSubmitter, error) {
	switch submitterType {
	case "mock":
		return NewMockSubmitter(), nil
	case "batch":
		return NewBatchSubmitter(rpcURL), nil
	default:
		return nil, fmt.Errorf("unknown submitter type: %s", submitterType)
	}
}
