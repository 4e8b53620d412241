package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/math"
	"github.com/gashedge/gashedge/offchain/monitor"
)

// Config holds the application configuration
type Config struct {
	BatchSize     int           `json:"batch_size"`
	BatchInterval time.Duration `json:"batch_interval"`
	WebSocketURL  string        `json:"websocket_url"`
	RESTURL       string        `json:"rest_url"`
	ChainRPCURL   string        `json:"chain_rpc_url"`
	SubmitterType string        `json:"submitter_type"` // "mock" or "batch"
	Demo          bool          `json:"demo"`           // run demo mode
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BatchSize:     100,
		BatchInterval: 500 * time.Millisecond,
		WebSocketURL:  "ws://localhost:8080/ws",
		RESTURL:       "http://localhost:8080",
		ChainRPCURL:   "http://localhost:26657",
		SubmitterType: "mock",
		Demo:          false,
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	batchSize := flag.Int("batch-size", 0, "Maximum intents per batch")
	batchInterval := flag.Duration("batch-interval", 0, "Time interval for batch submission")
	rpcURL := flag.String("rpc", "", "Chain RPC URL")
	wsURL := flag.String("ws", "", "API gateway WebSocket URL")
	restURL := flag.String("rest", "", "API gateway REST URL")
	submitterType := flag.String("submitter", "", "Submitter type (mock or batch)")
	demo := flag.Bool("demo", false, "Run demo mode with sample positions")
	flag.Parse()

	// Load configuration
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override with command line flags
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *batchInterval > 0 {
		config.BatchInterval = *batchInterval
	}
	if *rpcURL != "" {
		config.ChainRPCURL = *rpcURL
	}
	if *wsURL != "" {
		config.WebSocketURL = *wsURL
	}
	if *restURL != "" {
		config.RESTURL = *restURL
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}
	if *demo {
		config.Demo = true
	}

	// Print configuration
	log.Println("=== GasHedge Liquidation Monitor ===")
	log.Printf("Batch Size: %d", config.BatchSize)
	log.Printf("Batch Interval: %v", config.BatchInterval)
	log.Printf("Chain RPC: %s", config.ChainRPCURL)
	log.Printf("Gateway WS: %s", config.WebSocketURL)
	log.Printf("Gateway REST: %s", config.RESTURL)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("====================================")

	// Create submitter
	factory := monitor.NewSubmitterFactory()
	submitter, err := factory.Create(config.SubmitterType, config.ChainRPCURL)
	if err != nil {
		log.Fatalf("Failed to create submitter: %v", err)
	}

	// Create monitor
	monitorConfig := &monitor.Config{
		BatchSize:     config.BatchSize,
		BatchInterval: config.BatchInterval,
		WebSocketURL:  config.WebSocketURL,
		ChainRPCURL:   config.ChainRPCURL,
	}
	m := monitor.NewMonitor(monitorConfig, submitter)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the monitor
	if err := m.Start(ctx); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	// Stream gateway events unless running the self-contained demo
	var feed *monitor.Feed
	if config.Demo {
		go runDemo(m)
	} else {
		feed = monitor.NewFeed(config.WebSocketURL, config.RESTURL, m)
		feed.Start(ctx)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Periodic stats logging
	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	log.Println("Monitor is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if feed != nil {
				feed.Stop()
			}
			if err := m.Stop(); err != nil {
				log.Printf("Error stopping monitor: %v", err)
			}
			log.Println("Monitor stopped")
			return
		case <-statsTicker.C:
			stats := m.GetStats()
			log.Printf("Stats: Positions=%d, Ladder=%d, PendingIntents=%d",
				stats.PositionCount, stats.LadderSize, stats.PendingIntents)
		}
	}
}

// runDemo feeds sample positions and a rising gas price through the
// monitor to exercise the liquidation path end to end.
func runDemo(m *monitor.Monitor) {
	log.Println("Starting demo mode...")
	time.Sleep(time.Second)

	type seed struct {
		id         uint64
		collateral int64
		exposure   int64
		leverage   int64
	}
	seeds := []seed{
		{1, 2_000_000, 1_000_000, 20000},
		{2, 1_400_000, 1_000_000, 30000},
		{3, 1_250_000, 1_000_000, 50000},
	}

	for _, s := range seeds {
		collateral := math.NewInt(s.collateral)
		exposure := math.NewInt(s.exposure)

		// liquidation price = collateral * 10000 * scale / (exposure * 12000)
		liqPrice := collateral.MulRaw(10000).MulRaw(1_000_000).
			Quo(exposure.MulRaw(12000))
		healthBps := collateral.MulRaw(10000).MulRaw(10000).
			Quo(exposure.MulRaw(s.leverage)).Int64()

		log.Printf("Seeding position %d: collateral=%s exposure=%s leverage=%dx health=%d liqPrice=%s",
			s.id, collateral, exposure, s.leverage/10000, healthBps, liqPrice)

		m.SubmitPositionUpdate(&monitor.PositionSnapshot{
			PositionID:       s.id,
			Owner:            fmt.Sprintf("cosmos1demo%d", s.id),
			Exposure:         exposure,
			Collateral:       collateral,
			LeverageBps:      s.leverage,
			HealthBps:        healthBps,
			LiquidationPrice: liqPrice,
			AutoLiquidation:  true,
		})
		time.Sleep(100 * time.Millisecond)
	}

	// Walk the gas price up until the weakest position crosses its
	// liquidation price.
	for _, price := range []int64{800_000, 1_000_000, 1_100_000, 1_300_000} {
		log.Printf("Demo price update: %d", price)
		m.SubmitPriceUpdate(math.NewInt(price))
		time.Sleep(700 * time.Millisecond)
	}

	stats := m.GetStats()
	log.Printf("Demo complete: positions=%d pending=%d", stats.PositionCount, stats.PendingIntents)
}
