package monitor

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/google/btree"
	"github.com/huandu/skiplist"
)

const btreeDegree = 32

// PositionSnapshot is the monitor's view of an on-chain position.
type PositionSnapshot struct {
	PositionID       uint64
	Owner            string
	Exposure         math.Int
	Collateral       math.Int
	LeverageBps      int64
	HealthBps        int64
	LiquidationPrice math.Int
	AutoLiquidation  bool
}

// healthItem wraps a position for use in the health btree.
// Implements btree.Item interface
type healthItem struct {
	healthBps  int64
	positionID uint64
}

// Less implements btree.Item interface - ascending order by health,
// position ID as tie breaker
func (a *healthItem) Less(b btree.Item) bool {
	o := b.(*healthItem)
	if a.healthBps != o.healthBps {
		return a.healthBps < o.healthBps
	}
	return a.positionID < o.positionID
}

// HealthIndex keeps positions ordered by health factor so the weakest
// positions can be ranged in O(log n + k).
type HealthIndex struct {
	tree  *btree.BTree
	items map[uint64]*healthItem
	mu    sync.RWMutex
}

// NewHealthIndex creates an empty health index
func NewHealthIndex() *HealthIndex {
	return &HealthIndex{
		tree:  btree.New(btreeDegree),
		items: make(map[uint64]*healthItem),
	}
}

// Upsert inserts or repositions a position in the index
func (idx *HealthIndex) Upsert(positionID uint64, healthBps int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.items[positionID]; ok {
		idx.tree.Delete(old)
	}
	item := &healthItem{healthBps: healthBps, positionID: positionID}
	idx.items[positionID] = item
	idx.tree.ReplaceOrInsert(item)
}

// Delete removes a position from the index
func (idx *HealthIndex) Delete(positionID uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.items[positionID]; ok {
		idx.tree.Delete(old)
		delete(idx.items, positionID)
	}
}

// Below returns position IDs with health strictly under the threshold,
// weakest first.
func (idx *HealthIndex) Below(thresholdBps int64) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]uint64, 0)
	idx.tree.Ascend(func(item btree.Item) bool {
		hi := item.(*healthItem)
		if hi.healthBps >= thresholdBps {
			return false
		}
		out = append(out, hi.positionID)
		return true
	})
	return out
}

// Len returns the number of indexed positions
func (idx *HealthIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// liqPriceKey is a comparator ordering the ladder by ascending
// liquidation price
type liqPriceKey struct{}

func (k liqPriceKey) Compare(lhs, rhs interface{}) int {
	l := lhs.(math.Int)
	r := rhs.(math.Int)
	if l.LT(r) {
		return -1
	}
	if l.GT(r) {
		return 1
	}
	return 0
}

func (k liqPriceKey) CalcScore(key interface{}) float64 {
	v := key.(math.Int)
	f, _ := math.LegacyNewDecFromInt(v).Float64()
	return f
}

// PriceLadder keeps positions ordered by liquidation price. Positions
// whose liquidation price sits at or below the current oracle price are
// undercollateralized and can be collected with a prefix walk.
type PriceLadder struct {
	list  *skiplist.SkipList
	keys  map[uint64]math.Int
	mu    sync.RWMutex
	count int
}

// ladderBucket holds all positions sharing one liquidation price
type ladderBucket map[uint64]struct{}

// NewPriceLadder creates an empty ladder
func NewPriceLadder() *PriceLadder {
	return &PriceLadder{
		list: skiplist.New(liqPriceKey{}),
		keys: make(map[uint64]math.Int),
	}
}

// Upsert inserts or repositions a position on the ladder
func (pl *PriceLadder) Upsert(positionID uint64, liquidationPrice math.Int) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	pl.removeLocked(positionID)

	var bucket ladderBucket
	if elem := pl.list.Get(liquidationPrice); elem != nil {
		bucket = elem.Value.(ladderBucket)
	} else {
		bucket = make(ladderBucket)
		pl.list.Set(liquidationPrice, bucket)
	}
	bucket[positionID] = struct{}{}
	pl.keys[positionID] = liquidationPrice
	pl.count++
}

// Delete removes a position from the ladder
func (pl *PriceLadder) Delete(positionID uint64) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.removeLocked(positionID)
}

func (pl *PriceLadder) removeLocked(positionID uint64) {
	key, ok := pl.keys[positionID]
	if !ok {
		return
	}
	delete(pl.keys, positionID)
	pl.count--

	elem := pl.list.Get(key)
	if elem == nil {
		return
	}
	bucket := elem.Value.(ladderBucket)
	delete(bucket, positionID)
	if len(bucket) == 0 {
		pl.list.Remove(key)
	}
}

// AtOrBelow returns position IDs whose liquidation price is at or below
// the given oracle price, lowest first.
func (pl *PriceLadder) AtOrBelow(price math.Int) []uint64 {
	pl.mu.RLock()
	defer pl.mu.RUnlock()

	out := make([]uint64, 0)
	for elem := pl.list.Front(); elem != nil; elem = elem.Next() {
		key := elem.Key().(math.Int)
		if key.GT(price) {
			break
		}
		for id := range elem.Value.(ladderBucket) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of positions on the ladder
func (pl *PriceLadder) Len() int {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.count
}

// LiquidationIntent is a pending liquidation submission.
type LiquidationIntent struct {
	PositionID uint64
	Amount     math.Int
	Reason     string
}

// IntentBuffer is a thread-safe buffer for intents pending submission
type IntentBuffer struct {
	intents []*LiquidationIntent
	queued  map[uint64]struct{}
	maxSize int
	mu      sync.Mutex
}

// NewIntentBuffer creates a new intent buffer with the given max size
func NewIntentBuffer(maxSize int) *IntentBuffer {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &IntentBuffer{
		intents: make([]*LiquidationIntent, 0, maxSize),
		queued:  make(map[uint64]struct{}),
		maxSize: maxSize,
	}
}

// Add queues an intent. A position already queued is skipped so one
// liquidation is not submitted twice per flush window.
func (b *IntentBuffer) Add(intent *LiquidationIntent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.queued[intent.PositionID]; ok {
		return false
	}
	b.queued[intent.PositionID] = struct{}{}
	b.intents = append(b.intents, intent)
	return true
}

// Flush returns all intents and clears the buffer
func (b *IntentBuffer) Flush() []*LiquidationIntent {
	b.mu.Lock()
	defer b.mu.Unlock()
	intents := b.intents
	b.intents = make([]*LiquidationIntent, 0, b.maxSize)
	b.queued = make(map[uint64]struct{})
	return intents
}

// Len returns the number of intents in the buffer
func (b *IntentBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.intents)
}

// IsFull returns true if the buffer is at or above max size
func (b *IntentBuffer) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.intents) >= b.maxSize
}
