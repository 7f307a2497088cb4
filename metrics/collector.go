// Package metrics provides per-process metrics collection.
//
// The Collector accumulates counters across turns. It is a leaf package with
// no internal dependencies. Relay delivery counters are absorbed from
// relay.Stats at turn completion rather than recorded live, avoiding
// double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Turn lifecycle
	TurnsStarted         int64
	TurnsCompleted       int64
	TurnsEmpty           int64
	TurnsTransportFailed int64
	TurnsStoreFailed     int64

	// Stream ingestion
	ChunksReceived int64
	BytesReceived  int64

	// Extraction (absorbed from relay.Stats at turn completion)
	ActionsExtracted int64
	ActionsDelivered int64
	ActionsByKind    map[string]int64
	UnknownDropped   int64

	// Materialization
	FilesWritten   int64
	CommandsRun    int64
	CommandsFailed int64

	// Storage
	StoreWriteSuccess int64
	StoreWriteFailure int64

	// Dimensions (informational, set at construction)
	Provider       string
	Relay          string
	StorageBackend string
	TurnID         string
	SessionID      string
}

// Collector accumulates metrics across one or more turns.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Turn lifecycle
	turnsStarted         int64
	turnsCompleted       int64
	turnsEmpty           int64
	turnsTransportFailed int64
	turnsStoreFailed     int64

	// Stream ingestion
	chunksReceived int64
	bytesReceived  int64

	// Materialization
	filesWritten   int64
	commandsRun    int64
	commandsFailed int64

	// Storage
	storeWriteSuccess int64
	storeWriteFailure int64

	// Extraction (set once via AbsorbRelayStats)
	actionsExtracted int64
	actionsDelivered int64
	actionsByKind    map[string]int64
	unknownDropped   int64

	// Dimensions
	provider       string
	relay          string
	storageBackend string
	turnID         string
	sessionID      string
}

// NewCollector creates a Collector with dimension labels.
// provider, relay, and storageBackend identify the configured stack;
// turnID and sessionID are optional dimensions.
func NewCollector(provider, relay, storageBackend, turnID, sessionID string) *Collector {
	return &Collector{
		actionsByKind:  make(map[string]int64),
		provider:       provider,
		relay:          relay,
		storageBackend: storageBackend,
		turnID:         turnID,
		sessionID:      sessionID,
	}
}

// --- Turn lifecycle ---

// IncTurnStarted records a turn start.
func (c *Collector) IncTurnStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.turnsStarted++
	c.mu.Unlock()
}

// IncTurnCompleted records a turn that ended with at least one action.
func (c *Collector) IncTurnCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.turnsCompleted++
	c.mu.Unlock()
}

// IncTurnEmpty records a turn whose stream ended with zero extracted actions.
func (c *Collector) IncTurnEmpty() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.turnsEmpty++
	c.mu.Unlock()
}

// IncTurnTransportFailed records a turn aborted by a model transport failure.
func (c *Collector) IncTurnTransportFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.turnsTransportFailed++
	c.mu.Unlock()
}

// IncTurnStoreFailed records a turn whose persistence failed after extraction.
func (c *Collector) IncTurnStoreFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.turnsStoreFailed++
	c.mu.Unlock()
}

// --- Stream ingestion ---

// AddChunk records one received stream chunk of the given byte size.
func (c *Collector) AddChunk(size int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksReceived++
	c.bytesReceived += int64(size)
	c.mu.Unlock()
}

// --- Materialization ---

// IncFileWritten records one file materialized into the workspace tree.
func (c *Collector) IncFileWritten() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.filesWritten++
	c.mu.Unlock()
}

// IncCommandRun records one shell command executed.
func (c *Collector) IncCommandRun() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsRun++
	c.mu.Unlock()
}

// IncCommandFailed records one shell command that exited non-zero.
func (c *Collector) IncCommandFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsFailed++
	c.mu.Unlock()
}

// --- Storage ---
// Store counters are per-call, not per-record. A single WriteActions call
// with N actions counts as 1 success.

// IncStoreWriteSuccess records a successful store write operation (per-call).
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteSuccess++
	c.mu.Unlock()
}

// IncStoreWriteFailure records a failed store write operation (per-call).
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteFailure++
	c.mu.Unlock()
}

// --- Extraction (absorbed from relay.Stats) ---

// AbsorbRelayStats copies extraction counters from a relay stats snapshot.
// Called once after turn completion. The byKind map keys are string-typed
// action kinds to keep this package free of dependencies on types.
func (c *Collector) AbsorbRelayStats(extracted, delivered int64, byKind map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsExtracted = extracted
	c.actionsDelivered = delivered
	c.actionsByKind = make(map[string]int64, len(byKind))
	for k, v := range byKind {
		c.actionsByKind[k] = v
	}
	c.mu.Unlock()
}

// AddUnknownDropped records action tags dropped for an unknown type.
// Set once after turn completion from the extractor's skip count.
func (c *Collector) AddUnknownDropped(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.unknownDropped += n
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.actionsByKind))
	for k, v := range c.actionsByKind {
		byKind[k] = v
	}

	return Snapshot{
		TurnsStarted:         c.turnsStarted,
		TurnsCompleted:       c.turnsCompleted,
		TurnsEmpty:           c.turnsEmpty,
		TurnsTransportFailed: c.turnsTransportFailed,
		TurnsStoreFailed:     c.turnsStoreFailed,

		ChunksReceived: c.chunksReceived,
		BytesReceived:  c.bytesReceived,

		ActionsExtracted: c.actionsExtracted,
		ActionsDelivered: c.actionsDelivered,
		ActionsByKind:    byKind,
		UnknownDropped:   c.unknownDropped,

		FilesWritten:   c.filesWritten,
		CommandsRun:    c.commandsRun,
		CommandsFailed: c.commandsFailed,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		Provider:       c.provider,
		Relay:          c.relay,
		StorageBackend: c.storageBackend,
		TurnID:         c.turnID,
		SessionID:      c.sessionID,
	}
}
