// Package metrics collects per-run timings, token usage and validation
// outcomes in memory.
package metrics

import (
	"maps"
	"sort"
	"sync"
	"time"
)

// Operation names used across the pipeline.
const (
	OpEmbedding = "embedding"
	OpClassify  = "classify"
	OpRetrieve  = "retrieve"
	OpGenerate  = "generate"
	OpValidate  = "validate"
	OpVerify    = "verify"
)

// OperationSnapshot summarizes one operation. Token totals are nil for
// operations that never reported usage.
type OperationSnapshot struct {
	Name        string  `json:"name"`
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	TotalInputTokens  *int64 `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64 `json:"total_output_tokens,omitempty"`
}

// Snapshot is a copy of the collector state.
type Snapshot struct {
	UptimeSeconds float64             `json:"uptime_seconds"`
	Operations    []OperationSnapshot `json:"operations"`

	// Outcomes counts validation results by kind ("ok", "format", ...).
	Outcomes map[string]int64 `json:"outcomes,omitempty"`
}

type opStats struct {
	count         int64
	total         time.Duration
	min, max      time.Duration
	tokensIn      int64
	tokensOut     int64
	reportedUsage bool
}

func (s *opStats) add(d time.Duration) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.count++
	s.total += d
}

func (s *opStats) snapshot(name string) OperationSnapshot {
	out := OperationSnapshot{
		Name:        name,
		Count:       s.count,
		TotalTimeMs: s.total.Milliseconds(),
		AvgTimeMs:   float64(s.total.Milliseconds()) / float64(s.count),
		MinTimeMs:   s.min.Milliseconds(),
		MaxTimeMs:   s.max.Milliseconds(),
	}
	if s.reportedUsage {
		in, outTok := s.tokensIn, s.tokensOut
		out.TotalInputTokens, out.TotalOutputTokens = &in, &outTok
	}
	return out
}

// Collector is safe for concurrent use. A nil *Collector discards
// everything, so callers never need to check.
type Collector struct {
	mu       sync.Mutex
	started  time.Time
	ops      map[string]*opStats
	outcomes map[string]int64
}

// NewCollector returns an empty collector whose uptime starts now.
func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		ops:      make(map[string]*opStats),
		outcomes: make(map[string]int64),
	}
}

// stats returns the entry for op, creating it. c.mu must be held.
func (c *Collector) stats(op string) *opStats {
	s := c.ops[op]
	if s == nil {
		s = &opStats{}
		c.ops[op] = s
	}
	return s
}

// RecordTiming adds one call of op taking d.
func (c *Collector) RecordTiming(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stats(op).add(d)
	c.mu.Unlock()
}

// Time starts timing op and returns the function that records it.
//
//	defer c.Time(metrics.OpRetrieve)()
func (c *Collector) Time(op string) func() {
	start := time.Now()
	return func() { c.RecordTiming(op, time.Since(start)) }
}

// RecordLLMUsage adds one generation call with its token counts.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats(op)
	s.add(d)
	s.tokensIn += inputTokens
	s.tokensOut += outputTokens
	s.reportedUsage = s.reportedUsage || inputTokens > 0 || outputTokens > 0
}

// RecordOutcome counts one validation result of the given kind.
func (c *Collector) RecordOutcome(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.outcomes[kind]++
	c.mu.Unlock()
}

// Snapshot copies the current state, operations sorted by name.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.started).Seconds()}
	for name, s := range c.ops {
		snap.Operations = append(snap.Operations, s.snapshot(name))
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Name < snap.Operations[j].Name
	})
	if len(c.outcomes) > 0 {
		snap.Outcomes = maps.Clone(c.outcomes)
	}
	return snap
}
