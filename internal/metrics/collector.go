package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector counts hot reload outcomes and connected dev clients
type Collector struct {
	reloadMetrics  *ReloadMetrics
	customCounters map[string]*int64
	mu             sync.RWMutex
	startTime      time.Time
}

// ReloadMetrics is a snapshot of the collector
type ReloadMetrics struct {
	// File changes
	Attempts     int64 `json:"attempts"`
	HotReloads   int64 `json:"hot_reloads"`
	FullRebuilds int64 `json:"full_rebuilds"`
	ParseErrors  int64 `json:"parse_errors"`

	// Templates sent to clients
	TemplatesSent int64 `json:"templates_sent"`

	// Dev clients
	ClientsConnected     int64 `json:"clients_connected"`
	ClientsDisconnected  int64 `json:"clients_disconnected"`
	ActiveClients        int64 `json:"active_clients"`
	MaxConcurrentClients int64 `json:"max_concurrent_clients"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		reloadMetrics:  &ReloadMetrics{StartTime: now},
		customCounters: make(map[string]*int64),
		startTime:      now,
	}
}

// IncrementAttempt records a changed file being processed
func (c *Collector) IncrementAttempt() {
	atomic.AddInt64(&c.reloadMetrics.Attempts, 1)
}

// IncrementHotReload records a successful hot reload producing templates
func (c *Collector) IncrementHotReload(templates int) {
	atomic.AddInt64(&c.reloadMetrics.HotReloads, 1)
	atomic.AddInt64(&c.reloadMetrics.TemplatesSent, int64(templates))
}

// IncrementFullRebuild records a change that needs a full rebuild
func (c *Collector) IncrementFullRebuild() {
	atomic.AddInt64(&c.reloadMetrics.FullRebuilds, 1)
}

// IncrementParseError records a file that failed to parse
func (c *Collector) IncrementParseError() {
	atomic.AddInt64(&c.reloadMetrics.ParseErrors, 1)
}

// IncrementClientConnected records a new dev client
func (c *Collector) IncrementClientConnected() {
	atomic.AddInt64(&c.reloadMetrics.ClientsConnected, 1)
	active := atomic.AddInt64(&c.reloadMetrics.ActiveClients, 1)

	for {
		max := atomic.LoadInt64(&c.reloadMetrics.MaxConcurrentClients)
		if active <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.reloadMetrics.MaxConcurrentClients, max, active) {
			break
		}
	}
}

// IncrementClientDisconnected records a dev client going away
func (c *Collector) IncrementClientDisconnected() {
	atomic.AddInt64(&c.reloadMetrics.ClientsDisconnected, 1)
	atomic.AddInt64(&c.reloadMetrics.ActiveClients, -1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.customCounters[name]; exists {
		atomic.AddInt64(counter, 1)
		return
	}
	var counter int64 = 1
	c.customCounters[name] = &counter
}

// GetMetrics returns a copy of the current metrics
func (c *Collector) GetMetrics() ReloadMetrics {
	c.mu.RLock()
	start := c.startTime
	c.mu.RUnlock()

	m := c.reloadMetrics
	return ReloadMetrics{
		Attempts:             atomic.LoadInt64(&m.Attempts),
		HotReloads:           atomic.LoadInt64(&m.HotReloads),
		FullRebuilds:         atomic.LoadInt64(&m.FullRebuilds),
		ParseErrors:          atomic.LoadInt64(&m.ParseErrors),
		TemplatesSent:        atomic.LoadInt64(&m.TemplatesSent),
		ClientsConnected:     atomic.LoadInt64(&m.ClientsConnected),
		ClientsDisconnected:  atomic.LoadInt64(&m.ClientsDisconnected),
		ActiveClients:        atomic.LoadInt64(&m.ActiveClients),
		MaxConcurrentClients: atomic.LoadInt64(&m.MaxConcurrentClients),
		StartTime:            start,
		Uptime:               time.Since(start),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64, len(c.customCounters))
	for name, counter := range c.customCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.reloadMetrics
	for _, v := range []*int64{
		&m.Attempts, &m.HotReloads, &m.FullRebuilds, &m.ParseErrors, &m.TemplatesSent,
		&m.ClientsConnected, &m.ClientsDisconnected, &m.ActiveClients, &m.MaxConcurrentClients,
	} {
		atomic.StoreInt64(v, 0)
	}

	c.customCounters = make(map[string]*int64)
	c.startTime = time.Now()
}

// SuccessRate returns the share of attempts that hot reloaded, in percent
func (c *Collector) SuccessRate() float64 {
	attempts := atomic.LoadInt64(&c.reloadMetrics.Attempts)
	if attempts == 0 {
		return 100.0 // nothing attempted yet
	}
	reloads := atomic.LoadInt64(&c.reloadMetrics.HotReloads)
	return float64(reloads) / float64(attempts) * 100.0
}
