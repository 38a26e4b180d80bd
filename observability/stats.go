// Package observability aggregates the realtime layer's self-metrics:
// connection counters fed by the socket boundary, plus process stats
// sampled from the OS. The latest snapshot is served as JSON and logged
// periodically by the monitor worker.
package observability

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	goruntime "runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"lexchat/contract"
)

// Stats is one aggregated snapshot.
type Stats struct {
	SessionsOnline    int       `json:"sessions_online"`
	ConnectionsOpened uint64    `json:"connections_opened"`
	ConnectionsClosed uint64    `json:"connections_closed"`
	AuthRejections    uint64    `json:"auth_rejections"`
	EventsReceived    uint64    `json:"events_received"`
	Goroutines        int       `json:"goroutines"`
	RSSMb             uint64    `json:"rss_mb"`
	CPUPercent        float64   `json:"cpu_percent"`
	CollectedAt       time.Time `json:"collected_at"`
}

// Collector owns the counters and the latest snapshot. Counter methods are
// safe to call from any goroutine.
type Collector struct {
	log      *slog.Logger
	registry contract.IRegistry
	proc     *process.Process

	connectionsOpened uint64
	connectionsClosed uint64
	authRejections    uint64
	eventsReceived    uint64

	mu     sync.RWMutex
	latest Stats
}

func NewCollector(log *slog.Logger, registry contract.IRegistry) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{log: log, registry: registry, proc: proc}, nil
}

func (c *Collector) ConnOpened()    { atomic.AddUint64(&c.connectionsOpened, 1) }
func (c *Collector) ConnClosed()    { atomic.AddUint64(&c.connectionsClosed, 1) }
func (c *Collector) AuthRejected()  { atomic.AddUint64(&c.authRejections, 1) }
func (c *Collector) EventReceived() { atomic.AddUint64(&c.eventsReceived, 1) }

// Refresh recomputes the snapshot from the counters, the session registry
// and the OS, stores it as the latest and returns it.
func (c *Collector) Refresh() (Stats, error) {
	memInfo, err := c.proc.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	cpuPercent, err := c.proc.CPUPercent()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		SessionsOnline:    len(c.registry.All()),
		ConnectionsOpened: atomic.LoadUint64(&c.connectionsOpened),
		ConnectionsClosed: atomic.LoadUint64(&c.connectionsClosed),
		AuthRejections:    atomic.LoadUint64(&c.authRejections),
		EventsReceived:    atomic.LoadUint64(&c.eventsReceived),
		Goroutines:        goruntime.NumGoroutine(),
		RSSMb:             memInfo.RSS / 1024 / 1024,
		CPUPercent:        cpuPercent,
		CollectedAt:       time.Now().UTC(),
	}

	c.mu.Lock()
	c.latest = stats
	c.mu.Unlock()
	return stats, nil
}

func (c *Collector) Latest() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// ServeHTTP exposes a fresh snapshot as JSON, for dashboards and manual
// curl checks.
func (c *Collector) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	stats, err := c.Refresh()
	if err != nil {
		c.log.Error("stats collection failed", "error", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		c.log.Warn("stats encoding failed", "error", err)
	}
}
