/*
Tracker implements the account-value tracking orchestrator.

# Module
  - connection pool: partitions accounts across feed connections and drives
    each one through its lifecycle state machine
  - event loop: single goroutine consuming connection events plus the
    health-check, stats and single-shot deadline timers
  - valuation: prices account updates through the shared price cache
  - persistence: appends raw, historical and lowest-value records per
    account and calendar day, resuming from prior state at startup

# Source
 1. account updates and price broadcasts from the feed connections
 2. persisted records from earlier runs of the same day

# Produce
  - per-account JSONL logs and lowest-value files under the data directory
  - pool statistics on a fixed interval
*/
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"

	"github.com/gareth0712/hyperliquid-client/internal/bus"
	"github.com/gareth0712/hyperliquid-client/internal/feed"
	"github.com/gareth0712/hyperliquid-client/internal/obs"
	"github.com/gareth0712/hyperliquid-client/internal/ops"
	"github.com/gareth0712/hyperliquid-client/internal/pricecache"
	"github.com/gareth0712/hyperliquid-client/internal/recorder"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/internal/state"
	"github.com/gareth0712/hyperliquid-client/internal/valuation"
)

// transport is the slice of feed.Manager the loop drives.
type transport interface {
	Open(ctx context.Context, connID int, id uuid.UUID, delay time.Duration)
	Send(id uuid.UUID, payload any) error
	CloseSession(id uuid.UUID)
	Close()
}

// Orchestrator owns every connection, tracker and store. All mutable state
// is touched from the Run loop only.
type Orchestrator struct {
	cfg   ops.Loaded
	queue *bus.Queue
	feed  transport
	stats *obs.PoolStats

	store    *recorder.Store
	cache    *pricecache.Cache
	gate     *pricecache.Gate
	engine   *valuation.Engine
	conns    []*feed.Conn
	trackers map[string]*state.ValueTracker
	counts   map[string]int

	finished bool
}

// New wires the pool from a resolved config. metrics may be nil when the
// scrape listener is disabled.
func New(cfg ops.Loaded, metrics *obs.Metrics) (*Orchestrator, error) {
	store, err := recorder.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	groups := feed.Partition(cfg.Accounts, cfg.Feed.AccountsPerConn)
	conns := make([]*feed.Conn, len(groups))
	for i, group := range groups {
		conns[i] = feed.NewConn(i, group)
	}

	queue := bus.NewQueue(cfg.Feed.QueueSize)
	stats := obs.NewPoolStats(len(conns), metrics)
	cache := pricecache.New(cfg.Prices.Stable, cfg.Prices.Aliases)

	return &Orchestrator{
		cfg:      cfg,
		queue:    queue,
		feed:     feed.NewManager(cfg.Feed.URL, queue, stats, cfg.Feed.Ping),
		stats:    stats,
		store:    store,
		cache:    cache,
		gate:     pricecache.NewGate(cfg.Prices.Throttle),
		engine:   valuation.NewEngine(cache),
		conns:    conns,
		trackers: make(map[string]*state.ValueTracker),
		counts:   make(map[string]int),
	}, nil
}

// Run resumes persisted state, opens the pool and consumes events until the
// context ends or, in single-shot mode, until the duration cap elapses or
// every account reached its minimum message count. All exit paths close
// every connection and stop every timer before returning.
func (o *Orchestrator) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	o.resume()

	logs.Infof("starting %d connections for %d accounts, mode: %s, store: %s",
		len(o.conns), len(o.cfg.Accounts), o.cfg.Mode, o.store.Mode())
	for _, conn := range o.conns {
		o.dial(ctx, conn, time.Duration(conn.ID())*o.cfg.Feed.Stagger)
	}

	healthTicker := time.NewTicker(o.cfg.Feed.HealthCheck)
	defer healthTicker.Stop()

	var statsC <-chan time.Time
	if o.cfg.Stats.Interval > 0 {
		statsTicker := time.NewTicker(o.cfg.Stats.Interval)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}

	var deadlineC <-chan time.Time
	if o.cfg.Mode == schema.RunModeSingleShot {
		deadline := time.NewTimer(o.cfg.SingleShot.Duration)
		defer deadline.Stop()
		deadlineC = deadline.C
	}

	for {
		select {
		case <-ctx.Done():
			o.shutdown(cancel)
			return nil
		case e := <-o.queue.Events():
			o.handleEvent(ctx, e)
			if o.finished {
				logs.Infof("every account reached %d messages, shutting down",
					o.cfg.SingleShot.MinMessagesPerAccount)
				o.shutdown(cancel)
				return nil
			}
		case <-healthTicker.C:
			o.healthCheck(ctx)
		case <-statsC:
			o.logStats()
		case <-deadlineC:
			logs.Infof("run duration %s reached, shutting down", o.cfg.SingleShot.Duration)
			o.shutdown(cancel)
			return nil
		}
	}
}

// resume rebuilds lowest/highest trackers from the day's persisted files so
// comparisons continue from prior state instead of zero.
func (o *Orchestrator) resume() {
	recovered, err := state.Recover(o.store, o.cfg.Accounts, time.Now())
	if err != nil {
		logs.Errorf("resume persisted state, err: %+v", err)
		return
	}
	o.trackers = recovered.Trackers
	if recovered.SnapshotsRead > 0 || recovered.EventsRead > 0 {
		logs.Infof("resumed %d snapshots and %d lowest events for %d accounts",
			recovered.SnapshotsRead, recovered.EventsRead, len(recovered.Trackers))
	}
}

func (o *Orchestrator) dial(ctx context.Context, conn *feed.Conn, delay time.Duration) {
	session, err := conn.ApplyDialing()
	if err != nil {
		logs.Errorf("conn %d dial from state %s, err: %+v", conn.ID(), conn.State(), err)
		return
	}
	o.feed.Open(ctx, conn.ID(), session, delay)
}

// shutdown closes every connection and rejects further events. The cancel
// unblocks pump goroutines waiting on publishes or reconnect delays.
func (o *Orchestrator) shutdown(cancel context.CancelFunc) {
	cancel()
	o.queue.Close()
	o.feed.Close()
	for _, conn := range o.conns {
		conn.ForceDisconnect()
	}
	o.stats.SetActive(0)
	o.logStats()
	logs.Info("tracker stopped")
}

func (o *Orchestrator) activeCount() int {
	n := 0
	for _, conn := range o.conns {
		if conn.Active() {
			n++
		}
	}
	return n
}

func (o *Orchestrator) tracker(account schema.Account) *state.ValueTracker {
	if tr, ok := o.trackers[account.Key()]; ok {
		return tr
	}
	tr := state.NewValueTracker(account)
	o.trackers[account.Key()] = tr
	return tr
}

func (o *Orchestrator) logStats() {
	snap := o.stats.Snapshot()
	logs.Infof("stats: active=%v/%d messages=%v accountUpdates=%v pricesApplied=%v pricesDiscarded=%v parseErr=%v valuationErr=%v persistErr=%v lowest=%v drops=%v",
		snap["active"], len(o.conns), snap["totalMessages"], snap["accountUpdates"],
		snap["pricesApplied"], snap["pricesDiscarded"], snap["parseErrors"],
		snap["valuationErrors"], snap["persistErrors"], snap["lowestUpdates"], snap["queueDrops"])
}
