package tracker

import (
	"context"
	"strconv"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/gareth0712/hyperliquid-client/internal/bus"
	"github.com/gareth0712/hyperliquid-client/internal/codec"
	"github.com/gareth0712/hyperliquid-client/internal/feed"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

func (o *Orchestrator) handleEvent(ctx context.Context, e bus.Event) {
	if e.ConnID < 0 || e.ConnID >= len(o.conns) {
		logs.Debugf("skip event for unknown conn %d", e.ConnID)
		return
	}
	conn := o.conns[e.ConnID]

	switch e.Kind {
	case bus.EventOpened:
		if err := conn.ApplyOpened(e.Session, e.At); err != nil {
			logs.Debugf("conn %d opened ignored, reason: %v", e.ConnID, err)
			o.feed.CloseSession(e.Session)
			return
		}
		logs.Infof("conn %d connected", conn.ID())
		o.stats.SetActive(o.activeCount())
		if err := o.subscribe(conn); err != nil {
			logs.Errorf("conn %d subscribe, err: %+v", conn.ID(), err)
			o.feed.CloseSession(conn.Session())
			return
		}
		if err := conn.ApplySubscribing(e.Session); err == nil {
			logs.Debugf("conn %d subscriptions issued for %d accounts", conn.ID(), len(conn.Accounts()))
		}

	case bus.EventDialFailed:
		if err := conn.ApplyClosed(e.Session); err != nil {
			logs.Debugf("conn %d dial failure ignored, reason: %v", e.ConnID, err)
			return
		}
		logs.Warnf("conn %d dial failed, err: %+v", conn.ID(), e.Err)
		o.scheduleReconnect(ctx, conn, e.Err)

	case bus.EventClosed:
		if err := conn.ApplyClosed(e.Session); err != nil {
			logs.Debugf("conn %d close ignored, reason: %v", e.ConnID, err)
			return
		}
		o.stats.SetActive(o.activeCount())
		logs.Warnf("conn %d disconnected, reason: %v", conn.ID(), e.Err)
		o.scheduleReconnect(ctx, conn, e.Err)

	case bus.EventMessage:
		if err := conn.ApplyMessage(e.Session, e.At); err != nil {
			logs.Debugf("conn %d message ignored, reason: %v", e.ConnID, err)
			return
		}
		o.stats.RecordMessage(e.ConnID, e.At)
		o.handleMessage(conn, e)
	}
}

// subscribe issues one account-scoped subscription per assigned account plus
// a single shared price subscription for the connection.
func (o *Orchestrator) subscribe(conn *feed.Conn) error {
	session := conn.Session()
	for _, account := range conn.Accounts() {
		if err := o.feed.Send(session, codec.EncodeAccountSubscribe(account, o.cfg.Feed.Dex)); err != nil {
			return err
		}
	}
	if o.cfg.Prices.Subscribe {
		if err := o.feed.Send(session, codec.EncodePriceSubscribe(o.cfg.Feed.Dex)); err != nil {
			return err
		}
	}
	return nil
}

// scheduleReconnect applies the backoff policy after a transport loss. The
// connection stays disconnected in single-shot mode and once the attempt
// budget is spent.
func (o *Orchestrator) scheduleReconnect(ctx context.Context, conn *feed.Conn, cause error) {
	if o.cfg.Mode != schema.RunModeContinuous {
		return
	}
	attempt := conn.RecordAttempt()
	if attempt > o.cfg.Feed.MaxAttempts {
		conn.MarkExhausted()
		logs.Errorf("conn %d out of reconnect budget after %d attempts, last err: %+v",
			conn.ID(), o.cfg.Feed.MaxAttempts, cause)
		return
	}
	delay := o.cfg.Feed.Backoff.Next(attempt)
	session, err := conn.ApplyDialing()
	if err != nil {
		logs.Errorf("conn %d redial from state %s, err: %+v", conn.ID(), conn.State(), err)
		return
	}
	o.stats.RecordReconnect(conn.ID())
	logs.Infof("conn %d reconnecting in %s, attempt %d/%d", conn.ID(), delay, attempt, o.cfg.Feed.MaxAttempts)
	o.feed.Open(ctx, conn.ID(), session, delay)
}

// healthCheck scans the pool: live connections silent past twice the check
// interval are torn down, and exhausted ones get a fresh budget in
// continuous mode.
func (o *Orchestrator) healthCheck(ctx context.Context) {
	now := time.Now()
	silenceCap := 2 * o.cfg.Feed.HealthCheck
	for _, conn := range o.conns {
		if conn.Active() {
			silent := conn.SilentFor(now)
			if silent <= silenceCap {
				continue
			}
			logs.Warnf("conn %d unhealthy, silent for %s", conn.ID(), silent)
			session := conn.Session()
			conn.ForceDisconnect()
			o.feed.CloseSession(session)
			o.stats.SetActive(o.activeCount())
			o.scheduleReconnect(ctx, conn, errors.Wrapf(exception.ErrTransportClosed, "silent for %s", silent))
			continue
		}
		if conn.State() == feed.ConnStateDisconnected && conn.Exhausted() &&
			o.cfg.Mode == schema.RunModeContinuous {
			logs.Infof("conn %d re-evaluating after exhausted budget", conn.ID())
			conn.ResetBudget()
			o.dial(ctx, conn, 0)
		}
	}
}

func (o *Orchestrator) handleMessage(conn *feed.Conn, e bus.Event) {
	msg, err := codec.Decode(e.Payload)
	if err != nil {
		o.stats.RecordParseError()
		logs.Errorf("conn %d unmarshal message, err: %+v", conn.ID(), err)
		return
	}

	switch msg.Kind {
	case codec.KindAccountUpdate:
		o.handleAccountUpdate(conn, e, msg.AccountUpdate)
	case codec.KindPriceBroadcast:
		o.handlePriceBroadcast(e, msg.PriceBroadcast)
	case codec.KindSubscriptionReply:
		if msg.Reply != nil {
			logs.Debugf("conn %d subscription confirmed: %s %s",
				conn.ID(), msg.Reply.Subscription.Type, msg.Reply.Subscription.User)
		}
	case codec.KindPong:
		logs.Debugf("conn %d pong", conn.ID())
	default:
		logs.Debugf("conn %d skip channel %q", conn.ID(), msg.Channel)
	}
}

// handleAccountUpdate processes one update for an account assigned to conn.
// Updates for accounts the connection does not own are dropped so progress
// counts stay attributed to the connection that subscribed them.
func (o *Orchestrator) handleAccountUpdate(conn *feed.Conn, e bus.Event, update *schema.AccountUpdate) {
	account := schema.NewAccount(update.User)
	if !conn.Owns(update.User) {
		logs.Debugf("conn %d skip update for unassigned account %s", conn.ID(), account.ID)
		return
	}
	o.counts[account.Key()]++
	o.stats.RecordAccountUpdate()
	o.checkSingleShotProgress()

	if o.store.Mode().IsRaw() {
		o.persistRaw(account, e, update)
	}

	snap, err := o.engine.Snapshot(update, e.At)
	if err != nil {
		o.stats.RecordValuationError()
		logs.Errorf("valuate %s, err: %+v", account.ID, err)
		return
	}

	if o.store.Mode() == schema.PersistHistorical {
		if err := o.store.AppendSnapshot(account, snap, e.At); err != nil {
			o.stats.RecordPersistError()
			logs.Errorf("append snapshot for %s, err: %+v", account.ID, err)
		}
	}

	if value, perr := strconv.ParseFloat(snap.TotalAccountValue, 64); perr == nil {
		o.stats.RecordAccountValue(account.Key(), value)
	}

	tr := o.tracker(account)
	newLowest, newHighest, err := tr.Observe(snap)
	if err != nil {
		logs.Errorf("observe %s, err: %+v", account.ID, err)
		return
	}
	if newHighest {
		logs.Debugf("account %s new highest %s", account.ID, snap.TotalAccountValue)
	}
	if newLowest {
		o.persistLowest(account, snap, e.At)
	}
}

// persistRaw appends the inbound payload, field-filtered when configured.
func (o *Orchestrator) persistRaw(account schema.Account, e bus.Event, update *schema.AccountUpdate) {
	payload := e.Payload
	if o.store.Mode() == schema.PersistRawFiltered {
		filtered, err := codec.EncodeFilteredUpdate(update)
		if err != nil {
			o.stats.RecordPersistError()
			logs.Errorf("filter update for %s, err: %+v", account.ID, err)
			return
		}
		payload = filtered
	}
	if err := o.store.AppendRaw(account, payload, e.At); err != nil {
		o.stats.RecordPersistError()
		logs.Errorf("append raw for %s, err: %+v", account.ID, err)
	}
}

func (o *Orchestrator) persistLowest(account schema.Account, snap schema.ValuationSnapshot, at time.Time) {
	var err error
	if o.store.Mode().IsRaw() {
		err = o.store.AppendLowestEvent(account, schema.LowestEvent{
			User:              snap.User,
			TotalAccountValue: snap.TotalAccountValue,
			PriceSource:       snap.PriceSource,
			ServerTime:        snap.ServerTime,
			LocalTime:         snap.LocalTime,
		}, at)
	} else {
		err = o.store.WriteLowestSnapshot(account, snap, at)
	}
	if err != nil {
		o.stats.RecordPersistError()
		logs.Errorf("persist lowest for %s, err: %+v", account.ID, err)
		return
	}
	value, _ := strconv.ParseFloat(snap.TotalAccountValue, 64)
	o.stats.RecordLowest(account.Key(), value)
	logs.Infof("account %s new lowest %s, source: %s", account.ID, snap.TotalAccountValue, snap.PriceSource)
}

func (o *Orchestrator) handlePriceBroadcast(e bus.Event, broadcast *schema.PriceBroadcast) {
	if !o.gate.Allow(e.At) {
		o.stats.RecordPriceDiscarded()
		return
	}
	o.cache.Update(broadcast.Mids)
	o.stats.RecordPriceApplied()
	logs.Debugf("price cache updated with %d symbols", len(broadcast.Mids))
}

// checkSingleShotProgress flags completion once every configured account has
// received its minimum message count.
func (o *Orchestrator) checkSingleShotProgress() {
	if o.finished || o.cfg.Mode != schema.RunModeSingleShot || len(o.cfg.Accounts) == 0 {
		return
	}
	need := o.cfg.SingleShot.MinMessagesPerAccount
	for _, account := range o.cfg.Accounts {
		if o.counts[account.Key()] < need {
			return
		}
	}
	o.finished = true
}
