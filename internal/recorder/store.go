package recorder

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

// Store persists per-account records under one directory per calendar day.
// The in-memory copy of the current day's records is the source of truth:
// every append rewrites the whole file atomically, so a completed write is
// always a fully valid file and a failed write is carried by the next append.
// The store is owned by a single goroutine and is not safe for concurrent
// use; each account's files have exactly one logical writer.
type Store struct {
	cfg      Config
	date     string
	accounts map[string]*accountDay
}

type accountDay struct {
	rawLoaded        bool
	raw              [][]byte
	lowestLoaded     bool
	lowestEvents     []schema.LowestEvent
	historyLoaded    bool
	history          []schema.ValuationSnapshot
	lowestSnapLoaded bool
	lowestSnap       *schema.ValuationSnapshot
}

// New builds a store rooted at cfg.Dir. Date directories are created on
// first write.
func New(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		cfg:      cfg,
		accounts: make(map[string]*accountDay),
	}, nil
}

// Mode returns the configured persistence shape.
func (s *Store) Mode() schema.PersistMode {
	return s.cfg.Mode
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.cfg.Dir
}

// day returns the in-memory records for the account on the logical day of
// now, resetting everything when the day rolls over.
func (s *Store) day(account schema.Account, now time.Time) *accountDay {
	date := now.Format(dateLayout)
	if date != s.date {
		s.date = date
		s.accounts = make(map[string]*accountDay)
	}
	ad, ok := s.accounts[account.Key()]
	if !ok {
		ad = &accountDay{}
		s.accounts[account.Key()] = ad
	}
	return ad
}

// AppendRaw appends one raw message to the account's raw log. The payload is
// compacted to a single JSON line.
func (s *Store) AppendRaw(account schema.Account, payload []byte, now time.Time) error {
	ad := s.day(account, now)
	if err := s.loadRaw(account, ad); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return errors.Wrapf(exception.ErrPersistence, "compact raw message for %s: %v", account, err)
	}
	ad.raw = append(ad.raw, buf.Bytes())
	if err := writeFileAtomic(s.rawPath(account), joinLines(ad.raw)); err != nil {
		return errors.Wrapf(exception.ErrPersistence, "write raw log for %s: %v", account, err)
	}
	return nil
}

// ReadRaw returns the account's raw log for the current day. The returned
// lines are owned by the store.
func (s *Store) ReadRaw(account schema.Account, now time.Time) ([][]byte, error) {
	ad := s.day(account, now)
	if err := s.loadRaw(account, ad); err != nil {
		return nil, err
	}
	return ad.raw, nil
}

// AppendLowestEvent appends one strictly-new low to the account's lowest log.
func (s *Store) AppendLowestEvent(account schema.Account, event schema.LowestEvent, now time.Time) error {
	ad := s.day(account, now)
	if err := s.loadLowestEvents(account, ad); err != nil {
		return err
	}
	ad.lowestEvents = append(ad.lowestEvents, event)

	lines := make([][]byte, 0, len(ad.lowestEvents))
	for i := range ad.lowestEvents {
		line, err := json.Marshal(ad.lowestEvents[i])
		if err != nil {
			return errors.Wrapf(exception.ErrPersistence, "encode lowest event for %s: %v", account, err)
		}
		lines = append(lines, line)
	}
	if err := writeFileAtomic(s.lowestLogPath(account), joinLines(lines)); err != nil {
		return errors.Wrapf(exception.ErrPersistence, "write lowest log for %s: %v", account, err)
	}
	return nil
}

// ReadLowestEvents returns the account's lowest log for the current day.
func (s *Store) ReadLowestEvents(account schema.Account, now time.Time) ([]schema.LowestEvent, error) {
	ad := s.day(account, now)
	if err := s.loadLowestEvents(account, ad); err != nil {
		return nil, err
	}
	return ad.lowestEvents, nil
}

// AppendSnapshot appends a valuation snapshot to the account's history log.
func (s *Store) AppendSnapshot(account schema.Account, snap schema.ValuationSnapshot, now time.Time) error {
	ad := s.day(account, now)
	if err := s.loadHistory(account, ad); err != nil {
		return err
	}
	ad.history = append(ad.history, snap)

	lines := make([][]byte, 0, len(ad.history))
	for i := range ad.history {
		line, err := json.Marshal(ad.history[i])
		if err != nil {
			return errors.Wrapf(exception.ErrPersistence, "encode snapshot for %s: %v", account, err)
		}
		lines = append(lines, line)
	}
	if err := writeFileAtomic(s.historyPath(account), joinLines(lines)); err != nil {
		return errors.Wrapf(exception.ErrPersistence, "write history log for %s: %v", account, err)
	}
	return nil
}

// ReadSnapshots returns the account's history log for the current day.
func (s *Store) ReadSnapshots(account schema.Account, now time.Time) ([]schema.ValuationSnapshot, error) {
	ad := s.day(account, now)
	if err := s.loadHistory(account, ad); err != nil {
		return nil, err
	}
	return ad.history, nil
}

// WriteLowestSnapshot replaces the account's single lowest-snapshot file.
func (s *Store) WriteLowestSnapshot(account schema.Account, snap schema.ValuationSnapshot, now time.Time) error {
	ad := s.day(account, now)
	ad.lowestSnap = &snap
	ad.lowestSnapLoaded = true

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrapf(exception.ErrPersistence, "encode lowest snapshot for %s: %v", account, err)
	}
	if err := writeFileAtomic(s.lowestSnapshotPath(account), data); err != nil {
		return errors.Wrapf(exception.ErrPersistence, "write lowest snapshot for %s: %v", account, err)
	}
	return nil
}

// ReadLowestSnapshot returns the account's lowest snapshot for the current
// day, or nil when none has been recorded.
func (s *Store) ReadLowestSnapshot(account schema.Account, now time.Time) (*schema.ValuationSnapshot, error) {
	ad := s.day(account, now)
	if !ad.lowestSnapLoaded {
		data, err := readFileIfExists(s.lowestSnapshotPath(account))
		if err != nil {
			return nil, errors.Wrapf(exception.ErrPersistence, "read lowest snapshot for %s: %v", account, err)
		}
		if data != nil {
			var snap schema.ValuationSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return nil, errors.Wrapf(exception.ErrPersistence, "decode lowest snapshot for %s: %v", account, err)
			}
			ad.lowestSnap = &snap
		}
		ad.lowestSnapLoaded = true
	}
	return ad.lowestSnap, nil
}

func (s *Store) loadRaw(account schema.Account, ad *accountDay) error {
	if ad.rawLoaded {
		return nil
	}
	lines, err := readLines(s.rawPath(account))
	if err != nil {
		return errors.Wrapf(exception.ErrPersistence, "read raw log for %s: %v", account, err)
	}
	ad.raw = lines
	ad.rawLoaded = true
	return nil
}

func (s *Store) loadLowestEvents(account schema.Account, ad *accountDay) error {
	if ad.lowestLoaded {
		return nil
	}
	lines, err := readLines(s.lowestLogPath(account))
	if err != nil {
		return errors.Wrapf(exception.ErrPersistence, "read lowest log for %s: %v", account, err)
	}
	events := make([]schema.LowestEvent, 0, len(lines))
	for _, line := range lines {
		var event schema.LowestEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return errors.Wrapf(exception.ErrPersistence, "decode lowest event for %s: %v", account, err)
		}
		events = append(events, event)
	}
	ad.lowestEvents = events
	ad.lowestLoaded = true
	return nil
}

func (s *Store) loadHistory(account schema.Account, ad *accountDay) error {
	if ad.historyLoaded {
		return nil
	}
	lines, err := readLines(s.historyPath(account))
	if err != nil {
		return errors.Wrapf(exception.ErrPersistence, "read history log for %s: %v", account, err)
	}
	snaps := make([]schema.ValuationSnapshot, 0, len(lines))
	for _, line := range lines {
		var snap schema.ValuationSnapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return errors.Wrapf(exception.ErrPersistence, "decode snapshot for %s: %v", account, err)
		}
		snaps = append(snaps, snap)
	}
	ad.history = snaps
	ad.historyLoaded = true
	return nil
}
