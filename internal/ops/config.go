package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gareth0712/hyperliquid-client/internal/recorder"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/websocket"
)

const (
	defaultFeedURL         = "wss://api.hyperliquid.xyz/ws"
	defaultAccountsPerConn = 10
	defaultStaggerMs       = 1_000
	defaultHealthCheckMs   = 30_000
	defaultPingMs          = 30_000
	defaultQueueSize       = 1024
	defaultBackoffBaseMs   = 5_000
	defaultBackoffFactor   = 2.0
	defaultMaxAttempts     = 5
	defaultThrottleMs      = 5_000
	defaultDurationMs      = 60_000
	defaultMinMessages     = 1
	defaultStatsMs         = 60_000
	defaultStableAsset     = "USDC"
	defaultDataDir         = "data"
	defaultProfileAppName  = "hyperliquid-tracker"
)

// FileConfig mirrors the JSON config layout. Durations are integer
// milliseconds; negative pingMs or statsIntervalMs disable the timer.
type FileConfig struct {
	Feed       FeedConfig       `json:"feed"`
	Accounts   []string         `json:"accounts"`
	Mode       string           `json:"mode"`
	SingleShot SingleShotConfig `json:"singleShot"`
	Prices     PricesConfig     `json:"prices"`
	Store      StoreConfig      `json:"store"`
	Stats      StatsConfig      `json:"stats"`
	Profile    ProfileConfig    `json:"profile"`
}

type FeedConfig struct {
	URL             string          `json:"url"`
	Dex             string          `json:"dex"`
	AccountsPerConn int             `json:"accountsPerConn"`
	StaggerMs       int64           `json:"staggerMs"`
	HealthCheckMs   int64           `json:"healthCheckMs"`
	PingMs          int64           `json:"pingMs"`
	QueueSize       int             `json:"queueSize"`
	Reconnect       ReconnectConfig `json:"reconnect"`
}

type ReconnectConfig struct {
	BaseMs      int64   `json:"baseMs"`
	Factor      float64 `json:"factor"`
	MaxAttempts int     `json:"maxAttempts"`
	MaxDelayMs  int64   `json:"maxDelayMs"`
	Jitter      float64 `json:"jitter"`
}

type SingleShotConfig struct {
	DurationMs            int64 `json:"durationMs"`
	MinMessagesPerAccount int   `json:"minMessagesPerAccount"`
}

type PricesConfig struct {
	Subscribe  *bool             `json:"subscribe"`
	Stable     string            `json:"stable"`
	Aliases    map[string]string `json:"aliases"`
	ThrottleMs int64             `json:"throttleMs"`
}

type StoreConfig struct {
	Dir  string `json:"dir"`
	Mode string `json:"mode"`
}

type StatsConfig struct {
	IntervalMs  int64  `json:"intervalMs"`
	MetricsAddr string `json:"metricsAddr"`
}

type ProfileConfig struct {
	Enable        bool   `json:"enable"`
	ServerAddress string `json:"serverAddress"`
	AppName       string `json:"appName"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Feed       FeedSpec
	Accounts   []schema.Account
	Mode       schema.RunMode
	SingleShot SingleShotSpec
	Prices     PricesSpec
	Store      recorder.Config
	Stats      StatsSpec
	Profile    ProfileSpec
}

// FeedSpec is the resolved connection pool definition.
type FeedSpec struct {
	URL             string
	Dex             string
	AccountsPerConn int
	Stagger         time.Duration
	HealthCheck     time.Duration
	Ping            time.Duration
	QueueSize       int
	Backoff         websocket.Backoff
	MaxAttempts     int
}

type SingleShotSpec struct {
	Duration              time.Duration
	MinMessagesPerAccount int
}

type PricesSpec struct {
	Subscribe bool
	Stable    string
	Aliases   map[string]string
	Throttle  time.Duration
}

type StatsSpec struct {
	Interval    time.Duration
	MetricsAddr string
}

type ProfileSpec struct {
	Enable        bool
	ServerAddress string
	AppName       string
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve fills defaults and validates a parsed config.
func Resolve(cfg FileConfig) (Loaded, error) {
	feed, err := resolveFeed(cfg.Feed)
	if err != nil {
		return Loaded{}, err
	}
	accounts, err := resolveAccounts(cfg.Accounts)
	if err != nil {
		return Loaded{}, err
	}
	mode, err := parseRunMode(cfg.Mode)
	if err != nil {
		return Loaded{}, err
	}
	singleShot, err := resolveSingleShot(cfg.SingleShot)
	if err != nil {
		return Loaded{}, err
	}
	prices, err := resolvePrices(cfg.Prices)
	if err != nil {
		return Loaded{}, err
	}
	store, err := resolveStore(cfg.Store)
	if err != nil {
		return Loaded{}, err
	}
	stats := resolveStats(cfg.Stats)

	profile := cfg.Profile
	if profile.Enable && profile.AppName == "" {
		profile.AppName = defaultProfileAppName
	}

	return Loaded{
		Feed:       feed,
		Accounts:   accounts,
		Mode:       mode,
		SingleShot: singleShot,
		Prices:     prices,
		Store:      store,
		Stats:      stats,
		Profile: ProfileSpec{
			Enable:        profile.Enable,
			ServerAddress: profile.ServerAddress,
			AppName:       profile.AppName,
		},
	}, nil
}

func resolveFeed(cfg FeedConfig) (FeedSpec, error) {
	if cfg.URL == "" {
		cfg.URL = defaultFeedURL
	}
	if cfg.AccountsPerConn == 0 {
		cfg.AccountsPerConn = defaultAccountsPerConn
	}
	if cfg.AccountsPerConn < 1 {
		return FeedSpec{}, fmt.Errorf("feed accountsPerConn must be >= 1")
	}
	stagger, err := resolveMs("feed staggerMs", cfg.StaggerMs, defaultStaggerMs)
	if err != nil {
		return FeedSpec{}, err
	}
	healthCheck, err := resolveMs("feed healthCheckMs", cfg.HealthCheckMs, defaultHealthCheckMs)
	if err != nil {
		return FeedSpec{}, err
	}
	ping := ms(cfg.PingMs)
	if cfg.PingMs == 0 {
		ping = ms(defaultPingMs)
	}
	if cfg.PingMs < 0 {
		ping = 0
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.QueueSize < 1 {
		return FeedSpec{}, fmt.Errorf("feed queueSize must be >= 1")
	}

	rc := cfg.Reconnect
	base, err := resolveMs("reconnect baseMs", rc.BaseMs, defaultBackoffBaseMs)
	if err != nil {
		return FeedSpec{}, err
	}
	if rc.Factor == 0 {
		rc.Factor = defaultBackoffFactor
	}
	if rc.Factor < 1 {
		return FeedSpec{}, fmt.Errorf("reconnect factor must be >= 1")
	}
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = defaultMaxAttempts
	}
	if rc.MaxAttempts < 1 {
		return FeedSpec{}, fmt.Errorf("reconnect maxAttempts must be >= 1")
	}
	if rc.MaxDelayMs < 0 {
		return FeedSpec{}, fmt.Errorf("reconnect maxDelayMs must be >= 0")
	}
	if rc.Jitter < 0 || rc.Jitter > 1 {
		return FeedSpec{}, fmt.Errorf("reconnect jitter must be within [0, 1]")
	}

	return FeedSpec{
		URL:             cfg.URL,
		Dex:             cfg.Dex,
		AccountsPerConn: cfg.AccountsPerConn,
		Stagger:         stagger,
		HealthCheck:     healthCheck,
		Ping:            ping,
		QueueSize:       cfg.QueueSize,
		Backoff: websocket.Backoff{
			Base:   base,
			Max:    ms(rc.MaxDelayMs),
			Factor: rc.Factor,
			Jitter: rc.Jitter,
		},
		MaxAttempts: rc.MaxAttempts,
	}, nil
}

// resolveAccounts trims entries and drops case-insensitive duplicates,
// keeping the first occurrence so partition order follows the config.
func resolveAccounts(raw []string) ([]schema.Account, error) {
	accounts := make([]schema.Account, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, entry := range raw {
		account := schema.NewAccount(entry)
		if account.ID == "" {
			return nil, fmt.Errorf("accounts[%d] is empty", i)
		}
		if _, ok := seen[account.Key()]; ok {
			continue
		}
		seen[account.Key()] = struct{}{}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func parseRunMode(s string) (schema.RunMode, error) {
	switch s {
	case "", "continuous":
		return schema.RunModeContinuous, nil
	case "singleShot", "single-shot":
		return schema.RunModeSingleShot, nil
	default:
		return 0, fmt.Errorf("unknown mode: %s", s)
	}
}

func parsePersistMode(s string) (schema.PersistMode, error) {
	switch s {
	case "", "historical":
		return schema.PersistHistorical, nil
	case "raw":
		return schema.PersistRawAll, nil
	case "rawFiltered", "raw-filtered":
		return schema.PersistRawFiltered, nil
	default:
		return 0, fmt.Errorf("unknown store mode: %s", s)
	}
}

func resolveSingleShot(cfg SingleShotConfig) (SingleShotSpec, error) {
	duration, err := resolveMs("singleShot durationMs", cfg.DurationMs, defaultDurationMs)
	if err != nil {
		return SingleShotSpec{}, err
	}
	if cfg.MinMessagesPerAccount == 0 {
		cfg.MinMessagesPerAccount = defaultMinMessages
	}
	if cfg.MinMessagesPerAccount < 1 {
		return SingleShotSpec{}, fmt.Errorf("singleShot minMessagesPerAccount must be >= 1")
	}
	return SingleShotSpec{
		Duration:              duration,
		MinMessagesPerAccount: cfg.MinMessagesPerAccount,
	}, nil
}

func resolvePrices(cfg PricesConfig) (PricesSpec, error) {
	subscribe := true
	if cfg.Subscribe != nil {
		subscribe = *cfg.Subscribe
	}
	if cfg.Stable == "" {
		cfg.Stable = defaultStableAsset
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{"USOL": "SOL"}
	}
	throttle, err := resolveMs("prices throttleMs", cfg.ThrottleMs, defaultThrottleMs)
	if err != nil {
		return PricesSpec{}, err
	}
	return PricesSpec{
		Subscribe: subscribe,
		Stable:    cfg.Stable,
		Aliases:   cfg.Aliases,
		Throttle:  throttle,
	}, nil
}

func resolveStore(cfg StoreConfig) (recorder.Config, error) {
	mode, err := parsePersistMode(cfg.Mode)
	if err != nil {
		return recorder.Config{}, err
	}
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDataDir
	}
	store := recorder.Config{Dir: dir, Mode: mode}
	if err := store.Validate(); err != nil {
		return recorder.Config{}, err
	}
	return store, nil
}

func resolveStats(cfg StatsConfig) StatsSpec {
	interval := ms(cfg.IntervalMs)
	if cfg.IntervalMs == 0 {
		interval = ms(defaultStatsMs)
	}
	if cfg.IntervalMs < 0 {
		interval = 0
	}
	return StatsSpec{
		Interval:    interval,
		MetricsAddr: cfg.MetricsAddr,
	}
}

func resolveMs(name string, v, fallback int64) (time.Duration, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0", name)
	}
	if v == 0 {
		v = fallback
	}
	return ms(v), nil
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
