package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

func TestResolveDefaults(t *testing.T) {
	loaded, err := Resolve(FileConfig{Accounts: []string{"0xAbC"}})
	require.NoError(t, err)

	require.Equal(t, "wss://api.hyperliquid.xyz/ws", loaded.Feed.URL)
	require.Equal(t, 10, loaded.Feed.AccountsPerConn)
	require.Equal(t, time.Second, loaded.Feed.Stagger)
	require.Equal(t, 30*time.Second, loaded.Feed.HealthCheck)
	require.Equal(t, 30*time.Second, loaded.Feed.Ping)
	require.Equal(t, 1024, loaded.Feed.QueueSize)
	require.Equal(t, 5*time.Second, loaded.Feed.Backoff.Base)
	require.Equal(t, 2.0, loaded.Feed.Backoff.Factor)
	require.Equal(t, 5, loaded.Feed.MaxAttempts)

	require.Equal(t, schema.RunModeContinuous, loaded.Mode)
	require.Equal(t, time.Minute, loaded.SingleShot.Duration)
	require.Equal(t, 1, loaded.SingleShot.MinMessagesPerAccount)

	require.True(t, loaded.Prices.Subscribe)
	require.Equal(t, "USDC", loaded.Prices.Stable)
	require.Equal(t, map[string]string{"USOL": "SOL"}, loaded.Prices.Aliases)
	require.Equal(t, 5*time.Second, loaded.Prices.Throttle)

	require.Equal(t, "data", loaded.Store.Dir)
	require.Equal(t, schema.PersistHistorical, loaded.Store.Mode)
	require.Equal(t, time.Minute, loaded.Stats.Interval)

	require.Len(t, loaded.Accounts, 1)
	require.Equal(t, "0xAbC", loaded.Accounts[0].ID)
}

func TestResolveAccountsDedupe(t *testing.T) {
	loaded, err := Resolve(FileConfig{
		Accounts: []string{" 0xAbC ", "0xDEF", "0xabc"},
	})
	require.NoError(t, err)
	require.Len(t, loaded.Accounts, 2)
	require.Equal(t, "0xAbC", loaded.Accounts[0].ID)
	require.Equal(t, "0xDEF", loaded.Accounts[1].ID)
}

func TestResolveRejectsBadValues(t *testing.T) {
	testCases := []struct {
		desc string
		cfg  FileConfig
	}{
		{desc: "blank account", cfg: FileConfig{Accounts: []string{"  "}}},
		{desc: "unknown mode", cfg: FileConfig{Mode: "burst"}},
		{desc: "unknown store mode", cfg: FileConfig{Store: StoreConfig{Mode: "sqlite"}}},
		{desc: "negative accountsPerConn", cfg: FileConfig{Feed: FeedConfig{AccountsPerConn: -1}}},
		{desc: "negative stagger", cfg: FileConfig{Feed: FeedConfig{StaggerMs: -5}}},
		{desc: "factor below one", cfg: FileConfig{Feed: FeedConfig{Reconnect: ReconnectConfig{Factor: 0.5}}}},
		{desc: "negative maxAttempts", cfg: FileConfig{Feed: FeedConfig{Reconnect: ReconnectConfig{MaxAttempts: -2}}}},
		{desc: "jitter above one", cfg: FileConfig{Feed: FeedConfig{Reconnect: ReconnectConfig{Jitter: 1.5}}}},
		{desc: "negative minMessages", cfg: FileConfig{SingleShot: SingleShotConfig{MinMessagesPerAccount: -1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Resolve(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestResolveDisablesTimers(t *testing.T) {
	loaded, err := Resolve(FileConfig{
		Feed:  FeedConfig{PingMs: -1},
		Stats: StatsConfig{IntervalMs: -1},
	})
	require.NoError(t, err)
	require.Zero(t, loaded.Feed.Ping)
	require.Zero(t, loaded.Stats.Interval)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"feed": {
			"url": "ws://127.0.0.1:9001/ws",
			"accountsPerConn": 2,
			"staggerMs": 250,
			"reconnect": {"baseMs": 100, "maxAttempts": 3}
		},
		"accounts": ["0xA", "0xB", "0xC"],
		"mode": "singleShot",
		"singleShot": {"durationMs": 1500, "minMessagesPerAccount": 4},
		"prices": {"subscribe": false, "stable": "USDT", "aliases": {"UBTC": "BTC"}, "throttleMs": 2000},
		"store": {"dir": "out", "mode": "raw"},
		"stats": {"intervalMs": 10000, "metricsAddr": ":9100"},
		"profile": {"enable": true, "serverAddress": "http://127.0.0.1:4040"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ws://127.0.0.1:9001/ws", loaded.Feed.URL)
	require.Equal(t, 2, loaded.Feed.AccountsPerConn)
	require.Equal(t, 250*time.Millisecond, loaded.Feed.Stagger)
	require.Equal(t, 100*time.Millisecond, loaded.Feed.Backoff.Base)
	require.Equal(t, 3, loaded.Feed.MaxAttempts)

	require.Equal(t, schema.RunModeSingleShot, loaded.Mode)
	require.Equal(t, 1500*time.Millisecond, loaded.SingleShot.Duration)
	require.Equal(t, 4, loaded.SingleShot.MinMessagesPerAccount)

	require.False(t, loaded.Prices.Subscribe)
	require.Equal(t, "USDT", loaded.Prices.Stable)
	require.Equal(t, map[string]string{"UBTC": "BTC"}, loaded.Prices.Aliases)
	require.Equal(t, 2*time.Second, loaded.Prices.Throttle)

	require.Equal(t, "out", loaded.Store.Dir)
	require.Equal(t, schema.PersistRawAll, loaded.Store.Mode)
	require.Equal(t, 10*time.Second, loaded.Stats.Interval)
	require.Equal(t, ":9100", loaded.Stats.MetricsAddr)

	require.True(t, loaded.Profile.Enable)
	require.Equal(t, "hyperliquid-tracker", loaded.Profile.AppName)
	require.Len(t, loaded.Accounts, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
