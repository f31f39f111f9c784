package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/karbbot/karb/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"KARB_PRIVATE_KEY", "KARB_WALLET_ADDRESS", "KARB_RPC_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

// --- tests ---

func TestLoad_YAMLValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
scanner:
  interval_seconds: 15
  min_profit_pct: 1.5
  max_markets: 50
redeem:
  delay_seconds: 2
  max_backoff_seconds: 16
wallet:
  address: "0xfromyaml"
log:
  format: json
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.ScanInterval())
	assert.Equal(t, 1.5, cfg.Scanner.MinProfitPct)
	assert.Equal(t, 50, cfg.Scanner.MaxMarkets)
	assert.Equal(t, 2*time.Second, cfg.RedeemDelay())
	assert.Equal(t, 16*time.Second, cfg.RedeemMaxBackoff())
	assert.Equal(t, "0xfromyaml", cfg.Wallet.Address)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "{}\n")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.ScanInterval())
	assert.Equal(t, 0.5, cfg.Scanner.MinProfitPct)
	assert.Equal(t, 10.0, cfg.Scanner.MinSizeUSDC)
	assert.Equal(t, 200, cfg.Scanner.MaxMarkets)
	assert.Equal(t, time.Second, cfg.RedeemDelay())
	assert.Equal(t, 8*time.Second, cfg.RedeemMaxBackoff())
	assert.Equal(t, "https://data-api.polymarket.com", cfg.API.DataBase)
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.API.GammaBase)
	assert.Equal(t, "https://polygon-rpc.com", cfg.Chain.RPCURL)
	assert.Equal(t, "karb.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Wallet.PrivateKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KARB_PRIVATE_KEY", "0xsecret")
	t.Setenv("KARB_WALLET_ADDRESS", "0xfromenv")
	t.Setenv("KARB_RPC_URL", "https://env-rpc.example")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, `
wallet:
  address: "0xfromyaml"
chain:
  rpc_url: "https://yaml-rpc.example"
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "0xsecret", cfg.Wallet.PrivateKey)
	assert.Equal(t, "0xfromenv", cfg.Wallet.Address, "el entorno gana al YAML")
	assert.Equal(t, "https://env-rpc.example", cfg.Chain.RPCURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_PrivateKeyNeverFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
wallet:
  address: "0xok"
  private_key: "0xleaked"
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Empty(t, cfg.Wallet.PrivateKey, "la clave privada solo entra por KARB_PRIVATE_KEY")
	assert.Equal(t, "0xok", cfg.Wallet.Address)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "scanner: [not a map\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}
