package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Redeem  RedeemConfig  `yaml:"redeem"`
	API     APIConfig     `yaml:"api"`
	Chain   ChainConfig   `yaml:"chain"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el loop de escaneo de arbitraje.
type ScannerConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	MinProfitPct    float64 `yaml:"min_profit_pct"` // margen mínimo (%) para reportar
	MinSizeUSDC     float64 `yaml:"min_size_usdc"`  // profundidad mínima ejecutable en USDC
	MaxMarkets      int     `yaml:"max_markets"`    // mercados a pedir a Gamma por ciclo
}

// RedeemConfig controla la redención on-chain de posiciones resueltas.
type RedeemConfig struct {
	DelaySeconds      int `yaml:"delay_seconds"`       // pausa base entre envíos
	MaxBackoffSeconds int `yaml:"max_backoff_seconds"` // tope del backoff tras fallos
}

// APIConfig contiene los base URLs de las APIs de Polymarket.
type APIConfig struct {
	DataBase  string `yaml:"data_base"`
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// ChainConfig contiene la conexión a Polygon.
type ChainConfig struct {
	RPCURL string `yaml:"rpc_url"`
}

// WalletConfig identifica la wallet cuyas posiciones se redimen.
// La clave privada nunca va en YAML: solo KARB_PRIVATE_KEY.
type WalletConfig struct {
	Address    string `yaml:"address"`
	PrivateKey string `yaml:"-"`
}

// StorageConfig controla dónde se persiste el audit trail.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// RedeemDelay devuelve la pausa base entre envíos de redención.
func (c *Config) RedeemDelay() time.Duration {
	return time.Duration(c.Redeem.DelaySeconds) * time.Second
}

// RedeemMaxBackoff devuelve el tope del backoff entre envíos fallidos.
func (c *Config) RedeemMaxBackoff() time.Duration {
	return time.Duration(c.Redeem.MaxBackoffSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	cfg.Wallet.PrivateKey = os.Getenv("KARB_PRIVATE_KEY")

	if v := os.Getenv("KARB_WALLET_ADDRESS"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := os.Getenv("KARB_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.MinProfitPct <= 0 {
		cfg.Scanner.MinProfitPct = 0.5
	}
	if cfg.Scanner.MinSizeUSDC <= 0 {
		cfg.Scanner.MinSizeUSDC = 10
	}
	if cfg.Scanner.MaxMarkets <= 0 {
		cfg.Scanner.MaxMarkets = 200
	}
	if cfg.Redeem.DelaySeconds <= 0 {
		cfg.Redeem.DelaySeconds = 1
	}
	if cfg.Redeem.MaxBackoffSeconds <= 0 {
		cfg.Redeem.MaxBackoffSeconds = 8
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "karb.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
