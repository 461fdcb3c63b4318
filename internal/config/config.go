package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	StockX    StockXConfig    `mapstructure:"stockx"`
	Alias     AliasConfig     `mapstructure:"alias"`
	Ebay      EbayConfig      `mapstructure:"ebay"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	AuthToken string `mapstructure:"auth_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	StockXSync  string `mapstructure:"stockx_sync"`
	AliasSync   string `mapstructure:"alias_sync"`
	AliasSales  string `mapstructure:"alias_sales"`
	EbaySold    string `mapstructure:"ebay_sold"`
	Metrics     string `mapstructure:"metrics"`
	Retention   string `mapstructure:"retention"`
	ViewRefresh string `mapstructure:"view_refresh"`
}

type StockXConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AliasConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EbayConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	MarketplaceID string `mapstructure:"marketplace_id"`
	Sandbox       bool   `mapstructure:"sandbox"`
}

// SyncConfig drives the provider ingestion loops. Product IDs are
// provider-native identifiers (StockX product UUIDs, Alias catalog IDs,
// eBay search queries keyed by SKU).
type SyncConfig struct {
	StockXProductIDs []string      `mapstructure:"stockx_product_ids"`
	AliasCatalogIDs  []string      `mapstructure:"alias_catalog_ids"`
	EbayQueries      []string      `mapstructure:"ebay_queries"`
	CurrencyCode     string        `mapstructure:"currency_code"`
	RegionCode       string        `mapstructure:"region_code"`
	ConsignedFilter  string        `mapstructure:"consigned_filter"`
	SleepPerItem     time.Duration `mapstructure:"sleep_per_item"`
	SalesPageLimit   int           `mapstructure:"sales_page_limit"`
}

type MetricsConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
	BatchSize    int `mapstructure:"batch_size"`
}

type RetentionConfig struct {
	SnapshotDays    int `mapstructure:"snapshot_days"`
	RawResponseDays int `mapstructure:"raw_response_days"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.stockx_sync", "@every 30m")
	v.SetDefault("cron.alias_sync", "@every 30m")
	v.SetDefault("cron.alias_sales", "@every 1h")
	v.SetDefault("cron.ebay_sold", "@every 6h")
	v.SetDefault("cron.metrics", "@every 6h")
	v.SetDefault("cron.retention", "@every 24h")
	v.SetDefault("cron.view_refresh", "@every 10m")
	v.SetDefault("stockx.base_url", "https://api.stockx.com")
	v.SetDefault("stockx.timeout", "15s")
	v.SetDefault("alias.base_url", "https://sell-api.goat.com")
	v.SetDefault("alias.timeout", "15s")
	v.SetDefault("ebay.marketplace_id", "EBAY_US")
	v.SetDefault("ebay.sandbox", false)
	v.SetDefault("sync.currency_code", "USD")
	v.SetDefault("sync.region_code", "")
	v.SetDefault("sync.consigned_filter", "both")
	v.SetDefault("sync.sleep_per_item", "250ms")
	v.SetDefault("sync.sales_page_limit", 200)
	v.SetDefault("metrics.lookback_days", 90)
	v.SetDefault("metrics.batch_size", 500)
	v.SetDefault("retention.snapshot_days", 30)
	v.SetDefault("retention.raw_response_days", 7)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
