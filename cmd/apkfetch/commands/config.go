package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"apkfetch/internal/components/chrono"
	"apkfetch/internal/db"
	"apkfetch/internal/scrapers/playapi"
	"apkfetch/internal/scrapers/storefront"
	"apkfetch/internal/store"
	"apkfetch/pkg/configutil"
	"apkfetch/pkg/restyutil"
)

type AccountConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceId string `json:"device_id"`
	// 0 means playapi.DefaultLoginPolicy
	MaxAttempts     uint `json:"max_attempts"`
	CooldownSeconds int  `json:"cooldown_seconds"`
}

func (c AccountConfig) Credentials() playapi.Credentials {
	return playapi.Credentials{
		Email:    c.Email,
		Password: c.Password,
		DeviceId: c.DeviceId,
	}
}

func (c AccountConfig) LoginPolicy() playapi.LoginPolicy {
	policy := playapi.DefaultLoginPolicy
	if c.MaxAttempts > 0 {
		policy.MaxAttempts = c.MaxAttempts
	}
	if c.CooldownSeconds > 0 {
		policy.Cooldown = time.Duration(c.CooldownSeconds) * time.Second
	}
	return policy
}

type GatewayConfig struct {
	BaseUrl string `json:"base_url"`
}

type StorefrontConfig struct {
	BaseUrl          string `json:"base_url"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type Config struct {
	Account    AccountConfig    `json:"account"`
	Gateway    GatewayConfig    `json:"gateway"`
	Storefront StorefrontConfig `json:"storefront"`
	Database   db.Config        `json:"database"`
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", *configPath, err)
	}
	return cfg, nil
}

func httpDump() (restyutil.InstrumentOutput, error) {
	if *dumpHttp == "" {
		return nil, nil
	}
	output, err := restyutil.NewFilesystemOutput(*dumpHttp)
	if err != nil {
		return nil, fmt.Errorf("create http dump directory: %w", err)
	}
	return output, nil
}

func newStorefront(cfg Config) (storefront.Client, error) {
	dump, err := httpDump()
	if err != nil {
		return storefront.Client{}, err
	}
	return storefront.NewClient(storefront.Options{
		BaseUrl:          cfg.Storefront.BaseUrl,
		CloudflareBypass: cfg.Storefront.CloudflareBypass,
		HttpDump:         dump,
	}, tel), nil
}

// newSession logs into the private api, it is the only session the
// process creates.
func newSession(ctx context.Context, cfg Config) (*playapi.Session, error) {
	if cfg.Gateway.BaseUrl == "" {
		return nil, fmt.Errorf("gateway.base_url must be set")
	}
	dump, err := httpDump()
	if err != nil {
		return nil, err
	}
	gateway := playapi.NewGatewayAPI(playapi.GatewayOptions{
		BaseUrl:  cfg.Gateway.BaseUrl,
		HttpDump: dump,
	}, tel)

	session := playapi.NewSession(gateway, tel)
	err = session.Initialize(ctx, cfg.Account.Credentials(), cfg.Account.LoginPolicy())
	if err != nil {
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	return session, nil
}

func openStore(ctx context.Context, cfg Config, createTables bool) (store.Store, *sql.DB, error) {
	conn, dialect, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return store.Store{}, nil, err
	}
	if createTables {
		err = db.EnsureSchema(ctx, conn, dialect)
		if err != nil {
			conn.Close()
			return store.Store{}, nil, fmt.Errorf("create tables: %w", err)
		}
	}
	return store.NewStore(conn, dialect, chrono.NewStandardImpl(), tel), conn, nil
}
