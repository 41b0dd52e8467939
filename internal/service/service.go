package service

import (
	"context"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/chrono"
	"apkfetch/internal/components/telemetry"
	"apkfetch/internal/scrapers/storefront"
	"apkfetch/internal/store"
)

// PublicPageAPI is the public storefront page, it is implemented by
// storefront.Client.
//
// note: fault injection point
type PublicPageAPI interface {
	Page(ctx context.Context, packageName string) (storefront.Page, error)
	PageUrl(packageName string) string
}

// ListingAPI is the authenticated listing and download api, it is
// implemented by *playapi.Session.
//
// note: fault injection point
type ListingAPI interface {
	Details(ctx context.Context, packageName string) (map[string]any, error)
	Download(ctx context.Context, packageName string, versionCode int64) ([]byte, error)
}

// StoreAPI persists ingested metadata, it is implemented by store.Store.
//
// note: fault injection point
type StoreAPI interface {
	InsertCompany(ctx context.Context, company store.Company) (int64, error)
	InsertApp(ctx context.Context, app store.App) (int64, error)
	InsertAppRelease(ctx context.Context, release store.AppRelease) (int64, error)
	InsertCategories(ctx context.Context, appId int64, names []string) error
}

const (
	report_aggregate_listing = "aggregator.listing"
	report_aggregate_public  = "aggregator.public-page"
	report_download_apk      = "downloader.get-apk"
	report_download_write    = "downloader.write-apk"
	report_ingest_package    = "ingester.ingest"
	report_ingest_succeeded  = "ingester.succeeded"
	report_ingest_failed     = "ingester.failed"
)

type coreAPIs struct {
	clock chrono.API
	tel   telemetry.API
}

// NewCoreAPIs initializes a collection of common APIs all services need to run.
func NewCoreAPIs(options ...CoreAPIsOption) coreAPIs {
	cfg := coreAPIsConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	apis := coreAPIs{
		clock: chrono.NewStandardImpl(),
		tel:   telemetry.SlogAPI{},
	}
	if cfg.clock != nil {
		apis.clock = cfg.clock
	}
	if cfg.tel != nil {
		apis.tel = cfg.tel
	}

	apis.tel = telemetry.NewScopedAPI("service", apis.tel)
	assert.NotNil(apis.clock)
	return apis
}

type coreAPIsConfig struct {
	clock chrono.API
	tel   telemetry.API
}

type CoreAPIsOption func(cfg *coreAPIsConfig)

func WithCustomClock(clock chrono.API) CoreAPIsOption {
	return func(cfg *coreAPIsConfig) {
		cfg.clock = clock
	}
}

func WithCustomTelemetryAPI(tel telemetry.API) CoreAPIsOption {
	return func(cfg *coreAPIsConfig) {
		cfg.tel = tel
	}
}
