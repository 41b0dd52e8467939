package service

import (
	"context"
	"errors"
	"fmt"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/chrono"
	"apkfetch/internal/store"
)

type IngestOptions struct {
	// Download also fetches the latest apk and records when it was downloaded.
	Download bool
	OutDir   string
}

type IngestResult struct {
	Package     string
	CompanyId   int64
	AppId       int64
	ReleaseId   int64
	VersionCode int64
	Categories  []string
	// nil unless IngestOptions.Download is set
	Download *Download
}

// Ingester scrapes a package and persists its company, app, release and
// categories.
type Ingester struct {
	coreAPIs
	aggregator Aggregator
	downloader Downloader
	public     PublicPageAPI
	store      StoreAPI
}

func NewIngester(core coreAPIs, listing ListingAPI, public PublicPageAPI, store StoreAPI) Ingester {
	assert.NotNil(store)
	return Ingester{
		coreAPIs:   core,
		aggregator: NewAggregator(core, listing, public),
		downloader: NewDownloader(core, listing),
		public:     public,
		store:      store,
	}
}

func (i Ingester) company(metadata Metadata) (store.Company, error) {
	name := metadata.Public.DevName
	if name == "" {
		creator, err := metadata.Listing.Creator()
		if err != nil {
			return store.Company{}, err
		}
		name = creator
	}

	company := store.Company{Name: name}
	if metadata.Public.DevId != "" {
		devId := metadata.Public.DevId
		company.GoogleDevId = &devId
	}
	return company, nil
}

func (i Ingester) Ingest(ctx context.Context, packageName string, opts IngestOptions) (IngestResult, error) {
	if opts.Download {
		err := checkOutDir(opts.OutDir)
		if err != nil {
			return IngestResult{}, err
		}
	}

	metadata, err := i.aggregator.GetMetadata(ctx, packageName)
	if err != nil {
		return IngestResult{}, err
	}
	result := IngestResult{Package: packageName}

	// nothing is written until the listing is known to yield a release
	result.VersionCode, err = metadata.Listing.VersionCode()
	if err != nil {
		return IngestResult{}, err
	}
	versionString, err := metadata.Listing.VersionString()
	if err != nil {
		return IngestResult{}, err
	}

	var downloadedAt *int64
	if opts.Download {
		download, err := i.downloader.GetApkFromMetadata(ctx, metadata, opts.OutDir)
		if err != nil {
			return IngestResult{}, err
		}
		ts := chrono.UnixSeconds(i.clock)
		downloadedAt = &ts
		result.Download = &download
	}

	company, err := i.company(metadata)
	if err != nil {
		return IngestResult{}, err
	}
	result.CompanyId, err = i.store.InsertCompany(ctx, company)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert company: %w", err)
	}

	now := chrono.UnixSeconds(i.clock)
	productUrl := i.public.PageUrl(packageName)
	result.AppId, err = i.store.InsertApp(ctx, store.App{
		DevCompanyId: result.CompanyId,
		PackageName:  packageName,
		CommonName:   metadata.Public.Name,
		ProductUrl:   &productUrl,
		LastChecked:  &now,
	})
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert app: %w", err)
	}

	hasIap := metadata.Public.HasInAppPurchases
	hasAds := metadata.Public.HasAds
	result.ReleaseId, err = i.store.InsertAppRelease(ctx, store.AppRelease{
		AppId:             result.AppId,
		VersionCode:       result.VersionCode,
		VersionString:     versionString,
		TimestampPublish:  metadata.Public.PublishTimestamp,
		TimestampDownload: downloadedAt,
		HasInAppPurchases: &hasIap,
		HasAds:            &hasAds,
	})
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert app release: %w", err)
	}

	err = i.store.InsertCategories(ctx, result.AppId, metadata.Public.Categories)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert categories: %w", err)
	}
	result.Categories = metadata.Public.Categories

	i.tel.ReportDebug("ingested package", packageName, result.AppId, result.VersionCode)
	return result, nil
}

// IngestAll ingests every package in order. A failing package is reported
// and skipped, the failures are joined into the returned error.
func (i Ingester) IngestAll(ctx context.Context, packages []string, opts IngestOptions) ([]IngestResult, error) {
	var results []IngestResult
	var errs []error
	failed := 0
	for _, packageName := range packages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := i.Ingest(ctx, packageName, opts)
		if err != nil {
			i.tel.ReportBroken(report_ingest_package, err, packageName)
			errs = append(errs, fmt.Errorf("%s: %w", packageName, err))
			failed++
			continue
		}
		results = append(results, result)
	}

	i.tel.ReportCount(report_ingest_succeeded, int64(len(results)))
	i.tel.ReportCount(report_ingest_failed, int64(failed))
	return results, errors.Join(errs...)
}
