package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"apkfetch/internal/components/assert"
)

// ErrOutputDirMissing means the requested output directory does not exist,
// it is never created on the caller's behalf.
var ErrOutputDirMissing = errors.New("output directory does not exist")

type DownloadOptions struct {
	// 0 downloads the latest version
	VersionCode int64
	// defaults to the working directory
	OutDir string
}

type Download struct {
	Package       string
	VersionCode   int64
	VersionString string
	Path          string
	Size          int
}

// ApkFilename returns the name an apk is saved under, ex. `com.example.app-42.apk`.
func ApkFilename(packageName string, versionCode int64) string {
	return fmt.Sprintf("%s-%d.apk", packageName, versionCode)
}

func checkOutDir(outDir string) error {
	if outDir == "" {
		return nil
	}
	info, err := os.Stat(outDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrOutputDirMissing, outDir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputDirMissing, outDir)
	}
	return nil
}

// Downloader fetches apks through the authenticated api and writes them to disk.
type Downloader struct {
	coreAPIs
	listing ListingAPI
}

func NewDownloader(core coreAPIs, listing ListingAPI) Downloader {
	assert.NotNil(listing)
	return Downloader{
		coreAPIs: core,
		listing:  listing,
	}
}

// GetApk downloads a package, resolving the latest version from its
// listing when opts.VersionCode is 0.
func (d Downloader) GetApk(ctx context.Context, packageName string, opts DownloadOptions) (Download, error) {
	err := checkOutDir(opts.OutDir)
	if err != nil {
		return Download{}, err
	}

	if opts.VersionCode != 0 {
		return d.fetch(ctx, packageName, opts.VersionCode, "", opts.OutDir)
	}

	fields, err := d.listing.Details(ctx, packageName)
	if err != nil {
		d.tel.ReportBroken(report_download_apk, fmt.Errorf("details: %w", err), packageName)
		return Download{}, fmt.Errorf("get listing for %s: %w", packageName, err)
	}
	return d.fromListing(ctx, Listing{Package: packageName, Fields: fields}, opts.OutDir)
}

// GetApkFromMetadata downloads the latest version named by already
// aggregated metadata.
func (d Downloader) GetApkFromMetadata(ctx context.Context, metadata Metadata, outDir string) (Download, error) {
	err := checkOutDir(outDir)
	if err != nil {
		return Download{}, err
	}
	return d.fromListing(ctx, metadata.Listing, outDir)
}

func (d Downloader) fromListing(ctx context.Context, listing Listing, outDir string) (Download, error) {
	versionCode, err := listing.VersionCode()
	if err != nil {
		d.tel.ReportBroken(report_download_apk, err)
		return Download{}, err
	}
	versionString, err := listing.VersionString()
	if err != nil {
		d.tel.ReportBroken(report_download_apk, err)
		return Download{}, err
	}
	return d.fetch(ctx, listing.Package, versionCode, versionString, outDir)
}

func (d Downloader) fetch(ctx context.Context, packageName string, versionCode int64, versionString, outDir string) (Download, error) {
	d.tel.ReportDebug("downloading apk", packageName, versionCode, versionString)

	data, err := d.listing.Download(ctx, packageName, versionCode)
	if err != nil {
		d.tel.ReportBroken(report_download_apk, err, packageName, versionCode)
		return Download{}, fmt.Errorf("download %s (%d): %w", packageName, versionCode, err)
	}

	path := filepath.Join(outDir, ApkFilename(packageName, versionCode))
	err = os.WriteFile(path, data, 0644)
	if err != nil {
		d.tel.ReportBroken(report_download_write, err, path)
		return Download{}, fmt.Errorf("write %s: %w", path, err)
	}

	d.tel.ReportDebug("wrote apk", path, len(data))
	return Download{
		Package:       packageName,
		VersionCode:   versionCode,
		VersionString: versionString,
		Path:          path,
		Size:          len(data),
	}, nil
}
