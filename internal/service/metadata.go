package service

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/scrapers/storefront"
)

// PublicMetaKey is the reserved key the public page is stored under in
// Metadata.AsMap.
const PublicMetaKey = "publicMeta"

var (
	pathVersionCode   = []string{"docV2", "details", "appDetails", "versionCode"}
	pathVersionString = []string{"docV2", "details", "appDetails", "versionString"}
	pathTitle         = []string{"docV2", "title"}
	pathCreator       = []string{"docV2", "creator"}
	pathDetailsUrl    = []string{"docV2", "detailsUrl"}
)

// MissingFieldError means the authenticated listing of a package did not
// contain an expected field (or it had the wrong type).
type MissingFieldError struct {
	Package string
	Path    []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: listing is missing '%s'", e.Package, strings.Join(e.Path, "."))
}

// Listing is the authenticated listing of a package.
type Listing struct {
	Package string
	Fields  map[string]any
}

// Lookup walks nested objects along path.
func (l Listing) Lookup(path ...string) (any, error) {
	var current any = l.Fields
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, &MissingFieldError{Package: l.Package, Path: path}
		}
		current, ok = obj[key]
		if !ok || current == nil {
			return nil, &MissingFieldError{Package: l.Package, Path: path}
		}
	}
	return current, nil
}

func (l Listing) lookupString(path []string) (string, error) {
	value, err := l.Lookup(path...)
	if err != nil {
		return "", err
	}
	str, ok := value.(string)
	if !ok {
		return "", &MissingFieldError{Package: l.Package, Path: path}
	}
	return str, nil
}

// VersionCode returns the latest version code. Numbers decoded from json
// arrive as float64, 64 bit integers may also be encoded as strings.
func (l Listing) VersionCode() (int64, error) {
	value, err := l.Lookup(pathVersionCode...)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return parsed, nil
		}
	}
	return 0, &MissingFieldError{Package: l.Package, Path: pathVersionCode}
}

func (l Listing) VersionString() (string, error) {
	return l.lookupString(pathVersionString)
}

func (l Listing) Title() (string, error) {
	return l.lookupString(pathTitle)
}

func (l Listing) Creator() (string, error) {
	return l.lookupString(pathCreator)
}

func (l Listing) DetailsUrl() (string, error) {
	return l.lookupString(pathDetailsUrl)
}

// Metadata is everything known about a package from both storefronts.
type Metadata struct {
	Package string
	Listing Listing
	Public  storefront.Page
}

// AsMap merges the authenticated listing with the public page, which is
// placed under PublicMetaKey.
func (m Metadata) AsMap() map[string]any {
	out := make(map[string]any, len(m.Listing.Fields)+1)
	maps.Copy(out, m.Listing.Fields)
	out[PublicMetaKey] = m.Public
	return out
}

// Aggregator combines the authenticated listing and the public page of a
// package.
type Aggregator struct {
	coreAPIs
	listing ListingAPI
	public  PublicPageAPI
}

func NewAggregator(core coreAPIs, listing ListingAPI, public PublicPageAPI) Aggregator {
	assert.NotNil(listing)
	assert.NotNil(public)
	return Aggregator{
		coreAPIs: core,
		listing:  listing,
		public:   public,
	}
}

func (a Aggregator) GetMetadata(ctx context.Context, packageName string) (Metadata, error) {
	fields, err := a.listing.Details(ctx, packageName)
	if err != nil {
		a.tel.ReportBroken(report_aggregate_listing, err, packageName)
		return Metadata{}, fmt.Errorf("get listing for %s: %w", packageName, err)
	}

	page, err := a.public.Page(ctx, packageName)
	if err != nil {
		a.tel.ReportBroken(report_aggregate_public, err, packageName)
		return Metadata{}, fmt.Errorf("get public page for %s: %w", packageName, err)
	}

	a.tel.ReportDebug("aggregated metadata", packageName, len(fields))
	return Metadata{
		Package: packageName,
		Listing: Listing{Package: packageName, Fields: fields},
		Public:  page,
	}, nil
}
