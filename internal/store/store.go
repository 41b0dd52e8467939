// Package store persists scraped app metadata, it reconciles companies,
// apps, releases and category mappings through natural-key upserts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/chrono"
	"apkfetch/internal/components/telemetry"
	"apkfetch/internal/db"
)

var ErrNotFound = errors.New("not found")

const (
	report_insert_company    = "insert-company"
	report_insert_app        = "insert-app"
	report_insert_release    = "insert-app-release"
	report_insert_categories = "insert-categories"
)

const defaultCompanyType = "dev"

type Company struct {
	// nil for companies that are only known by name
	GoogleDevId *string
	Name        string
	// defaults to "dev" when GoogleDevId is set
	Type *string
}

type App struct {
	DevCompanyId int64
	PackageName  string
	CommonName   string
	ProductUrl   *string
	// unix seconds, the current time is used when nil
	LastChecked *int64
}

type AppRelease struct {
	AppId             int64
	VersionCode       int64
	VersionString     string
	TimestampPublish  int64
	TimestampDownload *int64
	HasInAppPurchases *bool
	HasAds            *bool
	SocialNetworks    *string
	Tested            bool
}

type Store struct {
	qry   *db.Queries
	clock chrono.API
	tel   telemetry.API
}

func NewStore(conn db.DBTX, dialect db.Dialect, clock chrono.API, tel telemetry.API) Store {
	assert.NotNil(conn)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return Store{
		qry:   db.New(conn, dialect),
		clock: clock,
		tel:   tel,
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// InsertCompany upserts a company and returns its id. Companies with a
// developer id are keyed by it, the rest are keyed by name.
func (s Store) InsertCompany(ctx context.Context, company Company) (int64, error) {
	if company.GoogleDevId == nil {
		return s.insertNamedCompany(ctx, company)
	}

	companyType := company.Type
	if companyType == nil {
		t := defaultCompanyType
		companyType = &t
	}
	err := s.qry.UpsertCompany(ctx, db.UpsertCompanyParams{
		GoogleDevID: *company.GoogleDevId,
		CommonName:  company.Name,
		Type:        nullString(companyType),
	})
	if err != nil {
		s.tel.ReportBroken(report_insert_company, fmt.Errorf("upsert: %w", err), *company.GoogleDevId)
		return 0, err
	}

	id, err := s.qry.GetCompanyIdByDevId(ctx, *company.GoogleDevId)
	if err != nil {
		s.tel.ReportBroken(report_insert_company, fmt.Errorf("get id: %w", err), *company.GoogleDevId)
		return 0, notFound(err)
	}
	s.tel.ReportDebug("upserted company", id, company.Name)
	return id, nil
}

func (s Store) insertNamedCompany(ctx context.Context, company Company) (int64, error) {
	id, err := s.qry.GetCompanyIdByName(ctx, company.Name)
	if err == nil {
		if company.Type != nil {
			err = s.qry.UpdateCompanyType(ctx, db.UpdateCompanyTypeParams{
				ID:   id,
				Type: nullString(company.Type),
			})
			if err != nil {
				s.tel.ReportBroken(report_insert_company, fmt.Errorf("update type: %w", err), company.Name)
				return 0, err
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.tel.ReportBroken(report_insert_company, fmt.Errorf("get id by name: %w", err), company.Name)
		return 0, err
	}

	err = s.qry.CreateCompany(ctx, db.CreateCompanyParams{
		CommonName: company.Name,
		Type:       nullString(company.Type),
	})
	if err != nil {
		s.tel.ReportBroken(report_insert_company, fmt.Errorf("create: %w", err), company.Name)
		return 0, err
	}
	id, err = s.qry.GetCompanyIdByName(ctx, company.Name)
	if err != nil {
		s.tel.ReportBroken(report_insert_company, fmt.Errorf("get id by name: %w", err), company.Name)
		return 0, notFound(err)
	}
	s.tel.ReportDebug("created company", id, company.Name)
	return id, nil
}

// InsertApp upserts an app keyed by its package name and returns its id.
func (s Store) InsertApp(ctx context.Context, app App) (int64, error) {
	lastChecked := chrono.UnixSeconds(s.clock)
	if app.LastChecked != nil {
		lastChecked = *app.LastChecked
	}

	devCompany := sql.NullInt64{}
	if app.DevCompanyId != 0 {
		devCompany = sql.NullInt64{Int64: app.DevCompanyId, Valid: true}
	}

	err := s.qry.UpsertApp(ctx, db.UpsertAppParams{
		PackageName:          app.PackageName,
		CommonName:           app.CommonName,
		DevCompanyID:         devCompany,
		ProductUrl:           nullString(app.ProductUrl),
		TimestampLastChecked: lastChecked,
	})
	if err != nil {
		s.tel.ReportBroken(report_insert_app, fmt.Errorf("upsert: %w", err), app.PackageName)
		return 0, err
	}

	row, err := s.qry.GetApp(ctx, app.PackageName)
	if err != nil {
		s.tel.ReportBroken(report_insert_app, fmt.Errorf("get id: %w", err), app.PackageName)
		return 0, notFound(err)
	}
	s.tel.ReportDebug("upserted app", row.ID, app.PackageName)
	return row.ID, nil
}

// InsertAppRelease upserts a release keyed by (app, version code) and
// returns its id. A known download timestamp is kept when the new release
// does not carry one.
func (s Store) InsertAppRelease(ctx context.Context, release AppRelease) (int64, error) {
	err := s.qry.UpsertAppRelease(ctx, db.UpsertAppReleaseParams{
		AppID:             release.AppId,
		VersionCode:       release.VersionCode,
		VersionString:     release.VersionString,
		TimestampPublish:  sql.NullInt64{Int64: release.TimestampPublish, Valid: true},
		TimestampDownload: nullInt64(release.TimestampDownload),
		HasInAppPurchases: nullBool(release.HasInAppPurchases),
		HasAds:            nullBool(release.HasAds),
		SocialNetworks:    nullString(release.SocialNetworks),
		Tested:            release.Tested,
	})
	if err != nil {
		s.tel.ReportBroken(report_insert_release, fmt.Errorf("upsert: %w", err), release.AppId, release.VersionCode)
		return 0, err
	}

	row, err := s.qry.GetAppRelease(ctx, db.GetAppReleaseParams{
		AppID:       release.AppId,
		VersionCode: release.VersionCode,
	})
	if err != nil {
		s.tel.ReportBroken(report_insert_release, fmt.Errorf("get id: %w", err), release.AppId, release.VersionCode)
		return 0, notFound(err)
	}
	s.tel.ReportDebug("upserted app release", row.ID, release.VersionCode)
	return row.ID, nil
}

// InsertCategories makes the categories mapped to appId exactly equal to
// names. Mappings that are already correct are left untouched, an empty
// list is a no-op.
func (s Store) InsertCategories(ctx context.Context, appId int64, names []string) error {
	if len(names) == 0 {
		return nil
	}

	newKeys := map[int64]struct{}{}
	for _, name := range names {
		err := s.qry.CreateCategory(ctx, name)
		if err != nil {
			s.tel.ReportBroken(report_insert_categories, fmt.Errorf("create category: %w", err), name)
			return err
		}
		id, err := s.qry.GetCategoryId(ctx, name)
		if err != nil {
			s.tel.ReportBroken(report_insert_categories, fmt.Errorf("get category id: %w", err), name)
			return notFound(err)
		}
		newKeys[id] = struct{}{}
	}
	s.tel.ReportDebug("category keys", appId, names)

	current, err := s.qry.GetAppCategoryIds(ctx, appId)
	if err != nil {
		s.tel.ReportBroken(report_insert_categories, fmt.Errorf("get app categories: %w", err), appId)
		return err
	}
	oldKeys := map[int64]struct{}{}
	for _, id := range current {
		oldKeys[id] = struct{}{}
	}

	var removed, added []int64
	for id := range oldKeys {
		if _, ok := newKeys[id]; !ok {
			removed = append(removed, id)
		}
	}
	for id := range newKeys {
		if _, ok := oldKeys[id]; !ok {
			added = append(added, id)
		}
	}
	slices.Sort(removed)
	slices.Sort(added)

	for _, id := range removed {
		err := s.qry.DeleteAppCategory(ctx, db.AppCategoryParams{AppID: appId, CategoryID: id})
		if err != nil {
			s.tel.ReportBroken(report_insert_categories, fmt.Errorf("delete mapping: %w", err), appId, id)
			return err
		}
	}
	for _, id := range added {
		err := s.qry.CreateAppCategory(ctx, db.AppCategoryParams{AppID: appId, CategoryID: id})
		if err != nil {
			s.tel.ReportBroken(report_insert_categories, fmt.Errorf("create mapping: %w", err), appId, id)
			return err
		}
	}

	s.tel.ReportDebug("reconciled categories", appId, len(added), len(removed))
	return nil
}

// AppCategories lists the category names mapped to an app, sorted by name.
func (s Store) AppCategories(ctx context.Context, appId int64) ([]string, error) {
	return s.qry.GetAppCategoryNames(ctx, appId)
}

func (s Store) GetApp(ctx context.Context, packageName string) (db.App, error) {
	app, err := s.qry.GetApp(ctx, packageName)
	if err != nil {
		return db.App{}, notFound(err)
	}
	return app, nil
}

func (s Store) GetCompany(ctx context.Context, id int64) (db.Company, error) {
	company, err := s.qry.GetCompany(ctx, id)
	if err != nil {
		return db.Company{}, notFound(err)
	}
	return company, nil
}

func (s Store) GetAppRelease(ctx context.Context, appId, versionCode int64) (db.AppRelease, error) {
	release, err := s.qry.GetAppRelease(ctx, db.GetAppReleaseParams{
		AppID:       appId,
		VersionCode: versionCode,
	})
	if err != nil {
		return db.AppRelease{}, notFound(err)
	}
	return release, nil
}
