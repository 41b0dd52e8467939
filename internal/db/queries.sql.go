package db

import (
	"context"
	"database/sql"
)

const upsertCompany = `
INSERT INTO companies (googleDevId, commonName, type)
VALUES (?, ?, ?)
ON CONFLICT (googleDevId) DO UPDATE SET
    commonName = excluded.commonName,
    type = excluded.type
`

type UpsertCompanyParams struct {
	GoogleDevID string
	CommonName  string
	Type        sql.NullString
}

func (q *Queries) UpsertCompany(ctx context.Context, arg UpsertCompanyParams) error {
	return q.exec(ctx, upsertCompany, arg.GoogleDevID, arg.CommonName, arg.Type)
}

const getCompanyIdByDevId = `
SELECT id FROM companies WHERE googleDevId = ?
`

func (q *Queries) GetCompanyIdByDevId(ctx context.Context, googleDevID string) (int64, error) {
	var id int64
	err := q.queryRow(ctx, getCompanyIdByDevId, googleDevID).Scan(&id)
	return id, err
}

const getCompanyIdByName = `
SELECT id FROM companies
WHERE googleDevId IS NULL AND commonName = ?
ORDER BY id
LIMIT 1
`

// GetCompanyIdByName only matches companies without a developer id.
func (q *Queries) GetCompanyIdByName(ctx context.Context, commonName string) (int64, error) {
	var id int64
	err := q.queryRow(ctx, getCompanyIdByName, commonName).Scan(&id)
	return id, err
}

const createCompany = `
INSERT INTO companies (commonName, type) VALUES (?, ?)
`

type CreateCompanyParams struct {
	CommonName string
	Type       sql.NullString
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) error {
	return q.exec(ctx, createCompany, arg.CommonName, arg.Type)
}

const updateCompanyType = `
UPDATE companies SET type = ? WHERE id = ?
`

type UpdateCompanyTypeParams struct {
	Type sql.NullString
	ID   int64
}

func (q *Queries) UpdateCompanyType(ctx context.Context, arg UpdateCompanyTypeParams) error {
	return q.exec(ctx, updateCompanyType, arg.Type, arg.ID)
}

const getCompany = `
SELECT id, googleDevId, commonName, type FROM companies WHERE id = ?
`

func (q *Queries) GetCompany(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := q.queryRow(ctx, getCompany, id).Scan(
		&c.ID,
		&c.GoogleDevID,
		&c.CommonName,
		&c.Type,
	)
	return c, err
}

const upsertApp = `
INSERT INTO apps (packageName, commonName, devCompanyId, productUrl, timestampLastChecked)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (packageName) DO UPDATE SET
    commonName = excluded.commonName,
    devCompanyId = excluded.devCompanyId,
    productUrl = excluded.productUrl,
    timestampLastChecked = excluded.timestampLastChecked
`

type UpsertAppParams struct {
	PackageName          string
	CommonName           string
	DevCompanyID         sql.NullInt64
	ProductUrl           sql.NullString
	TimestampLastChecked int64
}

func (q *Queries) UpsertApp(ctx context.Context, arg UpsertAppParams) error {
	return q.exec(
		ctx, upsertApp,
		arg.PackageName,
		arg.CommonName,
		arg.DevCompanyID,
		arg.ProductUrl,
		arg.TimestampLastChecked,
	)
}

const getApp = `
SELECT id, packageName, commonName, devCompanyId, productUrl, timestampLastChecked
FROM apps WHERE packageName = ?
`

func (q *Queries) GetApp(ctx context.Context, packageName string) (App, error) {
	var a App
	err := q.queryRow(ctx, getApp, packageName).Scan(
		&a.ID,
		&a.PackageName,
		&a.CommonName,
		&a.DevCompanyID,
		&a.ProductUrl,
		&a.TimestampLastChecked,
	)
	return a, err
}

const upsertAppRelease = `
INSERT INTO appReleases (
    appId, versionCode, versionString,
    timestampPublish, timestampDownload,
    hasInAppPurchases, hasAds, socialNetworks, tested
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (appId, versionCode) DO UPDATE SET
    versionString = excluded.versionString,
    timestampPublish = excluded.timestampPublish,
    timestampDownload = COALESCE(excluded.timestampDownload, appReleases.timestampDownload),
    hasInAppPurchases = excluded.hasInAppPurchases,
    hasAds = excluded.hasAds,
    socialNetworks = excluded.socialNetworks,
    tested = excluded.tested
`

type UpsertAppReleaseParams struct {
	AppID             int64
	VersionCode       int64
	VersionString     string
	TimestampPublish  sql.NullInt64
	TimestampDownload sql.NullInt64
	HasInAppPurchases sql.NullBool
	HasAds            sql.NullBool
	SocialNetworks    sql.NullString
	Tested            bool
}

func (q *Queries) UpsertAppRelease(ctx context.Context, arg UpsertAppReleaseParams) error {
	return q.exec(
		ctx, upsertAppRelease,
		arg.AppID,
		arg.VersionCode,
		arg.VersionString,
		arg.TimestampPublish,
		arg.TimestampDownload,
		arg.HasInAppPurchases,
		arg.HasAds,
		arg.SocialNetworks,
		arg.Tested,
	)
}

const getAppRelease = `
SELECT
    id, appId, versionCode, versionString,
    timestampPublish, timestampDownload,
    hasInAppPurchases, hasAds, socialNetworks, tested
FROM appReleases WHERE appId = ? AND versionCode = ?
`

type GetAppReleaseParams struct {
	AppID       int64
	VersionCode int64
}

func (q *Queries) GetAppRelease(ctx context.Context, arg GetAppReleaseParams) (AppRelease, error) {
	var r AppRelease
	err := q.queryRow(ctx, getAppRelease, arg.AppID, arg.VersionCode).Scan(
		&r.ID,
		&r.AppID,
		&r.VersionCode,
		&r.VersionString,
		&r.TimestampPublish,
		&r.TimestampDownload,
		&r.HasInAppPurchases,
		&r.HasAds,
		&r.SocialNetworks,
		&r.Tested,
	)
	return r, err
}

const createCategory = `
INSERT INTO categories (categoryName) VALUES (?)
ON CONFLICT (categoryName) DO NOTHING
`

func (q *Queries) CreateCategory(ctx context.Context, categoryName string) error {
	return q.exec(ctx, createCategory, categoryName)
}

const getCategoryId = `
SELECT id FROM categories WHERE categoryName = ?
`

func (q *Queries) GetCategoryId(ctx context.Context, categoryName string) (int64, error) {
	var id int64
	err := q.queryRow(ctx, getCategoryId, categoryName).Scan(&id)
	return id, err
}

const getAppCategoryIds = `
SELECT categoryId FROM appCategoriesMapping WHERE appId = ?
`

func (q *Queries) GetAppCategoryIds(ctx context.Context, appID int64) ([]int64, error) {
	rows, err := q.query(ctx, getAppCategoryIds, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAppCategoryNames = `
SELECT categories.categoryName FROM appCategoriesMapping
INNER JOIN categories ON categories.id = appCategoriesMapping.categoryId
WHERE appCategoriesMapping.appId = ?
ORDER BY categories.categoryName
`

func (q *Queries) GetAppCategoryNames(ctx context.Context, appID int64) ([]string, error) {
	rows, err := q.query(ctx, getAppCategoryNames, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createAppCategory = `
INSERT INTO appCategoriesMapping (appId, categoryId) VALUES (?, ?)
`

type AppCategoryParams struct {
	AppID      int64
	CategoryID int64
}

func (q *Queries) CreateAppCategory(ctx context.Context, arg AppCategoryParams) error {
	return q.exec(ctx, createAppCategory, arg.AppID, arg.CategoryID)
}

const deleteAppCategory = `
DELETE FROM appCategoriesMapping WHERE appId = ? AND categoryId = ?
`

func (q *Queries) DeleteAppCategory(ctx context.Context, arg AppCategoryParams) error {
	return q.exec(ctx, deleteAppCategory, arg.AppID, arg.CategoryID)
}
