package db

import "database/sql"

type Company struct {
	ID          int64
	GoogleDevID sql.NullString
	CommonName  string
	Type        sql.NullString
}

type App struct {
	ID                   int64
	PackageName          string
	CommonName           string
	DevCompanyID         sql.NullInt64
	ProductUrl           sql.NullString
	TimestampLastChecked int64
}

type AppRelease struct {
	ID                int64
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

type Category struct {
	ID           int64
	CategoryName string
}
