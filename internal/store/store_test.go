package store

import (
	"context"
	"database/sql"
	"testing"

	"apkfetch/internal/db"
	"apkfetch/internal/testutil"

	"github.com/stretchr/testify/require"
)

func newTestStore(t testing.TB, conn *sql.DB, dialect db.Dialect) Store {
	tel := testutil.SetupTelemetry(t, "store")
	return NewStore(conn, dialect, testutil.FixedClock{Time: testutil.Now}, tel)
}

func ptr[T any](v T) *T {
	return &v
}

func TestStore(t *testing.T) {
	conn, dialect := testutil.OpenDB(t, testutil.DBParams{})
	runStoreTests(t, newTestStore(t, conn, dialect))
}

func runStoreTests(t *testing.T, store Store) {
	t.Run("CompanyByDevId", func(t *testing.T) {
		testCompanyByDevId(t, store)
	})
	t.Run("CompanyByName", func(t *testing.T) {
		testCompanyByName(t, store)
	})
	t.Run("App", func(t *testing.T) {
		testApp(t, store)
	})
	t.Run("AppRelease", func(t *testing.T) {
		testAppRelease(t, store)
	})
	t.Run("Categories", func(t *testing.T) {
		testCategories(t, store)
	})
}

func testCompanyByDevId(t *testing.T, store Store) {
	ctx := context.Background()

	id, err := store.InsertCompany(ctx, Company{
		GoogleDevId: ptr("6720847872553662727"),
		Name:        "Rovio Entertainment Corporation",
	})
	require.NoError(t, err)

	again, err := store.InsertCompany(ctx, Company{
		GoogleDevId: ptr("6720847872553662727"),
		Name:        "Rovio Entertainment Ltd.",
	})
	require.NoError(t, err)
	require.Equal(t, id, again)

	company, err := store.GetCompany(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Rovio Entertainment Ltd.", company.CommonName)
	require.Equal(t, sql.NullString{String: "dev", Valid: true}, company.Type)
}

func testCompanyByName(t *testing.T, store Store) {
	ctx := context.Background()

	id, err := store.InsertCompany(ctx, Company{Name: "Unnamed Studio"})
	require.NoError(t, err)

	again, err := store.InsertCompany(ctx, Company{Name: "Unnamed Studio", Type: ptr("publisher")})
	require.NoError(t, err)
	require.Equal(t, id, again)

	company, err := store.GetCompany(ctx, id)
	require.NoError(t, err)
	require.False(t, company.GoogleDevID.Valid)
	require.Equal(t, "publisher", company.Type.String)

	// a company with a dev id never matches by name
	other, err := store.InsertCompany(ctx, Company{
		GoogleDevId: ptr("1234"),
		Name:        "Shared Name",
	})
	require.NoError(t, err)
	named, err := store.InsertCompany(ctx, Company{Name: "Shared Name"})
	require.NoError(t, err)
	require.NotEqual(t, other, named)
}

func testApp(t *testing.T, store Store) {
	ctx := context.Background()

	companyId, err := store.InsertCompany(ctx, Company{GoogleDevId: ptr("42"), Name: "Example Corp"})
	require.NoError(t, err)

	id, err := store.InsertApp(ctx, App{
		DevCompanyId: companyId,
		PackageName:  "com.example.app",
		CommonName:   "Example",
		ProductUrl:   ptr("https://play.google.com/store/apps/details?id=com.example.app&hl=en"),
	})
	require.NoError(t, err)

	app, err := store.GetApp(ctx, "com.example.app")
	require.NoError(t, err)
	require.Equal(t, id, app.ID)
	require.Equal(t, testutil.Now.Unix(), app.TimestampLastChecked)
	require.Equal(t, companyId, app.DevCompanyID.Int64)

	again, err := store.InsertApp(ctx, App{
		DevCompanyId: companyId,
		PackageName:  "com.example.app",
		CommonName:   "Example 2",
		LastChecked:  ptr(int64(100)),
	})
	require.NoError(t, err)
	require.Equal(t, id, again)

	app, err = store.GetApp(ctx, "com.example.app")
	require.NoError(t, err)
	require.Equal(t, "Example 2", app.CommonName)
	require.Equal(t, int64(100), app.TimestampLastChecked)
	require.False(t, app.ProductUrl.Valid)

	_, err = store.GetApp(ctx, "com.example.missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func testAppRelease(t *testing.T, store Store) {
	ctx := context.Background()

	appId, err := store.InsertApp(ctx, App{PackageName: "com.example.release", CommonName: "Release"})
	require.NoError(t, err)

	id, err := store.InsertAppRelease(ctx, AppRelease{
		AppId:             appId,
		VersionCode:       42,
		VersionString:     "1.4.2",
		TimestampPublish:  1462060800,
		TimestampDownload: ptr(int64(1700000000)),
		HasInAppPurchases: ptr(true),
		HasAds:            ptr(false),
	})
	require.NoError(t, err)

	// re-ingesting without a download keeps the earlier download time
	again, err := store.InsertAppRelease(ctx, AppRelease{
		AppId:            appId,
		VersionCode:      42,
		VersionString:    "1.4.2-hotfix",
		TimestampPublish: 1462060800,
	})
	require.NoError(t, err)
	require.Equal(t, id, again)

	release, err := store.GetAppRelease(ctx, appId, 42)
	require.NoError(t, err)
	require.Equal(t, "1.4.2-hotfix", release.VersionString)
	require.Equal(t, int64(1700000000), release.TimestampDownload.Int64)
	require.False(t, release.HasAds.Valid)
	require.False(t, release.Tested)

	other, err := store.InsertAppRelease(ctx, AppRelease{
		AppId:         appId,
		VersionCode:   43,
		VersionString: "1.4.3",
	})
	require.NoError(t, err)
	require.NotEqual(t, id, other)
}

func testCategories(t *testing.T, store Store) {
	ctx := context.Background()

	appId, err := store.InsertApp(ctx, App{PackageName: "com.example.categories", CommonName: "Categories"})
	require.NoError(t, err)

	require.NoError(t, store.InsertCategories(ctx, appId, []string{"A", "B"}))
	categories, err := store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, categories)

	// idempotent
	require.NoError(t, store.InsertCategories(ctx, appId, []string{"A", "B"}))
	categories, err = store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, categories)

	require.NoError(t, store.InsertCategories(ctx, appId, []string{"B", "C"}))
	categories, err = store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, categories)

	// duplicates collapse into one mapping
	require.NoError(t, store.InsertCategories(ctx, appId, []string{"C", "C"}))
	categories, err = store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, categories)

	// empty list leaves the existing mappings alone
	require.NoError(t, store.InsertCategories(ctx, appId, nil))
	categories, err = store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, categories)

	// categories are shared across apps
	otherId, err := store.InsertApp(ctx, App{PackageName: "com.example.other", CommonName: "Other"})
	require.NoError(t, err)
	require.NoError(t, store.InsertCategories(ctx, otherId, []string{"A", "C"}))
	categories, err = store.AppCategories(ctx, otherId)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C"}, categories)
	categories, err = store.AppCategories(ctx, appId)
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, categories)
}
