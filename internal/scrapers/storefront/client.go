package storefront

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/telemetry"
	"apkfetch/pkg/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseUrl   = "https://play.google.com/store/apps/details"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"
)

const (
	report_client_fetch_page = "client.fetch-page"
	report_client_parse_page = "client.parse-page"
)

type Options struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to DefaultUserAgent
	UserAgent        string
	CloudflareBypass bool
	// every http exchange is written here when set
	HttpDump restyutil.InstrumentOutput
}

// Client fetches and parses storefront detail pages.
type Client struct {
	http    *resty.Client
	baseUrl string
	tel     telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("storefront", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, "storefront", opts.HttpDump)

	return Client{
		http:    httpClient,
		baseUrl: opts.BaseUrl,
		tel:     tel,
	}
}

// PageUrl returns the detail page link for a package, this is also what gets
// stored as an app's product url.
func (c Client) PageUrl(packageName string) string {
	return fmt.Sprintf("%s?id=%s&hl=en", c.baseUrl, url.QueryEscape(packageName))
}

func (c Client) FetchPage(ctx context.Context, packageName string) (*goquery.Document, error) {
	endpoint := c.PageUrl(packageName)

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch_page,
			fmt.Errorf("fetch: %w", err),
			packageName,
		)
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := &StatusError{Url: endpoint, StatusCode: res.StatusCode()}
		c.tel.ReportWarning(report_client_fetch_page, err, packageName)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch_page,
			fmt.Errorf("parse html: %w", err),
			packageName,
		)
		return nil, err
	}

	c.tel.ReportDebug("retrieved page", packageName)
	return doc, nil
}

// Page fetches the detail page of a package and extracts all of its fields.
func (c Client) Page(ctx context.Context, packageName string) (Page, error) {
	doc, err := c.FetchPage(ctx, packageName)
	if err != nil {
		return Page{}, err
	}
	page, err := ParsePage(ctx, doc)
	if err != nil {
		c.tel.ReportBroken(report_client_parse_page, err, packageName)
		return Page{}, fmt.Errorf("parse page for %s: %w", packageName, err)
	}
	return page, nil
}
