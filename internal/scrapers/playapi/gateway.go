package playapi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/telemetry"
	"apkfetch/pkg/restyutil"

	"github.com/go-resty/resty/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	report_gateway_login    = "gateway.login"
	report_gateway_details  = "gateway.details"
	report_gateway_download = "gateway.download"
)

// GatewayAPI implements API over an http gateway in front of the private api.
//
//   - POST /auth with the form fields Email, Passwd and androidId, answering
//     `Auth=<token>` lines on success and 401/403 on bad credentials.
//   - GET /details?doc=<package> answering the listing as json.
//   - GET /download?doc=<package>&vc=<version code> answering the raw apk.
type GatewayAPI struct {
	http *resty.Client
	tel  telemetry.API
}

type GatewayOptions struct {
	BaseUrl string
	// every http exchange is written here when set
	HttpDump restyutil.InstrumentOutput
}

func NewGatewayAPI(opts GatewayOptions, tel telemetry.API) *GatewayAPI {
	assert.NotEmptyStr(opts.BaseUrl)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("gateway", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, "gateway", opts.HttpDump)

	return &GatewayAPI{http: httpClient, tel: tel}
}

func parseAuthToken(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if found && strings.EqualFold(key, "auth") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (g *GatewayAPI) Login(ctx context.Context, creds Credentials) error {
	res, err := g.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Email":     creds.Email,
			"Passwd":    creds.Password,
			"androidId": creds.DeviceId,
			"service":   "androidmarket",
		}).
		Post("/auth")
	if err != nil {
		g.tel.ReportBroken(report_gateway_login, fmt.Errorf("fetch: %w", err))
		return err
	}

	switch res.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, strings.TrimSpace(res.String()))
	default:
		return fmt.Errorf("login: unexpected http status %d", res.StatusCode())
	}

	token := parseAuthToken(res.Body())
	if token == "" {
		err := fmt.Errorf("login: no auth token in response")
		g.tel.ReportBroken(report_gateway_login, err)
		return err
	}

	g.http.
		SetHeader("Authorization", fmt.Sprintf("GoogleLogin auth=%s", token)).
		SetHeader("X-DFE-Device-Id", creds.DeviceId)
	return nil
}

func (g *GatewayAPI) Details(ctx context.Context, packageName string) (map[string]any, error) {
	res, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("doc", packageName).
		Get("/details")
	if err != nil {
		g.tel.ReportBroken(report_gateway_details, fmt.Errorf("fetch: %w", err), packageName)
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("details: unexpected http status %d", res.StatusCode())
	}

	var listing structpb.Struct
	err = protojson.Unmarshal(res.Body(), &listing)
	if err != nil {
		g.tel.ReportBroken(report_gateway_details, fmt.Errorf("unmarshal json: %w", err), packageName)
		return nil, err
	}
	return listing.AsMap(), nil
}

func (g *GatewayAPI) Download(ctx context.Context, packageName string, versionCode int64) ([]byte, error) {
	res, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"doc": packageName,
			"vc":  strconv.FormatInt(versionCode, 10),
		}).
		Get("/download")
	if err != nil {
		g.tel.ReportBroken(report_gateway_download, fmt.Errorf("fetch: %w", err), packageName)
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download: unexpected http status %d", res.StatusCode())
	}
	return res.Body(), nil
}
