package storefront

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"apkfetch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Page holds everything extracted from a storefront detail page.
type Page struct {
	Name              string `json:"name"`
	HasInAppPurchases bool   `json:"hasInAppPurchases"`
	HasAds            bool   `json:"hasAds"`

	// nil when the page does not link one
	DevWebsite *string `json:"devWebsite"`
	DevPrivacy *string `json:"devPrivacy"`
	DevEmail   *string `json:"devEmail"`

	DevId   string `json:"devId"`
	DevName string `json:"devName"`

	// seconds since 1970-01-01T00:00:00 UTC
	PublishTimestamp   int64    `json:"publishTimestamp"`
	IsFree             bool     `json:"isFree"`
	Categories         []string `json:"categories"`
	IsFamily           bool     `json:"isFamily"`
	IconUrl            string   `json:"iconUrl"`
	InstallsLowerBound int64    `json:"installsLowerBound"`
}

const (
	selectorName         = `div[class*="id-app-title"]`
	selectorIap          = `div[class*="inapp-msg"]`
	selectorAds          = `span[class*="ads-supported-label-msg"]`
	selectorDevLinks     = `a[class*="dev-link"]`
	selectorDevEmail     = `a[class*="dev-link"][href^="mailto:"]`
	selectorDevId        = `a[class*="document-subtitle"][href*="/store/apps/dev"]`
	selectorPublished    = `div[class*="content"][itemprop*="datePublished"]`
	selectorPriceButton  = `div[class*="details-actions-right"] > span > span > button > span:nth-of-type(2)`
	selectorCategory     = `a[class*="category"]`
	selectorCategoryName = `a[class*="category"] > span`
	selectorIcon         = `img[class*="cover-image"]`
	selectorInstalls     = `div[class*="content"][itemprop="numDownloads"]`
)

const (
	redirectPrefix      = "https://www.google.com/url?q="
	redirectTrailer     = "&sa="
	iconThumbnailSuffix = "=w300-rw"
	publishDateLayout   = "January 2, 2006"
)

// ParsePage runs every extraction over the document. Each extraction is
// independent, all failures are joined into the returned error.
func ParsePage(ctx context.Context, doc *goquery.Document) (Page, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	page := Page{
		HasInAppPurchases: HasInAppPurchases(doc),
		HasAds:            HasAds(doc),
		DevWebsite:        DevWebsite(ctx, doc),
		DevPrivacy:        DevPrivacy(ctx, doc),
		DevEmail:          DevEmail(doc),
		Categories:        Categories(doc),
		IsFamily:          IsFamily(doc),
	}

	var err error
	page.Name, err = Name(doc)
	collect(err)
	page.DevId, page.DevName, err = Developer(doc)
	collect(err)
	page.PublishTimestamp, err = PublishTimestamp(doc)
	collect(err)
	page.IsFree, err = IsFree(doc)
	collect(err)
	page.IconUrl, err = IconUrl(doc)
	collect(err)
	page.InstallsLowerBound, err = InstallsLowerBound(doc)
	collect(err)

	if len(errs) > 0 {
		return Page{}, errors.Join(errs...)
	}
	return page, nil
}

func Name(doc *goquery.Document) (string, error) {
	sel := doc.Find(selectorName)
	if err := expectOne("app names", sel.Length()); err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlutil.GetText(sel.Nodes[0])), nil
}

func HasInAppPurchases(doc *goquery.Document) bool {
	return len(htmlutil.OwnTexts(doc.Find(selectorIap))) > 0
}

func HasAds(doc *goquery.Document) bool {
	return len(htmlutil.OwnTexts(doc.Find(selectorAds))) > 0
}

// UnwrapLink removes the storefront's click-tracking redirect from a link,
// ex. `https://www.google.com/url?q=http://example.com&sa=D&usg=...` -> `http://example.com`.
func UnwrapLink(href string) string {
	link := href
	decoded, err := url.PathUnescape(link)
	if err == nil {
		link = decoded
	}
	link = strings.TrimPrefix(link, redirectPrefix)
	if idx := strings.Index(link, redirectTrailer); idx >= 0 {
		link = link[:idx]
	}
	return link
}

func findDevLink(ctx context.Context, doc *goquery.Document, text string) *string {
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find(selectorDevLinks)) {
		if strings.ToLower(strings.TrimSpace(anchor.Name)) == text {
			link := UnwrapLink(anchor.Href)
			return &link
		}
	}
	return nil
}

func DevPrivacy(ctx context.Context, doc *goquery.Document) *string {
	return findDevLink(ctx, doc, "privacy policy")
}

// DevEmail returns the address of the developer's `mailto:` link, it is only
// considered present when there is exactly one.
func DevEmail(doc *goquery.Document) *string {
	sel := doc.Find(selectorDevEmail)
	if sel.Length() != 1 {
		return nil
	}
	_, email, found := strings.Cut(sel.AttrOr("href", ""), ":")
	if !found {
		return nil
	}
	return &email
}

// DevWebsite resolves the developer's website with the following priority:
// 1. "Visit website" link
// 2. "Privacy Policy" link
// 3. email address
func DevWebsite(ctx context.Context, doc *goquery.Document) *string {
	if link := findDevLink(ctx, doc, "visit website"); link != nil {
		return link
	}
	if link := DevPrivacy(ctx, doc); link != nil {
		return link
	}
	return DevEmail(doc)
}

// Developer returns the id and display name from the developer's store link,
// ex. `/store/apps/dev?id=6720847872553662727` -> `6720847872553662727`.
func Developer(doc *goquery.Document) (id string, name string, err error) {
	sel := doc.Find(selectorDevId)
	if err := expectOne("dev ids", sel.Length()); err != nil {
		return "", "", err
	}
	href := sel.AttrOr("href", "")
	idx := strings.LastIndex(href, "=")
	if idx < 0 {
		return "", "", &FormatError{Field: "dev id", Value: href}
	}
	return href[idx+1:], strings.TrimSpace(sel.Text()), nil
}

func DevId(doc *goquery.Document) (string, error) {
	id, _, err := Developer(doc)
	return id, err
}

func DevName(doc *goquery.Document) (string, error) {
	_, name, err := Developer(doc)
	return name, err
}

// PublishTimestamp parses a date like "May 1, 2016" into seconds since the epoch (UTC).
func PublishTimestamp(doc *goquery.Document) (int64, error) {
	texts := htmlutil.OwnTexts(doc.Find(selectorPublished))
	if err := expectOne("update dates", len(texts)); err != nil {
		return 0, err
	}
	published, err := time.Parse(publishDateLayout, strings.TrimSpace(texts[0]))
	if err != nil {
		return 0, &FormatError{Field: "update date", Value: texts[0], Err: err}
	}
	return published.Unix(), nil
}

// IsFree reports whether the buy/download button reads "Install" or "Free".
func IsFree(doc *goquery.Document) (bool, error) {
	texts := htmlutil.OwnTexts(doc.Find(selectorPriceButton))
	if err := expectOne("buy/download buttons", len(texts)); err != nil {
		return false, err
	}
	label := strings.TrimSpace(texts[0])
	return label == "Install" || label == "Free", nil
}

func Categories(doc *goquery.Document) []string {
	categories := []string{}
	for _, text := range htmlutil.OwnTexts(doc.Find(selectorCategoryName)) {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		categories = append(categories, text)
	}
	return categories
}

// CategoryCode returns the category code at the end of a category link,
// ex. `/store/apps/category/FAMILY_ACTION` -> `FAMILY_ACTION`.
func CategoryCode(href string) string {
	link, err := url.Parse(href)
	if err != nil {
		return ""
	}
	code := path.Base(link.Path)
	if code == "." || code == "/" {
		return ""
	}
	return code
}

func IsFamily(doc *goquery.Document) bool {
	family := false
	doc.Find(selectorCategory).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.HasPrefix(CategoryCode(s.AttrOr("href", "")), "FAMILY") {
			family = true
			return false
		}
		return true
	})
	return family
}

// NormalizeIconUrl gives protocol-relative icon links a scheme and drops the
// thumbnail size suffix to get the full resolution image.
func NormalizeIconUrl(src string) string {
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return strings.TrimSuffix(src, iconThumbnailSuffix)
}

func IconUrl(doc *goquery.Document) (string, error) {
	sel := doc.Find(selectorIcon)
	if err := expectOne("cover images", sel.Length()); err != nil {
		return "", err
	}
	return NormalizeIconUrl(sel.AttrOr("src", "")), nil
}

// ParseInstallRange parses a range like "1,000,000 - 5,000,000" and returns
// its lower bound.
func ParseInstallRange(text string) (int64, error) {
	stripped := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	parts := strings.Split(stripped, "-")
	if len(parts) != 2 {
		return 0, &FormatError{Field: "install count", Value: text}
	}
	lower, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, &FormatError{Field: "install count", Value: text, Err: err}
	}
	return lower, nil
}

func InstallsLowerBound(doc *goquery.Document) (int64, error) {
	sel := doc.Find(selectorInstalls)
	if err := expectOne("install counts", sel.Length()); err != nil {
		return 0, err
	}
	return ParseInstallRange(htmlutil.GetText(sel.Nodes[0]))
}
