// Package fetch retrieves and parses web pages for the embedded engine's
// navigation path.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/bamboo-ui/bamboo/internal/logging"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultRetryMax  = 2
	defaultUserAgent = "bamboo/1.0"
)

// Page is one fetched document.
type Page struct {
	URL         string
	FinalURL    string
	Title       string
	StatusCode  int
	ContentType string
	Body        string

	doc *goquery.Document
}

// Text returns the visible text content, or the raw body for non-HTML
// documents.
func (p *Page) Text() string {
	if p.doc == nil {
		return p.Body
	}
	return p.doc.Text()
}

// Find counts case-insensitive occurrences of needle in the page text.
func (p *Page) Find(needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(
		strings.ToLower(p.Text()),
		strings.ToLower(needle),
	)
}

// Select runs a CSS selector against the parsed document. Returns nil for
// non-HTML pages.
func (p *Page) Select(selector string) *goquery.Selection {
	if p.doc == nil {
		return nil
	}
	return p.doc.Find(selector)
}

// Client fetches pages over HTTP with transparent retries on transient
// failures.
type Client struct {
	http *resty.Client
	log  *logging.Logger
}

// NewClient builds a page fetcher. The retrying transport handles
// connection resets and 5xx responses before resty sees them.
func NewClient(log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	retry := retryablehttp.NewClient()
	retry.RetryMax = defaultRetryMax
	retry.Logger = nil

	rc := resty.NewWithClient(retry.StandardClient()).
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &Client{http: rc, log: log}
}

// Fetch retrieves rawURL and parses HTML responses. Non-2xx/3xx statuses
// are errors; redirects are followed and reported through FinalURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, status)
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL,
		StatusCode:  status,
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.String(),
	}

	if strings.Contains(page.ContentType, "html") || page.ContentType == "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", rawURL, err)
		}
		page.doc = doc
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if page.Title == "" {
		page.Title = parsed.Host
	}
	return page, nil
}
