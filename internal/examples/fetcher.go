// Package examples syncs a profile's labeled example notices into the
// store, fetching each page so similarity scoring has real text to compare
// against.
package examples

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Cap stored page text; some portals serve multi-megabyte notice pages.
const pageTextCap = 20000

// Page is the usable content of one fetched example URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher fetches example pages politely: per-domain delay, retries, and a
// browser user agent, since several procurement portals reject obvious
// bots.
type Fetcher struct {
	UserAgent   string
	MaxRetries  int
	Timeout     time.Duration
	DomainDelay time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:  2,
		Timeout:     30 * time.Second,
		DomainDelay: time.Second,
	}
}

// FetchPage downloads one example page and extracts its title and visible
// text.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	)
	c.SetRequestTimeout(f.Timeout)
	c.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      f.DomainDelay,
	})

	var body []byte
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if v := r.Request.Ctx.GetAny("retries"); v != nil {
			retries = v.(int)
		}
		if retries < f.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			r.Request.Retry()
			return
		}
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, fetchErr)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("no response body from %s", pageURL)
	}

	return parsePage(pageURL, body)
}

func parsePage(pageURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	if len(text) > pageTextCap {
		text = text[:pageTextCap]
	}

	return &Page{URL: pageURL, Title: title, Text: text}, nil
}
