package ipu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/maxaizer/ipu-notifier/internal/entities"
	"golang.org/x/time/rate"
)

const DefaultURL = "https://ipu.admissions.nic.in/schedule-notices/"

const (
	titleSelector    = `td[data-th="Title "] a`
	yearSelector     = `td[data-th="Year "] span`
	downloadSelector = `td[data-th="View / Download"] a.download`
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/124.0.0.0 Safari/537.36"

type Client struct {
	url         string
	timeout     time.Duration
	rateLimiter *rate.Limiter
}

func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, timeout: 30 * time.Second}
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) URL() string {
	return c.url
}

// GetScheduleNotices downloads the schedule notices page and extracts every complete row.
// A page without rows yields an empty slice.
func (c *Client) GetScheduleNotices(ctx context.Context) ([]entities.RawNotice, error) {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, &entities.FetchError{URL: c.url, Err: err}
		}
	}

	timeout, err := c.requestTimeout(ctx)
	if err != nil {
		return nil, &entities.FetchError{URL: c.url, Err: err}
	}

	// colly does not follow ctx once a request is sent, so the deadline also bounds the request
	collector := colly.NewCollector(colly.UserAgent(userAgent))
	collector.SetRequestTimeout(timeout)

	var notices []entities.RawNotice
	var parseErr error

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "html") {
			parseErr = &entities.ParseError{URL: c.url, Reason: fmt.Sprintf("unexpected content type %q", contentType)}
		}
	})

	collector.OnHTML("tr", func(e *colly.HTMLElement) {
		if notice, ok := parseRow(e); ok {
			notices = append(notices, notice)
		}
	})

	if err := collector.Visit(c.url); err != nil {
		return nil, &entities.FetchError{URL: c.url, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &entities.FetchError{URL: c.url, Err: err}
	}
	if parseErr != nil {
		return nil, parseErr
	}

	if notices == nil {
		notices = []entities.RawNotice{}
	}
	return notices, nil
}

// requestTimeout is the client timeout shortened to what is left until the ctx deadline.
func (c *Client) requestTimeout(ctx context.Context) (time.Duration, error) {
	timeout := c.timeout
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout, nil
	}

	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if timeout <= 0 || left < timeout {
		timeout = left
	}
	return timeout, nil
}

func parseRow(e *colly.HTMLElement) (entities.RawNotice, bool) {
	title := e.DOM.Find(titleSelector).First()
	year := e.DOM.Find(yearSelector).First()
	download := e.DOM.Find(downloadSelector).First()

	if title.Length() == 0 || year.Length() == 0 || download.Length() == 0 {
		return entities.RawNotice{}, false
	}

	return entities.RawNotice{
		Title:        strings.TrimSpace(title.Text()),
		Year:         strings.TrimSpace(year.Text()),
		ViewLink:     absoluteHref(e, title),
		DownloadLink: absoluteHref(e, download),
	}, true
}

func absoluteHref(e *colly.HTMLElement, anchor *goquery.Selection) string {
	href, ok := anchor.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}
	return e.Request.AbsoluteURL(href)
}
