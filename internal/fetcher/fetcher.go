// Package fetcher downloads a draw listing by submitting a site's search
// form and collecting the text of every table row.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"

	"github.com/okian/comborank/pkg/logger"
	"github.com/okian/comborank/pkg/metrics"
)

const (
	// DefaultEntryURL is the page holding the search form.
	DefaultEntryURL = "http://www.9800.com.tw/head.asp"

	defaultAttempts   = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultTimeout    = 30 * time.Second
)

// Fetcher submits the search form found on an entry page.
type Fetcher struct {
	entry      *url.URL
	client     *http.Client
	attempts   uint
	retryDelay time.Duration
	logger     logger.Logger
}

// New returns a Fetcher for the entry page at entryURL.
func New(entryURL string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(entryURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid entry url %q", entryURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	f := &Fetcher{
		entry:      u,
		client:     &http.Client{Jar: jar, Timeout: defaultTimeout},
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		logger:     logger.Get().Named("fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch submits the form named "search" with the period bounds p1=from and
// p2=to plus the form's hidden inputs, and returns the trimmed <td> texts of
// every result row that has any.
func (f *Fetcher) Fetch(ctx context.Context, from, to string) ([][]string, error) {
	page, err := f.document(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, f.entry.String(), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("load entry page: %w", err)
	}

	form := page.Find(`form[name="search"]`).First()
	action, ok := form.Attr("action")
	if form.Length() == 0 || !ok || action == "" {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, f.entry)
	}
	target, err := f.entry.Parse(action)
	if err != nil {
		return nil, fmt.Errorf("%w: bad action %q: %w", ErrFormNotFound, action, err)
	}

	payload := url.Values{"p1": {from}, "p2": {to}}
	form.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" || payload.Has(name) {
			return
		}
		payload.Set(name, in.AttrOr("value", ""))
	})

	f.logger.Info(ctx, "submitting search", logger.String("url", target.String()), logger.String("from", from), logger.String("to", to))
	result, err := f.document(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(payload.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", f.entry.String())
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}

	var rows [][]string
	result.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	f.logger.Info(ctx, "collected rows", logger.Int("rows", len(rows)))
	return rows, nil
}

// document performs the request built by newReq, retrying network errors
// and 5xx responses, and parses the body.
func (f *Fetcher) document(ctx context.Context, newReq func() (*http.Request, error)) (*goquery.Document, error) {
	return retry.DoWithData(
		func() (*goquery.Document, error) {
			req, err := newReq()
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			resp, err := f.client.Do(req)
			if err != nil {
				return nil, err
			}
			defer func() {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}()
			if resp.StatusCode >= http.StatusInternalServerError {
				return nil, fmt.Errorf("%w: %s %s: %d", ErrStatus, req.Method, req.URL, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, retry.Unrecoverable(fmt.Errorf("%w: %s %s: %d", ErrStatus, req.Method, req.URL, resp.StatusCode))
			}
			return goquery.NewDocumentFromReader(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordErrorByComponent("fetcher", "retry")
			f.logger.Warn(ctx, "request failed, retrying", logger.Int("attempt", int(n)+1), logger.Error(err))
		}),
	)
}

// Grid converts rows for repository.WriteGrid.
func Grid(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
