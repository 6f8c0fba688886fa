// Package preview builds link cards for URLs embedded in casts.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"aicaster/config"
	"aicaster/links"
	"aicaster/models"
)

const (
	// Metadata lives in <head>; nothing past this is read
	maxBodySize = 1024 * 1024 // 1MB

	userAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

type Fetcher struct {
	client  *http.Client
	timeout time.Duration

	// Collapses concurrent previews of the same URL. Results are not kept.
	group singleflight.Group
}

// New creates a fetcher. A nil client gets one that follows at most three
// redirects; a zero timeout means config.PreviewTimeout.
func New(client *http.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = config.PreviewTimeout
	}
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Preview returns the link card for rawURL. It never fails: images are
// answered without a request and any fetch or parse problem yields the
// hostname-only fallback.
func (f *Fetcher) Preview(ctx context.Context, rawURL string) models.LinkPreview {
	if links.IsImage(rawURL) {
		previewOutcomes.WithLabelValues("image").Inc()
		return imagePreview(rawURL)
	}

	// fetch applies its own timeout, so the shared call may outlive the
	// caller that started it
	ch := f.group.DoChan(rawURL, func() (interface{}, error) {
		return f.fetch(context.WithoutCancel(ctx), rawURL), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.LinkPreview)
	case <-ctx.Done():
		previewOutcomes.WithLabelValues("fallback").Inc()
		return Fallback(rawURL)
	}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) models.LinkPreview {
	start := time.Now()
	defer func() {
		previewDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	meta, err := f.fetchMetadata(ctx, links.Canonical(rawURL))
	if err != nil {
		previewOutcomes.WithLabelValues("fallback").Inc()
		log.WithFields(log.Fields{
			"url":   rawURL,
			"error": err,
		}).Warn("Link preview failed")
		return Fallback(rawURL)
	}

	previewOutcomes.WithLabelValues("ok").Inc()
	return models.LinkPreview{
		Title:       lo.EmptyableToPtr(meta.bestTitle()),
		Description: lo.EmptyableToPtr(meta.bestDescription()),
		Image:       links.Sanitize(lo.EmptyableToPtr(meta.bestImage())),
		URL:         lo.FromPtrOr(links.Sanitize(lo.EmptyableToPtr(meta.ogURL)), rawURL),
	}
}

func (f *Fetcher) fetchMetadata(ctx context.Context, target string) (*metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	meta, err := parseMetadata(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if meta.empty() {
		return nil, fmt.Errorf("no metadata found")
	}
	return meta, nil
}

// Fallback is the minimal card used when a page cannot be previewed
func Fallback(rawURL string) models.LinkPreview {
	return models.LinkPreview{
		Title:       lo.EmptyableToPtr(links.Hostname(rawURL)),
		Description: nil,
		Image:       nil,
		URL:         rawURL,
	}
}

func imagePreview(rawURL string) models.LinkPreview {
	return models.LinkPreview{
		Title: lo.ToPtr("Image"),
		Image: links.Sanitize(lo.ToPtr(rawURL)),
		URL:   rawURL,
	}
}
