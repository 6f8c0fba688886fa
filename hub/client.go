// Package hub talks to the public REST API of a Farcaster hub.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"aicaster/links"
	"aicaster/models"
)

const DefaultHubURL = "https://nemes.farcaster.xyz:2281"

const maxBodySize = 16 * 1024 * 1024 // 16MB

// Upper bound on a shared profile lookup, whoever is waiting for it
const profileTimeout = 10 * time.Second

// StatusError is returned when the hub answers with a non-success status
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub %s returned status %d", e.Endpoint, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	// Collapses concurrent lookups of the same fid. Nothing is kept once
	// the lookup returns.
	profiles singleflight.Group
}

// NewClient creates a hub client. A nil httpClient gets a client with a
// 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultHubURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CastsByChannel returns the casts posted to a channel, newest first. A
// non-success status or an unreadable body yields an empty result. Only
// transport failures are returned.
func (c *Client) CastsByChannel(ctx context.Context, channelURL string) ([]Message, error) {
	body, err := c.get(ctx, "castsByParent", url.Values{
		"url":     {channelURL},
		"reverse": {"1"},
	})

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		log.WithFields(log.Fields{
			"channel": channelURL,
			"status":  statusErr.StatusCode,
		}).Warn("Hub rejected casts request")
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch casts for %s: %w", channelURL, err)
	}

	var resp castsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		hubRequests.WithLabelValues("castsByParent", "malformed").Inc()
		log.WithFields(log.Fields{
			"channel": channelURL,
			"error":   err,
		}).Warn("Malformed casts response")
		return []Message{}, nil
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, raw := range resp.Messages {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithField("error", err).Debug("Skipping undecodable message")
			continue
		}
		if err := msg.ValidateCast(); err != nil {
			log.WithFields(log.Fields{
				"hash":  msg.Hash,
				"error": err,
			}).Debug("Skipping invalid cast")
			continue
		}
		messages = append(messages, msg)
	}

	log.WithFields(log.Fields{
		"channel": channelURL,
		"count":   len(messages),
	}).Debug("Fetched channel casts")

	return messages, nil
}

// UserProfile looks up avatar and display name for fid. It never fails:
// lookups that cannot be completed fall back to FallbackProfile.
func (c *Client) UserProfile(ctx context.Context, fid uint64) models.UserProfile {
	ch := c.profiles.DoChan(strconv.FormatUint(fid, 10), func() (interface{}, error) {
		// The lookup is shared by every waiting caller, so it must not end
		// with whichever caller started it
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), profileTimeout)
		defer cancel()
		return c.fetchProfile(shared, fid), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.UserProfile)
	case <-ctx.Done():
		profileFallbacks.Inc()
		return FallbackProfile(fid)
	}
}

func (c *Client) fetchProfile(ctx context.Context, fid uint64) models.UserProfile {
	var pfp, displayName string

	var g errgroup.Group
	g.Go(func() error {
		var err error
		pfp, err = c.userData(ctx, fid, UserDataTypePfp)
		return err
	})
	g.Go(func() error {
		var err error
		displayName, err = c.userData(ctx, fid, UserDataTypeDisplay)
		return err
	})

	if err := g.Wait(); err != nil {
		profileFallbacks.Inc()
		log.WithFields(log.Fields{
			"fid":   fid,
			"error": err,
		}).Warn("Profile lookup failed, using fallback")
		return FallbackProfile(fid)
	}

	return profileFromFields(fid, pfp, displayName)
}

// userData fetches a single user data field. A missing field is not an
// error; a failed request is.
func (c *Client) userData(ctx context.Context, fid uint64, dataType string) (string, error) {
	body, err := c.get(ctx, "userDataByFid", url.Values{
		"fid":            {strconv.FormatUint(fid, 10)},
		"user_data_type": {dataType},
	})

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s for fid %d: %w", dataType, fid, err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		hubRequests.WithLabelValues("userDataByFid", "malformed").Inc()
		return "", nil
	}
	return msg.userDataValue(), nil
}

// CastByID fetches a single cast. Non-success statuses are returned as
// *StatusError so callers can pass the upstream status on.
func (c *Client) CastByID(ctx context.Context, fid uint64, hash string) (*Message, error) {
	body, err := c.get(ctx, "castById", url.Values{
		"fid":  {strconv.FormatUint(fid, 10)},
		"hash": {hash},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch cast %d/%s: %w", fid, hash, err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		hubRequests.WithLabelValues("castById", "malformed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &msg, nil
}

// FallbackProfile is the profile shown when nothing is known about fid
func FallbackProfile(fid uint64) models.UserProfile {
	return models.UserProfile{
		Pfp:         nil,
		DisplayName: FallbackDisplayName(fid),
	}
}

func FallbackDisplayName(fid uint64) string {
	return fmt.Sprintf("FID: %d", fid)
}

// profileFromFields substitutes fallbacks for missing or unsafe fields
func profileFromFields(fid uint64, pfp, displayName string) models.UserProfile {
	profile := models.UserProfile{
		Pfp:         links.Sanitize(&pfp),
		DisplayName: strings.TrimSpace(displayName),
	}
	if profile.DisplayName == "" {
		profile.DisplayName = FallbackDisplayName(fid)
	}
	return profile
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	defer func() {
		hubRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	reqURL := fmt.Sprintf("%s/v1/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		hubRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		hubRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		hubRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		hubRequests.WithLabelValues(endpoint, "status").Inc()
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	hubRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}
