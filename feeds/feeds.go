package feeds

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"aicaster/config"
	"aicaster/hub"
	"aicaster/links"
	"aicaster/models"
)

// Upper bound on concurrent profile lookups for one aggregation
const profileConcurrency = 16

// Hub is the subset of the hub client the aggregator needs
type Hub interface {
	CastsByChannel(ctx context.Context, channelURL string) ([]hub.Message, error)
	UserProfile(ctx context.Context, fid uint64) models.UserProfile
}

// Feed aggregates a fixed set of channels
type Feed struct {
	Hub      Hub
	Channels []config.Channel
	Window   time.Duration
	Now      func() time.Time
}

func New(h Hub, channels []config.Channel) *Feed {
	return &Feed{
		Hub:      h,
		Channels: channels,
		Window:   config.RecencyWindow,
		Now:      time.Now,
	}
}

// Casts builds the feed as of now
func (f *Feed) Casts(ctx context.Context) ([]models.EnrichedCast, error) {
	return Aggregate(ctx, f.Hub, f.Channels, f.Now(), f.Window)
}

type datedCast struct {
	cast models.Cast
	time time.Time
}

// Aggregate fetches every channel concurrently, keeps casts no older than
// now-window, orders them newest first and attaches author profiles. One
// failing channel is skipped; only when every channel fails is an error
// returned.
func Aggregate(ctx context.Context, h Hub, channels []config.Channel, now time.Time, window time.Duration) ([]models.EnrichedCast, error) {
	start := time.Now()
	defer func() {
		aggregationDuration.Observe(time.Since(start).Seconds())
	}()

	perChannel, err := fetchChannels(ctx, h, channels)
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-window)
	dated := lo.Map(lo.Flatten(perChannel), func(cast models.Cast, _ int) datedCast {
		return datedCast{cast: cast, time: CalendarTime(cast.Timestamp)}
	})
	recent := lo.Filter(dated, func(c datedCast, _ int) bool {
		return !c.time.Before(cutoff)
	})

	slices.SortStableFunc(recent, func(a, b datedCast) int {
		return b.time.Compare(a.time)
	})

	enriched := enrich(ctx, h, recent)

	castsServed.Observe(float64(len(enriched)))
	log.WithFields(log.Fields{
		"channels": len(channels),
		"fetched":  len(dated),
		"served":   len(enriched),
		"cutoff":   cutoff.Format(time.RFC3339),
	}).Info("Aggregated feed")

	return enriched, nil
}

func fetchChannels(ctx context.Context, h Hub, channels []config.Channel) ([][]models.Cast, error) {
	results := make([][]models.Cast, len(channels))
	errs := make([]error, len(channels))

	var g errgroup.Group
	for i, channel := range channels {
		g.Go(func() error {
			messages, err := h.CastsByChannel(ctx, channel.URL)
			if err != nil {
				channelFailures.WithLabelValues(channel.Tag).Inc()
				log.WithFields(log.Fields{
					"channel": channel.URL,
					"error":   err,
				}).Warn("Channel fetch failed")
				errs[i] = fmt.Errorf("channel %s: %w", channel.Tag, err)
				return nil
			}
			results[i] = lo.Map(messages, func(msg hub.Message, _ int) models.Cast {
				return msg.ToCast(channel.Tag)
			})
			return nil
		})
	}
	g.Wait()

	failed := lo.Compact(errs)
	if len(channels) > 0 && len(failed) == len(channels) {
		return nil, fmt.Errorf("all channel fetches failed: %w", errors.Join(failed...))
	}
	return results, nil
}

// enrich attaches profiles. UserProfile never fails, so neither does this.
func enrich(ctx context.Context, h Hub, casts []datedCast) []models.EnrichedCast {
	enriched := make([]models.EnrichedCast, len(casts))

	var g errgroup.Group
	g.SetLimit(profileConcurrency)
	for i, c := range casts {
		g.Go(func() error {
			profile := h.UserProfile(ctx, c.cast.Fid)
			enriched[i] = models.EnrichedCast{
				Fid:         c.cast.Fid,
				Timestamp:   FormatTimestamp(c.time),
				Time:        c.time,
				Text:        c.cast.Text,
				Hash:        c.cast.Hash,
				Embeds:      SanitizeEmbeds(c.cast.Embeds),
				Pfp:         profile.Pfp,
				DisplayName: profile.DisplayName,
				ChannelTag:  c.cast.ChannelTag,
			}
			return nil
		})
	}
	g.Wait()
	return enriched
}

// SanitizeEmbeds keeps quoted casts as they are and drops link embeds whose
// URL is missing or unsafe to render.
func SanitizeEmbeds(embeds []models.Embed) []models.Embed {
	sanitized := make([]models.Embed, 0, len(embeds))
	for _, embed := range embeds {
		if embed.CastID != nil {
			sanitized = append(sanitized, embed)
			continue
		}
		if url := links.Sanitize(embed.URL); url != nil {
			sanitized = append(sanitized, models.Embed{URL: url})
		}
	}
	return sanitized
}
