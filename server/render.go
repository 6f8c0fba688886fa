package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"aicaster/feeds"
	"aicaster/hub"
	"aicaster/links"
	"aicaster/models"
)

//go:embed templates/*.html
var templates embed.FS

// Upper bound on embeds resolved at the same time for one page
const embedConcurrency = 8

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

var errIncompleteCastRef = errors.New("cast reference without fid or hash")

type embedKind string

const (
	embedCast      embedKind = "cast"
	embedImage     embedKind = "image"
	embedTweet     embedKind = "tweet"
	embedTweetLink embedKind = "tweet-link"
	embedLink      embedKind = "link"
)

type pageView struct {
	RenderID string
	Casts    []castView
	Error    string
}

type castView struct {
	Hash        string
	DisplayName string
	Pfp         string
	ChannelTag  string
	When        string
	Body        template.HTML
	Embeds      []embedView
}

type embedView struct {
	Kind    embedKind
	URL     string
	Label   string
	Link    *linkView
	Quoted  *quotedView
	Failure string
}

type linkView struct {
	Title       string
	Description string
	Image       string
}

type quotedView struct {
	DisplayName string
	Pfp         string
	Ago         string
	Body        template.HTML
}

type renderer struct {
	hub       Hub
	previewer Previewer
	now       func() time.Time
	tmpl      *template.Template
}

func newRenderer(h Hub, previewer Previewer, now func() time.Time) *renderer {
	return &renderer{
		hub:       h,
		previewer: previewer,
		now:       now,
		tmpl:      template.Must(template.ParseFS(templates, "templates/*.html")),
	}
}

// render builds the feed page. Every embed is resolved independently; the
// page is written once all of them have settled.
func (r *renderer) render(ctx context.Context, casts []models.EnrichedCast, feedErr error) ([]byte, error) {
	scope := newEmbedScope()
	page := pageView{RenderID: scope.id}
	if feedErr != nil {
		page.Error = "Failed to fetch casts"
	} else {
		page.Casts = r.resolve(ctx, scope, casts)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) resolve(ctx context.Context, scope *embedScope, casts []models.EnrichedCast) []castView {
	start := time.Now()

	views := make([]castView, len(casts))

	var g errgroup.Group
	g.SetLimit(embedConcurrency)
	for i, cast := range casts {
		views[i] = castView{
			Hash:        cast.Hash,
			DisplayName: cast.DisplayName,
			Pfp:         lo.FromPtr(cast.Pfp),
			ChannelTag:  cast.ChannelTag,
			When:        cast.Time.UTC().Format("Jan 2, 3:04 PM"),
			Body:        linkify(cast.Text),
			Embeds:      make([]embedView, len(cast.Embeds)),
		}

		for j, embed := range cast.Embeds {
			// Claims are taken in document order so the first occurrence
			// of a tweet is the one that gets the widget
			firstTweet := false
			if embed.URL != nil && links.Classify(*embed.URL) == links.KindSocialPost {
				firstTweet = scope.claimTweet(cast.Hash, *embed.URL)
			}

			g.Go(func() error {
				views[i].Embeds[j] = r.resolveEmbed(ctx, scope, embed, firstTweet)
				return nil
			})
		}
	}
	g.Wait()

	log.WithFields(log.Fields{
		"scope":   scope.id,
		"casts":   len(casts),
		"latency": time.Since(start),
	}).Debug("Resolved embeds")

	return views
}

func (r *renderer) resolveEmbed(ctx context.Context, scope *embedScope, embed models.Embed, firstTweet bool) embedView {
	if embed.CastID != nil {
		return r.resolveQuoted(ctx, scope, embed)
	}

	url := lo.FromPtr(embed.URL)
	switch links.Classify(url) {
	case links.KindSocialPost:
		if !firstTweet || links.TweetID(url) == "" {
			return embedView{Kind: embedTweetLink, URL: url, Label: fmt.Sprintf("Twitter Embed (url: %s)", url)}
		}
		return embedView{Kind: embedTweet, URL: links.Canonical(url), Label: fmt.Sprintf("Twitter Embed (url: %s)", url)}

	case links.KindImage:
		return embedView{Kind: embedImage, URL: url, Label: fmt.Sprintf("Image Embed (url: %s)", url)}

	default:
		preview := r.previewer.Preview(ctx, url)
		return embedView{
			Kind:  embedLink,
			URL:   url,
			Label: fmt.Sprintf("OpenGraph Embed (url: %s)", url),
			Link: &linkView{
				Title:       lo.FromPtr(preview.Title),
				Description: lo.FromPtr(preview.Description),
				Image:       lo.FromPtr(preview.Image),
			},
		}
	}
}

func (r *renderer) resolveQuoted(ctx context.Context, scope *embedScope, embed models.Embed) embedView {
	id := *embed.CastID
	view := embedView{
		Kind:  embedCast,
		Label: fmt.Sprintf("Cast Embed (fid: %d, hash: %s)", id.Fid, id.Hash),
	}

	// Incomplete references are never sent to the hub
	err := errIncompleteCastRef
	var msg *hub.Message
	if embed.IsCast() {
		msg, err = r.hub.CastByID(ctx, id.Fid, id.Hash)
		if err == nil {
			err = msg.ValidateCast()
		}
	}
	if err != nil {
		log.WithFields(log.Fields{
			"render": scope.id,
			"fid":    id.Fid,
			"hash":   id.Hash,
			"error":  err,
		}).Warn("Failed to load quoted cast")
		view.Failure = "Failed to load cast"
		return view
	}

	cast := msg.ToCast("")
	profile := r.hub.UserProfile(ctx, cast.Fid)
	view.Quoted = &quotedView{
		DisplayName: profile.DisplayName,
		Pfp:         lo.FromPtr(profile.Pfp),
		Ago:         humanize.RelTime(feeds.CalendarTime(cast.Timestamp), r.now(), "ago", "from now"),
		Body:        linkify(cast.Text),
	}
	return view
}

// linkify escapes text and turns safe http(s) URLs into anchors
func linkify(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		b.WriteString(template.HTMLEscapeString(text[last:loc[0]]))
		raw := text[loc[0]:loc[1]]
		if safe, ok := links.SanitizeString(raw); ok {
			fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				template.HTMLEscapeString(safe), template.HTMLEscapeString(raw))
		} else {
			b.WriteString(template.HTMLEscapeString(raw))
		}
		last = loc[1]
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(strings.TrimSpace(b.String()))
}
