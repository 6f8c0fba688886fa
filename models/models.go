package models

import "time"

// CastID references a cast by author and hash
type CastID struct {
	Fid  uint64 `json:"fid"`
	Hash string `json:"hash"`
}

// Embed is either an external link or a quoted cast
type Embed struct {
	URL    *string `json:"url,omitempty"`
	CastID *CastID `json:"castId,omitempty"`
}

// IsCast reports whether the embed quotes another cast
func (e Embed) IsCast() bool {
	return e.CastID != nil && e.CastID.Fid != 0 && e.CastID.Hash != ""
}

// Cast model with key fields from a hub message
type Cast struct {
	Fid        uint64  `json:"fid"`
	Timestamp  int64   `json:"timestamp"`
	Text       string  `json:"text"`
	Hash       string  `json:"hash"`
	Embeds     []Embed `json:"embeds"`
	ChannelTag string  `json:"channelTag"`
}

type UserProfile struct {
	Pfp         *string `json:"pfp"`
	DisplayName string  `json:"displayName"`
}

// EnrichedCast is a cast as served to the renderer
type EnrichedCast struct {
	Fid         uint64    `json:"fid"`
	Timestamp   string    `json:"timestamp"`
	Time        time.Time `json:"-"`
	Text        string    `json:"text"`
	Hash        string    `json:"hash"`
	Embeds      []Embed   `json:"embeds"`
	Pfp         *string   `json:"pfp"`
	DisplayName string    `json:"displayName"`
	ChannelTag  string    `json:"channelTag"`
}

type LinkPreview struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	URL         string  `json:"url"`
}

type FeedResponse struct {
	Casts []EnrichedCast `json:"casts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
