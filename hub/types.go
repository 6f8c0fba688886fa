package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"aicaster/models"
)

const (
	UserDataTypePfp     = "USER_DATA_TYPE_PFP"
	UserDataTypeDisplay = "USER_DATA_TYPE_DISPLAY"
)

var ErrMalformedMessage = errors.New("malformed hub message")

// Message is a hub message envelope. Only the fields this service reads are
// typed; everything else survives in Raw.
type Message struct {
	Data            *MessageData `json:"data"`
	Hash            string       `json:"hash"`
	HashScheme      string       `json:"hashScheme,omitempty"`
	Signature       string       `json:"signature,omitempty"`
	SignatureScheme string       `json:"signatureScheme,omitempty"`
	Signer          string       `json:"signer,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type MessageData struct {
	Type         string        `json:"type"`
	Fid          uint64        `json:"fid"`
	Timestamp    int64         `json:"timestamp"`
	Network      string        `json:"network"`
	CastAddBody  *CastAddBody  `json:"castAddBody,omitempty"`
	UserDataBody *UserDataBody `json:"userDataBody,omitempty"`
}

type CastAddBody struct {
	Text              string     `json:"text"`
	Embeds            []RawEmbed `json:"embeds"`
	ParentURL         string     `json:"parentUrl,omitempty"`
	Mentions          []uint64   `json:"mentions,omitempty"`
	MentionsPositions []int      `json:"mentionsPositions,omitempty"`
}

type UserDataBody struct {
	Type  string  `json:"type"`
	Value *string `json:"value"`
}

// RawEmbed is an embed as the hub sends it. Older payloads use "cast"
// instead of "castId" for quoted casts.
type RawEmbed struct {
	URL    *string        `json:"url"`
	CastID *models.CastID `json:"castId"`
	Cast   *models.CastID `json:"cast"`
}

// castsResponse is the body of /v1/castsByParent
type castsResponse struct {
	Messages      []json.RawMessage `json:"messages"`
	NextPageToken string            `json:"nextPageToken"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ValidateCast checks that the message carries a cast body
func (m *Message) ValidateCast() error {
	if m.Data == nil {
		return fmt.Errorf("%w: missing data", ErrMalformedMessage)
	}
	if m.Data.CastAddBody == nil {
		return fmt.Errorf("%w: missing castAddBody", ErrMalformedMessage)
	}
	if m.Hash == "" {
		return fmt.Errorf("%w: missing hash", ErrMalformedMessage)
	}
	if m.Data.Fid == 0 {
		return fmt.Errorf("%w: missing fid", ErrMalformedMessage)
	}
	return nil
}

// ToCast converts a validated cast message into the domain model. Embed
// order is preserved and the legacy "cast" field is folded into CastID.
func (m *Message) ToCast(channelTag string) models.Cast {
	body := m.Data.CastAddBody
	embeds := make([]models.Embed, 0, len(body.Embeds))
	for _, raw := range body.Embeds {
		embeds = append(embeds, raw.normalize())
	}

	return models.Cast{
		Fid:        m.Data.Fid,
		Timestamp:  m.Data.Timestamp,
		Text:       body.Text,
		Hash:       m.Hash,
		Embeds:     embeds,
		ChannelTag: channelTag,
	}
}

func (r RawEmbed) normalize() models.Embed {
	castID := r.CastID
	if castID == nil {
		castID = r.Cast
	}
	if castID != nil {
		return models.Embed{CastID: castID}
	}
	return models.Embed{URL: r.URL}
}

// userDataValue extracts the value of a userDataByFid response
func (m *Message) userDataValue() string {
	if m.Data == nil || m.Data.UserDataBody == nil || m.Data.UserDataBody.Value == nil {
		return ""
	}
	return *m.Data.UserDataBody.Value
}
