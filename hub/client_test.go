package hub_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aicaster/hub"
	"aicaster/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const castsBody = `{
  "messages": [
    {
      "data": {
        "type": "MESSAGE_TYPE_CAST_ADD",
        "fid": 3,
        "timestamp": 120000000,
        "network": "FARCASTER_NETWORK_MAINNET",
        "castAddBody": {
          "text": "hello",
          "parentUrl": "https://warpcast.com/~/channel/aichannel",
          "embeds": [
            {"url": "https://example.com/a"},
            {"castId": {"fid": 5, "hash": "0xabc"}},
            {"cast": {"fid": 6, "hash": "0xdef"}}
          ]
        }
      },
      "hash": "0x01"
    },
    {
      "data": {"type": "MESSAGE_TYPE_CAST_ADD", "fid": 4, "timestamp": 1},
      "hash": "0x02"
    },
    "not an object"
  ],
  "nextPageToken": ""
}`

func TestCastsByChannel(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/castsByParent", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Write([]byte(castsBody))
	}))
	defer srv.Close()

	client := hub.NewClient(srv.URL+"/", nil)
	messages, err := client.CastsByChannel(context.Background(), "chain://eip155:7777777/erc721:0x5747")
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, gotQuery["reverse"])
	assert.Equal(t, []string{"chain://eip155:7777777/erc721:0x5747"}, gotQuery["url"])

	// Only the well-formed cast survives validation
	require.Len(t, messages, 1)
	cast := messages[0].ToCast("AI")
	assert.Equal(t, uint64(3), cast.Fid)
	assert.Equal(t, int64(120000000), cast.Timestamp)
	assert.Equal(t, "hello", cast.Text)
	assert.Equal(t, "0x01", cast.Hash)
	assert.Equal(t, "AI", cast.ChannelTag)

	require.Len(t, cast.Embeds, 3)
	assert.Equal(t, "https://example.com/a", *cast.Embeds[0].URL)
	assert.Equal(t, "0xabc", cast.Embeds[1].CastID.Hash)
	assert.True(t, cast.Embeds[2].IsCast())
	assert.Equal(t, uint64(6), cast.Embeds[2].CastID.Fid)
}

func TestCastsByChannelDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"errCode":"not_found"}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>oops</html>`))
			},
		},
		{
			name: "no messages field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			messages, err := hub.NewClient(srv.URL, nil).CastsByChannel(context.Background(), "https://warpcast.com/~/channel/ai")
			require.NoError(t, err)
			assert.Empty(t, messages)
			assert.NotNil(t, messages)
		})
	}
}

func TestCastsByChannelTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := hub.NewClient(srv.URL, nil).CastsByChannel(context.Background(), "https://warpcast.com/~/channel/ai")
	assert.Error(t, err)
}

func userDataHandler(pfp, display string, pfpStatus, displayStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, status := display, displayStatus
		if r.URL.Query().Get("user_data_type") == hub.UserDataTypePfp {
			value, status = pfp, pfpStatus
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(`{"data":{"type":"MESSAGE_TYPE_USER_DATA_ADD","fid":7,"userDataBody":{"value":"` + value + `"}},"hash":"0x9"}`))
		}
	}
}

func TestUserProfile(t *testing.T) {
	tests := []struct {
		name            string
		handler         http.HandlerFunc
		expectedPfp     *string
		expectedDisplay string
	}{
		{
			name:            "both fields",
			handler:         userDataHandler("https://i.imgur.com/a.png", "Alice", 200, 200),
			expectedPfp:     strPtr("https://i.imgur.com/a.png"),
			expectedDisplay: "Alice",
		},
		{
			name:            "unsafe avatar",
			handler:         userDataHandler("javascript:alert(1)", "Alice", 200, 200),
			expectedPfp:     nil,
			expectedDisplay: "Alice",
		},
		{
			name:            "missing display name",
			handler:         userDataHandler("https://i.imgur.com/a.png", "", 200, 404),
			expectedPfp:     strPtr("https://i.imgur.com/a.png"),
			expectedDisplay: "FID: 7",
		},
		{
			name:            "empty display name",
			handler:         userDataHandler("", "", 200, 200),
			expectedPfp:     nil,
			expectedDisplay: "FID: 7",
		},
		{
			name: "malformed bodies",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[`))
			},
			expectedPfp:     nil,
			expectedDisplay: "FID: 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			profile := hub.NewClient(srv.URL, nil).UserProfile(context.Background(), 7)
			assert.Equal(t, tt.expectedPfp, profile.Pfp)
			assert.Equal(t, tt.expectedDisplay, profile.DisplayName)
		})
	}
}

func TestUserProfileTransportFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := hub.NewClient(srv.URL, &http.Client{Timeout: 20 * time.Millisecond})
	profile := client.UserProfile(context.Background(), 42)
	assert.Equal(t, hub.FallbackProfile(42), profile)
	assert.Nil(t, profile.Pfp)
	assert.Equal(t, "FID: 42", profile.DisplayName)
}

func TestUserProfileSharedLookupOutlivesCancelledCaller(t *testing.T) {
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })
	arrived := make(chan struct{}, 4)
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		arrived <- struct{}{}
		<-release
		userDataHandler("https://i.imgur.com/a.png", "Alice", 200, 200)(w, r)
	}))
	defer srv.Close()
	defer releaseOnce()

	client := hub.NewClient(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan models.UserProfile, 1)
	go func() {
		first <- client.UserProfile(ctx, 7)
	}()

	// Both field lookups are in flight before the first caller goes away
	<-arrived
	<-arrived
	cancel()
	assert.Equal(t, hub.FallbackProfile(7), <-first)

	second := make(chan models.UserProfile, 1)
	go func() {
		second <- client.UserProfile(context.Background(), 7)
	}()
	time.Sleep(50 * time.Millisecond)
	releaseOnce()

	profile := <-second
	assert.Equal(t, "Alice", profile.DisplayName)
	require.NotNil(t, profile.Pfp)
	assert.Equal(t, "https://i.imgur.com/a.png", *profile.Pfp)

	// The second caller joined the running lookup instead of starting over
	assert.Equal(t, int32(2), requests.Load())
}

func TestCastByID(t *testing.T) {
	body := `{"data":{"type":"MESSAGE_TYPE_CAST_ADD","fid":2,"timestamp":5,"castAddBody":{"text":"quoted","embeds":[]}},"hash":"0xfeed","signer":"0x1"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/castById", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("fid"))
		assert.Equal(t, "0xfeed", r.URL.Query().Get("hash"))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	msg, err := hub.NewClient(srv.URL, nil).CastByID(context.Background(), 2, "0xfeed")
	require.NoError(t, err)
	require.NoError(t, msg.ValidateCast())
	assert.Equal(t, "quoted", msg.ToCast("").Text)
	assert.JSONEq(t, body, string(msg.Raw))
}

func TestCastByIDStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errCode":"not_found"}`))
	}))
	defer srv.Close()

	_, err := hub.NewClient(srv.URL, nil).CastByID(context.Background(), 2, "0xmissing")
	require.Error(t, err)

	var statusErr *hub.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestValidateCast(t *testing.T) {
	tests := []struct {
		name string
		msg  hub.Message
	}{
		{name: "no data", msg: hub.Message{Hash: "0x1"}},
		{name: "no body", msg: hub.Message{Hash: "0x1", Data: &hub.MessageData{Fid: 1}}},
		{name: "no hash", msg: hub.Message{Data: &hub.MessageData{Fid: 1, CastAddBody: &hub.CastAddBody{}}}},
		{name: "no fid", msg: hub.Message{Hash: "0x1", Data: &hub.MessageData{CastAddBody: &hub.CastAddBody{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.msg.ValidateCast(), hub.ErrMalformedMessage)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
