package channels_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aicaster/channels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAIRelated(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "standalone ai", text: "All things AI", expected: true},
		{name: "ai inside a word", text: "Daily haiku and Thai food", expected: false},
		{name: "phrase", text: "Notes on Machine Learning", expected: true},
		{name: "llm with punctuation", text: "LLM, agents and tools", expected: true},
		{name: "gpt", text: "gpt tinkering", expected: true},
		{name: "ml inside a word", text: "html and xml", expected: false},
		{name: "neural prefix", text: "neuralink fans", expected: true},
		{name: "empty", text: "", expected: false},
		{name: "unrelated", text: "Photography from the Nordics", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, channels.IsAIRelated(tt.text))
		})
	}
}

const directory = `{
  "result": {
    "channels": [
      {"id": "aichannel", "url": "https://warpcast.com/~/channel/aichannel", "name": "AI Channel", "description": "talk"},
      {"id": "food", "url": "https://warpcast.com/~/channel/food", "name": "Food", "description": "Thai curry"},
      {"id": "bots", "url": "https://warpcast.com/~/channel/bots", "name": "bots", "description": "Chatbot builders"},
      {"id": "art", "url": "https://warpcast.com/~/channel/art", "name": "art", "description": ""}
    ]
  }
}`

func TestFind(t *testing.T) {
	all, err := channels.Decode(strings.NewReader(directory))
	require.NoError(t, err)
	require.Len(t, all, 4)

	found := channels.Find(all)
	require.Len(t, found, 2)
	assert.Equal(t, "aichannel", found[0].ID)
	assert.Equal(t, "bots", found[1].ID)
	assert.Equal(t, "https://warpcast.com/~/channel/bots", found[1].URL)
}

func TestFindInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")
	require.NoError(t, os.WriteFile(path, []byte(directory), 0o600))

	found, err := channels.FindInFile(path)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = channels.FindInFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := channels.Decode(strings.NewReader(`{"result":`))
	assert.Error(t, err)
}
