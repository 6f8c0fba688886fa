// Package channels finds AI related channels in a hub channel directory dump.
package channels

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var keywords = lo.Map([]string{
	`\bai\b`,
	`artificial intelligence`,
	`\bllm\b`,
	`machine learning`,
	`deep learning`,
	`neural`,
	`\bgpt\b`,
	`\bml\b`,
	`chatbot`,
	`language model`,
	`robotics`,
	`automation`,
}, func(pattern string, _ int) *regexp.Regexp {
	return regexp.MustCompile(pattern)
})

type Channel struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type directory struct {
	Result struct {
		Channels []Channel `json:"channels"`
	} `json:"result"`
}

// IsAIRelated reports whether text mentions one of the keywords, ignoring case
func IsAIRelated(text string) bool {
	text = strings.ToLower(text)
	return lo.SomeBy(keywords, func(re *regexp.Regexp) bool {
		return re.MatchString(text)
	})
}

// Decode reads a directory dump shaped like {"result":{"channels":[...]}}
func Decode(r io.Reader) ([]Channel, error) {
	var dir directory
	if err := json.NewDecoder(r).Decode(&dir); err != nil {
		return nil, fmt.Errorf("decode channel directory: %w", err)
	}
	return dir.Result.Channels, nil
}

// Find returns the channels whose name or description is AI related, in
// directory order
func Find(channels []Channel) []Channel {
	return lo.Filter(channels, func(c Channel, _ int) bool {
		return IsAIRelated(c.Name) || IsAIRelated(c.Description)
	})
}

// FindInFile decodes the directory dump at path and filters it
func FindInFile(path string) ([]Channel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channel directory: %w", err)
	}
	defer f.Close()

	all, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return Find(all), nil
}
