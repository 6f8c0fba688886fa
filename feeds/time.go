package feeds

import (
	"time"

	"aicaster/config"
)

// TimestampLayout is how cast times are rendered in API responses
const TimestampLayout = "2006-01-02 15:04:05"

// CalendarTime converts a protocol timestamp (seconds since the Farcaster
// epoch) to wall clock time in UTC.
func CalendarTime(timestamp int64) time.Time {
	return config.FarcasterEpoch.Add(time.Duration(timestamp) * time.Second)
}

// ProtocolTimestamp is the inverse of CalendarTime, truncated to seconds
func ProtocolTimestamp(t time.Time) int64 {
	return t.Unix() - config.FarcasterEpoch.Unix()
}

// FormatTimestamp renders t the way EnrichedCast.Timestamp expects
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
