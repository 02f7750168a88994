package retrieval

import "time"

// mustTimeAt builds a fixed time.Time at the given hour-of-day, for
// deterministic time-of-day-bucket tests.
func mustTimeAt(hour int) time.Time {
	return time.Date(2026, time.January, 5, hour, 0, 0, 0, time.UTC)
}
