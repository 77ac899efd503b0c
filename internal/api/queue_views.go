package api

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// SortQueueItemsNewestFirst orders items by CreatedAt descending, breaking
// ties by ID descending. The input slice is not modified.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b QueueItem) int {
		if c := ParseQueueTime(b.CreatedAt).Compare(ParseQueueTime(a.CreatedAt)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseQueueTime parses an API timestamp, returning the zero time for empty or
// malformed values.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// FormatAge renders how long ago value was, for table output.
func FormatAge(value string, now time.Time) string {
	t := ParseQueueTime(value)
	if t.IsZero() {
		return "-"
	}
	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return formatUnit(int(age/time.Minute), "m")
	case age < 48*time.Hour:
		return formatUnit(int(age/time.Hour), "h")
	default:
		return formatUnit(int(age/(24*time.Hour)), "d")
	}
}

func formatUnit(n int, unit string) string {
	return strconv.Itoa(n) + unit + " ago"
}
