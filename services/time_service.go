package services

import "time"

// sortableLayout keeps a fixed width so timestamps sort lexically.
const sortableLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(sortableLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(sortableLayout, s)
}
