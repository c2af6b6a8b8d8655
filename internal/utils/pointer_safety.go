package utils

import "time"

func Ptr[T any](v T) *T {
	return &v
}

// TimePtrUTC copies t into a new pointer normalized to UTC; the zero time maps to nil.
func TimePtrUTC(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return Ptr(t.UTC())
}
