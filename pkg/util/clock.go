package util

import "time"

// Clock supplies the time used to stamp authenticated requests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// UnixSeconds is the decimal unix timestamp the venue expects in auth headers.
func UnixSeconds(c Clock) int64 {
	return c.Now().Unix()
}
