package service

import "time"

// Clock abstracts time so schedulers and stores can be driven from tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func epochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
