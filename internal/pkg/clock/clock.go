package clock

import "time"

// Clock abstracts time.Now so expiry logic can be tested with a fixed time.
type Clock interface {
	Now() time.Time
}

// System is the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }
