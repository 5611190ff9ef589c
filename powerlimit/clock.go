package powerlimit

import "time"

// Clock provides a monotonic millisecond timestamp.
type Clock interface {
	NowMillis() int64
}

// MonotonicClock counts milliseconds since it was created using the monotonic reading of time.Time.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	Millis int64
}

func (c *MockClock) NowMillis() int64 {
	return c.Millis
}

func (c *MockClock) Advance(d time.Duration) {
	c.Millis += d.Milliseconds()
}
