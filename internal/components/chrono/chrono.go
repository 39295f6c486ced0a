package chrono

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// API is the clock used for timestamps and durations so that crawl reports
// can be asserted on deterministically.
type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl returns a clock in the timezone of the target site.
func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FakeImpl is a manually advanced clock.
type FakeImpl struct {
	mutex sync.Mutex
	now   time.Time
}

func NewFakeImpl(now time.Time) *FakeImpl {
	return &FakeImpl{now: now}
}

func (f *FakeImpl) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *FakeImpl) Location() *time.Location {
	return f.Now().Location()
}

func (f *FakeImpl) Advance(d time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
}
