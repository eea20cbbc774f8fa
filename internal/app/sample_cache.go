package app

import (
	"sync"
	"time"

	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
)

// SampleCache keeps the most recent sample and fans new ones out to
// watchers. Slow watchers miss samples rather than block Store.
type SampleCache struct {
	mu       sync.RWMutex
	last     imu.Sample
	have     bool
	received time.Time
	status   ProducerStatus
	watchers map[chan imu.Sample]struct{}
}

// NewSampleCache returns an empty cache.
func NewSampleCache() *SampleCache {
	return &SampleCache{watchers: map[chan imu.Sample]struct{}{}}
}

// Store records s as the latest sample.
func (c *SampleCache) Store(s imu.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = s
	c.have = true
	c.received = time.Now()
	for ch := range c.watchers {
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest returns the latest sample and whether there is one.
func (c *SampleCache) Latest() (imu.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.have
}

// Age is the time since the latest sample arrived, zero when there is none.
func (c *SampleCache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.have {
		return 0
	}
	return time.Since(c.received)
}

// SetStatus records the producer's last announced state.
func (c *SampleCache) SetStatus(s ProducerStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

// Status returns the producer's last announced state.
func (c *SampleCache) Status() ProducerStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Watch returns a channel receiving every stored sample until cancel is
// called.
func (c *SampleCache) Watch(buffer int) (<-chan imu.Sample, func()) {
	ch := make(chan imu.Sample, buffer)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, ch)
			c.mu.Unlock()
		})
	}
}
