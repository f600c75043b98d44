package httputil

import (
	"errors"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrCircuitOpen is returned when a host's breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker open")

// breakerThreshold is the number of failures within the counting window
// that trips a breaker.
const breakerThreshold = 5

// Breakers holds one circuit breaker per upstream host. The zero value is
// ready to use.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// Get returns the breaker for host, creating it on first use.
func (b *Breakers) Get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, ok := b.breakers[host]; ok {
		return breaker
	}
	if b.breakers == nil {
		b.breakers = make(map[string]*circuit.Breaker)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	b.breakers[host] = breaker
	return breaker
}

// Call runs fn through the breaker for host. fn reports the host's health
// separately from its result: healthy=false counts as a breaker failure.
// It returns [ErrCircuitOpen] without calling fn when the breaker is open.
func (b *Breakers) Call(host string, fn func() (healthy bool, err error)) error {
	breaker := b.Get(host)
	if !breaker.Ready() {
		return ErrCircuitOpen
	}

	healthy, err := fn()
	if healthy {
		breaker.Success()
	} else {
		breaker.Fail()
	}
	return err
}

// States reports "open" or "closed" for every known host.
func (b *Breakers) States() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
