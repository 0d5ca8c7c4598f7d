package common

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Analysis struct {
	allowed bool          // If the request is allowed
	wait    time.Duration // The minimal time to wait before the request is allowed
}

// RateLimiter throttles outgoing messages so the bot does not get rate
// limited by discord. Wait blocks until the configured restrictions allow
// one more message
type RateLimiter struct {
	mu           sync.Mutex
	restrictions []Restriction // Restrictions to consider
	history      []time.Time   // History of requests
	duration     time.Duration // Min duration to wait for all restrictions to be lifted
}

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := RateLimiter{}
	rl.restrictions = append(rl.restrictions, restrictions...)
	for _, restriction := range restrictions {
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	return &rl
}

// Wait blocks until the restrictions allow one more request, then records
// the request in the history
func (rl *RateLimiter) Wait() {
	for {
		rl.mu.Lock()
		rl.trim()
		analysis := rl.analyse()
		if analysis.allowed {
			rl.history = append(rl.history, time.Now())
			rl.mu.Unlock()
			return
		}
		rl.mu.Unlock()
		log.Debug().Msgf("Rate limiter delaying message %v", analysis.wait)
		time.Sleep(analysis.wait)
	}
}

// Trim the current history, leaving only the requests
// that are young enough to be affected by at least one restriction
func (rl *RateLimiter) trim() {
	currentTime := time.Now()
	// Find the index from which we need to keep the history.
	// Start searching at the end of the slice.
	// Times are stored in chronological order
	index := 0
	for i := len(rl.history) - 1; i >= 0; i-- {
		if currentTime.Sub(rl.history[i]) > rl.duration {
			index = i + 1
			break
		}
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse() Analysis {

	// Merge the analyses of all the restrictions
	var wait time.Duration
	allowed := true
	for i := range rl.restrictions {
		analysis := rl.restrictions[i].Analyse(rl.history)
		allowed = allowed && analysis.allowed
		if analysis.wait > wait {
			wait = analysis.wait
		}
	}
	return Analysis{allowed, wait}
}
