package balancer

import "sync"

// WeightedRoundRobin interleaves servers in proportion to their weights.
//
// # Algorithm
//
// A cursor walks the pool; each time it wraps, the current weight drops by
// the GCD of all weights and resets to the maximum weight when it reaches
// zero. A server is chosen when its weight is at least the current weight.
// Over sum(weights)/gcd consecutive selections every server is picked
// exactly weight/gcd times, and heavier servers are spread out rather than
// picked back to back.
//
// Example: weights A=3, B=2 yield A A B A B, repeating.
type WeightedRoundRobin struct {
	mu      sync.Mutex
	index   int
	current int
}

// NewWeightedRoundRobin creates a weighted round-robin strategy.
func NewWeightedRoundRobin() *WeightedRoundRobin {
	return &WeightedRoundRobin{index: -1}
}

// Select returns the next server in the weighted cycle.
func (s *WeightedRoundRobin) Select(_ Request, available []*Server) (*Server, error) {
	if len(available) == 0 {
		return nil, &NoServersError{Strategy: s.Name()}
	}

	maxWeight, step := 0, 0
	for _, srv := range available {
		w := srv.Weight()
		maxWeight = max(maxWeight, w)
		step = gcd(step, w)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A pool that shrank since the last call restarts the cursor.
	if s.index >= len(available) {
		s.index = -1
	}
	if s.current > maxWeight {
		s.current = maxWeight
	}

	for {
		s.index = (s.index + 1) % len(available)
		if s.index == 0 {
			s.current -= step
			if s.current <= 0 {
				s.current = maxWeight
			}
		}
		if available[s.index].Weight() >= s.current {
			return available[s.index], nil
		}
	}
}

// Name returns the strategy name.
func (s *WeightedRoundRobin) Name() string { return StrategyWeightedRoundRobin }

// Reset restarts the cycle.
func (s *WeightedRoundRobin) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = -1
	s.current = 0
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
