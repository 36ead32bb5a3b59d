package dispatch

import (
	"errors"
	"sync"
)

// Cost weights, ordered by severity: an endpoint already serving a request is
// heavily deprioritized, recent failures come next, and accumulated token
// usage is the finest-grained tiebreaker.
const (
	failurePenaltyWeight  = 300
	inFlightPenaltyWeight = 1000
)

// ErrNoEndpointAvailable is returned when every configured endpoint has
// already been excluded for the current request.
var ErrNoEndpointAvailable = errors.New("no endpoint available: all configured endpoints excluded")

type endpointScore struct {
	// Total tokens this endpoint has served. Monotonically increasing.
	totalTokens int64

	// Number of unrecoverable attempts. Never decremented while the
	// dispatcher lives.
	failures int64

	// Number of attempts currently outstanding. Back to zero between
	// requests.
	inFlight int64
}

// Scoreboard ranks endpoints by current cost. It is shared by every request
// routed through one dispatcher and fully synchronized; load balancing stays
// advisory because two concurrent selections may still pick the same
// endpoint after both observe its score.
type Scoreboard struct {
	mu     sync.Mutex
	order  []string
	scores map[string]*endpointScore
}

func NewScoreboard(names []string) *Scoreboard {
	scores := make(map[string]*endpointScore, len(names))
	for _, name := range names {
		scores[name] = &endpointScore{}
	}
	return &Scoreboard{order: append([]string(nil), names...), scores: scores}
}

// Select returns the cheapest endpoint not in excluded and marks it in
// flight before any network call happens, so concurrent selections observe
// the updated load. Ties go to the earlier endpoint in configuration order.
func (b *Scoreboard) Select(excluded map[string]struct{}) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	selected := ""
	var selectedCost int64
	for _, name := range b.order {
		if _, ok := excluded[name]; ok {
			continue
		}
		cost := b.scores[name].cost()
		if selected == "" || cost < selectedCost {
			selected = name
			selectedCost = cost
		}
	}
	if selected == "" {
		return "", ErrNoEndpointAvailable
	}

	b.scores[selected].inFlight++
	return selected, nil
}

// Release undoes the in-flight mark from Select. Safe to call on every exit
// path; the penalty never goes below zero.
func (b *Scoreboard) Release(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score, ok := b.scores[name]; ok && score.inFlight > 0 {
		score.inFlight--
	}
}

// Penalize records an unrecoverable attempt against the endpoint.
func (b *Scoreboard) Penalize(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score, ok := b.scores[name]; ok {
		score.failures++
	}
}

// AddTokens charges served token usage to the endpoint.
func (b *Scoreboard) AddTokens(name string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if score, ok := b.scores[name]; ok {
		score.totalTokens += tokens
	}
}

// Counters reports the raw counter values for one endpoint.
func (b *Scoreboard) Counters(name string) (totalTokens int64, failures int64, inFlight int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	score, ok := b.scores[name]
	if !ok {
		return 0, 0, 0
	}
	return score.totalTokens, score.failures, score.inFlight
}

func (s *endpointScore) cost() int64 {
	return s.totalTokens + s.failures*failurePenaltyWeight + s.inFlight*inFlightPenaltyWeight
}
