package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexscan/nexscan/internal/probe"
)

// ScanRequest describes one scan job: a resolved target, the ordered port
// set, and the knobs controlling probing behavior.
type ScanRequest struct {
	// Target is the IP address to scan.
	Target string `json:"target" validate:"required,ip"`
	// Hostname is the name the target was resolved from, if any.
	Hostname string `json:"hostname,omitempty"`
	// Ports is the deduplicated ascending port set to probe.
	Ports []uint16 `json:"ports" validate:"required,min=1"`
	// Mode selects the probe strategy.
	Mode probe.Mode `json:"scan_type" validate:"required"`
	// Timeout bounds each individual probe.
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
	// Concurrency is the fixed worker count.
	Concurrency int `json:"concurrency" validate:"gte=1,lte=1024"`
	// RateLimit caps probe launches per second; 0 disables the cap.
	RateLimit int `json:"rate_limit" validate:"gte=0"`
	// GrabBanners enables banner sampling on open connect-mode ports.
	GrabBanners bool `json:"grab_banners"`
}

// PortResult is the classified outcome for a single port.
type PortResult struct {
	Port     uint16      `json:"port"`
	Protocol string      `json:"protocol"`
	State    probe.State `json:"state"`
	Service  string      `json:"service,omitempty"`
	Banner   string      `json:"banner,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	RTT      time.Duration `json:"rtt_ns,omitempty"`
}

// Stats aggregates per-state counts for a finished session.
type Stats struct {
	Total        int `json:"total"`
	Open         int `json:"open"`
	Closed       int `json:"closed"`
	Filtered     int `json:"filtered"`
	OpenFiltered int `json:"open_filtered"`
	Errors       int `json:"errors"`
}

// ScanSession collects results for one scan run. Recording is safe for
// concurrent workers; Results and Stats are meaningful once the session is
// finalized, after which the result order is ascending by port.
type ScanSession struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`
	// Request is the request the session was created for.
	Request ScanRequest `json:"request"`
	// StartTime is when the session was created.
	StartTime time.Time `json:"start_time"`
	// EndTime is when the session was finalized; zero while running.
	EndTime time.Time `json:"end_time,omitempty"`

	mu       sync.Mutex
	results  []PortResult
	seen     map[uint16]bool
	finalize sync.Once
	done     bool
}

// NewSession creates a session for a request with a fresh UUID.
func NewSession(req ScanRequest) *ScanSession {
	return &ScanSession{
		ID:        uuid.New().String(),
		Request:   req,
		StartTime: time.Now(),
		results:   make([]PortResult, 0, len(req.Ports)),
		seen:      make(map[uint16]bool, len(req.Ports)),
	}
}

// Record adds one port result. Exactly one result per requested port is the
// aggregation contract; a second result for the same port indicates a
// dispatch bug and panics rather than silently corrupting the session.
func (s *ScanSession) Record(res PortResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[res.Port] {
		panic(fmt.Sprintf("engine: duplicate result for port %d in session %s", res.Port, s.ID))
	}
	s.seen[res.Port] = true
	s.results = append(s.results, res)
}

// Finalize stamps the end time and sorts results ascending by port. Safe to
// call more than once; only the first call takes effect.
func (s *ScanSession) Finalize() {
	s.finalize.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sort.Slice(s.results, func(i, j int) bool {
			return s.results[i].Port < s.results[j].Port
		})
		s.EndTime = time.Now()
		s.done = true
	})
}

// Results returns a copy of the recorded results, sorted when finalized.
func (s *ScanSession) Results() []PortResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PortResult, len(s.results))
	copy(out, s.results)
	return out
}

// Recorded returns how many results have been recorded so far.
func (s *ScanSession) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Complete reports whether every requested port has a recorded result.
// A canceled scan leaves the session incomplete.
func (s *ScanSession) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results) == len(s.Request.Ports)
}

// Duration returns the elapsed session time; live sessions measure from
// start to now.
func (s *ScanSession) Duration() time.Duration {
	s.mu.Lock()
	done, end := s.done, s.EndTime
	s.mu.Unlock()
	if done {
		return end.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Stats tallies the recorded results by state.
func (s *ScanSession) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.results)}
	for _, r := range s.results {
		switch r.State {
		case probe.StateOpen:
			st.Open++
		case probe.StateClosed:
			st.Closed++
		case probe.StateFiltered:
			st.Filtered++
		case probe.StateOpenFiltered:
			st.OpenFiltered++
		case probe.StateError:
			st.Errors++
		}
	}
	return st
}
