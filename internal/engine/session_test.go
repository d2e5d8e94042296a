package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexscan/nexscan/internal/probe"
)

func testRequest(ports ...uint16) ScanRequest {
	return ScanRequest{
		Target:      "127.0.0.1",
		Ports:       ports,
		Mode:        probe.ModeConnect,
		Timeout:     time.Second,
		Concurrency: 4,
	}
}

func TestSessionRecordAndFinalize(t *testing.T) {
	session := NewSession(testRequest(22, 80, 443))
	require.NotEmpty(t, session.ID)
	assert.False(t, session.Complete())

	// Completion order differs from port order on purpose.
	session.Record(PortResult{Port: 443, Protocol: "tcp", State: probe.StateOpen})
	session.Record(PortResult{Port: 22, Protocol: "tcp", State: probe.StateClosed})
	session.Record(PortResult{Port: 80, Protocol: "tcp", State: probe.StateFiltered})

	assert.True(t, session.Complete())
	session.Finalize()

	results := session.Results()
	require.Len(t, results, 3)
	assert.Equal(t, uint16(22), results[0].Port)
	assert.Equal(t, uint16(80), results[1].Port)
	assert.Equal(t, uint16(443), results[2].Port)
	assert.False(t, session.EndTime.IsZero())
}

func TestSessionDuplicatePanics(t *testing.T) {
	session := NewSession(testRequest(80))
	session.Record(PortResult{Port: 80, State: probe.StateOpen})

	assert.Panics(t, func() {
		session.Record(PortResult{Port: 80, State: probe.StateClosed})
	})
}

func TestSessionConcurrentRecord(t *testing.T) {
	portCount := 500
	portSet := make([]uint16, portCount)
	for i := range portSet {
		portSet[i] = uint16(i + 1)
	}
	session := NewSession(testRequest(portSet...))

	var wg sync.WaitGroup
	for _, port := range portSet {
		wg.Add(1)
		go func(p uint16) {
			defer wg.Done()
			session.Record(PortResult{Port: p, State: probe.StateClosed})
		}(port)
	}
	wg.Wait()

	session.Finalize()
	results := session.Results()
	require.Len(t, results, portCount)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].Port, results[i].Port)
	}
}

func TestSessionFinalizeIdempotent(t *testing.T) {
	session := NewSession(testRequest(80))
	session.Record(PortResult{Port: 80, State: probe.StateOpen})

	session.Finalize()
	end := session.EndTime
	time.Sleep(10 * time.Millisecond)
	session.Finalize()
	assert.Equal(t, end, session.EndTime)
}

func TestSessionStats(t *testing.T) {
	session := NewSession(testRequest(1, 2, 3, 4, 5))
	session.Record(PortResult{Port: 1, State: probe.StateOpen})
	session.Record(PortResult{Port: 2, State: probe.StateClosed})
	session.Record(PortResult{Port: 3, State: probe.StateFiltered})
	session.Record(PortResult{Port: 4, State: probe.StateOpenFiltered})
	session.Record(PortResult{Port: 5, State: probe.StateError})

	stats := session.Stats()
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.Closed)
	assert.Equal(t, 1, stats.Filtered)
	assert.Equal(t, 1, stats.OpenFiltered)
	assert.Equal(t, 1, stats.Errors)
}

func TestSessionIncompleteAfterPartialRecord(t *testing.T) {
	session := NewSession(testRequest(1, 2, 3))
	session.Record(PortResult{Port: 1, State: probe.StateOpen})
	session.Finalize()

	assert.False(t, session.Complete())
	assert.Equal(t, 1, session.Recorded())
}
