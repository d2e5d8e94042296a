// Package engine runs scans: it fans a request's port set out to a fixed
// worker pool, drives the probe strategy under an optional global rate
// limit, and aggregates classified results into a session.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	scanerrors "github.com/nexscan/nexscan/internal/errors"
	"github.com/nexscan/nexscan/internal/logging"
	"github.com/nexscan/nexscan/internal/metrics"
	"github.com/nexscan/nexscan/internal/ports"
	"github.com/nexscan/nexscan/internal/probe"
)

var validate = validator.New()

// ResultFunc is invoked for each classified port as the scan runs. Calls
// arrive in completion order, not port order; the finalized session holds
// the sorted view.
type ResultFunc func(PortResult)

// Engine executes one scan request with a fixed-size worker pool.
type Engine struct {
	req      ScanRequest
	strategy probe.Strategy
	sampler  *probe.BannerSampler
	limiter  *limiter
	logger   *logging.Logger

	// OnResult, when set, streams results as they are classified.
	OnResult ResultFunc
}

// New validates the request and builds the engine. Strategy construction
// performs the one-time privilege check for half-open mode, so insufficient
// privilege surfaces here rather than per port.
func New(req ScanRequest) (*Engine, error) {
	if err := validate.Struct(req); err != nil {
		return nil, scanerrors.WrapScanError(scanerrors.CodeValidation,
			"invalid scan request", err)
	}

	keepOpen := req.GrabBanners && req.Mode == probe.ModeConnect
	strategy, err := probe.NewStrategy(req.Mode, probe.Options{
		Target:   req.Target,
		Timeout:  req.Timeout,
		KeepOpen: keepOpen,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		req:      req,
		strategy: strategy,
		limiter:  newLimiter(req.RateLimit),
		logger:   logging.Default().WithComponent("engine").WithTarget(req.Target),
	}
	if keepOpen {
		e.sampler = probe.NewBannerSampler(req.Timeout)
	}
	return e, nil
}

// Scan runs the request to completion or cancellation and returns the
// finalized session. Cancellation is not an error: the session is returned
// with the results recorded so far, and callers detect the truncation via
// Complete.
func (e *Engine) Scan(ctx context.Context) (*ScanSession, error) {
	session := NewSession(e.req)
	defer e.strategy.Close()

	log := e.logger.WithScanID(session.ID)
	log.InfoScan("scan started", e.req.Target,
		"scan_type", string(e.req.Mode),
		"ports", len(e.req.Ports),
		"concurrency", e.req.Concurrency,
		"rate_limit", e.req.RateLimit)

	timer := metrics.NewTimer(metrics.MetricScanDuration, metrics.Labels{
		metrics.LabelScanType: string(e.req.Mode),
		metrics.LabelTarget:   e.req.Target,
	})
	prom := metrics.GetGlobalMetrics()
	prom.SetActiveScans(1)
	defer prom.SetActiveScans(0)

	portCh := make(chan uint16)
	var dispatch sync.WaitGroup
	dispatch.Add(1)
	go func() {
		defer dispatch.Done()
		defer close(portCh)
		for _, port := range e.req.Ports {
			select {
			case portCh <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	var workers sync.WaitGroup
	metrics.SetActiveWorkers(e.req.Concurrency)
	prom.SetActiveWorkers(e.req.Concurrency)
	for i := 0; i < e.req.Concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			e.runWorker(ctx, session, portCh, log)
		}()
	}

	workers.Wait()
	dispatch.Wait()
	metrics.SetActiveWorkers(0)
	prom.SetActiveWorkers(0)

	session.Finalize()
	timer.Stop()

	status := "completed"
	if !session.Complete() {
		status = "canceled"
	}
	metrics.IncrementScanTotal(string(e.req.Mode), status)
	prom.IncrementScansTotal(string(e.req.Mode), status)
	prom.RecordScanDuration(string(e.req.Mode), session.Duration())
	prom.UpdateSystemMetrics()

	stats := session.Stats()
	log.InfoScan("scan finished", e.req.Target,
		"status", status,
		"duration", session.Duration().String(),
		"scanned", stats.Total,
		"open", stats.Open,
		"closed", stats.Closed,
		"filtered", stats.Filtered+stats.OpenFiltered,
		"errors", stats.Errors)

	return session, nil
}

// runWorker pulls ports until the channel drains or ctx is canceled. Each
// port costs one rate-limit token acquired before the probe launches.
func (e *Engine) runWorker(ctx context.Context, session *ScanSession, portCh <-chan uint16, log *logging.Logger) {
	protocol := e.req.Mode.Protocol()

	for {
		select {
		case <-ctx.Done():
			return
		case port, ok := <-portCh:
			if !ok {
				return
			}
			if err := e.limiter.acquire(ctx); err != nil {
				return
			}

			res := e.probePort(ctx, port, protocol, log)
			session.Record(res)
			metrics.IncrementProbesTotal(protocol, string(res.State))
			if e.OnResult != nil {
				e.OnResult(res)
			}
		}
	}
}

// probePort runs one probe and shapes the classified result, sampling a
// banner when the strategy handed back an open connection.
func (e *Engine) probePort(ctx context.Context, port uint16, protocol string, log *logging.Logger) PortResult {
	start := time.Now()
	pr := e.strategy.Probe(ctx, port)
	prom := metrics.GetGlobalMetrics()
	prom.IncrementProbesTotal(protocol, string(pr.State))
	prom.RecordProbeDuration(protocol, time.Since(start))
	if pr.State == probe.StateError {
		metrics.IncrementScanErrors(string(e.req.Mode), e.req.Target, pr.Outcome.String())
		prom.IncrementScanErrors(string(e.req.Mode), pr.Outcome.String())
	}
	log.DebugProbe("probe done", e.req.Target, port,
		"outcome", pr.Outcome.String(),
		"state", string(pr.State),
		"elapsed", time.Since(start).String())

	res := PortResult{
		Port:     port,
		Protocol: protocol,
		State:    pr.State,
		Reason:   pr.Reason,
		RTT:      pr.RTT,
	}
	if pr.State == probe.StateOpen {
		res.Service = ports.ServiceName(port, protocol)
	}

	if pr.Conn != nil {
		if e.sampler != nil && pr.State == probe.StateOpen {
			res.Banner = e.sampler.Sample(ctx, pr.Conn)
			if res.Banner != "" {
				metrics.IncrementBannersTotal("ok")
			} else {
				metrics.IncrementBannersTotal("empty")
			}
		}
		_ = pr.Conn.Close()
	} else if e.req.GrabBanners && len(pr.Payload) > 0 {
		// UDP responses double as banners.
		res.Banner = probe.CleanBanner(pr.Payload)
	}

	return res
}
