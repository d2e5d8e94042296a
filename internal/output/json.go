package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nexscan/nexscan/internal/engine"
)

// jsonReport is the document shape for JSON output.
type jsonReport struct {
	ID        string              `json:"id"`
	Target    string              `json:"target"`
	Hostname  string              `json:"hostname,omitempty"`
	ScanType  string              `json:"scan_type"`
	StartTime time.Time           `json:"start_time"`
	Duration  string              `json:"duration"`
	Complete  bool                `json:"complete"`
	Stats     engine.Stats        `json:"stats"`
	Results   []engine.PortResult `json:"results"`
}

func writeJSON(w io.Writer, session *engine.ScanSession, opts Options) error {
	report := jsonReport{
		ID:        session.ID,
		Target:    session.Request.Target,
		Hostname:  session.Request.Hostname,
		ScanType:  string(session.Request.Mode),
		StartTime: session.StartTime,
		Duration:  session.Duration().String(),
		Complete:  session.Complete(),
		Stats:     session.Stats(),
		Results:   visible(session.Results(), opts.ShowAll),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
