package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/nexscan/nexscan/internal/engine"
	"github.com/nexscan/nexscan/internal/probe"
)

const bannerDisplayCap = 60

// writeText renders a session as a header, a port table, and a stats footer.
func writeText(w io.Writer, session *engine.ScanSession, opts Options) error {
	paint := newPainter(opts.Color)

	target := session.Request.Target
	if session.Request.Hostname != "" && session.Request.Hostname != target {
		target = fmt.Sprintf("%s (%s)", session.Request.Hostname, target)
	}
	fmt.Fprintf(w, "Scan report for %s\n", paint.bold(target))
	fmt.Fprintf(w, "Scan type: %s, %d ports, started %s\n\n",
		session.Request.Mode,
		len(session.Request.Ports),
		session.StartTime.Format("2006-01-02 15:04:05"))

	results := visible(session.Results(), opts.ShowAll)
	if len(results) == 0 {
		fmt.Fprintln(w, "No ports to report.")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Port", "Proto", "State", "Service", "Banner")
		for _, r := range results {
			banner := r.Banner
			if len(banner) > bannerDisplayCap {
				banner = banner[:bannerDisplayCap] + "..."
			}
			detail := r.Service
			if r.State == probe.StateError && r.Reason != "" {
				detail = r.Reason
			}
			_ = table.Append([]string{
				fmt.Sprintf("%d", r.Port),
				r.Protocol,
				paint.state(r.State),
				detail,
				banner,
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	stats := session.Stats()
	fmt.Fprintf(w, "\n%d ports scanned in %s: %s open, %d closed, %d filtered, %d open|filtered, %d errors\n",
		stats.Total,
		session.Duration().Round(time.Millisecond),
		paint.openCount(stats.Open),
		stats.Closed,
		stats.Filtered,
		stats.OpenFiltered,
		stats.Errors)
	if !session.Complete() {
		fmt.Fprintf(w, "%s: scan interrupted, %d of %d ports probed\n",
			paint.warn("warning"), stats.Total, len(session.Request.Ports))
	}
	return nil
}

// painter applies the text color scheme, degrading to plain strings when
// color is off.
type painter struct {
	enabled bool
	green   *color.Color
	red     *color.Color
	yellow  *color.Color
	boldC   *color.Color
}

func newPainter(enabled bool) *painter {
	return &painter{
		enabled: enabled,
		green:   color.New(color.FgGreen),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		boldC:   color.New(color.Bold),
	}
}

func (p *painter) state(s probe.State) string {
	if !p.enabled {
		return string(s)
	}
	switch s {
	case probe.StateOpen:
		return p.green.Sprint(string(s))
	case probe.StateClosed:
		return p.red.Sprint(string(s))
	case probe.StateError:
		return p.red.Sprint(string(s))
	default:
		return p.yellow.Sprint(string(s))
	}
}

func (p *painter) openCount(n int) string {
	if !p.enabled || n == 0 {
		return fmt.Sprintf("%d", n)
	}
	return p.green.Sprintf("%d", n)
}

func (p *painter) bold(s string) string {
	if !p.enabled {
		return s
	}
	return p.boldC.Sprint(s)
}

func (p *painter) warn(s string) string {
	if !p.enabled {
		return s
	}
	return p.yellow.Sprint(s)
}
