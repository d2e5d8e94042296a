package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nexscan/nexscan/internal/engine"
)

var csvHeader = []string{"port", "protocol", "state", "service", "banner", "reason"}

func writeCSV(w io.Writer, session *engine.ScanSession, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range visible(session.Results(), opts.ShowAll) {
		record := []string{
			strconv.Itoa(int(r.Port)),
			r.Protocol,
			string(r.State),
			r.Service,
			r.Banner,
			r.Reason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
