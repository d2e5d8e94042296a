// Package ports implements port specification parsing and the well-known
// port reference tables used for "top N" scans and service-name hints.
package ports

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nexscan/nexscan/internal/errors"
)

const (
	// MinPort is the lowest valid TCP/UDP port number.
	MinPort = 1
	// MaxPort is the highest valid TCP/UDP port number.
	MaxPort = 65535

	rangeParts = 2
)

// ParseSpec parses a port specification string into an ascending, deduplicated
// slice of ports. Supported forms:
//   - single: "22"
//   - list: "22,80,443"
//   - range: "1-1024"
//   - mixed: "22,80,8000-8100"
//
// A non-numeric token, an inverted range, or any bound outside [1,65535]
// yields a PortSpecError.
func ParseSpec(spec string) ([]uint16, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.NewPortSpecError("empty port specification", "")
	}

	seen := make(map[int]struct{})
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, errors.NewPortSpecError("empty token in port specification", token)
		}
		if strings.Contains(token, "-") {
			if err := parseRange(token, seen); err != nil {
				return nil, err
			}
			continue
		}
		if err := parseSingle(token, seen); err != nil {
			return nil, err
		}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)

	result := make([]uint16, len(out))
	for i, p := range out {
		result[i] = uint16(p)
	}
	return result, nil
}

// parseRange parses a "start-end" token into seen.
func parseRange(token string, seen map[int]struct{}) error {
	bounds := strings.SplitN(token, "-", rangeParts)
	if len(bounds) != rangeParts {
		return errors.NewPortSpecError("invalid port range", token)
	}

	start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return errors.WrapPortSpecError("invalid range start", token, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return errors.WrapPortSpecError("invalid range end", token, err)
	}

	if start < MinPort || start > MaxPort || end < MinPort || end > MaxPort {
		return errors.NewPortSpecError("port out of range 1-65535", token)
	}
	if start > end {
		return errors.NewPortSpecError("range start greater than end", token)
	}

	for p := start; p <= end; p++ {
		seen[p] = struct{}{}
	}
	return nil
}

// parseSingle parses a single port token into seen.
func parseSingle(token string, seen map[int]struct{}) error {
	p, err := strconv.Atoi(token)
	if err != nil {
		return errors.WrapPortSpecError("invalid port number", token, err)
	}
	if p < MinPort || p > MaxPort {
		return errors.NewPortSpecError("port out of range 1-65535", token)
	}
	seen[p] = struct{}{}
	return nil
}

// TopPorts returns the n highest-ranked well-known ports in ascending order.
// n larger than the reference table is clamped to the table size.
func TopPorts(n int) ([]uint16, error) {
	if n < 1 {
		return nil, errors.NewPortSpecError("top ports count must be at least 1", strconv.Itoa(n))
	}
	if n > len(topPorts) {
		n = len(topPorts)
	}

	out := make([]uint16, n)
	copy(out, topPorts[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
