//go:build !unix

package probe

import (
	scanerrors "github.com/nexscan/nexscan/internal/errors"
)

// Half-open scanning needs raw ip4:tcp sockets, which this platform does not
// expose. Connect mode covers TCP scanning everywhere.
func newHalfOpenStrategy(_ Options) (Strategy, error) {
	return nil, scanerrors.NewScanError(scanerrors.CodePermission,
		"half-open scan is not supported on this platform")
}
