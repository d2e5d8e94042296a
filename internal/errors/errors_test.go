package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanErrorFormatting(t *testing.T) {
	err := NewScanError(CodeScanFailed, "probe dispatch failed")
	assert.Equal(t, "[SCAN_FAILED] probe dispatch failed", err.Error())

	withTarget := NewScanErrorWithTarget(CodeTimeout, "scan timed out", "10.0.0.5")
	assert.Equal(t, "[TIMEOUT] scan timed out (target: 10.0.0.5)", withTarget.Error())
}

func TestScanErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset by peer")
	err := WrapScanError(CodeProbeFailed, "probe failed", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestScanErrorWithContext(t *testing.T) {
	err := NewScanError(CodeScanFailed, "failed").
		WithContext("port", 443).
		WithContext("attempt", 2)

	assert.Equal(t, 443, err.Context["port"])
	assert.Equal(t, 2, err.Context["attempt"])
}

func TestPortSpecError(t *testing.T) {
	err := NewPortSpecError("port out of range 1-65535", "70000")
	assert.Equal(t, `[PORT_SPEC] port out of range 1-65535 (token: "70000")`, err.Error())
	assert.True(t, IsCode(err, CodePortSpec))

	cause := fmt.Errorf("strconv: parse error")
	wrapped := WrapPortSpecError("invalid port number", "http", cause)
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestResolveError(t *testing.T) {
	err := NewResolveError("no A record", "missing.test")
	assert.Contains(t, err.Error(), "missing.test")
	assert.Equal(t, CodeResolveFailed, GetCode(err))
}

func TestConfigError(t *testing.T) {
	err := ErrConfigInvalid("scan_type", "xmas")
	assert.Contains(t, err.Error(), "scan_type")
	assert.True(t, IsCode(err, CodeValidation))

	missing := ErrConfigMissing("scan.ports")
	assert.True(t, IsCode(missing, CodeConfiguration))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewScanError(CodeTimeout, "t"), CodeTimeout))
	assert.False(t, IsCode(NewScanError(CodeTimeout, "t"), CodePermission))
	assert.False(t, IsCode(stderrors.New("plain"), CodeTimeout))
	assert.False(t, IsCode(nil, CodeTimeout))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodePermission, GetCode(ErrPermissionRequired("half-open", nil)))
	assert.Equal(t, CodeTargetInvalid, GetCode(ErrInvalidTarget("not-an-ip")))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	fatal := []error{
		ErrPermissionRequired("half-open", nil),
		ErrConfigInvalid("scan_type", "bogus"),
		ErrInvalidTarget("bad"),
		NewPortSpecError("bad token", "x"),
		NewScanError(CodeValidation, "invalid request"),
	}
	for _, err := range fatal {
		assert.True(t, IsFatal(err), "expected fatal: %v", err)
	}

	recoverable := []error{
		NewScanError(CodeTimeout, "timed out"),
		NewScanError(CodeProbeFailed, "probe failed"),
		NewResolveError("lookup failed", "host.test"),
		stderrors.New("plain"),
	}
	for _, err := range recoverable {
		assert.False(t, IsFatal(err), "expected recoverable: %v", err)
	}
}

func TestErrPermissionRequiredMessage(t *testing.T) {
	cause := stderrors.New("socket: operation not permitted")
	err := ErrPermissionRequired("half-open", cause)
	require.True(t, IsCode(err, CodePermission))
	assert.Contains(t, err.Error(), "half-open")
	assert.Contains(t, err.Error(), "root")
	assert.True(t, stderrors.Is(err, cause))
}
