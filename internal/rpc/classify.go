package rpc

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

const (
	errTypeNetwork   = "network"
	errTypeTimeout   = "timeout"
	errTypeRateLimit = "rate_limit"
	errTypeServer    = "server"
	errTypePool      = "connection_pool"
	errTypeRPC       = "rpc"
)

// classifyError labels a node failure for metrics and logs.
// Every label maps to pkgrpc.ErrNodeUnavailable; the label only tells operators why.
func classifyError(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	// Connection errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return errTypeNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errTypeTimeout
		}
		return errTypeNetwork
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return errTypeTimeout
	}

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "rate limit") {
		return errTypeRateLimit
	}

	if strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") {
		return errTypeServer
	}

	if strings.Contains(errStr, "connection pool") ||
		strings.Contains(errStr, "no available connection") {
		return errTypePool
	}

	return errTypeRPC
}
