package usage

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/j-veylop/claude-tracker/internal/failure"
)

const maxDetailLen = 120

// classifyStatus maps a non-2xx HTTP status to a failure kind.
func classifyStatus(op string, status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &failure.Error{Kind: failure.KindUnauthorized, Op: op, Detail: http.StatusText(status)}
	case http.StatusTooManyRequests:
		return &failure.Error{Kind: failure.KindRateLimited, Op: op, Detail: http.StatusText(status)}
	}

	detail := "HTTP " + http.StatusText(status)
	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > maxDetailLen {
			text = text[:maxDetailLen]
		}
		detail += ": " + text
	}
	return &failure.Error{Kind: failure.KindOther, Op: op, Detail: detail}
}

// classifyTransport maps a transport-level error to a failure kind.
func classifyTransport(op string, err error) error {
	kind := failure.KindOther

	var netErr net.Error
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = failure.KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = failure.KindTimeout
	case errors.As(err, &dnsErr):
		kind = failure.KindNetworkUnreachable
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		kind = failure.KindNetworkUnreachable
	case errors.As(err, &opErr) && opErr.Op == "dial":
		kind = failure.KindNetworkUnreachable
	}

	return &failure.Error{Kind: kind, Op: op, Err: err}
}
