package llm

import (
	"context"
	"errors"
	"net"
	"os"
	"regexp"
	"strings"
	"time"
)

var statusCodeRe = regexp.MustCompile(`status(?:\s+code)?[:=\s]+(\d{3})`)

type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureTimeout
	FailureRateLimit
	FailureServer
	FailureClient
)

func (c FailureClass) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureRateLimit:
		return "rate_limit"
	case FailureServer:
		return "server"
	case FailureClient:
		return "client"
	}
	return "unknown"
}

// Transient reports whether a call failing with this class is worth retrying.
func (c FailureClass) Transient() bool {
	return c == FailureTimeout || c == FailureRateLimit || c == FailureServer
}

func ClassifyTransportError(err error) FailureClass {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrDisabled) {
		return FailureClient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	msg := strings.ToLower(err.Error())
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		switch {
		case m[1] == "429":
			return FailureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return FailureServer
		case strings.HasPrefix(m[1], "4"):
			return FailureClient
		}
	}
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "resource_exhausted"):
		return FailureRateLimit
	case strings.Contains(msg, "server error"), strings.Contains(msg, "overloaded"), strings.Contains(msg, "unavailable"):
		return FailureServer
	default:
		return FailureServer
	}
}

func BackoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

func EnvEnabled(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
