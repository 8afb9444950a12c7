package config

import (
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseMemorySize parses strings like "100 MB", "512KB", "2 GB" into a byte
// count. It recovers from humanize's parse panics and turns them into a
// plain error so callers can fold them into the config diagnostic format.
func ParseMemorySize(s string) (size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid memory size %q: %v", s, r)
		}
	}()

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty memory size")
	}

	bytes, parseErr := humanize.ParseBytes(trimmed)
	if parseErr != nil {
		return 0, parseErr
	}
	if bytes == 0 {
		// Allow an explicit "0" / "0B" through; anything else that parses to
		// zero is almost certainly a typo like a bare unit with no number.
		if trimmed != "0" && !strings.EqualFold(trimmed, "0b") {
			return 0, fmt.Errorf("memory size %q parsed to zero", trimmed)
		}
	}
	return int64(bytes), nil
}

// defaultMediaHost returns the first local IPv4 address it can find, or
// "localhost" if none resolves.
func defaultMediaHost() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "localhost"
}

// defaultWorkers is cores/2, floored at 1.
func defaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

// FormatMemorySize is the inverse, used by diagnostics and logging.
func FormatMemorySize(bytes int64) string {
	if bytes < 0 {
		return strconv.FormatInt(bytes, 10)
	}
	return humanize.Bytes(uint64(bytes))
}
