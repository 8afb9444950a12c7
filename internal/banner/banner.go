// Package banner prints RuStream's startup banner: informational only,
// written to stdout so it shows up the same way under journalctl or
// docker logs as any other startup line.
package banner

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/rustream/server/internal/config"
)

const art = `
  ____       ____  _
 |  _ \ _   _/ ___|| |_ _ __ ___  __ _ _ __ ___
 | |_) | | | \___ \| __| '__/ _ \/ _` + "`" + ` | '_ ` + "`" + ` _ \
 |  _ <| |_| |___) | |_| | |  __/ (_| | | | | | |
 |_| \_\\__,_|____/ \__|_|  \___|\__,_|_| |_| |_|
`

// Print writes the banner and a handful of startup facts to w. A Config
// with Banner=false makes this a no-op, per spec.md §6's "banner"
// setting.
func Print(w io.Writer, cfg *config.Config) {
	if cfg == nil || !cfg.Banner {
		return
	}
	addr := net.JoinHostPort(cfg.MediaHost, strconv.Itoa(int(cfg.MediaPort)))
	scheme := "http"
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		scheme = "https"
	}
	fmt.Fprintf(w, "%s  → listening on %s://%s\n  → media source: %s\n  → users: %d\n  → log level: %s (%s)\n\n",
		art, scheme, addr, cfg.MediaSource, len(cfg.Authorization), cfg.LogLevel, cfg.LogFormat)
}
