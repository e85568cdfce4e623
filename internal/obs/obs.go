// Package obs provides the package-level root logger every core package
// derives fields from, mirroring internal/echo's package-level styles but
// returning a *log.Logger so call sites can attach structured fields
// instead of printing directly.
package obs

import (
	"os"

	"github.com/charmbracelet/log"
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// Root returns the process-wide base logger.
func Root() *log.Logger {
	return root
}

// For returns a logger scoped to a component name, e.g. obs.For("reliability").
func For(component string) *log.Logger {
	return root.With("component", component)
}

// Session returns a logger scoped to a collection session and league, used
// by the orchestrator and scheduler so every log line from one run can be
// grepped by session_id.
func Session(sessionID, league string) *log.Logger {
	return root.With("session_id", sessionID, "league", league)
}

// SetLevel adjusts the root logger's level (e.g. debug mode for cmd/).
func SetLevel(level log.Level) {
	root.SetLevel(level)
}
