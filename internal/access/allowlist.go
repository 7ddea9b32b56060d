// Package access gates inbound messages on a static sender allow-list.
package access

import (
	"log/slog"
	"strconv"
	"strings"
)

// Allowlist holds the set of permitted sender IDs. An empty list permits
// everyone; callers are expected to log a startup warning for that mode.
type Allowlist struct {
	members map[string]bool
}

// Parse builds an allow-list from a comma-separated list of numeric sender
// IDs. Blank entries are skipped; non-numeric entries are kept verbatim so a
// typo fails closed for that entry instead of widening access.
func Parse(raw string) *Allowlist {
	a := &Allowlist{members: make(map[string]bool)}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		a.members[entry] = true
	}
	return a
}

// AllowAll reports whether the list is empty, which means unrestricted access.
func (a *Allowlist) AllowAll() bool {
	return len(a.members) == 0
}

// Permits reports whether the sender may use the assistant.
func (a *Allowlist) Permits(senderID int64) bool {
	if a.AllowAll() {
		return true
	}
	return a.members[strconv.FormatInt(senderID, 10)]
}

// Size reports the number of configured entries.
func (a *Allowlist) Size() int {
	return len(a.members)
}

// LogMode emits the startup line describing the gating mode.
func (a *Allowlist) LogMode(logger *slog.Logger) {
	if logger == nil {
		return
	}
	if a.AllowAll() {
		logger.Warn("allow-list empty, every sender is permitted")
		return
	}
	logger.Info("allow-list active", "entries", len(a.members))
}
