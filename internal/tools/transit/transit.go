// Package transit implements the get_transport_status tool. London has a live
// line-status source (the TfL unified API); every other city gets a fixed
// guidance template asking for structured trip details, because no general
// live source exists.
package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/telepath-bot/telepath/internal/httpx"
	"github.com/telepath-bot/telepath/internal/tools"
)

const defaultStatusURL = "https://api.tfl.gov.uk/Line/Mode/%s/Status"

// maxLines caps how many lines are reported per call.
const maxLines = 8

// maxReasonRunes caps the status reason at a single short line.
const maxReasonRunes = 90

const defaultModes = "tube,overground,dlr,elizabeth-line"

// guidanceTemplate is returned for cities without a live status source.
// Deliberately not an error: the model should relay it and collect details.
const guidanceTemplate = "There is no live transit status source for that city. " +
	"Ask the user for structured trip details instead: origin, destination, " +
	"preferred mode (rail/bus/metro) and departure time, then help them plan from general knowledge."

var allowedModes = map[string]bool{
	"tube":           true,
	"overground":     true,
	"dlr":            true,
	"elizabeth-line": true,
	"tram":           true,
	"bus":            true,
}

// Config carries the optional TfL application key pair and an endpoint
// override for tests.
type Config struct {
	AppID     string
	AppKey    string
	StatusURL string
}

// Tool reports live line status for supported metropolitan areas.
type Tool struct {
	client    *httpx.Client
	appID     string
	appKey    string
	statusURL string
}

// NewTool creates the transport status tool.
func NewTool(client *httpx.Client, cfg *Config) *Tool {
	t := &Tool{client: client, statusURL: defaultStatusURL}
	if cfg != nil {
		t.appID = cfg.AppID
		t.appKey = cfg.AppKey
		if cfg.StatusURL != "" {
			t.statusURL = cfg.StatusURL
		}
	}
	return t
}

// Name implements tools.Tool.
func (t *Tool) Name() string { return "get_transport_status" }

// Description implements tools.Tool.
func (t *Tool) Description() string {
	return "Get live public transport line status. Only London has a live source; for other cities the tool returns guidance on what trip details to collect."
}

// Schema implements tools.Tool.
func (t *Tool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{
				"type":        "string",
				"description": "City the user is asking about",
			},
			"mode": map[string]any{
				"type":        "string",
				"description": "Optional comma-separated modes, e.g. \"tube,dlr\"",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text transport question when no city was extracted",
			},
		},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}

type args struct {
	City  string `json:"city"`
	Mode  string `json:"mode"`
	Query string `json:"query"`
}

type lineStatus struct {
	Name         string `json:"name"`
	LineStatuses []struct {
		StatusSeverityDescription string `json:"statusSeverityDescription"`
		Reason                    string `json:"reason"`
	} `json:"lineStatuses"`
}

// Execute implements tools.Tool.
func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*tools.Result, error) {
	var a args
	if err := json.Unmarshal(params, &a); err != nil {
		a = args{}
	}

	if !mentionsLondon(a.City) && !mentionsLondon(a.Query) {
		return tools.TextResult(guidanceTemplate), nil
	}

	u := fmt.Sprintf(t.statusURL, url.PathEscape(normalizeModes(a.Mode)))
	if t.appID != "" && t.appKey != "" {
		u += "?app_id=" + url.QueryEscape(t.appID) + "&app_key=" + url.QueryEscape(t.appKey)
	}

	resp, err := t.client.Get(ctx, u)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("The transport status service could not be reached (%v). Tell the user live status is unavailable right now.", err)), nil
	}
	if resp.StatusCode != 200 {
		return tools.ErrorResult(fmt.Sprintf("The transport status service returned HTTP %d. Tell the user live status is unavailable right now.", resp.StatusCode)), nil
	}

	var lines []lineStatus
	if err := json.Unmarshal(resp.Body, &lines); err != nil {
		return tools.ErrorResult("The transport status service returned an unreadable response. Tell the user live status is unavailable right now."), nil
	}
	if len(lines) == 0 {
		return tools.TextResult("The transport status service returned no lines. Tell the user live status is unavailable right now."), nil
	}

	var b strings.Builder
	b.WriteString("London line status:")
	for i, line := range lines {
		if i >= maxLines {
			break
		}
		severity := "Unknown"
		reason := ""
		if len(line.LineStatuses) > 0 {
			severity = line.LineStatuses[0].StatusSeverityDescription
			reason = truncateReason(line.LineStatuses[0].Reason)
		}
		fmt.Fprintf(&b, "\n- %s: %s", line.Name, severity)
		if reason != "" {
			fmt.Fprintf(&b, " (%s)", reason)
		}
	}
	return tools.TextResult(b.String()), nil
}

func mentionsLondon(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "london") || strings.Contains(s, "倫敦") || strings.Contains(s, "伦敦")
}

// normalizeModes keeps only recognized modes from a comma-separated list,
// falling back to the default set.
func normalizeModes(mode string) string {
	var kept []string
	for _, m := range strings.Split(mode, ",") {
		m = strings.ToLower(strings.TrimSpace(m))
		if allowedModes[m] {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return defaultModes
	}
	return strings.Join(kept, ",")
}

// truncateReason reduces a status reason to its first line, capped at
// maxReasonRunes with an ellipsis.
func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if i := strings.IndexAny(reason, "\r\n"); i >= 0 {
		reason = strings.TrimSpace(reason[:i])
	}
	runes := []rune(reason)
	if len(runes) <= maxReasonRunes {
		return reason
	}
	return string(runes[:maxReasonRunes]) + "…"
}
