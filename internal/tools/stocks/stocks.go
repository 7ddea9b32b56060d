// Package stocks implements the get_stock_quote tool backed by the Stooq
// single-row CSV quote feed.
package stocks

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/telepath-bot/telepath/internal/httpx"
	"github.com/telepath-bot/telepath/internal/tools"
)

const defaultQuoteURL = "https://stooq.com/q/l/"

// notAvailable is Stooq's sentinel for a symbol with no quote data.
const notAvailable = "N/D"

// Config controls the upstream endpoint (overridable for tests).
type Config struct {
	QuoteURL string
}

// Tool fetches a delayed quote for an exchange-qualified symbol.
type Tool struct {
	client   *httpx.Client
	quoteURL string
}

// NewTool creates the stock quote tool.
func NewTool(client *httpx.Client, cfg *Config) *Tool {
	t := &Tool{client: client, quoteURL: defaultQuoteURL}
	if cfg != nil && cfg.QuoteURL != "" {
		t.quoteURL = cfg.QuoteURL
	}
	return t
}

// Name implements tools.Tool.
func (t *Tool) Name() string { return "get_stock_quote" }

// Description implements tools.Tool.
func (t *Tool) Description() string {
	return "Get the latest stock quote for a ticker. Bare numeric tickers are treated as Hong Kong listings, everything else defaults to US unless an exchange suffix is given."
}

// Schema implements tools.Tool.
func (t *Tool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "Ticker symbol, e.g. \"0700\", \"AAPL\" or \"AAPL.US\"",
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
	Symbol string `json:"symbol"`
}

// Execute implements tools.Tool.
func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*tools.Result, error) {
	var a args
	if err := json.Unmarshal(params, &a); err != nil {
		a = args{}
	}

	symbol := NormalizeSymbol(a.Symbol)
	if symbol == "" {
		return tools.TextResult("No ticker was given. Ask the user which stock they mean."), nil
	}

	u := fmt.Sprintf("%s?s=%s&f=sd2t2ohlcv&h&e=csv", t.quoteURL, strings.ToLower(symbol))
	resp, err := t.client.Get(ctx, u)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("The quote service could not be reached (%v). Tell the user live quotes are unavailable right now.", err)), nil
	}
	if resp.StatusCode != 200 {
		return tools.ErrorResult(fmt.Sprintf("The quote service returned HTTP %d. Tell the user live quotes are unavailable right now.", resp.StatusCode)), nil
	}

	row, ok := parseQuoteRow(resp.Body)
	if !ok || row.Close == notAvailable {
		return tools.TextResult(fmt.Sprintf("No quote data was found for %s. Ask the user to confirm the ticker or exchange.", symbol)), nil
	}

	return tools.TextResult(fmt.Sprintf("%s: close %s (%s %s), open %s, high %s, low %s, volume %s.",
		symbol, row.Close, row.Date, row.Time, row.Open, row.High, row.Low, row.Volume)), nil
}

// NormalizeSymbol turns a bare ticker into an exchange-qualified, uppercase
// symbol. Purely numeric tickers of 1-5 digits are zero-padded to 4 digits
// and suffixed .HK; tickers that already carry a dot are used verbatim;
// everything else defaults to .US.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	if strings.Contains(s, ".") {
		return s
	}
	if isDigits(s) && len(s) <= 5 {
		for len(s) < 4 {
			s = "0" + s
		}
		return s + ".HK"
	}
	return s + ".US"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

type quoteRow struct {
	Symbol string
	Date   string
	Time   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// parseQuoteRow reads the header+row CSV the feed returns for a single
// symbol. Reports false when the row is absent or too short.
func parseQuoteRow(body []byte) (quoteRow, bool) {
	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return quoteRow{}, false
	}
	row := records[1]
	if len(row) < 8 {
		return quoteRow{}, false
	}
	return quoteRow{
		Symbol: row[0],
		Date:   row[1],
		Time:   row[2],
		Open:   row[3],
		High:   row[4],
		Low:    row[5],
		Close:  row[6],
		Volume: row[7],
	}, true
}
