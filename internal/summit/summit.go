// Package summit embeds the PanAfrican AI Summit reference data that grounds
// every generated answer.
package summit

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/panafrican_ai_summit.json
var dataFS embed.FS

const dataPath = "data/panafrican_ai_summit.json"

// NextSummit describes the upcoming edition.
type NextSummit struct {
	Year   int    `json:"year"`
	Format string `json:"format"`
	Status string `json:"status"`
}

// Info is the top-level summit block.
type Info struct {
	Name       string     `json:"name"`
	Tagline    string     `json:"tagline"`
	Founded    int        `json:"founded"`
	Frequency  string     `json:"frequency"`
	Mission    string     `json:"mission"`
	NextSummit NextSummit `json:"next_summit"`
}

// Contact holds the organisers' public contact details.
type Contact struct {
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Data is the parsed summit document. Raw keeps the original bytes so the
// prompt can include fields the struct does not model.
type Data struct {
	Summit    Info     `json:"summit"`
	Pillars   []string `json:"pillars"`
	Languages []string `json:"languages"`
	Contact   Contact  `json:"contact"`

	Raw json.RawMessage `json:"-"`
}

// Load parses the embedded summit document.
func Load() (*Data, error) {
	raw, err := dataFS.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("read summit data: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a summit document.
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode summit data: %w", err)
	}
	if d.Summit.Name == "" {
		return nil, fmt.Errorf("decode summit data: summit.name is required")
	}
	d.Raw = append(json.RawMessage(nil), raw...)
	return &d, nil
}

// Pretty returns the full document indented with two spaces.
func (d *Data) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.Raw, "", "  "); err != nil {
		return string(d.Raw)
	}
	return buf.String()
}
