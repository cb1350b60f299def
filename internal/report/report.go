// Package report serializes the outcome of a discovery run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/FranksOps/prospect/internal/profile"
)

// timestampLayout matches the human-readable format consumers of the report
// file already parse.
const timestampLayout = "2006-01-02 15:04:05"

// Entry is one profile in the report.
type Entry struct {
	URL       string `json:"url"`
	ProfileID string `json:"profile_id"`
}

// Document is the persisted JSON contract.
type Document struct {
	TotalProfiles int     `json:"total_profiles"`
	Profiles      []Entry `json:"profiles"`
	Timestamp     string  `json:"timestamp"`
}

// Build assembles a Document from the final profile set.
func Build(profiles []profile.URL, at time.Time) Document {
	entries := make([]Entry, len(profiles))
	for i, p := range profiles {
		entries[i] = Entry{URL: p.Canonical, ProfileID: p.ID}
	}
	return Document{
		TotalProfiles: len(entries),
		Profiles:      entries,
		Timestamp:     at.Format(timestampLayout),
	}
}

// WriteJSON writes the document to the provided writer in indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return nil
}

// Save writes the document as JSON to path. A failed write never invalidates
// the in-memory result; callers may log and carry on.
func Save(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteJSON(f, doc); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", path, err)
	}
	return nil
}

// WriteText writes a human-readable summary to the provided writer.
func WriteText(w io.Writer, doc Document) error {
	const textTmpl = `Prospect Discovery Report
-------------------------
Time:     {{.Timestamp}}
Profiles: {{.TotalProfiles}}
{{range $i, $p := .Profiles}}
{{inc $i}}. {{$p.URL}}
{{- else}}
(no profiles found)
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: parse template: %w", err)
	}

	if err := t.Execute(w, doc); err != nil {
		return fmt.Errorf("report: execute template: %w", err)
	}
	return nil
}
