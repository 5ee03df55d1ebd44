package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"weighttracker/internal/domain"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (valid: table, json, yaml)", format)
}

// weightRow is one history line as printed by the CLI.
type weightRow struct {
	ID         int64     `json:"id" yaml:"id"`
	Value      float64   `json:"value" yaml:"value"`
	Unit       string    `json:"unit" yaml:"unit"`
	RecordedAt time.Time `json:"recordedAt" yaml:"recordedAt"`
	Delta      *float64  `json:"delta,omitempty" yaml:"delta,omitempty"`
	Trend      string    `json:"trend,omitempty" yaml:"trend,omitempty"`
}

func weightRows(points []domain.TrendPoint, unit string) []weightRow {
	rows := make([]weightRow, 0, len(points))
	for _, p := range domain.ConvertTrend(points, unit) {
		row := weightRow{ID: p.ID, Value: p.Value, Unit: unit, RecordedAt: p.RecordedAt}
		if p.HasDelta {
			d := p.Delta
			row.Delta = &d
			row.Trend = "loss"
			if p.Gain {
				row.Trend = "gain"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return validOutput(format)
}

func writeWeightRows(w io.Writer, format string, rows []weightRow) error {
	if format != outputTable {
		return writeStructured(w, format, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWEIGHT\tRECORDED\tCHANGE")
	for _, r := range rows {
		change := ""
		if r.Delta != nil {
			change = fmt.Sprintf("%+.1f", *r.Delta)
		}
		fmt.Fprintf(tw, "%d\t%.1f %s\t%s\t%s\n", r.ID, r.Value, r.Unit, r.RecordedAt.Local().Format("2006-01-02 15:04"), change)
	}
	return tw.Flush()
}

func writeSettings(w io.Writer, format string, s domain.Settings) error {
	if format != outputTable {
		return writeStructured(w, format, map[string]string{
			"theme":    string(s.Theme),
			"language": string(s.Language),
		})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SETTING\tVALUE\tLABEL")
	fmt.Fprintf(tw, "theme\t%s\t%s\n", s.Theme, s.Theme.Label())
	fmt.Fprintf(tw, "language\t%s\t%s\n", s.Language, s.Language.Label())
	return tw.Flush()
}
