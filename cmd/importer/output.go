package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var validFormats = []string{formatText, formatJSON, formatYAML}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeReport(w io.Writer, format string, r syncer.Report) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, r)
	}
}

func writeText(w io.Writer, r syncer.Report) error {
	_, err := fmt.Fprintf(w, "run %s: %s .. %s\n%s\n",
		r.RunID, r.Window.From.Format(time.RFC3339), r.Window.To.Format(time.RFC3339), r.String())
	if err != nil {
		return err
	}
	for _, f := range r.Failed {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", f.EventID, f.Error); err != nil {
			return err
		}
	}
	return nil
}
