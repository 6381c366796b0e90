// Package ioformats reads audit targets and writes audit results.
package ioformats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Target is one page to audit, optionally as a specific user agent.
type Target struct {
	URL       string `json:"url"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ReadTargets reads a CSV (header with "url", optional "user_agent") or
// NDJSON file. Unknown extensions try CSV first, then NDJSON.
func ReadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(bytes.NewReader(data))
	case ".ndjson", ".jsonl":
		return ReadNDJSON(bytes.NewReader(data))
	default:
		if ts, err := ReadCSV(bytes.NewReader(data)); err == nil && len(ts) > 0 {
			return ts, nil
		}
		return ReadNDJSON(bytes.NewReader(data))
	}
}

func ReadCSV(r io.Reader) ([]Target, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	urlCol, uaCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "url":
			urlCol = i
		case "user_agent", "user-agent", "ua":
			uaCol = i
		}
	}
	if urlCol == -1 {
		return nil, errors.New("csv must contain a 'url' header column")
	}
	var out []Target
	for _, row := range rows[1:] {
		if urlCol >= len(row) {
			continue
		}
		t := Target{URL: strings.TrimSpace(row[urlCol])}
		if t.URL == "" {
			continue
		}
		if uaCol >= 0 && uaCol < len(row) {
			t.UserAgent = strings.TrimSpace(row[uaCol])
		}
		out = append(out, t)
	}
	return out, nil
}

// ReadNDJSON accepts {"url": ..., "user_agent": ...} objects or bare URLs,
// one per line.
func ReadNDJSON(r io.Reader) ([]Target, error) {
	var out []Target
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var t Target
			if err := json.Unmarshal([]byte(line), &t); err == nil && t.URL != "" {
				out = append(out, t)
				continue
			}
		}
		out = append(out, Target{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
