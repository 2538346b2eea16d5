// Package formatter reduces parsed export records to the formatted query
// shape consumed by the importer.
package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crimson-sun/cardport/internal/model"
)

// Stats summarizes one format run.
type Stats struct {
	Parsed  int // records produced by the parser
	Skipped int // blocks the parser dropped
	Kept    int // records with a usable native query
}

// Format keeps the records that carry a native query, normalizes the query
// text and projects each record to {name, dataset_query}. Order is preserved.
func Format(records []model.ParsedRecord) []model.Query {
	out := make([]model.Query, 0, len(records))
	for _, rec := range records {
		q, ok := formatRecord(rec)
		if !ok {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Keep reports whether rec has a dataset query with a native object whose
// query is a non-empty string. Whitespace-only queries are kept.
func Keep(rec model.ParsedRecord) bool {
	_, ok := formatRecord(rec)
	return ok
}

func formatRecord(rec model.ParsedRecord) (model.Query, bool) {
	dq, ok := rec.DatasetQuery.(map[string]any)
	if !ok {
		return model.Query{}, false
	}
	native, ok := dq["native"].(map[string]any)
	if !ok {
		return model.Query{}, false
	}
	text, ok := native["query"].(string)
	if !ok {
		return model.Query{}, false
	}
	text = NormalizeQuery(text)
	if text == "" {
		return model.Query{}, false
	}

	// Shallow copy: everything but query passes through untouched.
	copied := make(map[string]any, len(native))
	for k, v := range native {
		copied[k] = v
	}
	copied["query"] = text

	typ, _ := dq["type"].(string)
	return model.Query{
		Name: rec.Name,
		DatasetQuery: model.DatasetQuery{
			Database: databaseID(dq["database"]),
			Type:     typ,
			Native:   copied,
		},
	}, true
}

// databaseID keeps numeric database ids as written in the export.
func databaseID(v any) json.Number {
	switch n := v.(type) {
	case json.Number:
		return n
	case float64:
		return json.Number(fmt.Sprint(n))
	default:
		return ""
	}
}

// NormalizeQuery rewrites escaped and real CRLF sequences to newlines and
// tabs to single spaces. NormalizeQuery(NormalizeQuery(s)) == NormalizeQuery(s).
func NormalizeQuery(s string) string {
	s = strings.ReplaceAll(s, `\r\n`, "\n")
	// "\r\r\n" collapses to "\r\n" in one pass.
	for strings.Contains(s, "\r\n") {
		s = strings.ReplaceAll(s, "\r\n", "\n")
	}
	return strings.ReplaceAll(s, "\t", " ")
}
