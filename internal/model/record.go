package model

// RawRecord is one three-line block of the export: index, name and payload.
type RawRecord struct {
	Line      int    // zero-based line of the index entry
	IndexText string // index line as written
	Name      string
	Payload   string // JSON payload line, not yet decoded
}

// ParsedRecord is the intermediate type produced by the parser and consumed by the formatter.
type ParsedRecord struct {
	Index        float64 // NaN when the index line is not numeric
	Name         string
	DatasetQuery any // decoded JSON value; numbers are json.Number
}
