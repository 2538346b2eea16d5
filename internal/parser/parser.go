// Package parser reads the flat-text query export: repeating blocks of an
// index line, a name line and a JSON payload line.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/crimson-sun/cardport/internal/model"
)

// linesPerBlock is the fixed stride of the export format.
const linesPerBlock = 3

// Block is the outcome of reading one three-line group. Exactly one of
// Record and Skip is set.
type Block struct {
	Raw    model.RawRecord
	Record *model.ParsedRecord
	Skip   string // reason the block was dropped
}

// OK reports whether the block produced a record.
func (b Block) OK() bool {
	return b.Record != nil
}

// ReadFile reads the whole export into memory. UTF-8 is assumed unless the
// file starts with a byte-order mark; UTF-16 exports with a BOM are decoded too.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("parser: open %s: %w", path, err)
	}
	defer f.Close()

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("parser: read %s: %w", path, err)
	}
	return string(data), nil
}

// Parse splits text into three-line blocks. Reading stops at the first
// group with a missing or blank line; that trailing group is not reported.
// A block whose payload is not valid JSON is returned as skipped and the
// next block still starts three lines later.
func Parse(text string) []Block {
	lines := strings.Split(text, "\n")

	var blocks []Block
	for i := 0; i < len(lines); i += linesPerBlock {
		indexLine := lineAt(lines, i)
		nameLine := lineAt(lines, i+1)
		jsonLine := lineAt(lines, i+2)
		if indexLine == "" || nameLine == "" || jsonLine == "" {
			break
		}

		raw := model.RawRecord{
			Line:      i,
			IndexText: indexLine,
			Name:      nameLine,
			Payload:   jsonLine,
		}

		payload, err := decodeValue(jsonLine)
		if err != nil {
			blocks = append(blocks, Block{
				Raw:  raw,
				Skip: fmt.Sprintf("invalid JSON payload: %v", err),
			})
			continue
		}

		blocks = append(blocks, Block{
			Raw: raw,
			Record: &model.ParsedRecord{
				Index:        parseIndex(indexLine),
				Name:         nameLine,
				DatasetQuery: payload,
			},
		})
	}
	return blocks
}

// Records returns the parsed records of blocks, in order.
func Records(blocks []Block) []model.ParsedRecord {
	records := make([]model.ParsedRecord, 0, len(blocks))
	for _, b := range blocks {
		if b.OK() {
			records = append(records, *b.Record)
		}
	}
	return records
}

// Skipped returns the blocks that did not produce a record.
func Skipped(blocks []Block) []Block {
	var skipped []Block
	for _, b := range blocks {
		if !b.OK() {
			skipped = append(skipped, b)
		}
	}
	return skipped
}

// lineAt returns the trimmed line at i, or "" past the end. Trimming also
// drops the \r of CRLF line endings.
func lineAt(lines []string, i int) string {
	if i >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[i])
}

// parseIndex coerces the index line to a number. Non-numeric input yields NaN.
func parseIndex(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

// decodeValue decodes exactly one JSON value from s.
func decodeValue(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}
