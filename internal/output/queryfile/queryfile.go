// Package queryfile reads and writes the formatted query file, a JSON array
// of model.Query pretty-printed with two-space indentation.
package queryfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/crimson-sun/cardport/internal/model"
)

const defaultBufSize = 64 * 1024 // 64KB

// Write replaces the file at path with queries. A nil slice is written as [].
func Write(path string, queries []model.Query) error {
	if queries == nil {
		queries = []model.Query{}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("queryfile: open %s: %w", path, err)
	}

	w := bufio.NewWriterSize(f, defaultBufSize)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false) // keep <, > and & in SQL readable
	if err := enc.Encode(queries); err != nil {
		f.Close()
		return fmt.Errorf("queryfile: encode: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("queryfile: flush: %w", err)
	}
	return f.Close()
}

// Read loads the query array at path. Numbers inside native objects are
// kept as json.Number.
func Read(path string) ([]model.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("queryfile: open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(f, defaultBufSize))
	dec.UseNumber()

	var queries []model.Query
	if err := dec.Decode(&queries); err != nil {
		return nil, fmt.Errorf("queryfile: decode %s: %w", path, err)
	}
	return queries, nil
}
