package model

import (
	"bytes"
	"encoding/json"
)

// Query is one entry of the formatted query file.
type Query struct {
	Name         string       `json:"name"`
	Description  *string      `json:"description,omitempty"`
	CollectionID *int64       `json:"collection_id,omitempty"`
	DatasetQuery DatasetQuery `json:"dataset_query"`
}

// DatasetQuery describes how a card executes: target database, query type
// and the native query body.
type DatasetQuery struct {
	Database json.Number    `json:"database,omitempty"`
	Type     string         `json:"type,omitempty"`
	Native   map[string]any `json:"native"`

	// Extra holds any other keys of a hand-edited file; they are written back unchanged.
	Extra map[string]any `json:"-"`
}

// NativeQuery returns the query text of the native object.
func (d DatasetQuery) NativeQuery() string {
	s, _ := d.Native["query"].(string)
	return s
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
// Numbers are decoded as json.Number.
func (d *DatasetQuery) UnmarshalJSON(data []byte) error {
	type plain DatasetQuery
	var p plain
	if err := decodeNumbers(data, &p); err != nil {
		return err
	}

	var all map[string]any
	if err := decodeNumbers(data, &all); err != nil {
		return err
	}
	for _, k := range []string{"database", "type", "native"} {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*d = DatasetQuery(p)
	return nil
}

// MarshalJSON writes the known fields followed by Extra.
func (d DatasetQuery) MarshalJSON() ([]byte, error) {
	type plain DatasetQuery
	if len(d.Extra) == 0 {
		return encodeRaw(plain(d))
	}

	m := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		m[k] = v
	}
	if d.Database != "" {
		m["database"] = d.Database
	}
	if d.Type != "" {
		m["type"] = d.Type
	}
	m["native"] = d.Native
	return encodeRaw(m)
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// encodeRaw marshals v without HTML escaping; the outer encoder decides
// whether <, > and & get escaped.
func encodeRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
