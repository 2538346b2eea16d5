package model

// Card display and object types sent on every create call.
const (
	CardDisplayTable = "table"
	CardTypeQuestion = "question"
)

// CardRequest is the body of POST /api/card.
type CardRequest struct {
	Name                  string         `json:"name"`
	Description           string         `json:"description"`
	CollectionID          int64          `json:"collection_id"`
	Display               string         `json:"display"`
	Type                  string         `json:"type"`
	DatasetQuery          CardQuery      `json:"dataset_query"`
	VisualizationSettings map[string]any `json:"visualization_settings"`
}

// CardQuery is the dataset query as sent to the remote instance, with the
// database rewritten to the target instance's id.
type CardQuery struct {
	Database int64          `json:"database"`
	Type     string         `json:"type,omitempty"`
	Native   map[string]any `json:"native"`

	// Extra carries the input's other dataset_query keys through unchanged.
	Extra map[string]any `json:"-"`
}

// MarshalJSON writes the known fields followed by Extra.
func (q CardQuery) MarshalJSON() ([]byte, error) {
	type plain CardQuery
	if len(q.Extra) == 0 {
		return encodeRaw(plain(q))
	}

	m := make(map[string]any, len(q.Extra)+3)
	for k, v := range q.Extra {
		m[k] = v
	}
	m["database"] = q.Database
	if q.Type != "" {
		m["type"] = q.Type
	}
	m["native"] = q.Native
	return encodeRaw(m)
}

// Card is the part of a created card we care about.
type Card struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
