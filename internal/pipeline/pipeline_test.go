package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cardport/internal/connector/metabase"
	"github.com/crimson-sun/cardport/internal/formatter"
	"github.com/crimson-sun/cardport/internal/importer"
	"github.com/crimson-sun/cardport/internal/model"
	"github.com/crimson-sun/cardport/internal/output/queryfile"
)

const export = "1\r\n" +
	"Daily Sales\r\n" +
	`{"database":2,"type":"native","native":{"query":"SELECT\t1","template-tags":{}}}` + "\r\n" +
	"2\r\n" +
	"Broken\r\n" +
	"{oops\r\n" +
	"3\r\n" +
	"GUI question\r\n" +
	`{"database":2,"type":"query","query":{"source-table":4}}` + "\r\n" +
	"4\r\n" +
	"Weekly Orders\r\n" +
	`{"database":2,"type":"native","native":{"query":"SELECT *\\r\\nFROM orders","template-tags":{}}}` + "\r\n" +
	"5\r\n" +
	"Trailing"

func newTestPipeline(report, logs *bytes.Buffer) *Pipeline {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(WithLogger(logger), WithReport(report))
}

func TestFormat_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "queries.json")
	out := filepath.Join(dir, "queries_formatted.json")
	require.NoError(t, os.WriteFile(in, []byte(export), 0644))

	var report, logs bytes.Buffer
	stats, err := newTestPipeline(&report, &logs).Format(in, out)
	require.NoError(t, err)
	assert.Equal(t, formatter.Stats{Parsed: 3, Skipped: 1, Kept: 2}, stats)
	assert.Equal(t, "Parsed 3 items, kept 2 with native.query in "+out+"\n", report.String())
	assert.Contains(t, logs.String(), "block skipped")
	assert.Contains(t, logs.String(), "name=Broken")

	queries, err := queryfile.Read(out)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "Daily Sales", queries[0].Name)
	assert.Equal(t, "SELECT 1", queries[0].DatasetQuery.NativeQuery())
	assert.Equal(t, "Weekly Orders", queries[1].Name)
	assert.Equal(t, "SELECT *\nFROM orders", queries[1].DatasetQuery.NativeQuery())
	for _, q := range queries {
		assert.NotEmpty(t, q.DatasetQuery.NativeQuery())
	}
}

func TestFormat_MissingInput(t *testing.T) {
	var report, logs bytes.Buffer
	dir := t.TempDir()
	_, err := newTestPipeline(&report, &logs).Format(filepath.Join(dir, "queries.json"), filepath.Join(dir, "out.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(dir, "out.json"))
}

func TestImport_EndToEnd(t *testing.T) {
	var received []model.CardRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.CardRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		received = append(received, req)
		if strings.HasPrefix(req.Name, "Bad") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("invalid query"))
			return
		}
		json.NewEncoder(w).Encode(model.Card{ID: int64(len(received)), Name: req.Name})
	}))
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "queries_formatted.json")
	queries := []model.Query{
		{Name: "Good", DatasetQuery: model.DatasetQuery{Database: "2", Type: "native", Native: map[string]any{"query": "SELECT 1"}}},
		{Name: "Bad one", DatasetQuery: model.DatasetQuery{Database: "2", Type: "native", Native: map[string]any{"query": "SELEC"}}},
	}
	require.NoError(t, queryfile.Write(in, queries))

	var report, logs bytes.Buffer
	p := newTestPipeline(&report, &logs)
	im := importer.New(metabase.New(srv.URL, "key"),
		importer.Options{TargetDatabaseID: 1, DefaultCollectionID: 67},
		importer.WithReport(&report),
		importer.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	sum, err := p.Import(context.Background(), in, im)
	require.NoError(t, err)
	assert.Equal(t, importer.Summary{Created: 1, Failed: 1}, sum)

	require.Len(t, received, 2)
	for _, req := range received {
		assert.Equal(t, int64(1), req.DatasetQuery.Database)
		assert.Equal(t, int64(67), req.CollectionID)
		assert.Equal(t, importer.DefaultDescription, req.Description)
	}
	assert.Equal(t, "Created card #1 - Good\nImported 1 of 2 cards (1 failed)\n", report.String())
	assert.Contains(t, logs.String(), "Bad one")
	assert.Contains(t, logs.String(), "invalid query")
}

func TestImport_MissingInput(t *testing.T) {
	var report, logs bytes.Buffer
	im := importer.New(metabase.New("http://127.0.0.1:1", "key"), importer.Options{TargetDatabaseID: 1})
	_, err := newTestPipeline(&report, &logs).Import(context.Background(), filepath.Join(t.TempDir(), "nope.json"), im)
	require.Error(t, err)
	assert.Empty(t, report.String())
}
