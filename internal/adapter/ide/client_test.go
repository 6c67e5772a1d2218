package ide

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
	"testgen/internal/port"
)

var _ port.IDE = (*Client)(nil)

type recordedCall struct {
	Method string
	Args   map[string]any
}

func newBridge(t *testing.T, replies map[string]string) (*Client, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var args map[string]any
		_ = json.Unmarshal(body, &args)
		method := r.URL.Path[1:]
		calls = append(calls, recordedCall{Method: method, Args: args})

		reply, ok := replies[method]
		if !ok {
			http.Error(w, "unknown method", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, nil), &calls
}

func TestDocumentSymbols(t *testing.T) {
	client, calls := newBridge(t, map[string]string{
		"get_document_symbols": `{"result": [
			{"name": "Calc", "kind": "Struct",
			 "range": {"start": {"line": 1, "character": 0}, "end": {"line": 9, "character": 1}},
			 "children": [{"name": "Add", "kind": "Method",
			   "range": {"start": {"line": 3, "character": 1}, "end": {"line": 5, "character": 2}},
			   "children": []}]}
		]}`,
	})

	nodes, err := client.DocumentSymbols(context.Background(), "/repo/calc.go")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Calc", nodes[0].Name)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, domain.Position{Line: 3, Character: 1}, nodes[0].Children[0].Range.Start)

	require.Len(t, *calls, 1)
	assert.Equal(t, "get_document_symbols", (*calls)[0].Method)
	assert.Equal(t, "/repo/calc.go", (*calls)[0].Args["abspath"])
}

func TestDocumentSymbols_MalformedDegradesToEmpty(t *testing.T) {
	client, _ := newBridge(t, map[string]string{
		"get_document_symbols": `{"result": "not a list"}`,
	})

	nodes, err := client.DocumentSymbols(context.Background(), "/repo/calc.go")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestFindLocations(t *testing.T) {
	client, calls := newBridge(t, map[string]string{
		"find_type_def_locations": `{"result": [{"abspath": "/repo/types.go",
			"range": {"start": {"line": 4, "character": 5}, "end": {"line": 4, "character": 9}}}]}`,
		"find_def_locations": `{"result": {"oops": true}}`,
	})

	locs, err := client.FindTypeDefLocations(context.Background(), "/repo/calc.go", 3, 7)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "/repo/types.go", locs[0].AbsPath)
	assert.Equal(t, 4, locs[0].Range.Start.Line)

	assert.Equal(t, float64(3), (*calls)[0].Args["line"])
	assert.Equal(t, float64(7), (*calls)[0].Args["character"])

	locs, err = client.FindDefLocations(context.Background(), "/repo/calc.go", 3, 7)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestCall_HTTPErrorIsReturned(t *testing.T) {
	client, _ := newBridge(t, map[string]string{})

	_, err := client.DocumentSymbols(context.Background(), "/repo/calc.go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCall_RPCError(t *testing.T) {
	client, _ := newBridge(t, map[string]string{
		"diff_apply": `{"error": {"message": "file is read-only"}}`,
	})

	_, err := client.DiffApply(context.Background(), "/repo/calc_test.go", "package calc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is read-only")
}

func TestDiffApplyAndLanguage(t *testing.T) {
	client, calls := newBridge(t, map[string]string{
		"diff_apply":   `{"result": true}`,
		"ide_language": `{"result": "zh"}`,
		"ide_logging":  `{"result": true}`,
	})
	ctx := context.Background()

	ok, err := client.DiffApply(ctx, "/repo/calc_test.go", "package calc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/repo/calc_test.go", (*calls)[0].Args["filepath"])

	lang, err := client.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "zh", lang)

	require.NoError(t, client.Log(ctx, "info", "hello"))
	assert.Equal(t, "hello", (*calls)[2].Args["message"])
}

func TestSelectedRange(t *testing.T) {
	client, _ := newBridge(t, map[string]string{
		"get_selected_range": `{"result": {"abspath": "/repo/a.go", "text": "x := 1",
			"range": {"start": {"line": 2, "character": 0}, "end": {"line": 2, "character": 6}}}}`,
	})

	loc, err := client.SelectedRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/repo/a.go", loc.AbsPath)
	assert.Equal(t, "x := 1", loc.Text)
}
