package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testgen/internal/domain"
	"testgen/internal/port"
)

var _ port.SymbolService = (*PersistentSymbolService)(nil)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "state", "testgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSymbols_RoundTripAndStaleness(t *testing.T) {
	s := openStore(t)
	nodes := []domain.SymbolNode{{Name: "Add", Kind: "Function"}}
	stamp := FileStamp{ModTime: 100, Size: 42}

	require.NoError(t, s.PutSymbols("/repo/calc.go", stamp, nodes))

	got, ok, err := s.GetSymbols("/repo/calc.go", stamp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nodes, got)

	_, ok, err = s.GetSymbols("/repo/calc.go", FileStamp{ModTime: 101, Size: 42})
	require.NoError(t, err)
	assert.False(t, ok, "a changed file must miss")

	require.NoError(t, s.DeleteSymbols("/repo/calc.go"))
	_, ok, _ = s.GetSymbols("/repo/calc.go", stamp)
	assert.False(t, ok)
}

func TestProposals(t *testing.T) {
	s := openStore(t)

	older, err := s.PutProposal(Proposal{
		Function:  "Add",
		FilePath:  "calc.go",
		Cases:     []string{"normal: adds two numbers"},
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	newer, err := s.PutProposal(Proposal{Function: "Sub", Cases: []string{"edge: zero"}})
	require.NoError(t, err)
	assert.NotEqual(t, older, newer)
	assert.Len(t, newer, 36)

	p, err := s.GetProposal(older)
	require.NoError(t, err)
	assert.Equal(t, "Add", p.Function)
	assert.Equal(t, []string{"normal: adds two numbers"}, p.Cases)

	list, err := s.ListProposals()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)

	_, err = s.GetProposal("missing")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.PutSymbols("/repo/a.go", FileStamp{}, []domain.SymbolNode{{Name: "A"}}))
	id, err := s.PutProposal(Proposal{Function: "A"})
	require.NoError(t, err)

	result, err := s.Migrate()
	require.NoError(t, err)
	assert.Equal(t, 0, result.OldVersion)
	assert.True(t, result.ClearedCaches)

	_, ok, _ := s.GetSymbols("/repo/a.go", FileStamp{})
	assert.False(t, ok)
	_, err = s.GetProposal(id)
	assert.NoError(t, err, "proposals survive upgrades")

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	result, err = s.Migrate()
	require.NoError(t, err)
	assert.False(t, result.ClearedCaches)
}

type stubSymbols struct {
	calls int
	nodes []domain.SymbolNode
}

func (s *stubSymbols) DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error) {
	s.calls++
	return s.nodes, nil
}

func (s *stubSymbols) FindTypeDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return nil, nil
}

func (s *stubSymbols) FindDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error) {
	return nil, nil
}

func TestPersistentSymbolService(t *testing.T) {
	s := openStore(t)
	file := filepath.Join(t.TempDir(), "calc.go")
	require.NoError(t, os.WriteFile(file, []byte("package calc\n"), 0644))

	inner := &stubSymbols{nodes: []domain.SymbolNode{{Name: "calc"}}}
	svc := NewPersistentSymbolService(inner, s, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		nodes, err := svc.DocumentSymbols(ctx, file)
		require.NoError(t, err)
		assert.Equal(t, "calc", nodes[0].Name)
	}
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, os.WriteFile(file, []byte("package calc\n\nfunc Add() {}\n"), 0644))
	_, err := svc.DocumentSymbols(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "an edited file is fetched again")
}

func TestPersistentSymbolService_EmptyTreeNotStored(t *testing.T) {
	s := openStore(t)
	file := filepath.Join(t.TempDir(), "empty.go")
	require.NoError(t, os.WriteFile(file, []byte("package empty\n"), 0644))

	inner := &stubSymbols{}
	svc := NewPersistentSymbolService(inner, s, nil)
	svc.DocumentSymbols(context.Background(), file)
	svc.DocumentSymbols(context.Background(), file)
	assert.Equal(t, 2, inner.calls)
}
