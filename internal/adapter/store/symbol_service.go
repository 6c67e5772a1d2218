package store

import (
	"context"

	"go.uber.org/zap"

	"testgen/internal/domain"
	"testgen/internal/port"
)

// PersistentSymbolService serves document symbols from the store while the
// file is unchanged on disk. Definition lookups pass through since they
// depend on other files.
type PersistentSymbolService struct {
	port.SymbolService
	store  *BoltStore
	logger *zap.Logger
}

func NewPersistentSymbolService(service port.SymbolService, store *BoltStore, logger *zap.Logger) *PersistentSymbolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistentSymbolService{SymbolService: service, store: store, logger: logger}
}

func (s *PersistentSymbolService) DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error) {
	stamp, err := StampOf(absPath)
	if err != nil {
		// let the IDE decide what an unreadable file means
		return s.SymbolService.DocumentSymbols(ctx, absPath)
	}

	if nodes, ok, err := s.store.GetSymbols(absPath, stamp); err != nil {
		s.logger.Warn("Symbol cache read failed", zap.String("path", absPath), zap.Error(err))
	} else if ok {
		return nodes, nil
	}

	nodes, err := s.SymbolService.DocumentSymbols(ctx, absPath)
	if err != nil {
		return nil, err
	}
	// an empty tree is usually the language server still starting up
	if len(nodes) > 0 {
		if err := s.store.PutSymbols(absPath, stamp, nodes); err != nil {
			s.logger.Warn("Symbol cache write failed", zap.String("path", absPath), zap.Error(err))
		}
	}
	return nodes, nil
}
