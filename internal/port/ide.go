package port

import (
	"context"

	"testgen/internal/domain"
)

// SymbolService is the symbol and definition subset of the IDE bridge.
type SymbolService interface {
	// DocumentSymbols returns the symbol tree of the file at absPath.
	DocumentSymbols(ctx context.Context, absPath string) ([]domain.SymbolNode, error)

	// FindTypeDefLocations returns where the type of the symbol at line/character is defined.
	FindTypeDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error)

	// FindDefLocations returns where the symbol at line/character is defined.
	FindDefLocations(ctx context.Context, absPath string, line, character int) ([]domain.Location, error)
}

// IDE is the full IDE bridge.
type IDE interface {
	SymbolService

	SelectedRange(ctx context.Context) (domain.LocationWithText, error)
	VisibleRange(ctx context.Context) (domain.LocationWithText, error)

	// DiffApply asks the IDE to show and apply new content for a file.
	DiffApply(ctx context.Context, filePath, content string) (bool, error)

	// Language returns the IDE UI language, e.g. "en" or "zh".
	Language(ctx context.Context) (string, error)

	// Log writes a message to the IDE log. level is info, warn, error or debug.
	Log(ctx context.Context, level, message string) error
}
