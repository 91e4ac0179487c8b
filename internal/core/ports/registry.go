package ports

import (
	"context"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

// Registry определяет порт для работы с реестром LEI
type Registry interface {
	// Поиск записи
	LEIRecord(ctx context.Context, lei string) (*registry.Document, error)
	SearchByName(ctx context.Context, name string, pageSize int) (*registry.Document, error)

	// Иерархия
	Children(ctx context.Context, listing string, pageSize int) (*registry.Document, error)
	Follow(ctx context.Context, link string) (*registry.Document, error)
}

// FuzzySearcher is implemented by registries that offer name completions.
type FuzzySearcher interface {
	FuzzyCompletions(ctx context.Context, q string) ([]registry.Completion, error)
}
