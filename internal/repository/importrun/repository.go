package importrun

import (
	"context"

	"wholesale-catalog/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, run domain.ImportRun, sourceID string) error
	// Finish stores the terminal status together with the summary and its
	// per-item errors and warnings.
	Finish(ctx context.Context, id string, status domain.RunStatus, message string, summary *domain.RunSummary) error
	Get(ctx context.Context, id string) (*domain.ImportRun, error)
	List(ctx context.Context, limit int) ([]domain.ImportRun, error)
	ListErrors(ctx context.Context, id string) (errs, warnings []domain.ItemError, err error)
}
