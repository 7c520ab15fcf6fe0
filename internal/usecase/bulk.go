package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"FinFetch/internal/provider"
	"FinFetch/pkg/logger"
)

const (
	defaultMaxConcurrent = 5
	defaultMaxBulkSize   = 50
)

// BulkItem is one request inside a bulk fetch.
type BulkItem struct {
	Category   provider.Category `json:"category"`
	ProviderID string            `json:"provider_id,omitempty"`
	Params     provider.Params   `json:"params"`
}

// BulkResult pairs one item with its outcome. Exactly one of Response
// and Error is set.
type BulkResult struct {
	Index    int                `json:"index"`
	Response *provider.Response `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
	Kind     string             `json:"error_kind,omitempty"`
}

// BulkUseCase fans a batch of fetches across providers with a bounded
// concurrency gate.
type BulkUseCase struct {
	fetch         *FetchUseCase
	log           *logger.Logger
	maxConcurrent int64
	maxBulkSize   int
}

func NewBulkUseCase(fetch *FetchUseCase, log *logger.Logger, maxConcurrent, maxBulkSize int) *BulkUseCase {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxBulkSize <= 0 {
		maxBulkSize = defaultMaxBulkSize
	}
	return &BulkUseCase{
		fetch:         fetch,
		log:           log.Named("bulk"),
		maxConcurrent: int64(maxConcurrent),
		maxBulkSize:   maxBulkSize,
	}
}

// Run executes the batch. Results keep the input order. Individual
// failures never abort the batch; the caller inspects per-item errors.
func (uc *BulkUseCase) Run(ctx context.Context, items []BulkItem) ([]BulkResult, error) {
	if len(items) == 0 {
		return nil, provider.NewError(provider.KindValidation, "bulk request requires at least one item")
	}
	if len(items) > uc.maxBulkSize {
		return nil, provider.NewError(provider.KindValidation,
			"bulk request of %d items exceeds the limit of %d", len(items), uc.maxBulkSize)
	}

	sem := semaphore.NewWeighted(uc.maxConcurrent)
	results := make([]BulkResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = BulkResult{Index: i, Error: err.Error(), Kind: string(provider.KindOf(err))}
			continue
		}
		wg.Add(1)
		go func(i int, item BulkItem) {
			defer wg.Done()
			defer sem.Release(1)

			resp, err := uc.fetch.Fetch(ctx, FetchParams{
				Category:   item.Category,
				ProviderID: item.ProviderID,
				Params:     item.Params,
			})
			if err != nil {
				results[i] = BulkResult{Index: i, Error: err.Error(), Kind: string(provider.KindOf(err))}
				return
			}
			results[i] = BulkResult{Index: i, Response: resp}
		}(i, item)
	}
	wg.Wait()

	return results, nil
}
