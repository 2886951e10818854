package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
)

const (
	defaultSweepConcurrency = 4
	defaultSweepBatchSize   = 1000
)

// SweepResult summarizes one sweep. Skipped counts tenants another writer
// changed first or that were no longer due when re-read.
type SweepResult struct {
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Errors    []string  `json:"errors,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// SweepDueUseCase applies expired trials and due downgrades. Each tenant is
// re-read and written under the optimistic guard, so overlapping sweeps
// and concurrent commands are harmless.
type SweepDueUseCase struct {
	*mutator
	scanner     subscription.DueScanner
	concurrency int
	batchSize   int
}

func NewSweepDueUseCase(deps MutatorDeps, scanner subscription.DueScanner, concurrency, batchSize int) *SweepDueUseCase {
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &SweepDueUseCase{
		mutator:     newMutator(deps),
		scanner:     scanner,
		concurrency: concurrency,
		batchSize:   batchSize,
	}
}

// Execute pages through every due tenant. Tenants that stay due after
// their turn (skipped or failed) are carried: each scan asks for batchSize
// more rows than were carried and drops ids already seen this run, so the
// sweep ends once a scan comes back short or brings nothing new.
func (uc *SweepDueUseCase) Execute(ctx context.Context) (*SweepResult, error) {
	startedAt := uc.clock.Now()
	result := &SweepResult{StartedAt: startedAt}

	seen := make(map[string]struct{})
	carried := 0
	for {
		limit := uc.batchSize + carried
		page, err := uc.scanner.ListDueTenantIDs(ctx, startedAt, limit)
		if err != nil {
			uc.logger.Errorw("failed to list due subscriptions", "error", err, "seen", len(seen))
			return nil, apperrors.NewInternalError("failed to list due subscriptions").WithCause(err)
		}

		fresh := make([]string, 0, len(page))
		for _, tenantID := range page {
			if _, ok := seen[tenantID]; ok {
				continue
			}
			seen[tenantID] = struct{}{}
			fresh = append(fresh, tenantID)
		}

		before := result.Processed
		uc.sweepPage(ctx, fresh, result)
		carried += len(fresh) - (result.Processed - before)

		if len(page) < limit || len(fresh) == 0 || ctx.Err() != nil {
			break
		}
	}

	uc.logger.Infow("sweep completed",
		"due", len(seen),
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", uc.clock.Now().Sub(startedAt).String(),
	)
	return result, nil
}

func (uc *SweepDueUseCase) sweepPage(ctx context.Context, tenantIDs []string, result *SweepResult) {
	if len(tenantIDs) == 0 {
		return
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for _, tenantID := range tenantIDs {
		g.Go(func() error {
			outcome, err := uc.sweepTenant(gctx, tenantID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", tenantID, err))
			case outcome:
				result.Processed++
			default:
				result.Skipped++
			}
			// Never fail the group: one tenant must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()
}

// sweepTenant returns true when at least one transition was written.
func (uc *SweepDueUseCase) sweepTenant(ctx context.Context, tenantID string) (applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Errorw("panic while sweeping tenant", "tenant_id", tenantID, "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var transitions []subscription.Transition
	_, changed, err := uc.apply(ctx, tenantID, "sweep", func(s *subscription.Subscription, now time.Time) (bool, error) {
		transitions = s.ApplyDueTransitions(now)
		return len(transitions) > 0, nil
	})
	if errors.Is(err, subscription.ErrConcurrentModification) {
		uc.logger.Infow("sweep skipped tenant changed concurrently", "tenant_id", tenantID)
		return false, nil
	}
	if err != nil {
		uc.logger.Warnw("sweep failed for tenant", "tenant_id", tenantID, "error", err)
		return false, err
	}

	if changed {
		names := make([]string, len(transitions))
		for i, t := range transitions {
			names[i] = string(t)
		}
		uc.logger.Infow("sweep applied transitions", "tenant_id", tenantID, "transition", strings.Join(names, ","))
	}
	return changed, nil
}
