package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// resolveFanOut bounds concurrent alias lookups during ResolveAll
const resolveFanOut = 8

// ReconciliationSession is the state machine a caller (UI) drives from
// extracted receipt lines to a committed inventory batch. Everything before
// Commit is in-memory and side-effect free, so abandoning a session never
// needs a rollback.
type ReconciliationSession struct {
	ID        string
	CreatedAt time.Time

	resolver  *ProductIdentityResolver
	committer *InventoryCommitter

	mu          sync.RWMutex
	lines       []domain.ReceiptLine
	resolutions map[int]domain.Resolution
	committed   map[int]bool
}

// NewReconciliationSession starts a session over the extracted lines, all in
// Pending state. The committer should carry a session-scoped ExpiryService so
// estimation is memoized per session.
func NewReconciliationSession(
	lines []domain.ReceiptLine,
	resolver *ProductIdentityResolver,
	committer *InventoryCommitter,
) *ReconciliationSession {
	resolutions := make(map[int]domain.Resolution, len(lines))
	for _, line := range lines {
		resolutions[line.Index] = domain.Resolution{Status: domain.StatusPending}
	}

	return &ReconciliationSession{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		resolver:    resolver,
		committer:   committer,
		lines:       lines,
		resolutions: resolutions,
		committed:   make(map[int]bool),
	}
}

// Lines returns the session's receipt lines in on-receipt order
func (s *ReconciliationSession) Lines() []domain.ReceiptLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ReceiptLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Resolutions returns a snapshot of the per-line resolution map, keyed by
// line index. This is what drives the UI: Pending/Unknown lines need
// attention, Known/Selected lines are ready to commit.
func (s *ReconciliationSession) Resolutions() map[int]domain.Resolution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]domain.Resolution, len(s.resolutions))
	for k, v := range s.resolutions {
		out[k] = v
	}
	return out
}

// ResolveAll looks every Pending line up in the alias store. Lines with a
// mapping become Known, the rest Unknown. Lookups run concurrently; a store
// failure leaves the line Pending rather than failing the session.
func (s *ReconciliationSession) ResolveAll(ctx context.Context) map[int]domain.Resolution {
	lines := s.Lines()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveFanOut)

	for _, line := range lines {
		line := line

		s.mu.RLock()
		status := s.resolutions[line.Index].Status
		s.mu.RUnlock()
		if status != domain.StatusPending {
			continue
		}

		g.Go(func() error {
			resolution, err := s.resolver.Resolve(gctx, line)
			if err != nil {
				return nil
			}

			s.mu.Lock()
			// A concurrent Select wins over a late resolve result
			if s.resolutions[line.Index].Status == domain.StatusPending {
				s.resolutions[line.Index] = resolution
			}
			s.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return s.Resolutions()
}

// Search queries the catalog for candidates matching the text, ranked
// best-first. Idempotent and free of session state; safe to call repeatedly
// to refresh results.
func (s *ReconciliationSession) Search(ctx context.Context, text string) []domain.CatalogCandidate {
	return s.resolver.Search(ctx, text)
}

// Select records the user's pick for an Unknown line, or reverts it to
// Unknown when candidate is nil. Side effects (alias mapping, product
// creation) are deferred to Commit, so the user can change their mind freely.
func (s *ReconciliationSession) Select(lineIndex int, candidate *domain.CatalogCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.resolutions[lineIndex]
	if !ok {
		return domain.ErrLineNotFound
	}

	switch current.Status {
	case domain.StatusUnknown, domain.StatusSelected:
	default:
		return domain.ErrInvalidRequest
	}

	if candidate == nil {
		s.resolutions[lineIndex] = domain.Resolution{Status: domain.StatusUnknown}
		return nil
	}

	s.resolutions[lineIndex] = domain.Resolution{
		Status:    domain.StatusSelected,
		Candidate: candidate,
	}
	return nil
}

// Commit persists every Known and Selected line as an inventory entry for the
// house. Pending and Unknown lines are excluded, not an error. Lines that
// already committed are skipped, so re-invoking Commit after partial failure
// retries only the failed subset without duplicating entries.
func (s *ReconciliationSession) Commit(
	ctx context.Context,
	houseID string,
	purchaseDate time.Time,
) (*domain.CommitResult, error) {
	s.mu.RLock()
	resolutions := make(map[int]domain.Resolution, len(s.resolutions))
	for idx, res := range s.resolutions {
		if s.committed[idx] {
			continue
		}
		resolutions[idx] = res
	}
	s.mu.RUnlock()

	result, err := s.committer.Commit(ctx, s.Lines(), resolutions, houseID, purchaseDate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, committed := range result.Succeeded {
		s.committed[committed.LineIndex] = true
		s.resolutions[committed.LineIndex] = domain.Resolution{
			Status:    domain.StatusKnown,
			ProductID: committed.Entry.ProductID,
		}
	}
	s.mu.Unlock()

	return result, nil
}
