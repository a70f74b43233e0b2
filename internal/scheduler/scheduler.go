package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryankodi12/AmazonWebScraper/internal/apperr"
	"github.com/aryankodi12/AmazonWebScraper/internal/config"
	"github.com/aryankodi12/AmazonWebScraper/internal/repository"
	"github.com/aryankodi12/AmazonWebScraper/internal/service"
)

// PassResult aggregates the outcome of one full refresh pass. Failed counts
// per-product fetch failures; Skipped counts products whose refresh was
// already in flight or lost a write race. Neither aborts the pass.
type PassResult struct {
	Products  int
	Succeeded int
	Failed    int
	Skipped   int
}

// Service drives periodic and on-demand refresh passes over all tracked
// products with bounded concurrency and per-product serialization.
type Service struct {
	cfg         config.Scheduler
	logger      *slog.Logger
	productRepo repository.ProductRepository
	productSvc  service.ProductService

	stopChan    chan struct{}
	triggerChan chan struct{}

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewService(
	cfg config.Scheduler,
	logger *slog.Logger,
	productRepo repository.ProductRepository,
	productSvc service.ProductService,
) *Service {
	return &Service{
		cfg:         cfg,
		logger:      logger.With(slog.String("service", "scheduler")),
		productRepo: productRepo,
		productSvc:  productSvc,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
		inflight:    make(map[uuid.UUID]struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
		}
	}
}

// Trigger requests an immediate full pass, independent of the interval timer.
// It never blocks; if a trigger is already pending it is coalesced into it.
// The pass runs asynchronously in the scheduler's loop.
func (s *Service) Trigger() {
	select {
	case s.triggerChan <- struct{}{}:
	default:
	}
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.triggerChan:
			s.RunPass(ctx)
		case <-time.After(s.cfg.Interval):
			s.RunPass(ctx)
		}
	}
}

// RunPass refreshes every product tracked at the start of the pass. Products
// refresh concurrently, bounded by the worker limit; two refreshes of the
// same product never run at once. One product failing never prevents the
// others from refreshing; only a failure to list the products aborts the
// pass.
func (s *Service) RunPass(ctx context.Context) PassResult {
	ids, err := s.productRepo.ListProductIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "error listing products for pass", slog.Any("error", err))
		return PassResult{}
	}

	result := PassResult{Products: len(ids)}
	if len(ids) == 0 {
		return result
	}

	s.logger.InfoContext(ctx, "starting refresh pass", slog.Int("products", len(ids)))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.Workers)
	)

	for _, id := range ids {
		if !s.tryAcquire(id) {
			result.Skipped++
			continue
		}

		sem <- struct{}{}
		wg.Go(func() {
			defer func() { <-sem }()
			defer s.release(id)

			_, err := s.productSvc.RefreshProduct(ctx, id)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				result.Succeeded++
			case apperr.HasCode(err, apperr.ProductStaleWriteCode):
				// A newer refresh won the write race; nothing lost.
				result.Skipped++
			default:
				result.Failed++
				s.logger.ErrorContext(ctx, "error refreshing product",
					slog.String("product_id", id.String()),
					slog.Any("error", err),
				)
			}
		})
	}

	wg.Wait()

	s.logger.InfoContext(ctx, "refresh pass finished",
		slog.Int("products", result.Products),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)

	return result
}

// tryAcquire marks a product refresh as in flight. It reports false when a
// refresh for the same product is already running, which happens when an
// on-demand pass overlaps a scheduled one.
func (s *Service) tryAcquire(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.inflight[id]; running {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
