package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankodi12/AmazonWebScraper/internal/apperr"
	"github.com/aryankodi12/AmazonWebScraper/internal/fetch"
	"github.com/aryankodi12/AmazonWebScraper/internal/model"
	"github.com/aryankodi12/AmazonWebScraper/internal/notify"
	"github.com/aryankodi12/AmazonWebScraper/internal/repository"
	"github.com/aryankodi12/AmazonWebScraper/internal/storage/db"
	"github.com/aryankodi12/AmazonWebScraper/pkg/ptr"
)

// fakeProductRepo is an in-memory ProductRepository with the same
// version compare-and-swap semantics as the Postgres implementation.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
}

func (r *fakeProductRepo) WithDB(_ db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.ProductRef == product.ProductRef {
			return apperr.ProductAlreadyTrackedErr
		}
	}
	r.products[product.ID] = product

	return nil
}

func (r *fakeProductRepo) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	return product, nil
}

func (r *fakeProductRepo) ListAllProducts(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}

	return products, nil
}

func (r *fakeProductRepo) ListProductIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}

	return ids, nil
}

func (r *fakeProductRepo) UpdateObservedPrice(_ context.Context, params repository.UpdateObservedPriceParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[params.ID]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if product.Version != params.Version {
		return model.Product{}, apperr.ProductStaleWriteErr
	}

	product.Title = params.Title
	product.CurrentPrice = params.Price
	product.Version++
	product.UpdatedAt = time.Now()
	r.products[params.ID] = product

	return product, nil
}

func (r *fakeProductRepo) UpdateTargetPrice(_ context.Context, id uuid.UUID, targetPrice *float64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	product.TargetPrice = targetPrice
	product.UpdatedAt = time.Now()
	r.products[id] = product

	return product, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperr.ProductNotFoundErr
	}
	delete(r.products, id)

	return nil
}

type fakeFetcher struct {
	mu        sync.Mutex
	snapshots map[string]fetch.Snapshot
	err       error
	calls     int
}

func (f *fakeFetcher) Fetch(_ context.Context, productRef string) (fetch.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return fetch.Snapshot{}, f.err
	}

	snapshot, ok := f.snapshots[productRef]
	if !ok {
		return fetch.Snapshot{}, fmt.Errorf("unknown product ref %q", productRef)
	}

	return snapshot, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	err    error
}

func (n *fakeNotifier) NotifyPriceDrop(_ context.Context, alert notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)

	return nil
}

func newTestService(repo *fakeProductRepo, fetcher *fakeFetcher, notifier *fakeNotifier) ProductService {
	return NewProductService(slog.New(slog.DiscardHandler), repo, fetcher, notifier)
}

func TestProductService_CreateProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Should create product with fetched title and price", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{snapshots: map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 49.99},
		}}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		product, err := svc.CreateProduct(ctx, CreateProductParams{
			ProductRef:  "B09G9FPHY6",
			TargetPrice: ptr.New(40.0),
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.Equal(t, "B09G9FPHY6", product.ProductRef)
		assert.Equal(t, "Echo Dot", product.Title)
		assert.Equal(t, 49.99, product.CurrentPrice)
		require.NotNil(t, product.TargetPrice)
		assert.Equal(t, 40.0, *product.TargetPrice)
		assert.Equal(t, int64(1), product.Version)

		stored, err := repo.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product, stored)
	})

	t.Run("Should reject empty product ref", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{}
		svc := newTestService(newFakeProductRepo(), fetcher, &fakeNotifier{})

		_, err := svc.CreateProduct(ctx, CreateProductParams{ProductRef: ""})

		assert.True(t, apperr.HasCode(err, apperr.ValidationErr.Code()))
		assert.Zero(t, fetcher.calls)
	})

	t.Run("Should reject negative target price", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{}
		svc := newTestService(newFakeProductRepo(), fetcher, &fakeNotifier{})

		_, err := svc.CreateProduct(ctx, CreateProductParams{
			ProductRef:  "B09G9FPHY6",
			TargetPrice: ptr.New(-1.0),
		})

		assert.True(t, apperr.HasCode(err, apperr.ValidationErr.Code()))
		assert.Zero(t, fetcher.calls)
	})

	t.Run("Should not persist when fetch fails", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{err: fmt.Errorf("connection refused")}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		_, err := svc.CreateProduct(ctx, CreateProductParams{ProductRef: "B09G9FPHY6"})

		assert.True(t, apperr.HasCode(err, apperr.ProductFetchFailedErr.Code()))

		products, err := repo.ListAllProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("Should reject already tracked product ref", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{snapshots: map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 49.99},
		}}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		_, err := svc.CreateProduct(ctx, CreateProductParams{ProductRef: "B09G9FPHY6"})
		require.NoError(t, err)

		_, err = svc.CreateProduct(ctx, CreateProductParams{ProductRef: "B09G9FPHY6"})
		assert.True(t, apperr.HasCode(err, apperr.ProductAlreadyTrackedErr.Code()))

		products, err := repo.ListAllProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}

func TestProductService_SetTargetPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Should update target price without fetching", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{snapshots: map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 49.99},
		}}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		created, err := svc.CreateProduct(ctx, CreateProductParams{ProductRef: "B09G9FPHY6"})
		require.NoError(t, err)
		fetchesAfterCreate := fetcher.calls

		updated, err := svc.SetTargetPrice(ctx, created.ID, ptr.New(45.0))
		require.NoError(t, err)

		require.NotNil(t, updated.TargetPrice)
		assert.Equal(t, 45.0, *updated.TargetPrice)
		assert.Equal(t, fetchesAfterCreate, fetcher.calls)
	})

	t.Run("Should clear target price with nil", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{snapshots: map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 49.99},
		}}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		created, err := svc.CreateProduct(ctx, CreateProductParams{
			ProductRef:  "B09G9FPHY6",
			TargetPrice: ptr.New(40.0),
		})
		require.NoError(t, err)

		updated, err := svc.SetTargetPrice(ctx, created.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.TargetPrice)
	})

	t.Run("Should return not found for unknown product", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeProductRepo(), &fakeFetcher{}, &fakeNotifier{})

		_, err := svc.SetTargetPrice(ctx, uuid.New(), ptr.New(45.0))
		assert.True(t, apperr.HasCode(err, apperr.ProductNotFoundErr.Code()))
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Should delete tracked product", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{snapshots: map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 49.99},
		}}
		svc := newTestService(repo, fetcher, &fakeNotifier{})

		created, err := svc.CreateProduct(ctx, CreateProductParams{ProductRef: "B09G9FPHY6"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteProduct(ctx, created.ID))

		_, err = svc.GetProduct(ctx, created.ID)
		assert.True(t, apperr.HasCode(err, apperr.ProductNotFoundErr.Code()))
	})

	t.Run("Should return not found for unknown product", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(newFakeProductRepo(), &fakeFetcher{}, &fakeNotifier{})

		err := svc.DeleteProduct(ctx, uuid.New())
		assert.True(t, apperr.HasCode(err, apperr.ProductNotFoundErr.Code()))
	})
}

func TestProductService_RefreshProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seed := func(t *testing.T, repo *fakeProductRepo, fetcher *fakeFetcher, notifier *fakeNotifier, targetPrice *float64) (ProductService, model.Product) {
		t.Helper()

		fetcher.snapshots = map[string]fetch.Snapshot{
			"B09G9FPHY6": {Title: "Echo Dot", Price: 120.0},
		}
		svc := newTestService(repo, fetcher, notifier)

		product, err := svc.CreateProduct(ctx, CreateProductParams{
			ProductRef:  "B09G9FPHY6",
			TargetPrice: targetPrice,
		})
		require.NoError(t, err)

		return svc, product
	}

	t.Run("Should update price and notify when it drops below target", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 90.0}

		updated, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, 90.0, updated.CurrentPrice)
		assert.Equal(t, product.Version+1, updated.Version)

		require.Len(t, notifier.alerts, 1)
		alert := notifier.alerts[0]
		assert.Equal(t, product.ID, alert.ProductID)
		assert.Equal(t, "B09G9FPHY6", alert.ProductRef)
		assert.Equal(t, 90.0, alert.CurrentPrice)
		assert.Equal(t, 100.0, alert.TargetPrice)
	})

	t.Run("Should notify when price equals target", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 100.0}

		_, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Len(t, notifier.alerts, 1)
	})

	t.Run("Should not notify while price stays above target", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 110.0}

		updated, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, 110.0, updated.CurrentPrice)
		assert.Empty(t, notifier.alerts)
	})

	t.Run("Should not notify without a target price", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, nil)

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 1.0}

		_, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, notifier.alerts)
	})

	t.Run("Should notify again on the next cycle below target", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 90.0}

		_, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)
		_, err = svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)

		assert.Len(t, notifier.alerts, 2)
	})

	t.Run("Should keep stored state when fetch fails", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.mu.Lock()
		fetcher.err = fmt.Errorf("status 503")
		fetcher.mu.Unlock()

		_, err := svc.RefreshProduct(ctx, product.ID)
		assert.True(t, apperr.HasCode(err, apperr.ProductFetchFailedErr.Code()))

		stored, err := repo.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 120.0, stored.CurrentPrice)
		assert.Equal(t, product.Version, stored.Version)
	})

	t.Run("Should reject stale write when version moved", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{}
		svc, product := seed(t, repo, fetcher, notifier, nil)

		// Another refresh lands after this one read the product.
		_, err := repo.UpdateObservedPrice(ctx, repository.UpdateObservedPriceParams{
			ID:      product.ID,
			Title:   product.Title,
			Price:   95.0,
			Version: product.Version,
		})
		require.NoError(t, err)

		_, err = repo.UpdateObservedPrice(ctx, repository.UpdateObservedPriceParams{
			ID:      product.ID,
			Title:   product.Title,
			Price:   130.0,
			Version: product.Version,
		})
		assert.True(t, apperr.HasCode(err, apperr.ProductStaleWriteErr.Code()))

		stored, err := svc.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 95.0, stored.CurrentPrice)
	})

	t.Run("Should surface delivery failures in logs only", func(t *testing.T) {
		t.Parallel()

		repo := newFakeProductRepo()
		fetcher := &fakeFetcher{}
		notifier := &fakeNotifier{err: fmt.Errorf("broker unavailable")}
		svc, product := seed(t, repo, fetcher, notifier, ptr.New(100.0))

		fetcher.snapshots["B09G9FPHY6"] = fetch.Snapshot{Title: "Echo Dot", Price: 90.0}

		updated, err := svc.RefreshProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 90.0, updated.CurrentPrice)
	})
}
