package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryankodi12/AmazonWebScraper/internal/apperr"
	"github.com/aryankodi12/AmazonWebScraper/internal/fetch"
	"github.com/aryankodi12/AmazonWebScraper/internal/model"
	"github.com/aryankodi12/AmazonWebScraper/internal/notify"
	"github.com/aryankodi12/AmazonWebScraper/internal/repository"
)

type CreateProductParams struct {
	ProductRef  string
	TargetPrice *float64
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	SetTargetPrice(ctx context.Context, id uuid.UUID, targetPrice *float64) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	RefreshProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
}

type productService struct {
	logger      *slog.Logger
	productRepo repository.ProductRepository
	fetcher     fetch.Fetcher
	notifier    notify.Notifier
}

func NewProductService(
	logger *slog.Logger,
	productRepo repository.ProductRepository,
	fetcher fetch.Fetcher,
	notifier notify.Notifier,
) ProductService {
	return &productService{
		logger:      logger.With(slog.String("service", "product")),
		productRepo: productRepo,
		fetcher:     fetcher,
		notifier:    notifier,
	}
}

// CreateProduct fetches the product synchronously so a tracking request for a
// ref that cannot be resolved fails up front, with nothing persisted.
// A ref that is already tracked is rejected; the existing record is untouched.
func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if params.ProductRef == "" {
		return model.Product{}, apperr.ValidationErr.WrapParent(fmt.Errorf("product ref is empty"))
	}
	if err := validateTargetPrice(params.TargetPrice); err != nil {
		return model.Product{}, err
	}

	snapshot, err := s.fetcher.Fetch(ctx, params.ProductRef)
	if err != nil {
		return model.Product{}, apperr.ProductFetchFailedErr.WrapParent(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:           id,
		ProductRef:   params.ProductRef,
		Title:        snapshot.Title,
		CurrentPrice: snapshot.Price,
		TargetPrice:  params.TargetPrice,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("product repository create product: %w", err)
	}

	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

// SetTargetPrice updates the threshold only. The new value takes effect on
// the next refresh cycle; no fetch or notification check happens here.
func (s *productService) SetTargetPrice(ctx context.Context, id uuid.UUID, targetPrice *float64) (model.Product, error) {
	if err := validateTargetPrice(targetPrice); err != nil {
		return model.Product{}, err
	}

	product, err := s.productRepo.UpdateTargetPrice(ctx, id, targetPrice)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository update target price: %w", err)
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("product repository delete product: %w", err)
	}

	return nil
}

// RefreshProduct runs one fetch-update-notify cycle for a single product.
//
// The observed price is written with a version compare-and-swap, so when two
// refreshes of the same product race, the one holding older data is rejected
// (PRODUCT_STALE_WRITE) instead of overwriting the newer write. A fetch
// failure leaves the stored state untouched.
//
// The alert fires every cycle the product is observed at or below target.
// Delivery failures are logged and reported through the returned product's
// state, never rolled back into the price update.
func (s *productService) RefreshProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	snapshot, err := s.fetcher.Fetch(ctx, product.ProductRef)
	if err != nil {
		return model.Product{}, apperr.ProductFetchFailedErr.WrapParent(err)
	}

	updated, err := s.productRepo.UpdateObservedPrice(ctx, repository.UpdateObservedPriceParams{
		ID:      product.ID,
		Title:   snapshot.Title,
		Price:   snapshot.Price,
		Version: product.Version,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository update observed price: %w", err)
	}

	if updated.IsBelowTarget() {
		if err := s.notifier.NotifyPriceDrop(ctx, notify.Alert{
			ProductID:    updated.ID,
			ProductRef:   updated.ProductRef,
			Title:        updated.Title,
			CurrentPrice: updated.CurrentPrice,
			TargetPrice:  *updated.TargetPrice,
			ObservedAt:   updated.UpdatedAt,
		}); err != nil {
			s.logger.ErrorContext(ctx, "error notifying price drop",
				slog.String("product_id", updated.ID.String()),
				slog.String("product_ref", updated.ProductRef),
				slog.Any("error", err),
			)
		}
	}

	return updated, nil
}

func validateTargetPrice(targetPrice *float64) error {
	if targetPrice != nil && *targetPrice < 0 {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("target price %f is negative", *targetPrice))
	}
	return nil
}
