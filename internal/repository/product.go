package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aryankodi12/AmazonWebScraper/internal/apperr"
	"github.com/aryankodi12/AmazonWebScraper/internal/model"
	"github.com/aryankodi12/AmazonWebScraper/internal/storage/db"
)

const pgUniqueViolationCode = "23505"

// UpdateObservedPriceParams carries the result of a fetch together with the
// version the refresh read. The update applies only while that version is
// still current, so a refresh holding stale data loses the race instead of
// overwriting a newer write.
type UpdateObservedPriceParams struct {
	ID      uuid.UUID
	Title   string
	Price   float64
	Version int64
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	ListProductIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateObservedPrice(ctx context.Context, params UpdateObservedPriceParams) (model.Product, error)
	UpdateTargetPrice(ctx context.Context, id uuid.UUID, targetPrice *float64) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, product_ref, title, current_price, target_price, version, created_at, updated_at`

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	currentPrice, err := numericFromFloat(product.CurrentPrice)
	if err != nil {
		return fmt.Errorf("scan current price: %w", err)
	}

	targetPrice, err := numericFromFloatPtr(product.TargetPrice)
	if err != nil {
		return fmt.Errorf("scan target price: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO products (id, product_ref, title, current_price, target_price, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, product.ID, product.ProductRef, product.Title, currentPrice, targetPrice,
		product.Version, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return apperr.ProductAlreadyTrackedErr.WrapParent(err)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1;
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr.WrapParent(err)
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at;
	`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r productRepository) ListProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products ORDER BY created_at;`)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ids: %w", err)
	}

	return ids, nil
}

func (r productRepository) UpdateObservedPrice(ctx context.Context, params UpdateObservedPriceParams) (model.Product, error) {
	price, err := numericFromFloat(params.Price)
	if err != nil {
		return model.Product{}, fmt.Errorf("scan price: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET title         = $2,
			current_price = $3,
			updated_at    = NOW(),
			version       = version + 1
		WHERE id = $1 AND version = $4
		RETURNING `+productColumns+`;
	`, params.ID, params.Title, price, params.Version)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, r.observedPriceConflict(ctx, params.ID, err)
		}
		return model.Product{}, fmt.Errorf("update observed price: %w", err)
	}

	return product, nil
}

// observedPriceConflict distinguishes a lost version race from a product that
// was deleted while the refresh was in flight.
func (r productRepository) observedPriceConflict(ctx context.Context, id uuid.UUID, cause error) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1);`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check product existence: %w", err)
	}

	if exists {
		return apperr.ProductStaleWriteErr.WrapParent(cause)
	}
	return apperr.ProductNotFoundErr.WrapParent(cause)
}

func (r productRepository) UpdateTargetPrice(ctx context.Context, id uuid.UUID, targetPrice *float64) (model.Product, error) {
	target, err := numericFromFloatPtr(targetPrice)
	if err != nil {
		return model.Product{}, fmt.Errorf("scan target price: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET target_price = $2,
			updated_at   = NOW()
		WHERE id = $1
		RETURNING `+productColumns+`;
	`, id, target)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr.WrapParent(err)
		}
		return model.Product{}, fmt.Errorf("update target price: %w", err)
	}

	return product, nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr
	}

	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		product      model.Product
		currentPrice pgtype.Numeric
		targetPrice  pgtype.Numeric
	)

	if err := row.Scan(
		&product.ID,
		&product.ProductRef,
		&product.Title,
		&currentPrice,
		&targetPrice,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	current, err := currentPrice.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert current price to float64: %w", err)
	}
	product.CurrentPrice = current.Float64

	if targetPrice.Valid {
		target, err := targetPrice.Float64Value()
		if err != nil {
			return model.Product{}, fmt.Errorf("convert target price to float64: %w", err)
		}
		product.TargetPrice = &target.Float64
	}

	return product, nil
}

func numericFromFloat(value float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(fmt.Sprintf("%.2f", value)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func numericFromFloatPtr(value *float64) (pgtype.Numeric, error) {
	if value == nil {
		return pgtype.Numeric{}, nil
	}
	return numericFromFloat(*value)
}
