package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowmart/backend-store/internal/common"
)

const uniqueViolation = "23505"

// Product is the catalog row in API-friendly form.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	Badge       string    `json:"badge,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Rating      float64   `json:"rating"`
	Reviews     int32     `json:"reviews"`
	Benefits    []string  `json:"benefits"`
	Variant     string    `json:"variant"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput carries fields for creating or updating a product.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	ImageURL    string   `json:"imageUrl" validate:"required,url"`
	Badge       string   `json:"badge"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
	Reviews     int32    `json:"reviews" validate:"gte=0"`
	Benefits    []string `json:"benefits"`
	Variant     string   `json:"variant"`
}

// Store runs catalog queries against Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = `id, name, price, image_url, badge, category, description, rating, reviews, benefits, variant, created_at, updated_at`

// List returns a page of products, optionally filtered by category.
func (s *Store) List(ctx context.Context, category string, limit, offset int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	products := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Count returns the number of products matching the category filter.
func (s *Store) Count(ctx context.Context, category string) (int64, error) {
	query := `SELECT COUNT(*) FROM products`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	var total int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// Get fetches a single product by id.
func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return Product{}, notFound(err)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, pid)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, notFound(err)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a new product and returns the stored row.
func (s *Store) Create(ctx context.Context, input ProductInput) (Product, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, price, image_url, badge, category, description, rating, reviews, benefits, variant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		input.Name, input.Price, input.ImageURL, input.Badge, input.Category,
		input.Description, input.Rating, input.Reviews, benefitsOrEmpty(input.Benefits), variantOrDefault(input.Variant),
	)
	p, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, common.NewAppError(common.CodeConflict, "a product with that name already exists", http.StatusConflict, err)
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update replaces a product's fields and returns the stored row.
func (s *Store) Update(ctx context.Context, id string, input ProductInput) (Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return Product{}, notFound(err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, price = $3, image_url = $4, badge = $5, category = $6,
		    description = $7, rating = $8, reviews = $9, benefits = $10, variant = $11,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		pid, input.Name, input.Price, input.ImageURL, input.Badge, input.Category,
		input.Description, input.Rating, input.Reviews, benefitsOrEmpty(input.Benefits), variantOrDefault(input.Variant),
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, notFound(err)
		}
		if isUniqueViolation(err) {
			return Product{}, common.NewAppError(common.CodeConflict, "a product with that name already exists", http.StatusConflict, err)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes a product by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return notFound(err)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, pid)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows)
	}
	return nil
}

// Ping probes database connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p  Product
		id uuid.UUID
	)
	err := row.Scan(&id, &p.Name, &p.Price, &p.ImageURL, &p.Badge, &p.Category,
		&p.Description, &p.Rating, &p.Reviews, &p.Benefits, &p.Variant, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.String()
	if p.Benefits == nil {
		p.Benefits = []string{}
	}
	return p, nil
}

func benefitsOrEmpty(benefits []string) []string {
	if benefits == nil {
		return []string{}
	}
	return benefits
}

func variantOrDefault(variant string) string {
	if variant == "" {
		return "skin"
	}
	return variant
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) *common.AppError {
	return common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, err)
}
