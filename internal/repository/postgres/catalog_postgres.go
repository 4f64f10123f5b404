package postgres

import (
	"context"
	"database/sql"
	"strings"

	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// CatalogPostgres is a PostgreSQL implementation of repository.CatalogRepository.
// Keywords are stored space separated.
type CatalogPostgres struct {
	db *sql.DB
}

// NewCatalogPostgres creates a new CatalogPostgres repository.
func NewCatalogPostgres(db *sql.DB) *CatalogPostgres {
	return &CatalogPostgres{db: db}
}

var _ repository.CatalogRepository = (*CatalogPostgres)(nil)

// CountCategories returns the number of categories.
func (r *CatalogPostgres) CountCategories(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_categories`).Scan(&n)
	return n, err
}

// CreateCategory inserts a category.
func (r *CatalogPostgres) CreateCategory(ctx context.Context, c *model.Category) error {
	const q = `
		INSERT INTO catalog_categories (id, name, slug, description, display_order)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, q, c.ID, c.Name, c.Slug, c.Description, c.DisplayOrder)
	return err
}

// CreateService inserts a catalog service.
func (r *CatalogPostgres) CreateService(ctx context.Context, s *model.CatalogService) error {
	const q = `
		INSERT INTO catalog_services (id, category_id, name, slug, description, keywords, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, q,
		s.ID, s.CategoryID, s.Name, s.Slug, s.Description, strings.Join(s.Keywords, " "), s.DisplayOrder,
	)
	return err
}

// ListCategories returns categories in display order.
func (r *CatalogPostgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	const q = `
		SELECT id, name, slug, description, display_order
		FROM catalog_categories
		ORDER BY display_order, name
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.DisplayOrder); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const catalogServiceColumns = `s.id, s.category_id, c.name, s.name, s.slug, s.description, s.keywords, s.display_order`

func scanCatalogService(row interface{ Scan(...any) error }) (*model.CatalogService, error) {
	var s model.CatalogService
	var keywords string
	if err := row.Scan(&s.ID, &s.CategoryID, &s.CategoryName, &s.Name, &s.Slug, &s.Description, &keywords, &s.DisplayOrder); err != nil {
		return nil, err
	}
	s.Keywords = strings.Fields(keywords)
	return &s, nil
}

func (r *CatalogPostgres) listServices(ctx context.Context, q string, args ...any) ([]model.CatalogService, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.CatalogService, 0)
	for rows.Next() {
		s, err := scanCatalogService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

// ListServices returns services, optionally restricted to one category.
func (r *CatalogPostgres) ListServices(ctx context.Context, categoryID string) ([]model.CatalogService, error) {
	q := `
		SELECT ` + catalogServiceColumns + `
		FROM catalog_services s
		JOIN catalog_categories c ON c.id = s.category_id
		WHERE ($1 = '' OR s.category_id::text = $1)
		ORDER BY c.display_order, s.display_order, s.name
	`
	return r.listServices(ctx, q, categoryID)
}

// FindService fetches a catalog service by ID.
func (r *CatalogPostgres) FindService(ctx context.Context, id string) (*model.CatalogService, error) {
	q := `
		SELECT ` + catalogServiceColumns + `
		FROM catalog_services s
		JOIN catalog_categories c ON c.id = s.category_id
		WHERE s.id = $1
	`
	return scanCatalogService(conn(ctx, r.db).QueryRowContext(ctx, q, id))
}

// ListPopular returns services by descending demand score.
func (r *CatalogPostgres) ListPopular(ctx context.Context, limit int) ([]model.CatalogService, error) {
	q := `
		SELECT ` + catalogServiceColumns + `
		FROM catalog_services s
		JOIN catalog_categories c ON c.id = s.category_id
		LEFT JOIN service_analytics a ON a.catalog_service_id = s.id
		ORDER BY COALESCE(a.demand_score, 0) DESC, s.display_order, s.name
		LIMIT $1
	`
	return r.listServices(ctx, q, limit)
}
