package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

const productColumns = `id, name, category, price, description, images, specifications,
	box_contents, in_stock, product_code, created_at`

type SQLProducts struct {
	db *sqlx.DB
}

func NewSQLProducts(db *sqlx.DB) *SQLProducts {
	return &SQLProducts{db: db}
}

func (r *SQLProducts) Create(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES (:id, :name, :category, :price, :description, :images, :specifications,
			:box_contents, :in_stock, :product_code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return sqlProductWriteError("insert product", err)
	}
	return nil
}

func (r *SQLProducts) Update(ctx context.Context, product *models.Product) error {
	query := `UPDATE products SET name = :name, category = :category, price = :price,
		description = :description, images = :images, specifications = :specifications,
		box_contents = :box_contents, in_stock = :in_stock, product_code = :product_code
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, product)
	if err != nil {
		return sqlProductWriteError("update product", err)
	}
	return requireAffected(res, "product", product.ID)
}

func (r *SQLProducts) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(res, "product", id)
}

func (r *SQLProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ?`)
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &product, nil
}

func (r *SQLProducts) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build product lookup: %w", err)
	}
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

func (r *SQLProducts) Find(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	where, args := productWhere(query)
	stmt := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY ` + productOrderBy(query.Sort)

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(stmt), args...); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

func (r *SQLProducts) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := r.db.SelectContext(ctx, &categories,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return categories, nil
}

func (r *SQLProducts) SetInStock(ctx context.Context, id string, inStock bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET in_stock = ? WHERE id = ?`), inStock, id)
	if err != nil {
		return fmt.Errorf("set in stock: %w", err)
	}
	return requireAffected(res, "product", id)
}

// productWhere returns a WHERE clause using ? placeholders.
func productWhere(query ProductQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if query.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, query.Category)
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? ESCAPE '\'
			OR LOWER(description) LIKE ? ESCAPE '\'
			OR LOWER(category) LIKE ? ESCAPE '\'
			OR LOWER(product_code) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func productOrderBy(key SortKey) string {
	switch key {
	case SortPriceAsc:
		return "price ASC, id ASC"
	case SortPriceDesc:
		return "price DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

func sqlProductWriteError(op string, err error) error {
	if isUniqueViolation(err) {
		return apperr.Validation("product code already in use")
	}
	return fmt.Errorf("%s: %w", op, err)
}
