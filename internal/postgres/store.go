package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

var ErrDuplicateID = errors.New("document id already exists")

// Store keeps products and orders as JSONB documents.
type Store struct{ DB *pgxpool.Pool }

func (s *Store) Ping(ctx context.Context) error { return s.DB.Ping(ctx) }

func (s *Store) Close(context.Context) error {
	s.DB.Close()
	return nil
}

func (s *Store) InsertProduct(ctx context.Context, p catalog.Product) error {
	return s.insert(ctx, "products", p.ID, p)
}

func (s *Store) InsertOrder(ctx context.Context, o catalog.Order) error {
	return s.insert(ctx, "orders", o.ID, o)
}

func (s *Store) insert(ctx context.Context, table, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", table, err)
	}
	_, err = s.DB.Exec(ctx, `INSERT INTO `+table+`(doc) VALUES ($1)`, b)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: %s/%s", ErrDuplicateID, table, id)
		}
		return err
	}
	return nil
}

func (s *Store) CountProducts(ctx context.Context, f catalog.ProductFilter) (int, error) {
	where, args := productWhere(f)
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n)
	return n, err
}

func (s *Store) FindProducts(ctx context.Context, f catalog.ProductFilter, offset, limit int) ([]catalog.Product, error) {
	where, args := productWhere(f)
	args = append(args, offset, limit)
	q := fmt.Sprintf(`SELECT doc FROM products%s ORDER BY seq OFFSET $%d LIMIT $%d`, where, len(args)-1, len(args))
	return collect[catalog.Product](ctx, s.DB, q, args...)
}

func (s *Store) FindProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	return collect[catalog.Product](ctx, s.DB,
		`SELECT doc FROM products WHERE doc->>'id' = ANY($1) ORDER BY seq`, ids)
}

func (s *Store) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE doc->>'userId' = $1`, userID).Scan(&n)
	return n, err
}

func (s *Store) FindOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]catalog.Order, error) {
	return collect[catalog.Order](ctx, s.DB, `
		SELECT doc FROM orders
		WHERE doc->>'userId' = $1
		ORDER BY seq
		OFFSET $2 LIMIT $3`, userID, offset, limit)
}

// productWhere renders the filter as a WHERE clause with positional params.
func productWhere(f catalog.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if f.NamePattern != "" {
		args = append(args, f.NamePattern)
		conds = append(conds, fmt.Sprintf(`doc->>'name' ~* $%d`, len(args)))
	}
	if f.Size != "" {
		args = append(args, f.Size)
		conds = append(conds, fmt.Sprintf(`doc->'sizes' @> jsonb_build_array(jsonb_build_object('size', $%d::text))`, len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func collect[T any](ctx context.Context, db *pgxpool.Pool, q string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		var raw []byte
		var doc T
		if err := row.Scan(&raw); err != nil {
			return doc, err
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return doc, fmt.Errorf("decode document: %w", err)
		}
		return doc, nil
	})
}
