package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"paden/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

const defaultSearchLimit = 5

func (r *Repo) UpsertProperty(ctx context.Context, p domain.Property) error {
	amen, _ := json.Marshal(p.Amenities)
	imgs, _ := json.Marshal(p.Images)
	_, err := r.db.ExecContext(ctx, upsertPropertySQL,
		p.ID,
		p.Title,
		p.Description,
		p.Price,
		p.Location,
		string(amen),
		string(imgs),
		p.OwnerID,
	)
	return err
}

func (r *Repo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) ListProperties(ctx context.Context, limit int) ([]domain.Property, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := r.db.QueryContext(ctx, listPropertiesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProperties(rows)
}

// Search applies the filter's active dimensions conjunctively, newest first.
// Errors are returned, not swallowed, so the orchestrator can word an
// infrastructure failure differently from a genuine zero-match.
func (r *Repo) Search(ctx context.Context, f domain.SearchFilter, limit int) ([]domain.Property, error) {
	q, args := buildSearch(f, limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProperties(rows)
}

// buildSearch assembles the WHERE clause:
//   - location, title: substring match
//   - minPrice, maxPrice: inclusive bounds
//   - query: disjunctive substring across title/description/location
func buildSearch(f domain.SearchFilter, limit int) (string, []any) {
	var conds []string
	var args []any

	like := func(s string) string { return "%" + s + "%" }

	if f.Location != nil && *f.Location != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, like(*f.Location))
	}
	if f.Title != nil && *f.Title != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, like(*f.Title))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Query != nil && *f.Query != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ? OR location LIKE ?)")
		q := like(*f.Query)
		args = append(args, q, q, q)
	}

	sb := strings.Builder{}
	sb.WriteString(searchPrefix)
	if len(conds) > 0 {
		sb.WriteString("WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(searchSuffix)

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, limit)
	return sb.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (domain.Property, error) {
	var p domain.Property
	var desc, ownerID sql.NullString
	var amenitiesJSON, imagesJSON []byte
	var createdAt sql.NullTime

	if err := row.Scan(
		&p.ID,
		&p.Title,
		&desc,
		&p.Price,
		&p.Location,
		&amenitiesJSON,
		&imagesJSON,
		&ownerID,
		&createdAt,
	); err != nil {
		return domain.Property{}, err
	}
	if desc.Valid {
		p.Description = desc.String
	}
	if ownerID.Valid {
		p.OwnerID = ownerID.String
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	_ = json.Unmarshal(amenitiesJSON, &p.Amenities)
	_ = json.Unmarshal(imagesJSON, &p.Images)
	return p, nil
}

func scanProperties(rows *sql.Rows) ([]domain.Property, error) {
	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
