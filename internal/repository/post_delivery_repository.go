package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/maternal-health/internal/model"
)

const postDeliveryColumns = `id, mother_name, delivery_date, complications, child_weight_kg,
	child_diseases, notes, submitted_at, external_id, submitted_by, created_at`

// Page size bounds for PostDeliveryRepo.List.
const (
	DefaultPostDeliveryLimit = 100
	MaxPostDeliveryLimit     = 1000
)

// PostDeliveryQuery filters the post-delivery listing.  Since and Before
// are inclusive bounds on created_at; zero values disable them.
type PostDeliveryQuery struct {
	Search string
	Since  time.Time
	Before time.Time
	Limit  int
	Offset int
}

// Normalize clamps Limit into 1..MaxPostDeliveryLimit (non-positive becomes
// the default) and negative offsets to zero.
func (q *PostDeliveryQuery) Normalize() {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultPostDeliveryLimit
	case q.Limit > MaxPostDeliveryLimit:
		q.Limit = MaxPostDeliveryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

type PostDeliveryRepo struct {
	db *sql.DB
}

func NewPostDeliveryRepo(db *sql.DB) *PostDeliveryRepo {
	return &PostDeliveryRepo{db: db}
}

// Create inserts rec and returns the stored row.  A zero SubmittedAt is
// stored as the current time.
func (r *PostDeliveryRepo) Create(ctx context.Context, rec *model.PostDeliveryRecord) (*model.PostDeliveryRecord, error) {
	submitted := rec.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	const q = `INSERT INTO post_delivery (
		mother_name, delivery_date, complications, child_weight_kg, child_diseases,
		notes, submitted_at, external_id, submitted_by
	) VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		rec.MotherName, sqlDate(rec.DeliveryDate), rec.Complications, rec.ChildWeightKg, rec.ChildDiseases,
		rec.Notes, sqlTime(submitted), rec.ExternalID, rec.SubmittedBy)
	if err != nil {
		return nil, fmt.Errorf("insert post-delivery record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns one record or ErrNotFound.
func (r *PostDeliveryRepo) GetByID(ctx context.Context, id uint64) (*model.PostDeliveryRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+postDeliveryColumns+" FROM post_delivery WHERE id = ?", id)
	rec, err := scanPostDelivery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post-delivery record %d: %w", id, err)
	}
	return rec, nil
}

// List returns one page of records, newest first, and the total number of
// rows matching the filters.
func (r *PostDeliveryRepo) List(ctx context.Context, q PostDeliveryQuery) ([]*model.PostDeliveryRecord, int64, error) {
	q.Normalize()

	where := []string{}
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, "(LOWER(mother_name) LIKE ? OR LOWER(notes) LIKE ? OR LOWER(external_id) LIKE ?)")
		p := likePattern(s)
		args = append(args, p, p, p)
	}
	if !q.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, sqlTime(q.Since))
	}
	if !q.Before.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, sqlTime(q.Before))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM post_delivery WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count post-delivery records: %w", err)
	}

	dataSQL := "SELECT " + postDeliveryColumns + " FROM post_delivery WHERE " + cond +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, q.Offset)
	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, fmt.Errorf("list post-delivery records: %w", err)
	}
	defer rows.Close()

	out := make([]*model.PostDeliveryRecord, 0)
	for rows.Next() {
		rec, err := scanPostDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanPostDelivery(s rowScanner) (*model.PostDeliveryRecord, error) {
	var rec model.PostDeliveryRecord
	err := s.Scan(
		&rec.ID,
		&rec.MotherName,
		&rec.DeliveryDate,
		&rec.Complications,
		&rec.ChildWeightKg,
		&rec.ChildDiseases,
		&rec.Notes,
		&rec.SubmittedAt,
		&rec.ExternalID,
		&rec.SubmittedBy,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
