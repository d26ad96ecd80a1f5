package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/maternal-health/internal/model"
)

const maternalColumns = `id, name, age, past_pregnancy_count, blood_group_mother, blood_group_father,
	medical_bg_mother, medical_bg_father, years_since_last_pregnancy, delivery_type,
	haemoglobin, external_id, submitted_by, surveyed, created_at`

// DefaultRecentLimit is the dashboard page size.
const DefaultRecentLimit = 20

// MaternalRepo stores pre-delivery questionnaires in maternal_health_diff.
type MaternalRepo struct {
	db *sql.DB
}

func NewMaternalRepo(db *sql.DB) *MaternalRepo {
	return &MaternalRepo{db: db}
}

// Create inserts the questionnaire and returns the generated id.  ID,
// Surveyed and CreatedAt on rec are ignored; callers re-read the row with
// GetByID to get the stored form.
func (r *MaternalRepo) Create(ctx context.Context, rec *model.MaternalRecord) (uint64, error) {
	const q = `INSERT INTO maternal_health_diff (
		name, age, past_pregnancy_count, blood_group_mother, blood_group_father,
		medical_bg_mother, medical_bg_father, years_since_last_pregnancy, delivery_type,
		haemoglobin, external_id, submitted_by
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		rec.Name, rec.Age, rec.PastPregnancyCount, rec.BloodGroupMother, rec.BloodGroupFather,
		rec.MedicalBgMother, rec.MedicalBgFather, rec.YearsSinceLastPregnancy, rec.DeliveryType,
		rec.Haemoglobin, rec.ExternalID, rec.SubmittedBy)
	if err != nil {
		return 0, fmt.Errorf("insert maternal record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns one record or ErrNotFound.
func (r *MaternalRepo) GetByID(ctx context.Context, id uint64) (*model.MaternalRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+maternalColumns+" FROM maternal_health_diff WHERE id = ?", id)
	rec, err := scanMaternal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get maternal record %d: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns the newest records first.  Ties on created_at are
// broken by id so rows inserted within the same second keep insert order.
func (r *MaternalRepo) ListRecent(ctx context.Context, limit int) ([]*model.MaternalRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+maternalColumns+" FROM maternal_health_diff ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list maternal records: %w", err)
	}
	defer rows.Close()

	out := make([]*model.MaternalRecord, 0, limit)
	for rows.Next() {
		rec, err := scanMaternal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSurveyed flags a record as surveyed.  Updating a missing id is not an
// error.
func (r *MaternalRepo) MarkSurveyed(ctx context.Context, id uint64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE maternal_health_diff SET surveyed = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark surveyed %d: %w", id, err)
	}
	return nil
}

func scanMaternal(s rowScanner) (*model.MaternalRecord, error) {
	var rec model.MaternalRecord
	err := s.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Age,
		&rec.PastPregnancyCount,
		&rec.BloodGroupMother,
		&rec.BloodGroupFather,
		&rec.MedicalBgMother,
		&rec.MedicalBgFather,
		&rec.YearsSinceLastPregnancy,
		&rec.DeliveryType,
		&rec.Haemoglobin,
		&rec.ExternalID,
		&rec.SubmittedBy,
		&rec.Surveyed,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
