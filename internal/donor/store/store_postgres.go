package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"helpinghands/internal/donor/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
	"helpinghands/pkg/platform/tx"
)

const uniqueViolation = "23505"

const donorColumns = `id, name, phone, email, blood_group, city, address, available, last_donation, donation_count, registered_at`

// PostgresStore persists donors in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donor store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, donor *models.Donor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donors (`+donorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(donor.ID), donor.Name, donor.Phone, donor.Email, string(donor.BloodGroup),
		donor.City, donor.Address, donor.Available, nullTime(donor.LastDonation),
		donor.DonationCount, donor.RegisteredAt,
	)
	if err != nil {
		return translateWriteError("insert donor", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DonorID) (*models.Donor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+donorColumns+` FROM donors WHERE id = $1`, uuid.UUID(id))
	donor, err := scanDonor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor by id: %w", err)
	}
	return donor, nil
}

func (s *PostgresStore) Search(ctx context.Context, bloodGroup domain.BloodGroup, city string) ([]*models.Donor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+donorColumns+` FROM donors
		WHERE blood_group = $1 AND city = $2 AND available = TRUE
		ORDER BY seq`,
		string(bloodGroup), models.NormalizeCity(city),
	)
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}
	return collectDonors(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Donor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+donorColumns+` FROM donors ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	return collectDonors(rows)
}

// Execute locks the row for the duration of validate and mutate.
func (s *PostgresStore) Execute(ctx context.Context, id domain.DonorID, validate func(*models.Donor) error, mutate func(*models.Donor)) (*models.Donor, error) {
	var donor *models.Donor
	err := tx.Run(ctx, s.db, func(ctx context.Context, t *sql.Tx) error {
		row := t.QueryRowContext(ctx, `SELECT `+donorColumns+` FROM donors WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
		d, err := scanDonor(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock donor: %w", err)
		}
		if validate != nil {
			if err := validate(d); err != nil {
				return err
			}
		}
		mutate(d)

		_, err = t.ExecContext(ctx, `
		UPDATE donors
		SET name = $2, phone = $3, email = $4, blood_group = $5, city = $6, address = $7,
		    available = $8, last_donation = $9, donation_count = $10
		WHERE id = $1`,
			uuid.UUID(d.ID), d.Name, d.Phone, d.Email, string(d.BloodGroup),
			d.City, d.Address, d.Available, nullTime(d.LastDonation), d.DonationCount,
		)
		if err != nil {
			return translateWriteError("update donor", err)
		}
		donor = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return donor, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM donors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count donors: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*models.Donor, error) {
	var (
		d          models.Donor
		id         uuid.UUID
		bloodGroup string
		last       sql.NullTime
	)
	err := row.Scan(&id, &d.Name, &d.Phone, &d.Email, &bloodGroup, &d.City, &d.Address,
		&d.Available, &last, &d.DonationCount, &d.RegisteredAt)
	if err != nil {
		return nil, err
	}
	d.ID = domain.DonorID(id)
	d.BloodGroup = domain.BloodGroup(bloodGroup)
	d.RegisteredAt = d.RegisteredAt.UTC()
	if last.Valid {
		t := last.Time.UTC()
		d.LastDonation = &t
	}
	return &d, nil
}

func collectDonors(rows *sql.Rows) ([]*models.Donor, error) {
	defer rows.Close()
	out := make([]*models.Donor, 0)
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donors: %w", err)
	}
	return out, nil
}

func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return duplicateFromMessage(pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
