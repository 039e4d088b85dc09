package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"helpinghands/internal/emergency/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
	"helpinghands/pkg/platform/tx"
)

const emergencyColumns = `id, patient_name, blood_group, hospital, city, contact, details, status, notified_donors, responders, created_at, updated_at, fulfilled_at`

// PostgresStore persists emergencies in PostgreSQL. Notified donors are a
// UUID array and responders a JSONB document.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed emergency store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Emergency) error {
	responders, err := json.Marshal(e.Responders)
	if err != nil {
		return fmt.Errorf("marshal responders: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emergencies (`+emergencyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(e.ID), e.PatientName, string(e.BloodGroup), e.Hospital, e.City, e.Contact, e.Details,
		string(e.Status), pq.Array(donorIDStrings(e.NotifiedDonors)), responders,
		e.CreatedAt, e.UpdatedAt, fulfilledAt(e),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert emergency: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EmergencyID) (*models.Emergency, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+emergencyColumns+` FROM emergencies WHERE id = $1`, uuid.UUID(id))
	e, err := scanEmergency(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find emergency by id: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Emergency, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+emergencyColumns+` FROM emergencies ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list emergencies: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Emergency, 0)
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan emergency: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emergencies: %w", err)
	}
	return out, nil
}

// Execute locks the row for the duration of validate and mutate.
func (s *PostgresStore) Execute(ctx context.Context, id domain.EmergencyID, validate func(*models.Emergency) error, mutate func(*models.Emergency)) (*models.Emergency, error) {
	var out *models.Emergency
	err := tx.Run(ctx, s.db, func(ctx context.Context, t *sql.Tx) error {
		row := t.QueryRowContext(ctx, `SELECT `+emergencyColumns+` FROM emergencies WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
		e, err := scanEmergency(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock emergency: %w", err)
		}
		if validate != nil {
			if err := validate(e); err != nil {
				return err
			}
		}
		mutate(e)

		responders, err := json.Marshal(e.Responders)
		if err != nil {
			return fmt.Errorf("marshal responders: %w", err)
		}
		_, err = t.ExecContext(ctx, `
		UPDATE emergencies
		SET status = $2, responders = $3, updated_at = $4, fulfilled_at = $5
		WHERE id = $1`,
			uuid.UUID(e.ID), string(e.Status), responders, e.UpdatedAt, fulfilledAt(e),
		)
		if err != nil {
			return fmt.Errorf("update emergency: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emergencies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count emergencies: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmergency(row rowScanner) (*models.Emergency, error) {
	var (
		e          models.Emergency
		id         uuid.UUID
		bloodGroup string
		status     string
		notified   []string
		responders []byte
		fulfilled  sql.NullTime
	)
	err := row.Scan(&id, &e.PatientName, &bloodGroup, &e.Hospital, &e.City, &e.Contact, &e.Details,
		&status, pq.Array(&notified), &responders, &e.CreatedAt, &e.UpdatedAt, &fulfilled)
	if err != nil {
		return nil, err
	}
	e.ID = domain.EmergencyID(id)
	e.BloodGroup = domain.BloodGroup(bloodGroup)
	e.Status = models.Status(status)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	e.NotifiedDonors = make([]domain.DonorID, 0, len(notified))
	for _, raw := range notified {
		donorID, err := domain.ParseDonorID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse notified donor: %w", err)
		}
		e.NotifiedDonors = append(e.NotifiedDonors, donorID)
	}
	e.Responders = []models.Responder{}
	if len(responders) > 0 {
		if err := json.Unmarshal(responders, &e.Responders); err != nil {
			return nil, fmt.Errorf("unmarshal responders: %w", err)
		}
	}
	if fulfilled.Valid {
		t := fulfilled.Time.UTC()
		e.FulfilledAt = &t
	}
	return &e, nil
}

func donorIDStrings(ids []domain.DonorID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func fulfilledAt(e *models.Emergency) sql.NullTime {
	if e.FulfilledAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *e.FulfilledAt, Valid: true}
}
