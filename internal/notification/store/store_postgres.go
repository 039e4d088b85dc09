package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"helpinghands/internal/notification/models"
	"helpinghands/pkg/domain"
	"helpinghands/pkg/platform/sentinel"
)

const notificationColumns = `id, donor_id, emergency_id, type, message, read, sent_at`

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, n *models.Notification) error {
	var emergencyID uuid.NullUUID
	if n.EmergencyID != nil {
		emergencyID = uuid.NullUUID{UUID: uuid.UUID(*n.EmergencyID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(n.ID), uuid.UUID(n.DonorID), emergencyID, string(n.Type), n.Message, n.Read, n.SentAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE donor_id = $1
		ORDER BY seq`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1
		RETURNING `+notificationColumns, uuid.UUID(id))
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n           models.Notification
		id, donorID uuid.UUID
		emergencyID uuid.NullUUID
		typ         string
	)
	if err := row.Scan(&id, &donorID, &emergencyID, &typ, &n.Message, &n.Read, &n.SentAt); err != nil {
		return nil, err
	}
	n.ID = domain.NotificationID(id)
	n.DonorID = domain.DonorID(donorID)
	n.Type = models.Type(typ)
	n.SentAt = n.SentAt.UTC()
	if emergencyID.Valid {
		eid := domain.EmergencyID(emergencyID.UUID)
		n.EmergencyID = &eid
	}
	return &n, nil
}
