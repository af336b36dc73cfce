package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kaisan-events/registration-service/internal/domain"
)

// DispatchLogRepository implements domain.DispatchLogRepository using PostgreSQL
type DispatchLogRepository struct {
	db *DB
}

// NewDispatchLogRepository creates a new DispatchLogRepository
func NewDispatchLogRepository(db *DB) *DispatchLogRepository {
	return &DispatchLogRepository{db: db}
}

// Create records one dispatch attempt
func (r *DispatchLogRepository) Create(ctx context.Context, attempt *domain.DispatchAttempt) error {
	query := `
		INSERT INTO dispatch_log (
			id, registrant_id, kind, phone, status, reason, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID, attempt.RegistrantID, attempt.Kind, attempt.Phone,
		attempt.Status, attempt.Reason, attempt.DurationMS, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch attempt: %w", err)
	}
	return nil
}

// List lists dispatch attempts with filters and pagination
func (r *DispatchLogRepository) List(ctx context.Context, filter domain.DispatchLogFilter) (*domain.DispatchLogResult, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argIndex := 1

	if filter.RegistrantID != nil {
		conditions = append(conditions, fmt.Sprintf("registrant_id = $%d", argIndex))
		args = append(args, *filter.RegistrantID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM dispatch_log WHERE %s", whereClause)
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count dispatch attempts: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT id, registrant_id, kind, phone, status, reason, duration_ms, created_at
		FROM dispatch_log
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch log: %w", err)
	}
	defer rows.Close()

	attempts := make([]*domain.DispatchAttempt, 0)
	for rows.Next() {
		a := &domain.DispatchAttempt{}
		err := rows.Scan(
			&a.ID, &a.RegistrantID, &a.Kind, &a.Phone,
			&a.Status, &a.Reason, &a.DurationMS, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatch log: %w", err)
	}

	return &domain.DispatchLogResult{
		Attempts: attempts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
