package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kaisan-events/registration-service/internal/domain"
)

const registrantColumns = `id, name, email, phone, full_name, contact_number,
	organization, business, designation, gender, sectors, experience,
	date_of_birth, linkedin_profile, address, city, state, country,
	referral_code, ticket_type, payment_status, confirmation_code,
	attended, check_in_time, created_at, updated_at`

// RegistrantRepository implements domain.RegistrantRepository using PostgreSQL
type RegistrantRepository struct {
	db *DB
}

// NewRegistrantRepository creates a new RegistrantRepository
func NewRegistrantRepository(db *DB) *RegistrantRepository {
	return &RegistrantRepository{db: db}
}

// Create creates a new registrant. The composite unique index on
// (email, date_of_birth) surfaces as ErrAlreadyExists.
func (r *RegistrantRepository) Create(ctx context.Context, reg *domain.Registrant) error {
	query := fmt.Sprintf(`
		INSERT INTO registrants (%s) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
	`, registrantColumns)

	_, err := r.db.Pool.Exec(ctx, query,
		reg.ID, reg.Name, reg.Email, reg.Phone, reg.FullName, reg.ContactNumber,
		reg.Organization, reg.Business, reg.Designation, reg.Gender, reg.Sectors, reg.Experience,
		reg.DateOfBirth, reg.LinkedInProfile, reg.Address, reg.City, reg.State, reg.Country,
		reg.ReferralCode, reg.TicketType, reg.PaymentStatus, reg.ConfirmationCode,
		reg.Attended, reg.CheckInTime, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create registrant: %w", err)
	}

	return nil
}

// GetByID retrieves a registrant by ID
func (r *RegistrantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registrant, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrants WHERE id = $1`, registrantColumns)
	return r.scanRegistrant(ctx, query, id)
}

// GetByEmailAndDOB retrieves a registrant by the composite identity pair
func (r *RegistrantRepository) GetByEmailAndDOB(ctx context.Context, email, dateOfBirth string) (*domain.Registrant, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrants WHERE email = $1 AND date_of_birth = $2`, registrantColumns)
	return r.scanRegistrant(ctx, query, email, dateOfBirth)
}

// CountByEmail counts registrations sharing an email address
func (r *RegistrantRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrants WHERE email = $1`, email).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrants: %w", err)
	}
	return count, nil
}

// List lists registrants with filters and pagination
func (r *RegistrantRepository) List(ctx context.Context, filter domain.RegistrantFilter) (*domain.RegistrantListResult, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argIndex := 1

	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}

	if filter.TicketType != nil {
		conditions = append(conditions, fmt.Sprintf("ticket_type = $%d", argIndex))
		args = append(args, *filter.TicketType)
		argIndex++
	}

	if filter.Email != nil {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, *filter.Email)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM registrants WHERE %s", whereClause)
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count registrants: %w", err)
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
		SELECT %s FROM registrants
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, registrantColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrants: %w", err)
	}
	defer rows.Close()

	registrants := make([]*domain.Registrant, 0)
	for rows.Next() {
		reg, err := scanRegistrantRow(rows)
		if err != nil {
			return nil, err
		}
		registrants = append(registrants, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrants: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &domain.RegistrantListResult{
		Registrants: registrants,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
	}, nil
}

// UpdatePaymentStatus updates only the payment status of a registrant
func (r *RegistrantRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	query := `UPDATE registrants SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RegistrantRepository) scanRegistrant(ctx context.Context, query string, args ...any) (*domain.Registrant, error) {
	reg, err := scanRegistrantRow(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistrantRow(row rowScanner) (*domain.Registrant, error) {
	reg := &domain.Registrant{}
	err := row.Scan(
		&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.FullName, &reg.ContactNumber,
		&reg.Organization, &reg.Business, &reg.Designation, &reg.Gender, &reg.Sectors, &reg.Experience,
		&reg.DateOfBirth, &reg.LinkedInProfile, &reg.Address, &reg.City, &reg.State, &reg.Country,
		&reg.ReferralCode, &reg.TicketType, &reg.PaymentStatus, &reg.ConfirmationCode,
		&reg.Attended, &reg.CheckInTime, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan registrant: %w", err)
	}
	return reg, nil
}
