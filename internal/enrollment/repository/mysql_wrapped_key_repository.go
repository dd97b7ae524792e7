package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/factorauth/internal/database"
	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

// MySQLWrappedKeyRepository implements enrollment persistence for MySQL
// databases.
type MySQLWrappedKeyRepository struct {
	db *sql.DB
}

// NewMySQLWrappedKeyRepository creates a new MySQL enrollment repository
// instance.
func NewMySQLWrappedKeyRepository(db *sql.DB) *MySQLWrappedKeyRepository {
	return &MySQLWrappedKeyRepository{db: db}
}

// Save inserts or replaces the enrollment record for its user.
func (m *MySQLWrappedKeyRepository) Save(
	ctx context.Context,
	enrollment *enrollmentDomain.Enrollment,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO wrapped_keys
			  (user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  ciphertext = VALUES(ciphertext),
			  provider_id = VALUES(provider_id),
			  key_version = VALUES(key_version),
			  algorithm = VALUES(algorithm),
			  nonce = VALUES(nonce),
			  factor_count = VALUES(factor_count),
			  updated_at = VALUES(updated_at)`

	_, err := querier.ExecContext(
		ctx,
		query,
		enrollment.UserID,
		enrollment.WrappedKey.Ciphertext,
		enrollment.WrappedKey.ProviderID,
		enrollment.WrappedKey.KeyVersion,
		string(enrollment.WrappedKey.Context.Algorithm),
		enrollment.WrappedKey.Nonce,
		enrollment.FactorCount,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save enrollment")
	}
	return nil
}

// Get retrieves the enrollment record for a user.
func (m *MySQLWrappedKeyRepository) Get(
	ctx context.Context,
	userID string,
) (*enrollmentDomain.Enrollment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at
			  FROM wrapped_keys
			  WHERE user_id = ?`

	enrollment, err := scanEnrollment(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get enrollment")
	}
	return enrollment, nil
}

// Delete removes the enrollment record.
func (m *MySQLWrappedKeyRepository) Delete(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM wrapped_keys WHERE user_id = ?`, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete enrollment")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete enrollment")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List retrieves enrollment records ordered by user ID with pagination.
func (m *MySQLWrappedKeyRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*enrollmentDomain.Enrollment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at
			  FROM wrapped_keys
			  ORDER BY user_id
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list enrollments")
	}
	defer rows.Close()

	var enrollments []*enrollmentDomain.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan enrollment")
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list enrollments")
	}
	return enrollments, nil
}
