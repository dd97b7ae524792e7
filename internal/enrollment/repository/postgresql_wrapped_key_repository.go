// Package repository implements local persistence for enrollment records.
// Repositories support PostgreSQL and MySQL; deletion is a hard delete, since
// removing the wrapped key row is the cryptographic erasure mechanism.
package repository

import (
	"context"
	"database/sql"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
	"github.com/allisson/factorauth/internal/database"
	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

// PostgreSQLWrappedKeyRepository implements enrollment persistence for
// PostgreSQL databases.
type PostgreSQLWrappedKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLWrappedKeyRepository creates a new PostgreSQL enrollment
// repository instance.
func NewPostgreSQLWrappedKeyRepository(db *sql.DB) *PostgreSQLWrappedKeyRepository {
	return &PostgreSQLWrappedKeyRepository{db: db}
}

// Save inserts or replaces the enrollment record for its user.
func (p *PostgreSQLWrappedKeyRepository) Save(
	ctx context.Context,
	enrollment *enrollmentDomain.Enrollment,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO wrapped_keys
			  (user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (user_id) DO UPDATE SET
			  ciphertext = EXCLUDED.ciphertext,
			  provider_id = EXCLUDED.provider_id,
			  key_version = EXCLUDED.key_version,
			  algorithm = EXCLUDED.algorithm,
			  nonce = EXCLUDED.nonce,
			  factor_count = EXCLUDED.factor_count,
			  updated_at = EXCLUDED.updated_at`

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
func (p *PostgreSQLWrappedKeyRepository) Get(
	ctx context.Context,
	userID string,
) (*enrollmentDomain.Enrollment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at
			  FROM wrapped_keys
			  WHERE user_id = $1`

	enrollment, err := scanEnrollment(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get enrollment")
	}
	return enrollment, nil
}

// Delete removes the enrollment record. The row removal is the erasure
// mechanism, so a missing row is reported as ErrNotFound rather than
// silently succeeding.
func (p *PostgreSQLWrappedKeyRepository) Delete(ctx context.Context, userID string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM wrapped_keys WHERE user_id = $1`, userID)
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
func (p *PostgreSQLWrappedKeyRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*enrollmentDomain.Enrollment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT user_id, ciphertext, provider_id, key_version, algorithm, nonce, factor_count, created_at, updated_at
			  FROM wrapped_keys
			  ORDER BY user_id
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
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

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEnrollment maps a wrapped_keys row back into the domain record,
// rebuilding the encryption context from the stored columns.
func scanEnrollment(row rowScanner) (*enrollmentDomain.Enrollment, error) {
	var (
		enrollment enrollmentDomain.Enrollment
		algorithm  string
	)
	err := row.Scan(
		&enrollment.UserID,
		&enrollment.WrappedKey.Ciphertext,
		&enrollment.WrappedKey.ProviderID,
		&enrollment.WrappedKey.KeyVersion,
		&algorithm,
		&enrollment.WrappedKey.Nonce,
		&enrollment.FactorCount,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	enrollment.WrappedKey.Context = cryptoDomain.EncryptionContext{
		UserID:    enrollment.UserID,
		Provider:  enrollment.WrappedKey.ProviderID,
		Algorithm: cryptoDomain.Algorithm(algorithm),
	}
	enrollment.WrappedKey.CreatedAt = enrollment.CreatedAt
	return &enrollment, nil
}
