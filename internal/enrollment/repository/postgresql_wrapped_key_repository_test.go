package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/factorauth/internal/crypto/domain"
	enrollmentDomain "github.com/allisson/factorauth/internal/enrollment/domain"
	apperrors "github.com/allisson/factorauth/internal/errors"
)

func testEnrollment(userID string) *enrollmentDomain.Enrollment {
	now := time.Now().UTC()
	return &enrollmentDomain.Enrollment{
		UserID: userID,
		WrappedKey: cryptoDomain.WrappedKey{
			Ciphertext: []byte("wrapped-key-bytes"),
			Context: cryptoDomain.EncryptionContext{
				UserID:    userID,
				Provider:  "local",
				Algorithm: cryptoDomain.AESGCM,
			},
			ProviderID: "local",
			KeyVersion: "v1",
			Nonce:      []byte("nonce-bytes-0123"),
			CreatedAt:  now,
		},
		FactorCount: 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func enrollmentColumns() []string {
	return []string{
		"user_id", "ciphertext", "provider_id", "key_version",
		"algorithm", "nonce", "factor_count", "created_at", "updated_at",
	}
}

func enrollmentRow(e *enrollmentDomain.Enrollment) *sqlmock.Rows {
	return sqlmock.NewRows(enrollmentColumns()).AddRow(
		e.UserID,
		e.WrappedKey.Ciphertext,
		e.WrappedKey.ProviderID,
		e.WrappedKey.KeyVersion,
		string(e.WrappedKey.Context.Algorithm),
		e.WrappedKey.Nonce,
		e.FactorCount,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

func TestPostgreSQLWrappedKeyRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLWrappedKeyRepository(db)
	enrollment := testEnrollment("user-1")

	mock.ExpectExec("INSERT INTO wrapped_keys").
		WithArgs(
			enrollment.UserID,
			enrollment.WrappedKey.Ciphertext,
			enrollment.WrappedKey.ProviderID,
			enrollment.WrappedKey.KeyVersion,
			string(enrollment.WrappedKey.Context.Algorithm),
			enrollment.WrappedKey.Nonce,
			enrollment.FactorCount,
			enrollment.CreatedAt,
			enrollment.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLWrappedKeyRepository_Get(t *testing.T) {
	t.Run("returns the record with a rebuilt context", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLWrappedKeyRepository(db)
		want := testEnrollment("user-1")

		mock.ExpectQuery("SELECT (.+) FROM wrapped_keys").
			WithArgs("user-1").
			WillReturnRows(enrollmentRow(want))

		got, err := repo.Get(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, want.UserID, got.UserID)
		assert.Equal(t, want.WrappedKey.Ciphertext, got.WrappedKey.Ciphertext)
		assert.Equal(t, want.WrappedKey.KeyVersion, got.WrappedKey.KeyVersion)
		assert.Equal(t, want.WrappedKey.Context, got.WrappedKey.Context)
		assert.Equal(t, want.FactorCount, got.FactorCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLWrappedKeyRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM wrapped_keys").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(enrollmentColumns()))

		_, err = repo.Get(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLWrappedKeyRepository_Delete(t *testing.T) {
	t.Run("deletes the record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLWrappedKeyRepository(db)

		mock.ExpectExec("DELETE FROM wrapped_keys").
			WithArgs("user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "user-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLWrappedKeyRepository(db)

		mock.ExpectExec("DELETE FROM wrapped_keys").
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Delete(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLWrappedKeyRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLWrappedKeyRepository(db)
	first := testEnrollment("user-1")
	second := testEnrollment("user-2")

	rows := enrollmentRow(first).AddRow(
		second.UserID,
		second.WrappedKey.Ciphertext,
		second.WrappedKey.ProviderID,
		second.WrappedKey.KeyVersion,
		string(second.WrappedKey.Context.Algorithm),
		second.WrappedKey.Nonce,
		second.FactorCount,
		second.CreatedAt,
		second.UpdatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM wrapped_keys").
		WithArgs(0, 10).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user-1", got[0].UserID)
	assert.Equal(t, "user-2", got[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLWrappedKeyRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLWrappedKeyRepository(db)
	enrollment := testEnrollment("user-1")

	mock.ExpectExec("INSERT INTO wrapped_keys").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM wrapped_keys").
		WithArgs("user-1").
		WillReturnRows(enrollmentRow(enrollment))
	mock.ExpectExec("DELETE FROM wrapped_keys").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), enrollment))

	got, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, enrollment.WrappedKey.Context, got.WrappedKey.Context)

	require.NoError(t, repo.Delete(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
