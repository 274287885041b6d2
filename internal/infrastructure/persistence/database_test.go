package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	appfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}))
	require.NoError(t, err)

	return db, mock, mockDB
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	scope := NewGormTransactionScope(db.DB)
	err := scope.Execute(context.Background(), func(repos appfinance.TransactionalRepositories) error {
		assert.NotNil(t, repos.Payments())
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_Update_Postgres(t *testing.T) {
	payment := &finance.Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New(), uuid.New()),
		VendorID:            uuid.New(),
		Amount:              decimal.RequireFromString("10.00"),
		Currency:            "USD",
		Status:              finance.PaymentStatusPendingApproval,
		IdempotencyKey:      "key-1",
	}

	t.Run("matching version updates one row", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "ap_payments" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewGormPaymentRepository(db.DB).Update(context.Background(), payment, 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "ap_payments" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewGormPaymentRepository(db.DB).Update(context.Background(), payment, 1)
		assert.ErrorIs(t, err, finance.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "ap_payments" SET`).
			WillReturnError(sql.ErrConnDone)

		err := NewGormPaymentRepository(db.DB).Update(context.Background(), payment, 1)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NotErrorIs(t, err, finance.ErrConcurrencyConflict)
	})
}

func TestGormMatchResultRepository_FindByID_NotFoundPostgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "ap_match_results" WHERE tenant_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "version"}))

	_, err := NewGormMatchResultRepository(db.DB).FindByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
