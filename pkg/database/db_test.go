package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'O''Brien'", quoteLiteral("O'Brien"))
}

func TestApplySession(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	defer db.Close()

	mock.ExpectExec("SET TIME ZONE 'Asia/Shanghai'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET client_encoding = 'UTF8'").WillReturnResult(sqlmock.NewResult(0, 0))

	err = applySession(context.Background(), db, Config{TimeZone: "Asia/Shanghai", ClientEncoding: "UTF8"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySession_Noop(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	defer db.Close()

	require.NoError(t, applySession(context.Background(), db, Config{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
