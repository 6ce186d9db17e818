package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE tracks (id TEXT PRIMARY KEY, title TEXT NOT NULL, play_count INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "tracks")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	byName := make(map[string]ColumnInfo)
	for _, col := range columns {
		byName[col.Field] = col
	}

	assert.Equal(t, "text", byName["id"].Type)
	assert.Equal(t, "PRI", byName["id"].Key)
	assert.Equal(t, "NO", byName["title"].Null)
	assert.Equal(t, "integer", byName["play_count"].Type)

	// PRAGMA table_info returns no rows for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "VARCHAR(64)", "NO", "PRI", nil, "").
		AddRow("duration", "double", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `tracks`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "tracks")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Field)
	assert.Equal(t, "varchar(64)", columns[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery("SHOW COLUMNS FROM `missing`").WillReturnError(assert.AnError)
	_, err = GetTableColumns(db, "missing")
	assert.ErrorIs(t, err, assert.AnError)
}
