package database

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type note struct {
	ID   string `gorm:"primaryKey"`
	Body string
}

func TestOpenSQLite_NotFoundIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := logOutput
	logOutput = &buf
	t.Cleanup(func() { logOutput = prev })

	db, err := OpenSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, db.AutoMigrate(&note{}))

	var n note
	err = db.First(&n, "id = ?", "missing").Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NotContains(t, buf.String(), "record not found")

	// Real failures still reach the log.
	db.Exec("SELECT * FROM no_such_table")
	assert.Contains(t, buf.String(), "no_such_table")
	assert.NoError(t, Ping(context.Background(), db))
}
