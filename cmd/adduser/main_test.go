package main

import (
	"bytes"
	"errors"
	"testing"

	"expensetracker/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func useMockDB(t *testing.T) sqlmock.Sqlmock {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	old := openDB
	openDB = func(*config.Config) (*gorm.DB, error) { return gormDB, nil }
	t.Cleanup(func() { openDB = old })
	return mock
}

func expectNewUser(mock sqlmock.Sqlmock, username string, exists bool) {
	count := 0
	if exists {
		count = 1
	}
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").
		WithArgs(username).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
	if exists {
		return
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestRun_Success(t *testing.T) {
	mock := useMockDB(t)
	expectNewUser(mock, "testuser", false)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	args := []string{"-user", "testuser", "-email", "t@example.com", "-password", "secret"}
	err := run(args, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "User testuser created successfully with ID 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_DuplicateUser(t *testing.T) {
	mock := useMockDB(t)
	expectNewUser(mock, "testuser", true)

	err := run([]string{"-user", "testuser", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingUserFlag(t *testing.T) {
	stdout := new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	mock := useMockDB(t)
	expectNewUser(mock, "interactive_user", false)

	stdout := new(bytes.Buffer)
	stdin := bytes.NewBufferString("interactive_secret\n")

	err := run([]string{"-user", "interactive_user"}, stdin, stdout, new(bytes.Buffer))
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "Password: ")
	assert.Contains(t, output, "User interactive_user created successfully")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	stdin := bytes.NewBufferString("\n")

	err := run([]string{"-user", "empty_pass_user"}, stdin, new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_OpenDBFails(t *testing.T) {
	old := openDB
	openDB = func(*config.Config) (*gorm.DB, error) { return nil, errors.New("connection refused") }
	defer func() { openDB = old }()

	err := run([]string{"-user", "failuser", "-password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	err := run([]string{"-invalid"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}
