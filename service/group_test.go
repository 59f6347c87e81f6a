package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensetracker/forms"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupRow(rows *sqlmock.Rows, id int, status string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "Dinner", "100.00", day("2024-03-15"), 1, 2, "40.00", status, now, now)
}

func TestLedger_CreateGroupExpense(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", "x", "bob@example.com", nil, now, now))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `group_expenses`").
		WithArgs("Dinner", sqlmock.AnyArg(), sqlmock.AnyArg(), uint(1), uint(2), sqlmock.AnyArg(), "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	data := forms.GroupExpenseData{Title: "Dinner", TotalAmount: dec("100.00"), Date: day("2024-03-15"), AdvancedByID: 2, AdvanceAmount: dec("40.00")}
	g, err := l.CreateGroupExpense(context.Background(), 1, data)
	require.NoError(t, err)
	assert.Equal(t, uint(8), g.ID)
	assert.Equal(t, uint(1), g.CreatorID)
	assert.True(t, g.IsActive())
	assert.Equal(t, "bob", g.AdvancedBy.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CreateGroupExpense_UnknownAdvancer(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := l.CreateGroupExpense(context.Background(), 1, forms.GroupExpenseData{AdvancedByID: 99})
	var fe forms.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "advanced_by")
}

func TestLedger_ListGroupExpenses(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	rows := sqlmock.NewRows(groupColumns)
	groupRow(rows, 2, "settled")
	groupRow(rows, 1, "active")
	mock.ExpectQuery("SELECT .* FROM `group_expenses` WHERE creator_id = \\?").
		WithArgs(uint(1)).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT .* FROM `users` WHERE id IN").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", "x", "", nil, now, now))

	groups, summary, err := l.ListGroupExpenses(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "bob", groups[0].AdvancedBy.Username)
	assert.Equal(t, 1, summary.ActiveCount)
	assert.True(t, summary.TotalAmount.Equal(dec("200")))
	assert.True(t, summary.TotalAdvanced.Equal(dec("80")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GroupExpense_Detail(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `group_members`").
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(1, 1, 2, "40.00", true, now).
			AddRow(2, 1, 3, "35.00", false, now))
	mock.ExpectQuery("SELECT .* FROM `users` WHERE id IN").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(2, "bob", "x", "", nil, now, now).
			AddRow(3, "carol", "x", "", nil, now, now))

	g, err := l.GroupExpense(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, g.Members, 2)
	assert.Equal(t, "carol", g.Members[1].User.Username)
	assert.True(t, g.SharesTotal().Equal(dec("75")))
	assert.True(t, g.Unallocated().Equal(dec("25")))
	assert.True(t, g.Outstanding().Equal(dec("35")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GroupExpense_NotCreator(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(sqlmock.NewRows(groupColumns))

	_, err := l.GroupExpense(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AddGroupMember(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "carol", "x", "", nil, now, now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").
		WithArgs(uint(1), uint(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `group_members`").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	m, err := l.AddGroupMember(context.Background(), 1, 1, forms.GroupMemberData{UserID: 3, ShareAmount: dec("25")})
	require.NoError(t, err)
	assert.Equal(t, uint(4), m.ID)
	assert.False(t, m.HasPaid)
	assert.Equal(t, "carol", m.User.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AddGroupMember_Duplicate(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "carol", "x", "", nil, now, now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := l.AddGroupMember(context.Background(), 1, 1, forms.GroupMemberData{UserID: 3, ShareAmount: dec("25")})
	var fe forms.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe["user"], "already a member")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AddGroupMember_UniqueIndexRace(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "carol", "x", "", nil, now, now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `group_members`").
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := l.AddGroupMember(context.Background(), 1, 1, forms.GroupMemberData{UserID: 3, ShareAmount: dec("25")})
	var fe forms.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "user")
}

func TestLedger_AddGroupMember_Settled(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "settled"))

	_, err := l.AddGroupMember(context.Background(), 1, 1, forms.GroupMemberData{UserID: 3})
	assert.ErrorIs(t, err, ErrGroupSettled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AddGroupMember_UnknownUser(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := l.AddGroupMember(context.Background(), 1, 1, forms.GroupMemberData{UserID: 99})
	var fe forms.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Select a valid choice.", fe["user"])
}

func TestLedger_MarkMemberPaid(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `group_members`").
		WithArgs(uint(2), uint(1)).
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(2, 1, 3, "35.00", false, now))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `group_members` SET `has_paid`").
		WithArgs(true, uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, l.MarkMemberPaid(context.Background(), 1, 1, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_MarkMemberPaid_UnknownMember(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `group_members`").
		WillReturnRows(sqlmock.NewRows(memberColumns))

	assert.ErrorIs(t, l.MarkMemberPaid(context.Background(), 1, 1, 9), ErrNotFound)
}

func TestLedger_SettleGroupExpense(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `group_expenses` SET `status`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, l.SettleGroupExpense(context.Background(), 1, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_SettleGroupExpense_AlreadySettled(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "settled"))

	require.NoError(t, l.SettleGroupExpense(context.Background(), 1, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_UnpaidShares(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	l := newTestLedger(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_members` JOIN group_expenses").
		WithArgs(false, "active").
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(2, 1, 3, "35.00", false, now))
	mock.ExpectQuery("SELECT .* FROM `group_expenses` WHERE id IN").
		WillReturnRows(groupRow(sqlmock.NewRows(groupColumns), 1, "active"))
	mock.ExpectQuery("SELECT .* FROM `users` WHERE id IN").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "alice", "x", "alice@example.com", nil, now, now).
			AddRow(3, "carol", "x", "carol@example.com", nil, now, now))

	out, err := l.UnpaidShares(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "carol", out[0].Debtor.Username)
	assert.Equal(t, "alice", out[0].Creator.Username)
	assert.Equal(t, "Dinner", out[0].Group.Title)
	assert.True(t, OutstandingTotal(out).Equal(dec("35")))
	require.NoError(t, mock.ExpectationsWereMet())
}
