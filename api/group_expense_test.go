package api

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupRouter() *gin.Engine {
	h := NewGroupExpenseHandler(newTestLedger())
	router := newTestRouter(1)
	router.GET("/group-expenses/", h.Page)
	router.GET("/group-expenses/add/", h.AddPage)
	router.POST("/group-expenses/add/", h.Add)
	router.GET("/group-expenses/:id/", h.Detail)
	router.POST("/group-expenses/:id/members/", h.AddMember)
	router.POST("/group-expenses/:id/members/:member_id/paid/", h.MarkPaid)
	router.POST("/group-expenses/:id/settle/", h.Settle)
	router.GET("/api/v1/group-expenses", h.List)
	router.POST("/api/v1/group-expenses", h.Create)
	router.GET("/api/v1/group-expenses/:id", h.Get)
	router.POST("/api/v1/group-expenses/:id/members", h.CreateMember)
	return router
}

func groupRow(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(groupColumns).
		AddRow(1, "Trip", "100.00", day("2024-03-10"), 1, 2, "40.00", status, now, now)
}

func usersRows(names ...string) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows(userColumns)
	for i, n := range names {
		rows.AddRow(i+1, n, "x", "", nil, now, now)
	}
	return rows
}

func userRow(id uint, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(id, name, "x", "", nil, now, now)
}

func TestGroupExpenseHandler_Page(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses` WHERE creator_id = \\?").
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(groupColumns).
			AddRow(2, "Dinner", "60.00", day("2024-03-12"), 1, 1, "60.00", "settled", now, now).
			AddRow(1, "Trip", "100.00", day("2024-03-10"), 1, 2, "40.00", "active", now, now))
	mock.ExpectQuery("SELECT .* FROM `users` WHERE id IN").
		WillReturnRows(usersRows("alice", "bob"))

	w := get(groupRouter(), "/group-expenses/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Trip")
	assert.Contains(t, body, "bob")
	assert.Contains(t, body, "160.00")
	assert.Contains(t, body, "100.00")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_Add(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(2).
		WillReturnRows(userRow(2, "bob"))
	// 创建人取自登录身份，status 固定为 active
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `group_expenses`").
		WithArgs("Trip", sqlmock.AnyArg(), day("2024-03-10"), uint(1), uint(2), sqlmock.AnyArg(), "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := postForm(groupRouter(), "/group-expenses/add/", url.Values{
		"title":          {"Trip"},
		"total_amount":   {"100.00"},
		"date":           {"2024-03-10"},
		"advanced_by":    {"2"},
		"advance_amount": {"40.00"},
		"creator":        {"7"},
		"status":         {"settled"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group-expenses/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_Add_Invalid(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users` ORDER BY username").
		WillReturnRows(usersRows("alice"))

	w := postForm(groupRouter(), "/group-expenses/add/", url.Values{
		"title":          {"Trip"},
		"total_amount":   {"0"},
		"advanced_by":    {"1"},
		"advance_amount": {"0"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Ensure this value is greater than 0.")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_Detail(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses` WHERE id = \\? AND creator_id = \\?").
		WithArgs(uint(1), uint(1)).
		WillReturnRows(groupRow("active"))
	mock.ExpectQuery("SELECT .* FROM `group_members` WHERE group_id = \\?").
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(1, 1, 2, "25.00", false, now).
			AddRow(2, 1, 3, "30.00", true, now))
	mock.ExpectQuery("SELECT .* FROM `users` WHERE id IN").
		WillReturnRows(usersRows("alice", "bob", "carol"))
	mock.ExpectQuery("SELECT .* FROM `users` ORDER BY username").
		WillReturnRows(usersRows("alice", "bob", "carol"))

	w := get(groupRouter(), "/group-expenses/1/")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "carol")
	// 100 - (25 + 30)
	assert.Contains(t, body, "45.00")
	assert.Contains(t, body, "/group-expenses/1/members/1/paid/")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_Detail_NotCreator(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").
		WillReturnRows(sqlmock.NewRows(groupColumns))

	w := get(groupRouter(), "/group-expenses/5/")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(groupRouter(), "/group-expenses/abc/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_AddMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("active"))
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs(2).
		WillReturnRows(userRow(2, "bob"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `group_members`").
		WithArgs(uint(1), uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `group_members`").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	w := postForm(groupRouter(), "/group-expenses/1/members/", url.Values{
		"user":         {"2"},
		"share_amount": {"25.00"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group-expenses/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_AddMember_Settled(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("settled"))

	w := postForm(groupRouter(), "/group-expenses/1/members/", url.Values{
		"user":         {"2"},
		"share_amount": {"25.00"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group-expenses/1/", w.Header().Get("Location"))
	assert.NotNil(t, findCookie(w, "flash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_MarkPaid(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("active"))
	mock.ExpectQuery("SELECT .* FROM `group_members` WHERE id = \\? AND group_id = \\?").
		WithArgs(uint(1), uint(1)).
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(1, 1, 2, "25.00", false, now))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `group_members` SET `has_paid`").
		WithArgs(true, uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postForm(groupRouter(), "/group-expenses/1/members/1/paid/", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group-expenses/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_MarkPaid_UnknownMember(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("active"))
	mock.ExpectQuery("SELECT .* FROM `group_members`").WillReturnRows(sqlmock.NewRows(memberColumns))

	w := postForm(groupRouter(), "/group-expenses/1/members/8/paid/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupExpenseHandler_Settle(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("active"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `group_expenses` SET `status`").
		WithArgs("settled", sqlmock.AnyArg(), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postForm(groupRouter(), "/group-expenses/1/settle/", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupExpenseHandler_API(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("active"))
		mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(usersRows("alice", "bob"))

		w := get(groupRouter(), "/api/v1/group-expenses")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w)["data"].(map[string]interface{})
		summary := data["summary"].(map[string]interface{})
		assert.Equal(t, float64(1), summary["active_groups"])
		assert.Equal(t, "40", summary["total_advanced"])
	})

	t.Run("create", func(t *testing.T) {
		mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(usersRows("alice"))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `group_expenses`").WillReturnResult(sqlmock.NewResult(4, 1))
		mock.ExpectCommit()

		w := postJSON(groupRouter(), "/api/v1/group-expenses",
			`{"title":"Trip","total_amount":"100.00","advanced_by":1,"advance_amount":"40.00"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeResponse(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "active", data["status"])
		assert.Equal(t, float64(1), data["creator_id"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown advancer", func(t *testing.T) {
		mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(sqlmock.NewRows(userColumns))

		w := postJSON(groupRouter(), "/api/v1/group-expenses",
			`{"title":"Trip","total_amount":"100.00","advanced_by":9,"advance_amount":"0"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errs := decodeResponse(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "Select a valid choice.", errs["advanced_by"])
	})

	t.Run("member on settled group", func(t *testing.T) {
		mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(groupRow("settled"))

		w := postJSON(groupRouter(), "/api/v1/group-expenses/1/members", `{"user":2,"share_amount":"10"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("detail not found", func(t *testing.T) {
		mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM `group_expenses`").WillReturnRows(sqlmock.NewRows(groupColumns))

		w := get(groupRouter(), "/api/v1/group-expenses/3")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
