package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-be/internal/auth"
	"github.com/taskdeck/taskdeck-be/internal/database"
	"github.com/taskdeck/taskdeck-be/internal/services"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	codec, err := auth.NewTokenCodec("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)
	return NewRouter(codec, userService, taskService, "http://localhost:3000")
}

// do performs a JSON request against the router.
func do(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and returns the issued token and user id.
func signup(t *testing.T, router http.Handler, username, email string) (string, int64) {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, username, resp.User.Username)
	return resp.Token, resp.User.ID
}

func TestSignup_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestSignup_DuplicateUsername(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "username")
}

func TestSignup_NeverReturnsPasswordHash(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "token")
	assert.Contains(t, resp, "user")
}

func TestLogin_MissingFields(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []map[string]string{
		{},
		{"username": "alice"},
		{"password": "s3cret-pass"},
	} {
		rec := do(t, router, http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Username and password are required"}`, rec.Body.String())
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "alice", "alice@example.com")

	wrongPass := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-pass",
	})
	unknownUser := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "mallory",
		"password": "s3cret-pass",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknownUser.Code, wrongPass.Code)
	assert.Equal(t, unknownUser.Body.Bytes(), wrongPass.Body.Bytes())
}

func TestTasks_RequireAuthentication(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/1"},
		{http.MethodPut, "/tasks/1"},
		{http.MethodDelete, "/tasks/1"},
	}

	for _, p := range paths {
		rec := do(t, router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
		assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())
	}
}

func TestTasks_InvalidTokenRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/tasks", "not.a.valid.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTask_OwnerComesFromToken(t *testing.T) {
	router := newTestRouter(t)
	token, aliceID := signup(t, router, "alice", "alice@example.com")

	// A client-supplied owner field is ignored.
	rec := do(t, router, http.MethodPost, "/tasks", token, map[string]interface{}{
		"title": "buy milk",
		"user":  aliceID + 999,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var task struct {
		UserID int64 `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, aliceID, task.UserID)
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodPost, "/tasks", token, map[string]string{
		"title":  "",
		"status": "done",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
}

func TestGetTask_OtherUsersTaskIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := signup(t, router, "alice", "alice@example.com")
	bobToken, _ := signup(t, router, "bob", "bob@example.com")

	rec := do(t, router, http.MethodPost, "/tasks", bobToken, map[string]string{"title": "bob task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	// Alice probing Bob's task id gets the same response as probing a
	// nonexistent id.
	otherOwner := do(t, router, http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), aliceToken, nil)
	missing := do(t, router, http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID+1000), aliceToken, nil)

	assert.Equal(t, http.StatusNotFound, otherOwner.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.Bytes(), otherOwner.Body.Bytes())
}

func TestUpdateTask_Partial(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodPost, "/tasks", token, map[string]string{
		"title":       "buy milk",
		"description": "two liters",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), token, map[string]string{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "buy milk", updated.Title)
	assert.Equal(t, "two liters", updated.Description)
	assert.Equal(t, "completed", updated.Status)
}

func TestUpdateTask_InvalidStatus(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), token, map[string]string{
		"status": "done",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTask_NonNumericID(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodGet, "/tasks/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token, aliceID := signup(t, router, "alice", "a@x.com")

	// Create
	rec := do(t, router, http.MethodPost, "/tasks", token, map[string]string{"title": "buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		UserID int64  `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, aliceID, task.UserID)

	// List
	rec = do(t, router, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	// Delete
	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/tasks/%d", task.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	// Gone
	rec = do(t, router, http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks_EmptyArray(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "alice", "alice@example.com")

	rec := do(t, router, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
