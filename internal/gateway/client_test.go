package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/model"
)

func TestClient_sends_bearer_token(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			w.Write([]byte(`{}`))
		}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token", 0)
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/tasks", &out))

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_omits_auth_header_without_token(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{}`))
		}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/auth/login", &out))
	assert.Empty(t, gotAuth)
}

func TestClient_parses_error_envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid status value"}`))
		}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", 0)
	err := c.Patch(context.Background(), "/api/report/1/status",
		statusPatch{Status: "bogus"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status value")
	assert.Contains(t, err.Error(), "400")
	assert.False(t, IsAuthError(err))
}

func TestClient_classifies_401_as_auth_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"token expired"}`))
		}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale", 0)
	err := c.Get(context.Background(), "/api/tasks", nil)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "token expired")
}

func TestClient_does_not_retry_failures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"oops"}`))
		}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", 0)
	err := c.Post(context.Background(), "/api/reports/1/comments",
		commentCreate{Content: "hi"}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "failure must be surfaced once per call")
}

func TestAPI_update_status_sends_patch_body(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody statusPatch
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]string{
				"id":     "42",
				"status": gotBody.Status,
			})
		}))
	defer srv.Close()

	api := New(srv.URL, "t", 5*time.Second)
	r, err := api.UpdateReportStatus(context.Background(), "42", model.StatusDone)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/report/42/status", gotPath)
	assert.Equal(t, model.StatusDone, gotBody.Status)
	assert.Equal(t, "42", r.ID)
	assert.Equal(t, model.StatusDone, r.Status)
}

func TestAPI_list_tasks_normalizes_records(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tasks", r.URL.Path)
			w.Write([]byte(`[
				{
					"id": "1",
					"title": "Broken image",
					"status": "inProgress",
					"priority": "high",
					"site": "shop",
					"timestamp": "2024-03-10T09:30:00Z",
					"dueDate": "2024-03-20",
					"userName": "Ben",
					"createdBy": {"name": "Ana"}
				},
				{
					"id": "2",
					"title": "Untriaged report"
				}
			]`))
		}))
	defer srv.Close()

	api := New(srv.URL, "t", 0)
	reports, err := api.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, model.StatusInProgress, reports[0].Status)
	assert.Equal(t, "Ana", reports[0].Author)
	assert.Equal(t, "Ben", reports[0].Assignee)
	require.NotNil(t, reports[0].DueDate)
	assert.Equal(t, 2024, reports[0].DueDate.Year())
	assert.Equal(t,
		time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
		reports[0].CreatedAt.UTC(),
	)

	// Missing status/priority default to their sentinels.
	assert.Equal(t, model.StatusNew, reports[1].Status)
	assert.Equal(t, model.PriorityUnassigned, reports[1].Priority)
	assert.Nil(t, reports[1].DueDate)
}

func TestAPI_login_returns_token_and_user(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/auth/login", r.URL.Path)
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ana@example.com", req.Email)
			w.Write([]byte(`{
				"token": "tok-123",
				"user": {"id": "u1", "email": "ana@example.com", "name": "Ana"}
			}`))
		}))
	defer srv.Close()

	api := New(srv.URL, "", 0)
	token, user, err := api.Login(
		context.Background(), "ana@example.com", "pw",
	)

	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "Ana", user.Name)
}

func TestAPI_comments_thread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/reports/9/comments", r.URL.Path)
			w.Write([]byte(`[
				{
					"id": "c1",
					"content": "can reproduce",
					"user": {"id": "u1", "name": "Ana"},
					"createdAt": "2024-03-10T10:00:00Z",
					"replies": [
						{
							"id": "c2",
							"content": "same here",
							"parentId": "c1",
							"user": {"id": "u2", "name": "Ben"},
							"createdAt": "2024-03-10T10:05:00Z"
						}
					]
				}
			]`))
		}))
	defer srv.Close()

	api := New(srv.URL, "t", 0)
	comments, err := api.ListComments(context.Background(), "9")

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Ana", comments[0].Author.Name)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "c1", comments[0].Replies[0].ParentID)
}

func TestAPI_delete_report(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))
	defer srv.Close()

	api := New(srv.URL, "t", 0)
	require.NoError(t, api.DeleteReport(context.Background(), "7"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/report/7", gotPath)
}
