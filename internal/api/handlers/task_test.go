package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/testutil"
	"github.com/dom/todo-api/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskResponse struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func createTask(t *testing.T, ts *testutil.TestServer, token, text string) taskResponse {
	t.Helper()

	resp := testutil.PostJSON(t, ts.APIURL("/tasks"), map[string]interface{}{"text": text}, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var task taskResponse
	testutil.AssertJSONResponse(t, resp, &task)
	return task
}

func TestTaskHandler_RequiresAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/00000000-0000-0000-0000-000000000001"},
		{http.MethodPut, "/tasks/00000000-0000-0000-0000-000000000001"},
		{http.MethodPatch, "/tasks/00000000-0000-0000-0000-000000000001/toggle"},
		{http.MethodDelete, "/tasks/00000000-0000-0000-0000-000000000001"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp := testutil.DoJSON(t, route.method, ts.APIURL(route.path), nil, "")
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrUnauthorized.Code)
		})
	}
}

func TestTaskHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	tokens := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{name: "valid task", body: map[string]interface{}{"text": "buy milk"}, expectedStatus: http.StatusCreated},
		{name: "completed on create", body: map[string]interface{}{"text": "done", "completed": true}, expectedStatus: http.StatusCreated},
		{name: "empty text", body: map[string]interface{}{"text": ""}, expectedStatus: http.StatusBadRequest, expectedCode: "validation_error"},
		{name: "text too long", body: map[string]interface{}{"text": strings.Repeat("x", domain.TaskTextMaxLength+1)}, expectedStatus: http.StatusBadRequest, expectedCode: "validation_error"},
		{name: "wrong field type", body: map[string]interface{}{"text": 42}, expectedStatus: http.StatusBadRequest, expectedCode: "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/tasks"), tt.body, tokens.AccessToken)
			defer resp.Body.Close()

			if tt.expectedCode != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedCode)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var task taskResponse
			testutil.AssertJSONResponse(t, resp, &task)
			assert.NotEmpty(t, task.ID)
			assert.Equal(t, tt.body.(map[string]interface{})["text"], task.Text)
			assert.False(t, task.CreatedAt.IsZero())
			assert.Nil(t, task.UpdatedAt)
		})
	}
}

func TestTaskHandler_CRUDFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	tokens := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	first := createTask(t, ts, tokens.AccessToken, "first")
	second := createTask(t, ts, tokens.AccessToken, "second")

	t.Run("list", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, tokens.AccessToken)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var tasks []taskResponse
		testutil.AssertJSONResponse(t, resp, &tasks)
		require.Len(t, tasks, 2)
		assert.ElementsMatch(t, []string{first.ID, second.ID}, []string{tasks[0].ID, tasks[1].ID})
	})

	t.Run("get", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks/"+first.ID), nil, tokens.AccessToken)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, "first", task.Text)
	})

	t.Run("update", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodPut, ts.APIURL("/tasks/"+first.ID), map[string]interface{}{
			"text": "first, edited",
		}, tokens.AccessToken)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, "first, edited", task.Text)
		assert.False(t, task.Completed)
		assert.NotNil(t, task.UpdatedAt)
	})

	t.Run("toggle", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodPatch, ts.APIURL("/tasks/"+second.ID+"/toggle"), nil, tokens.AccessToken)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.True(t, task.Completed)
	})

	t.Run("delete", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodDelete, ts.APIURL("/tasks/"+second.ID), nil, tokens.AccessToken)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var body map[string]string
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, "Task deleted successfully", body["message"])

		again := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks/"+second.ID), nil, tokens.AccessToken)
		defer again.Body.Close()
		testutil.AssertErrorResponse(t, again, http.StatusNotFound, domain.ErrTaskNotFound.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks/not-a-uuid"), nil, tokens.AccessToken)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, domain.ErrInvalidTaskID.Code)
	})
}

func TestTaskHandler_TenantIsolation(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	task := createTask(t, ts, alice.AccessToken, "alice's secret")

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/tasks/" + task.ID, nil},
		{http.MethodPut, "/tasks/" + task.ID, map[string]interface{}{"text": "mine now"}},
		{http.MethodPatch, "/tasks/" + task.ID + "/toggle", nil},
		{http.MethodDelete, "/tasks/" + task.ID, nil},
	}

	for _, req := range requests {
		t.Run(req.method, func(t *testing.T) {
			resp := testutil.DoJSON(t, req.method, ts.APIURL(req.path), req.body, bob.AccessToken)
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusNotFound, domain.ErrTaskNotFound.Code)
		})
	}

	resp := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks"), nil, bob.AccessToken)
	defer resp.Body.Close()
	var tasks []taskResponse
	testutil.AssertJSONResponse(t, resp, &tasks)
	assert.Empty(t, tasks)

	owned := testutil.DoJSON(t, http.MethodGet, ts.APIURL("/tasks/"+task.ID), nil, alice.AccessToken)
	defer owned.Body.Close()
	var got taskResponse
	testutil.AssertJSONResponse(t, owned, &got)
	assert.Equal(t, "alice's secret", got.Text)
	assert.False(t, got.Completed)
}

func TestWebSocket_TaskEvents(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	aliceWS := testutil.NewWSClient(t, ts.WebSocketURL(alice.AccessToken))
	aliceWS.WaitForConnection(5 * time.Second)
	bobWS := testutil.NewWSClient(t, ts.WebSocketURL(bob.AccessToken))
	bobWS.WaitForConnection(5 * time.Second)

	task := createTask(t, ts, alice.AccessToken, "broadcast me")

	msg := aliceWS.ExpectMessage(websocket.MessageTypeTaskCreated, 5*time.Second)
	var payload websocket.TaskEventPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, task.ID, payload.TaskID)
	require.NotNil(t, payload.Task)
	assert.Equal(t, "broadcast me", payload.Task.Text)

	resp := testutil.DoJSON(t, http.MethodDelete, ts.APIURL("/tasks/"+task.ID), nil, alice.AccessToken)
	resp.Body.Close()

	msg = aliceWS.ExpectMessage(websocket.MessageTypeTaskDeleted, 5*time.Second)
	var deleted websocket.TaskEventPayload
	require.NoError(t, msg.ParsePayload(&deleted))
	assert.Equal(t, task.ID, deleted.TaskID)
	assert.Nil(t, deleted.Task)

	bobWS.ExpectNoMessage(200 * time.Millisecond)
}

func TestWebSocket_RejectsInvalidToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	tokens := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	for name, token := range map[string]string{
		"missing":       "",
		"garbage":       "garbage",
		"refresh token": tokens.RefreshToken,
	} {
		t.Run(name, func(t *testing.T) {
			url := "http" + strings.TrimPrefix(ts.WebSocketURL(token), "ws")
			resp := testutil.DoJSON(t, http.MethodGet, url, nil, "")
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrUnauthorized.Code)
		})
	}
}
