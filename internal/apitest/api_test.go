package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, a *API, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func TestLoginAndMe(t *testing.T) {
	a := New(Options{})
	id := a.AddUser("ana", "ana@example.com", "pw", "admin")

	w := do(t, a, http.MethodPost, "/auth/login", "", `{"username":"ana","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.User["id"])
	assert.NotEmpty(t, resp.Token)

	w = do(t, a, http.MethodGet, "/auth/me", resp.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
	assert.Equal(t, 1, a.Calls("GET /auth/me"))

	w = do(t, a, http.MethodPost, "/auth/login", "", `{"username":"ana","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRevokedToken(t *testing.T) {
	a := New(Options{})
	tok := a.Token(a.AddUser("ana", "", "pw", ""))
	a.Revoke(tok)
	w := do(t, a, http.MethodGet, "/auth/me", tok, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDailyShapes(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := New(Options{Now: func() time.Time { return now }})
	id := a.AddUser("ana", "", "pw", "")
	a.AddPurchase(id, "tea", 3.5, "food", "2024-03-10")
	a.AddPurchase(id, "old", 99, "food", "2024-01-01")
	tok := a.Token(id)

	want := map[string]string{
		DailySeries:   `[{"date":"2024-03-09","total":0},{"date":"2024-03-10","total":3.5}]`,
		DailyEnvelope: `{"daily":[{"date":"2024-03-09","total":0},{"date":"2024-03-10","total":3.5}]}`,
		DailyDateMap:  `{"data":{"2024-03-09":0,"2024-03-10":3.5}}`,
		DailyLabels:   `{"labels":["2024-03-09","2024-03-10"],"values":[0,3.5]}`,
	}
	for shape, body := range want {
		a.SetDailyShape(shape)
		w := do(t, a, http.MethodGet, "/reports/daily?days=2", tok, "")
		require.Equal(t, http.StatusOK, w.Code, shape)
		assert.JSONEq(t, body, w.Body.String(), shape)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	a := New(Options{})
	user := a.Token(a.AddUser("bo", "", "pw", "user"))
	w := do(t, a, http.MethodGet, "/users", user, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
