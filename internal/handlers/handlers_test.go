package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/middleware"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

const testIdeaID = "6f1c2a36-5d7e-4d0c-9e43-2b9a8df1c001"

var testCaller = service.Caller{UserID: "0d8f6f36-1c1e-4f57-8a52-9d65b37d2a10", Role: models.RoleUser}

func createTestContext(method, path string, body interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(b)
	}

	c.Request = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func withCaller(c *gin.Context) {
	middleware.SetCaller(c, testCaller)
}

func withID(c *gin.Context, id string) {
	c.Params = gin.Params{{Key: "id", Value: id}}
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

// =============================================================================
// Auth Handler Tests
// =============================================================================

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "success",
			body:       models.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate",
			body:       models.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "secret123"},
			serviceErr: apperr.Conflicting("a user with this email or username already exists"),
			wantStatus: http.StatusConflict,
			wantError:  "a user with this email or username already exists",
		},
		{
			name:       "missing email",
			body:       map[string]string{"username": "ada", "password": "secret123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "email is required",
		},
		{
			name:       "short password",
			body:       map[string]string{"username": "ada", "email": "ada@example.com", "password": "123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "password must be at least 6 characters",
		},
		{
			name:       "long password",
			body:       map[string]string{"username": "ada", "email": "ada@example.com", "password": strings.Repeat("p", 73)},
			wantStatus: http.StatusBadRequest,
			wantError:  "password must be at most 72 characters",
		},
		{
			name:       "invalid json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{registerFunc: func(_ context.Context, req models.RegisterRequest) (*models.User, error) {
				if tt.serviceErr != nil {
					return nil, tt.serviceErr
				}
				return &models.User{ID: "new-user", Username: req.Username}, nil
			}}
			h := NewAuthHandler(svc, zap.NewNop())

			w, c := createTestContext(http.MethodPost, "/v1/auth/register", tt.body)
			h.Register(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" {
				if got := errorBody(t, w); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			} else if !strings.Contains(w.Body.String(), "new-user") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc := &mockAuthService{loginFunc: func(_ context.Context, email, password string) (*models.AuthResponse, error) {
		if password != "secret123" {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return &models.AuthResponse{
			User:   models.User{ID: "u1", Email: email, PasswordHash: "hash"},
			Tokens: models.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
		}, nil
	}}
	h := NewAuthHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPost, "/v1/auth/login", models.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	h.Login(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "hash") {
		t.Error("password hash leaked into the response")
	}
	if !strings.Contains(w.Body.String(), `"access_token":"access"`) {
		t.Errorf("body = %s", w.Body.String())
	}

	w, c = createTestContext(http.MethodPost, "/v1/auth/login", models.LoginRequest{Email: "ada@example.com", Password: "nope"})
	h.Login(c)
	if w.Code != http.StatusUnauthorized || errorBody(t, w) != "invalid email or password" {
		t.Errorf("wrong password: %d %s", w.Code, w.Body.String())
	}
}

func TestRefresh(t *testing.T) {
	var got string
	svc := &mockAuthService{refreshFunc: func(_ context.Context, token string) (*models.TokenPair, error) {
		got = token
		if token == "" {
			return nil, apperr.Invalid("refresh token is required")
		}
		return &models.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
	}}
	h := NewAuthHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": "r1"})
	h.Refresh(c)
	if w.Code != http.StatusOK || got != "r1" {
		t.Errorf("status = %d, token = %q", w.Code, got)
	}

	w, c = createTestContext(http.MethodPost, "/v1/auth/refresh", map[string]string{})
	h.Refresh(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{logoutFunc: func(_ context.Context, id string) error {
		loggedOut = id
		return nil
	}}
	h := NewAuthHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPost, "/v1/auth/logout", nil)
	h.Logout(c)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous logout status = %d", w.Code)
	}

	w, c = createTestContext(http.MethodPost, "/v1/auth/logout", nil)
	withCaller(c)
	h.Logout(c)
	if w.Code != http.StatusOK || loggedOut != testCaller.UserID {
		t.Errorf("status = %d, user = %q", w.Code, loggedOut)
	}
}

// =============================================================================
// Idea Handler Tests
// =============================================================================

func TestListIdeas(t *testing.T) {
	var gotQuery service.ListQuery
	svc := &mockIdeaService{listFunc: func(_ context.Context, q service.ListQuery) (*models.IdeaPage, error) {
		gotQuery = q
		return &models.IdeaPage{Items: []models.IdeaWithCounts{}, Total: 0, Page: q.Page, Limit: q.Limit}, nil
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodGet, "/v1/ideas?page=2&limit=5&sort=popular", nil)
	h.ListIdeas(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotQuery.Page != 2 || gotQuery.Limit != 5 || gotQuery.Sort != "popular" {
		t.Errorf("query = %+v", gotQuery)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}

	for _, bad := range []string{"?page=abc", "?limit=0", "?sort=random", "?date=yesterday"} {
		w, c := createTestContext(http.MethodGet, "/v1/ideas"+bad, nil)
		h.ListIdeas(c)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", bad, w.Code)
		}
	}
}

func TestGetIdea(t *testing.T) {
	svc := &mockIdeaService{getFunc: func(_ context.Context, id string) (*models.IdeaWithCounts, error) {
		if id != testIdeaID {
			return nil, apperr.Missing("idea not found")
		}
		return &models.IdeaWithCounts{Idea: models.Idea{ID: id, Title: "Bike lanes"}, Upvotes: 2, Score: 2}, nil
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodGet, "/v1/ideas/"+testIdeaID, nil)
	withID(c, testIdeaID)
	h.GetIdea(c)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"upvotes":2`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w, c = createTestContext(http.MethodGet, "/v1/ideas/other", nil)
	withID(c, "other")
	h.GetIdea(c)
	if w.Code != http.StatusNotFound || errorBody(t, w) != "idea not found" {
		t.Errorf("missing: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateIdea(t *testing.T) {
	var gotCaller service.Caller
	svc := &mockIdeaService{createFunc: func(_ context.Context, cl service.Caller, req models.CreateIdeaRequest) (*models.IdeaWithCounts, error) {
		gotCaller = cl
		return &models.IdeaWithCounts{Idea: models.Idea{ID: testIdeaID, Title: req.Title, Status: models.StatusPending}}, nil
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPost, "/v1/ideas", models.CreateIdeaRequest{Title: "t", Description: "d"})
	withCaller(c)
	h.CreateIdea(c)
	if w.Code != http.StatusCreated || gotCaller != testCaller {
		t.Errorf("status = %d, caller = %+v", w.Code, gotCaller)
	}

	w, c = createTestContext(http.MethodPost, "/v1/ideas", map[string]string{"description": "d"})
	withCaller(c)
	h.CreateIdea(c)
	if w.Code != http.StatusBadRequest || errorBody(t, w) != "title is required" {
		t.Errorf("missing title: %d %s", w.Code, w.Body.String())
	}

	w, c = createTestContext(http.MethodPost, "/v1/ideas", models.CreateIdeaRequest{Title: "t", Description: "d"})
	h.CreateIdea(c)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d", w.Code)
	}
}

func TestUpdateIdeaForbidden(t *testing.T) {
	svc := &mockIdeaService{updateFunc: func(context.Context, service.Caller, string, models.UpdateIdeaRequest) (*models.IdeaWithCounts, error) {
		return nil, apperr.Denied("you can only edit your own ideas")
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPut, "/v1/ideas/"+testIdeaID, map[string]string{"title": "new"})
	withCaller(c)
	withID(c, testIdeaID)
	h.UpdateIdea(c)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d", w.Code)
	}
}

func TestDeleteIdea(t *testing.T) {
	var gotID string
	svc := &mockIdeaService{deleteFunc: func(_ context.Context, _ service.Caller, id string) error {
		gotID = id
		return nil
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodDelete, "/v1/ideas/"+testIdeaID, nil)
	withCaller(c)
	withID(c, testIdeaID)
	h.DeleteIdea(c)
	if w.Code != http.StatusOK || gotID != testIdeaID {
		t.Errorf("status = %d, id = %q", w.Code, gotID)
	}
}

func TestVoteIdea(t *testing.T) {
	svc := &mockIdeaService{voteFunc: func(_ context.Context, _ service.Caller, id, voteType string) (*models.VoteResponse, error) {
		if id != testIdeaID {
			return nil, apperr.Missing("idea not found")
		}
		return &models.VoteResponse{Action: "cast", TotalVotes: 1, Idea: models.IdeaWithCounts{Upvotes: 1, Score: 1}}, nil
	}}
	h := NewIdeaHandler(svc, zap.NewNop())

	tests := []struct {
		name       string
		id         string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"cast", testIdeaID, map[string]string{"voteType": "up"}, http.StatusOK, ""},
		{"missing type", testIdeaID, map[string]string{}, http.StatusBadRequest, "voteType is required"},
		{"unknown type", testIdeaID, map[string]string{"voteType": "meh"}, http.StatusBadRequest, "voteType must be 'up' or 'down'"},
		{"unknown idea", "missing", map[string]string{"voteType": "down"}, http.StatusNotFound, "idea not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext(http.MethodPatch, "/v1/ideas/"+tt.id+"/vote", tt.body)
			withCaller(c)
			withID(c, tt.id)
			h.VoteIdea(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" && errorBody(t, w) != tt.wantError {
				t.Errorf("error = %q, want %q", errorBody(t, w), tt.wantError)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"totalVotes":1`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestCreateComment(t *testing.T) {
	svc := &mockIdeaService{addCommentFunc: func(_ context.Context, cl service.Caller, id, content string) (*models.Comment, error) {
		return &models.Comment{ID: "c1", UserID: cl.UserID, Content: content}, nil
	}}
	h := NewCommentHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPost, "/v1/ideas/"+testIdeaID+"/comments", map[string]string{"content": "nice"})
	withCaller(c)
	withID(c, testIdeaID)
	h.CreateComment(c)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"content":"nice"`) {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w, c = createTestContext(http.MethodPost, "/v1/ideas/"+testIdeaID+"/comments", map[string]string{})
	withCaller(c)
	withID(c, testIdeaID)
	h.CreateComment(c)
	if w.Code != http.StatusBadRequest || errorBody(t, w) != "content is required" {
		t.Errorf("missing content: %d %s", w.Code, w.Body.String())
	}
}

// =============================================================================
// Admin Handler Tests
// =============================================================================

func TestAdminUpdateStatus(t *testing.T) {
	var gotStatus string
	svc := &mockModerationService{setStatusFunc: func(_ context.Context, _ service.Caller, id, status string) (*models.IdeaWithCounts, error) {
		gotStatus = status
		return &models.IdeaWithCounts{Idea: models.Idea{ID: id, Status: models.IdeaStatus(status)}}, nil
	}}
	h := NewAdminHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodPut, "/v1/admin/ideas/"+testIdeaID, map[string]string{"status": "approved"})
	withCaller(c)
	withID(c, testIdeaID)
	h.UpdateStatus(c)
	if w.Code != http.StatusOK || gotStatus != "approved" {
		t.Errorf("status = %d, got %q", w.Code, gotStatus)
	}

	w, c = createTestContext(http.MethodPut, "/v1/admin/ideas/"+testIdeaID, map[string]string{"status": "archived"})
	withCaller(c)
	withID(c, testIdeaID)
	h.UpdateStatus(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d", w.Code)
	}
}

func TestAdminListAndAudit(t *testing.T) {
	svc := &mockModerationService{
		listFunc: func(_ context.Context, q service.ListQuery) (*models.IdeaPage, error) {
			return &models.IdeaPage{Items: []models.IdeaWithCounts{{Idea: models.Idea{ID: "a", Status: models.StatusPending}}}, Total: 1, Page: q.Page, Limit: q.Limit}, nil
		},
		auditTrailFunc: func(_ context.Context, id string) ([]models.AuditEvent, error) {
			return []models.AuditEvent{{Action: models.AuditIdeaStatusChanged, IdeaID: id}}, nil
		},
		deleteFunc: func(context.Context, service.Caller, string) error {
			return apperr.Missing("idea not found")
		},
	}
	h := NewAdminHandler(svc, zap.NewNop())

	w, c := createTestContext(http.MethodGet, "/v1/admin/ideas", nil)
	h.ListIdeas(c)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"pending"`) {
		t.Errorf("list: %d %s", w.Code, w.Body.String())
	}

	w, c = createTestContext(http.MethodGet, "/v1/admin/ideas/"+testIdeaID+"/audit", nil)
	withID(c, testIdeaID)
	h.AuditTrail(c)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), models.AuditIdeaStatusChanged) {
		t.Errorf("audit: %d %s", w.Code, w.Body.String())
	}

	w, c = createTestContext(http.MethodDelete, "/v1/admin/ideas/"+testIdeaID, nil)
	withCaller(c)
	withID(c, testIdeaID)
	h.DeleteIdea(c)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing: %d", w.Code)
	}
}

// =============================================================================
// Errors and Health
// =============================================================================

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	svc := &mockIdeaService{getFunc: func(context.Context, string) (*models.IdeaWithCounts, error) {
		return nil, apperr.Internalf("storage failure", errors.New("dial tcp 10.0.0.3:5432: connection refused"))
	}}
	h := NewIdeaHandler(svc, zap.New(core))

	w, c := createTestContext(http.MethodGet, "/v1/ideas/"+testIdeaID, nil)
	withID(c, testIdeaID)
	h.GetIdea(c)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.3") {
		t.Errorf("internal detail leaked: %s", w.Body.String())
	}
	if errorBody(t, w) != "internal server error" {
		t.Errorf("error = %q", errorBody(t, w))
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Error("expected the internal error to be logged")
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(&mockDatabase{stats: map[string]string{"status": "up"}})
	w, c := createTestContext(http.MethodGet, "/health", nil)
	h.Health(c)
	if w.Code != http.StatusOK {
		t.Errorf("up status = %d", w.Code)
	}

	h = NewHealthHandler(&mockDatabase{stats: map[string]string{"status": "down"}})
	w, c = createTestContext(http.MethodGet, "/health", nil)
	h.Health(c)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("down status = %d", w.Code)
	}
}

func TestNotFound(t *testing.T) {
	w, c := createTestContext(http.MethodGet, "/nope", nil)
	NotFound(c)
	if w.Code != http.StatusNotFound || errorBody(t, w) != "route doesn't exist" {
		t.Errorf("%d %s", w.Code, w.Body.String())
	}
}
