package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/cache"
	"budgetbot/internal/chat"
	"budgetbot/internal/core"
	"budgetbot/internal/intent"
	"budgetbot/internal/llm"
	"budgetbot/internal/middleware/ratelimit"
	"budgetbot/internal/planstore/memory"
	"budgetbot/internal/services"
)

type stubGenerator struct {
	reply string
}

func (g stubGenerator) Complete(context.Context, []llm.Message) (string, error) {
	return g.reply, nil
}

type testServer struct {
	srv   *Server
	store *memory.Store
}

func newTestServer(t *testing.T, doc *core.Document, rpm int) *testServer {
	t.Helper()
	store := memory.New(doc)
	plans := cache.NewPlanCache(store, time.Minute)
	budget := services.NewBudgetService(store, plans, nil)
	engine := chat.NewEngine(plans, intent.NewParser(intent.NewResolver()), budget,
		stubGenerator{reply: "Try buying paperbacks."}, chat.NewSessionStore(100, time.Hour))

	srv := NewServer(":0", Deps{
		Engine:  engine,
		Plans:   plans,
		Store:   store,
		Budget:  budget,
		Limiter: ratelimit.NewLimiter(rpm),
		Backend: "memory",
	})
	return &testServer{srv: srv, store: store}
}

func seededPlan() *core.Document {
	return &core.Document{Plan: core.NewPlan(map[string]int64{core.Books: 3000, core.Groceries: 47000})}
}

func (ts *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, 60)
	rr := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestChatConfirmFlowUsesSessionCookie(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)

	rr := ts.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"Increase Books budget to 299"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	first := decode[chatResponse](t, rr)
	assert.Contains(t, first.Reply, "Would you like me to proceed")
	assert.Contains(t, first.Reply, "₹299")
	require.NotEmpty(t, first.SessionID)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Equal(t, first.SessionID, cookies[0].Value)

	rr = ts.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"yes"}`, cookies[0])
	second := decode[chatResponse](t, rr)
	assert.Contains(t, second.Reply, "Successfully updated your Books & Media budget to ₹299")
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Empty(t, rr.Result().Cookies(), "cookie is not reissued for a known session")

	doc, err := ts.store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(47299), doc.Plan.TotalBudget)
}

func TestChatBodySessionIDWins(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	rr := ts.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"hello","session_id":"abc"}`,
		&http.Cookie{Name: sessionCookie, Value: "other"})
	resp := decode[chatResponse](t, rr)
	assert.Equal(t, "abc", resp.SessionID)
	assert.Equal(t, "Try buying paperbacks.", resp.Reply)
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "No data provided"},
		{"blank message", `{"message":"   "}`, "message is required"},
		{"bad json", `{"message":`, "invalid JSON"},
		{"too long", `{"message":"` + strings.Repeat("a", 2001) + `"}`, "at most 2000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/chatbot/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decode[errorBody](t, rr).Error, tt.want)
		})
	}
}

func TestResetAcceptsEmptyBody(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	rr := ts.do(t, http.MethodPost, "/api/chatbot/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Conversation reset! How can I help you with your Amazon shopping today?",
		decode[resetResponse](t, rr).Reply)
}

func TestResetClearsPendingConfirmation(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	cookie := &http.Cookie{Name: sessionCookie, Value: "s1"}

	ts.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"set books to 100"}`, cookie)
	ts.do(t, http.MethodPost, "/api/chatbot/reset", `{}`, cookie)
	rr := ts.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"yes"}`, cookie)

	assert.Equal(t, "Try buying paperbacks.", decode[chatResponse](t, rr).Reply)
	doc, _ := ts.store.Read(context.Background())
	assert.Equal(t, int64(3000), doc.Plan.Categories[core.Books])
}

func TestCurrentBudget(t *testing.T) {
	ts := newTestServer(t, nil, 60)
	rr := ts.do(t, http.MethodGet, "/api/chatbot/current_budget", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "no budget plan found", decode[errorBody](t, rr).Error)

	ts = newTestServer(t, seededPlan(), 60)
	rr = ts.do(t, http.MethodGet, "/api/chatbot/current_budget", "")
	require.Equal(t, http.StatusOK, rr.Code)
	doc, err := core.ParseDocument(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(50000), doc.Plan.TotalBudget)
}

func TestBatchUpdate(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	rr := ts.do(t, http.MethodPost, "/api/budget/update",
		`{"text":"set books to 500 and set groceries to 49000"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[batchResponse](t, rr)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "New total budget: ₹49,500")
	require.NotNil(t, resp.UpdatedPlan)
	assert.Equal(t, int64(49500), resp.UpdatedPlan.TotalBudget)

	rr = ts.do(t, http.MethodPost, "/api/budget/update", `{"text":"what should I buy?"}`)
	resp = decode[batchResponse](t, rr)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.UpdatedPlan)
}

func TestUpdateCategory(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	rr := ts.do(t, http.MethodPost, "/api/budget/update-category",
		`{"category":"Books & Media","amount":299}`)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[categoryResponse](t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, core.Books, resp.UpdatedCategory)
	assert.Equal(t, int64(3000), resp.PreviousAmount)
	assert.Equal(t, int64(299), resp.UpdatedAmount)
	assert.Equal(t, int64(47299), resp.NewTotal)

	// The current budget endpoint sees the write immediately.
	rr = ts.do(t, http.MethodGet, "/api/chatbot/current_budget", "")
	doc, err := core.ParseDocument(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(299), doc.Plan.Categories[core.Books])
}

func TestUpdateCategoryErrors(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)

	rr := ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Error, "amount is required")

	rr = ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media","amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"total_budget","amount":5}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media","amount":299.7}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Error, "amount must be a valid whole number")

	rr = ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media","amount":1e19}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media","amount":1000000000001}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorBody](t, rr).Error, "amount must be at most")

	// None of the rejected requests touched the plan.
	rr = ts.do(t, http.MethodGet, "/api/chatbot/current_budget", "")
	doc, err := core.ParseDocument(rr.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), doc.Plan.Categories[core.Books])

	empty := newTestServer(t, nil, 60)
	rr = empty.do(t, http.MethodPost, "/api/budget/update-category", `{"category":"Books & Media","amount":5}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPlanGetPutAndFileInfo(t *testing.T) {
	ts := newTestServer(t, nil, 60)

	rr := ts.do(t, http.MethodGet, "/api/budget/file-info", "")
	info := decode[fileInfoResponse](t, rr)
	assert.False(t, info.Exists)
	assert.Equal(t, "memory", info.Backend)

	rr = ts.do(t, http.MethodGet, "/api/budget/plan", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/budget/plan", `{"questionnaire_answers":{"age_group":"25-34"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/budget/plan",
		`{"budget_plan":{"Books & Media":"1,000","Fashion & Beauty":2000,"total_budget":1}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/budget/plan", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Plan    *core.Plan `json:"budget_plan"`
		Version int64      `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(3000), body.Plan.TotalBudget)
	assert.Equal(t, int64(1), body.Version)

	rr = ts.do(t, http.MethodGet, "/api/budget/file-info", "")
	info = decode[fileInfoResponse](t, rr)
	assert.True(t, info.Exists)
	assert.Equal(t, core.Version(1), info.Version)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 60)
	rr := ts.do(t, http.MethodDelete, "/api/budget/plan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, seededPlan(), 2)
	for i := 0; i < 2; i++ {
		rr := ts.do(t, http.MethodGet, "/api/budget/file-info", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := ts.do(t, http.MethodGet, "/api/budget/file-info", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Health checks are never limited.
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoPlan, http.StatusNotFound},
		{core.ErrInvalidAmount, http.StatusBadRequest},
		{errors.Join(errors.New("disk"), core.ErrPersist), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		FromError(tt.err).Write(rr)
		assert.Equal(t, tt.want, rr.Code, tt.err.Error())
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello\tworld", sanitizeInput("  hel\x00lo\tworld\x07 "))
}
