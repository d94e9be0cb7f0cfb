package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/fitplan/internal/planner"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/store"
	"github.com/hyperengineering/fitplan/internal/types"
)

// --- Test fixtures ---

// mockGenerator implements planner.Generator for testing
type mockGenerator struct {
	plan    *program.Plan
	err     error
	calls   int
	lastReq program.Request
}

func (m *mockGenerator) Generate(ctx context.Context, req program.Request) (*program.Plan, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.plan, nil
}

func (m *mockGenerator) ModelName() string {
	return "mock-model"
}

func testPlan() *program.Plan {
	return &program.Plan{
		Summary:   "Four days of upper/lower training in a moderate deficit.",
		Nutrition: program.Nutrition{Calories: 2260, ProteinGrams: 160, CarbsGrams: 263, FatsGrams: 63},
		Training: program.Training{
			Split: "Upper/Lower",
			Schedule: []program.ScheduleDay{
				{Day: "Monday", Focus: "Upper", Notes: "Bench and rows"},
				{Day: "Tuesday", Focus: "Lower", Notes: "Squats"},
			},
		},
	}
}

const completeAnswersJSON = `{
	"sex": "male",
	"age": 30,
	"heightCm": 180,
	"weightKg": 80,
	"activityLevel": "often_on_feet",
	"goal": "lose_fat",
	"weeklyFatLossRate": 0.75,
	"daysPerWeek": 4,
	"experience": "intermediate"
}`

type testServer struct {
	handler http.Handler
	store   store.Store
	gen     *mockGenerator
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	gen := &mockGenerator{plan: testPlan()}
	h := NewHandler(s, gen, testAPIKey, "1.0.0-test")
	if cfg.PlanBurst == 0 {
		cfg.PlanBurst = 100
		cfg.PlanRefill = time.Millisecond
	}
	return &testServer{handler: NewRouter(h, cfg), store: s, gen: gen}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) createSession(t *testing.T) types.SessionResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, body = %s", w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) types.SessionResponse {
	t.Helper()
	var resp types.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session: %v (body %s)", err, w.Body.String())
	}
	return resp
}

func decodeProblemWithErrors(t *testing.T, w *httptest.ResponseRecorder) ProblemWithErrors {
	t.Helper()
	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v (body %s)", err, w.Body.String())
	}
	return p
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + id + suffix
}

// --- Public endpoints ---

func TestHealth_Public(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Version != "1.0.0-test" {
		t.Errorf("version = %q, want 1.0.0-test", resp.Version)
	}
	if resp.PlannerModel != "mock-model" {
		t.Errorf("plannerModel = %q, want mock-model", resp.PlannerModel)
	}
}

func TestHealth_CountsSessions(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.createSession(t)
	ts.createSession(t)

	w := ts.do(t, http.MethodGet, "/api/v1/health", "")
	var resp types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.SessionCount != 2 {
		t.Errorf("sessionCount = %d, want 2", resp.SessionCount)
	}
}

func TestSteps_ListsCatalog(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/steps", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp types.StepsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Total != len(resp.Steps) || resp.Total == 0 {
		t.Fatalf("total = %d, steps = %d", resp.Total, len(resp.Steps))
	}
	if resp.Steps[0].Name != "welcome" {
		t.Errorf("first step = %q, want welcome", resp.Steps[0].Name)
	}
	last := resp.Steps[len(resp.Steps)-1]
	if last.Name != "processing" || last.Progress != 1 {
		t.Errorf("last step = %+v, want processing at progress 1", last)
	}
}

func TestSessions_RequireAuth(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- Session lifecycle ---

func TestCreateSession_StartsAtWelcome(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	if len(sess.ID) != 26 {
		t.Errorf("id = %q, want 26-char ULID", sess.ID)
	}
	if sess.Step.Name != "welcome" {
		t.Errorf("step = %q, want welcome", sess.Step.Name)
	}
	if sess.CanGoBack {
		t.Error("canGoBack should be false on the first step")
	}
	if sess.Done {
		t.Error("done should be false on the first step")
	}
}

func TestGetSession(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	created := ts.createSession(t)

	w := ts.do(t, http.MethodGet, sessionPath(created.ID, ""), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeSession(t, w); got.ID != created.ID {
		t.Errorf("id = %q, want %q", got.ID, created.ID)
	}
}

func TestGetSession_InvalidID(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(t, http.MethodGet, sessionPath("not-a-ulid", ""), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(t, http.MethodGet, sessionPath("01ARZ3NDEKTSV4RRFFQ69G5FAV", ""), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodDelete, sessionPath(sess.ID, ""), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = ts.do(t, http.MethodGet, sessionPath(sess.ID, ""), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- Answers ---

func TestUpdateAnswers_Merges(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"age": 31, "equipment": []}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"goal": "build_muscle"}`)
	got := decodeSession(t, w)

	if got.Answers.Age == nil || *got.Answers.Age != 31 {
		t.Errorf("age = %v, want 31 kept from first patch", got.Answers.Age)
	}
	if got.Answers.Goal == nil || *got.Answers.Goal != "build_muscle" {
		t.Errorf("goal = %v, want build_muscle", got.Answers.Goal)
	}
	if got.Answers.Equipment == nil || len(got.Answers.Equipment) != 0 {
		t.Errorf("equipment = %#v, want explicit empty list", got.Answers.Equipment)
	}
	if got.Answers.Sex != nil {
		t.Errorf("sex = %v, want unanswered", *got.Answers.Sex)
	}
}

func TestUpdateAnswers_ConvertsImperial(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"weightLb": 176, "heightIn": 70}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got := decodeSession(t, w)
	if got.Answers.WeightKg == nil || *got.Answers.WeightKg < 79.8 || *got.Answers.WeightKg > 79.9 {
		t.Errorf("weightKg = %v, want ~79.83", got.Answers.WeightKg)
	}
	if got.Answers.HeightCm == nil || *got.Answers.HeightCm < 177.79 || *got.Answers.HeightCm > 177.81 {
		t.Errorf("heightCm = %v, want ~177.8", got.Answers.HeightCm)
	}
}

func TestUpdateAnswers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"age out of range", `{"age": 9}`, "age"},
		{"unknown goal", `{"goal": "get_famous"}`, "goal"},
		{"bad equipment item", `{"equipment": ["dumbbells", "yacht"]}`, "equipment[1]"},
		{"imperial and metric weight", `{"weightKg": 80, "weightLb": 176}`, "weightLb"},
		{"imperial and metric height", `{"heightCm": 180, "heightIn": 70}`, "heightIn"},
		{"weight in pounds out of range", `{"weightLb": 40}`, "weightLb"},
		{"height in inches out of range", `{"heightIn": 120}`, "heightIn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, RouterConfig{})
			sess := ts.createSession(t)

			w := ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusUnprocessableEntity, w.Body.String())
			}
			p := decodeProblemWithErrors(t, w)
			found := false
			for _, e := range p.Errors {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %+v, want one for %q", p.Errors, tt.field)
			}

			// Nothing was written
			got := decodeSession(t, ts.do(t, http.MethodGet, sessionPath(sess.ID, ""), ""))
			if got.Answers.Age != nil || got.Answers.WeightKg != nil || got.Answers.Goal != nil {
				t.Errorf("answers changed after rejected patch: %+v", got.Answers)
			}
		})
	}
}

func TestUpdateAnswers_ImperialErrorsKeepImperialNames(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"weightLb": 900, "heightIn": 20}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	p := decodeProblemWithErrors(t, w)
	fields := map[string]bool{}
	for _, e := range p.Errors {
		fields[e.Field] = true
	}
	if !fields["weightLb"] || !fields["heightIn"] {
		t.Errorf("errors = %+v, want weightLb and heightIn", p.Errors)
	}
	if fields["weightKg"] || fields["heightCm"] {
		t.Errorf("errors = %+v, metric names reported for imperial input", p.Errors)
	}
}

func TestUpdateAnswers_RejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	for _, body := range []string{`{"age": `, `{"favouriteColour": "blue"}`} {
		w := ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestAppendCoachNotes(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	ts.do(t, http.MethodPost, sessionPath(sess.ID, "/coach-notes"), `{"text": "Prefers morning sessions."}`)
	w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/coach-notes"), `{"text": "Hates burpees."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got := decodeSession(t, w)
	want := "Prefers morning sessions.\nHates burpees."
	if got.Answers.CoachNotes == nil || *got.Answers.CoachNotes != want {
		t.Errorf("coachNotes = %v, want %q", got.Answers.CoachNotes, want)
	}
}

func TestAppendCoachNotes_CombinedTooLong(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	chunk := strings.Repeat("a", 3000)
	body := fmt.Sprintf(`{"text": %q}`, chunk)
	if w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/coach-notes"), body); w.Code != http.StatusOK {
		t.Fatalf("first append: status = %d", w.Code)
	}

	w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/coach-notes"), body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	got := decodeSession(t, ts.do(t, http.MethodGet, sessionPath(sess.ID, ""), ""))
	if got.Answers.CoachNotes == nil || len(*got.Answers.CoachNotes) != 3000 {
		t.Error("rejected append must leave the stored notes unchanged")
	}
}

// --- Flow ---

func TestAdvance_WalksAndPrefills(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	// welcome needs nothing
	w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	got := decodeSession(t, w)
	if got.Step.Name != "goal" {
		t.Fatalf("step = %q, want goal", got.Step.Name)
	}
	if !got.CanGoBack {
		t.Error("canGoBack should be true after the first step")
	}
	if len(got.MissingFields) != 1 || got.MissingFields[0] != "goal" {
		t.Errorf("missingFields = %v, want [goal]", got.MissingFields)
	}

	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"goal": "lose_fat"}`)
	got = decodeSession(t, ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), ""))
	if got.Step.Name != "goal_timeline" {
		t.Fatalf("step = %q, want goal_timeline", got.Step.Name)
	}
	if got.Answers.WeeklyFatLossRate == nil || *got.Answers.WeeklyFatLossRate != 0.75 {
		t.Errorf("weeklyFatLossRate = %v, want default 0.75", got.Answers.WeeklyFatLossRate)
	}

	// The prefilled default satisfies the step
	got = decodeSession(t, ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), ""))
	if got.Step.Name != "social_proof" {
		t.Errorf("step = %q, want social_proof", got.Step.Name)
	}
}

func TestAdvance_MissingFields(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)
	ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), "")

	w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	p := decodeProblemWithErrors(t, w)
	if len(p.Errors) != 1 || p.Errors[0].Field != "goal" {
		t.Errorf("errors = %+v, want [goal]", p.Errors)
	}

	got := decodeSession(t, ts.do(t, http.MethodGet, sessionPath(sess.ID, ""), ""))
	if got.Step.Name != "goal" {
		t.Errorf("step = %q, want goal unchanged", got.Step.Name)
	}
}

func TestRetreat(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	// No-op at the first step
	got := decodeSession(t, ts.do(t, http.MethodPost, sessionPath(sess.ID, "/retreat"), ""))
	if got.Step.Name != "welcome" {
		t.Errorf("step = %q, want welcome", got.Step.Name)
	}

	ts.do(t, http.MethodPost, sessionPath(sess.ID, "/advance"), "")
	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"goal": "get_stronger"}`)
	got = decodeSession(t, ts.do(t, http.MethodPost, sessionPath(sess.ID, "/retreat"), ""))
	if got.Step.Name != "welcome" {
		t.Errorf("step = %q, want welcome", got.Step.Name)
	}
	if got.Answers.Goal == nil {
		t.Error("retreat must keep answers")
	}
}

// --- Metrics and program request ---

func TestMetrics_Unavailable(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)
	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), `{"age": 30, "sex": "female"}`)

	w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/metrics"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp["available"] != false {
		t.Errorf("available = %v, want false", resp["available"])
	}
	if _, ok := resp["metrics"]; ok {
		t.Error("metrics must be absent when unavailable")
	}
	missing, _ := resp["missingFields"].([]interface{})
	if len(missing) != 6 {
		t.Errorf("missingFields = %v, want 6 entries", missing)
	}
}

func TestMetrics_Available(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)
	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), completeAnswersJSON)

	w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/metrics"), "")
	var resp types.MetricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Available || resp.Metrics == nil {
		t.Fatalf("available = %v, metrics = %v", resp.Available, resp.Metrics)
	}
	if resp.Metrics.TargetCalories != 2260 {
		t.Errorf("targetCalories = %d, want 2260", resp.Metrics.TargetCalories)
	}
	if len(resp.MissingFields) != 0 {
		t.Errorf("missingFields = %v, want empty", resp.MissingFields)
	}
}

func TestProgramRequest(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/program-request"), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete: status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if p := decodeProblemWithErrors(t, w); len(p.Errors) != 9 {
		t.Errorf("len(errors) = %d, want 9 missing fields", len(p.Errors))
	}

	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), completeAnswersJSON)
	w = ts.do(t, http.MethodGet, sessionPath(sess.ID, "/program-request"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body = %s", w.Code, w.Body.String())
	}
	var req program.Request
	if err := json.Unmarshal(w.Body.Bytes(), &req); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if req.TimelineMonths != 6 || req.HeightCm != 180 {
		t.Errorf("request = %+v", req)
	}
}

// --- Plans ---

func TestGeneratePlan_StoresAndReturnsLatest(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)
	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), completeAnswersJSON)

	w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/plan"), "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("before generation: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = ts.do(t, http.MethodPost, sessionPath(sess.ID, "/plan"), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec types.PlanRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if rec.SessionID != sess.ID || rec.Model != "mock-model" {
		t.Errorf("record = %+v", rec)
	}
	if ts.gen.lastReq.Goal != "lose_fat" {
		t.Errorf("generator got goal %q, want lose_fat", ts.gen.lastReq.Goal)
	}

	w = ts.do(t, http.MethodGet, sessionPath(sess.ID, "/plan"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("latest: status = %d", w.Code)
	}
	var latest types.PlanRecord
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if latest.ID != rec.ID || latest.Plan.Summary != testPlan().Summary {
		t.Errorf("latest = %+v, want %s", latest, rec.ID)
	}
}

func TestGeneratePlan_Incomplete(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	sess := ts.createSession(t)

	w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/plan"), "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if ts.gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", ts.gen.calls)
	}
}

func TestGeneratePlan_GeneratorErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed", fmt.Errorf("%w: missing summary", program.ErrMalformedResponse), http.StatusBadGateway},
		{"unavailable", fmt.Errorf("%w: connection refused", planner.ErrGeneratorUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, RouterConfig{})
			ts.gen.err = tt.err
			sess := ts.createSession(t)
			ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), completeAnswersJSON)

			w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/plan"), "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var p Problem
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if !p.Retryable {
				t.Error("generator failures should be retryable")
			}

			// No partial plan stored
			if w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/plan"), ""); w.Code != http.StatusNotFound {
				t.Errorf("latest plan status = %d, want %d", w.Code, http.StatusNotFound)
			}
		})
	}
}

func TestGeneratePlan_RateLimited(t *testing.T) {
	ts := newTestServer(t, RouterConfig{PlanBurst: 1, PlanRefill: time.Hour})
	sess := ts.createSession(t)
	ts.do(t, http.MethodPatch, sessionPath(sess.ID, "/answers"), completeAnswersJSON)

	if w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/plan"), ""); w.Code != http.StatusCreated {
		t.Fatalf("first: status = %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, sessionPath(sess.ID, "/plan"), ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("second: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w := ts.do(t, http.MethodGet, sessionPath(sess.ID, "/plan"), ""); w.Code != http.StatusOK {
		t.Errorf("reads are not rate limited: status = %d", w.Code)
	}
}

// --- CORS ---

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(t, RouterConfig{AllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}
