package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
	"github.com/alexanderramin/caseflow/internal/identity"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/service"
	"github.com/alexanderramin/caseflow/internal/testutil"
	"github.com/alexanderramin/caseflow/internal/validation"
)

const (
	asTeacher = "teacher:teacher-1"
	asDoctor  = "doctor:doctor-1"
	asParent  = "parent:parent-1"
)

type fakeClassifier struct {
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _ app.HandwritingSample) (*domain.HandwritingAnalysis, error) {
	f.calls++
	return testutil.NewTestHandwriting(), nil
}

type testServer struct {
	router     *gin.Engine
	classifier *fakeClassifier
}

func newTestServer(t *testing.T, observers ...service.UseCaseObserver) *testServer {
	return newTestServerWithGatherer(t, nil, observers...)
}

func newTestServerWithGatherer(t *testing.T, g prometheus.Gatherer, observers ...service.UseCaseObserver) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database := testutil.NewTestDB(t)
	reads := repository.NewSQLiteSet(database)
	uow := testutil.NewTestUoW(database)
	v := validation.New()
	cases := service.NewCaseService(reads, uow, observers...)
	progress := service.NewProgressionService(reads, uow, v, observers...)
	classifier := &fakeClassifier{}
	router := NewRouter(RouterConfig{
		Services: Services{
			Cases:           cases,
			Progress:        progress,
			Lifecycle:       service.NewLifecycleService(reads, uow, v, observers...),
			Archive:         service.NewArchiveService(reads, uow, observers...),
			Recommendations: service.NewRecommendationService(reads, uow, v, observers...),
			Handwriting:     service.NewHandwritingService(cases, progress, classifier),
		},
		Resolver: identity.StaticResolver{},
		Gatherer: g,
	})
	return &testServer{router: router, classifier: classifier}
}

func (s *testServer) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+as)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createCase(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/cases", asTeacher, contract.CreateCaseRequest{
		StudentName: "Ada",
		Birthday:    "2015-03-01",
		School:      "Northside Primary",
		Grade:       "3",
		Gender:      "female",
		DoctorIDs:   []string{"doctor-1"},
		ParentIDs:   []string{"parent-1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out contract.CaseSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) contract.APIError {
	t.Helper()
	var env contract.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/cases", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/cases", "janitor:bob", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateListAndState(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	rec := s.do(t, http.MethodGet, "/api/cases", asParent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Cases []contract.CaseSummary `json:"cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Cases, 1)
	assert.Equal(t, id, list.Cases[0].ID)

	rec = s.do(t, http.MethodGet, "/api/cases/"+id+"/state", asDoctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st contract.CaseState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, domain.StageHandwriting, st.CurrentStage)
	assert.Equal(t, []domain.Stage{}, st.CompletedStages)
	assert.Equal(t, 1, st.SessionNumber)
}

func TestCreateCase_BadBirthday(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/cases", asTeacher, contract.CreateCaseRequest{
		StudentName: "Ada", Birthday: "01/03/2015", School: "x", Grade: "3", Gender: "female",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.CodeValidation), decodeError(t, rec).Code)
}

func TestViewCase_PerRoleStatus(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	rec := s.do(t, http.MethodGet, "/api/cases/"+id, asParent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view contract.CaseView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Stages, 7)
	assert.Equal(t, domain.RoleParent, view.Role)
	assert.Equal(t, domain.ViewReadOnly, view.Stages[0].Status)
	assert.Equal(t, domain.ViewLocked, view.Stages[1].Status)
	assert.Len(t, view.Members, 3)
}

func TestSubmitAndCompleteStage(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	rec := s.do(t, http.MethodPut, "/api/cases/"+id+"/stages/1", asTeacher,
		`{"dyslexia_score": 62.5, "interpretation": "Moderate indicators"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stored contract.StagePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, domain.KindHandwriting, stored.Kind)
	assert.Equal(t, "teacher-1", stored.AuthorID)

	rec = s.do(t, http.MethodGet, "/api/cases/"+id+"/stages/1", asDoctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view contract.StageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, domain.ViewReadOnly, view.Status)
	require.NotNil(t, view.Payload)
	assert.JSONEq(t, `{"dyslexia_score": 62.5, "interpretation": "Moderate indicators"}`, string(view.Payload.Data))

	rec = s.do(t, http.MethodPost, "/api/cases/"+id+"/stages/1/complete", asTeacher, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st contract.CaseState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, domain.StageTasks, st.CurrentStage)
	assert.Equal(t, []domain.Stage{domain.StageHandwriting}, st.CompletedStages)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)
	base := "/api/cases/" + id

	tests := []struct {
		name   string
		method string
		path   string
		as     string
		body   any
		status int
		code   domain.ErrorCode
	}{
		{"non member", http.MethodGet, base + "/state", "doctor:doctor-9", nil, http.StatusForbidden, domain.CodeForbidden},
		{"unknown case", http.MethodGet, "/api/cases/missing/state", asTeacher, nil, http.StatusNotFound, domain.CodeUnknownCase},
		{"stage not a number", http.MethodGet, base + "/stages/x", asTeacher, nil, http.StatusNotFound, domain.CodeUnknownStage},
		{"stage out of range", http.MethodGet, base + "/stages/9", asTeacher, nil, http.StatusNotFound, domain.CodeUnknownStage},
		{"wrong role", http.MethodPut, base + "/stages/1", asParent, `{"dyslexia_score": 1, "interpretation": "x"}`, http.StatusForbidden, domain.CodeForbidden},
		{"stage not unlocked", http.MethodPut, base + "/stages/2", asDoctor, `{"tasks": []}`, http.StatusLocked, domain.CodeLocked},
		{"unknown field", http.MethodPut, base + "/stages/1", asTeacher, `{"score": 1}`, http.StatusUnprocessableEntity, domain.CodeValidation},
		{"nothing to complete", http.MethodPost, base + "/stages/1/complete", asTeacher, nil, http.StatusConflict, domain.CodeStageNotReady},
		{"terminate unconfirmed", http.MethodPost, base + "/terminate-progress", asTeacher, `{"confirm": false}`, http.StatusPreconditionRequired, domain.CodeNotConfirmed},
		{"no report", http.MethodGet, base + "/reports/1", asTeacher, nil, http.StatusNotFound, domain.CodeUnknownReport},
		{"history before stage 6", http.MethodGet, base + "/activities/a1/progress", asParent, nil, http.StatusForbidden, domain.CodeForbidden},
		{"update on unknown case", http.MethodPut, "/api/cases/missing/progress/p1", asParent, `{"activity_id": "a1"}`, http.StatusNotFound, domain.CodeUnknownCase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.as, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, string(tt.code), decodeError(t, rec).Code)
		})
	}
}

func TestMembers(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	rec := s.do(t, http.MethodPost, "/api/cases/"+id+"/members", asTeacher, contract.AddMemberRequest{UserID: "grandma", Role: "parent"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/cases/"+id+"/state", "parent:grandma", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/cases/"+id+"/members/grandma", asTeacher, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/cases/"+id+"/state", "parent:grandma", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/cases/"+id+"/members", asDoctor, contract.AddMemberRequest{UserID: "x", Role: "parent"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalyzeHandwriting(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	upload := func(as string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("image", "sample.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/cases/"+id+"/handwriting", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+as)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload(asParent)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, s.classifier.calls)

	rec = upload(asTeacher)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.classifier.calls)
	var stored contract.StagePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	var analysis domain.HandwritingAnalysis
	require.NoError(t, json.Unmarshal(stored.Data, &analysis))
	assert.Equal(t, "sample.png", analysis.SampleRef)
	assert.InDelta(t, 62.5, analysis.Score, 0.001)
}

func TestAnalyzeHandwriting_MissingImage(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)
	rec := s.do(t, http.MethodPost, "/api/cases/"+id+"/handwriting", asTeacher, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReports_EmptyListAndOngoingFlag(t *testing.T) {
	s := newTestServer(t)
	id := s.createCase(t)

	rec := s.do(t, http.MethodGet, "/api/cases/"+id+"/reports?include_ongoing=true", asDoctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Reports []domain.TherapyReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Reports)

	rec = s.do(t, http.MethodGet, "/api/cases/"+id+"/reports/abc", asDoctor, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer, err := service.NewMetricsUseCaseObserver(reg)
	require.NoError(t, err)
	s := newTestServerWithGatherer(t, reg, observer)
	s.createCase(t)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `caseflow_use_case_total{outcome="ok",use_case="create-case"} 1`)
}
