package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/domain/sla"
	"github.com/rowhq/fieldproof/internal/service"
	"github.com/rowhq/fieldproof/internal/testutil"
)

const (
	adminSessionID     = "admin-session"
	appraiserSessionID = "appraiser-session"
	appraiserID        = "appr-1"
)

type routerFixture struct {
	jobs    *memJobRepo
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	jobs := newMemJobRepo()
	appraisers := &memAppraiserRepo{byID: map[string]*model.Appraiser{
		appraiserID: {
			ID:                 appraiserID,
			UserID:             "user-appr-1",
			VerificationStatus: model.VerificationStatusVerified,
		},
	}}
	properties := &memPropertyRepo{byID: map[string]*model.Property{
		"prop-1": {
			ID:             "prop-1",
			OrganizationID: "org-1",
			Address:        "1 Main St",
			Latitude:       testutil.Float64Ptr(40.7128),
			Longitude:      testutil.Float64Ptr(-74.0060),
		},
	}}

	jobSvc := service.MustNewJobService(service.JobServiceOptions{
		Jobs:       jobs,
		Appraisers: appraisers,
		Properties: properties,
		Payments:   newMemPaymentRepo(),
		SLAPolicy: sla.NewPolicy(map[model.JobType]time.Duration{
			model.JobTypeOnsitePhotos: 72 * time.Hour,
		}, 120*time.Hour),
		MinEvidence: 1,
	})

	authSvc := newStubAuthService(
		domainauth.Session{
			ID: adminSessionID, UserID: "user-admin", Role: domainauth.RoleAdmin,
			ExpiresAt: time.Now().Add(time.Hour),
		},
		domainauth.Session{
			ID: appraiserSessionID, UserID: "user-appr-1", Role: domainauth.RoleAppraiser,
			AppraiserID: appraiserID, ExpiresAt: time.Now().Add(time.Hour),
		},
	)

	handler := NewRouter(RouterOptions{
		Auth:     &AuthHandlers{Svc: authSvc},
		Jobs:     &JobHandlers{Svc: jobSvc},
		Evidence: &EvidenceHandlers{},
		Payouts:  &PayoutHandlers{},
		SLA:      &SLAHandlers{},
	})

	return &routerFixture{jobs: jobs, handler: handler}
}

func (f *routerFixture) do(t *testing.T, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) model.Job {
	t.Helper()
	var job model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	return job
}

func TestRouter_CreateJob(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", adminSessionID,
		`{"organization_id":"org-1","property_id":"prop-1","type":"ONSITE_PHOTOS","payout_amount_cents":15000}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decodeJob(t, rec)
	assert.Equal(t, model.JobStatusPendingDispatch, job.Status)
	assert.NotEmpty(t, job.ID)
}

func TestRouter_CreateJobRequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", "", `{}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CreateJobForbiddenForAppraiser(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", appraiserSessionID,
		`{"organization_id":"org-1","property_id":"prop-1","type":"ONSITE_PHOTOS"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AcceptFlow(t *testing.T) {
	f := newRouterFixture(t)
	job := f.jobs.put(&model.Job{
		PropertyID: "prop-1", Type: model.JobTypeOnsitePhotos,
		Status: model.JobStatusPendingDispatch,
	})

	rec := f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/dispatch", adminSessionID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.JobStatusDispatched, decodeJob(t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/accept", appraiserSessionID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decodeJob(t, rec)
	assert.Equal(t, model.JobStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AssignedAppraiserID)
	assert.Equal(t, appraiserID, *accepted.AssignedAppraiserID)
}

func TestRouter_DispatchTwiceIsUnprocessable(t *testing.T) {
	f := newRouterFixture(t)
	job := f.jobs.put(&model.Job{
		PropertyID: "prop-1", Type: model.JobTypeOnsitePhotos,
		Status: model.JobStatusDispatched,
	})

	rec := f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/dispatch", adminSessionID, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_transition", body.Error)
	assert.Equal(t, "DISPATCHED", body.CurrentStatus)
}

func TestRouter_GetUnknownJobIsNotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/jobs/nope", adminSessionID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AppraiserCannotSeeUnassignedPendingJob(t *testing.T) {
	f := newRouterFixture(t)
	job := f.jobs.put(&model.Job{
		PropertyID: "prop-1", Type: model.JobTypeOnsitePhotos,
		Status: model.JobStatusPendingDispatch,
	})

	rec := f.do(t, http.MethodGet, "/api/jobs/"+job.ID, appraiserSessionID, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_CancelWithReason(t *testing.T) {
	f := newRouterFixture(t)
	job := f.jobs.put(&model.Job{
		PropertyID: "prop-1", Type: model.JobTypeOnsitePhotos,
		Status: model.JobStatusDispatched,
	})

	rec := f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", adminSessionID,
		`{"reason":"duplicate order"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.JobStatusCancelled, decodeJob(t, rec).Status)
}

func TestRouter_InvalidJSONIsBadRequest(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", adminSessionID, `{"organization_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
