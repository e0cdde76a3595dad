package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/digitalocean/registration-wizard/pkg/mocks"
	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/session"
)

type handlersTestSuite struct {
	suite.Suite
	mockCtrl         *gomock.Controller
	mockRegistration *mocks.MockRegistrationService
	mockPosts        *mocks.MockPostsService
	manager          *session.Manager
	router           *gin.Engine
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(handlersTestSuite))
}

func (suite *handlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockCtrl = gomock.NewController(suite.T())
	suite.mockRegistration = mocks.NewMockRegistrationService(suite.mockCtrl)
	suite.mockPosts = mocks.NewMockPostsService(suite.mockCtrl)
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return([]models.Post{{ID: "1"}}, nil).AnyTimes()
	suite.manager = session.NewManager(suite.mockRegistration, suite.mockPosts, time.Hour)

	suite.router = gin.New()
	NewHandlers(suite.manager).Register(suite.router)
}

func (suite *handlersTestSuite) TearDownTest() {
	suite.manager.Close()
}

func (suite *handlersTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *handlersTestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out))
}

func (suite *handlersTestSuite) create() session.Snapshot {
	w := suite.do(http.MethodPost, "/api/sessions", nil)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var snapshot session.Snapshot
	suite.decode(w, &snapshot)
	return snapshot
}

type submitResponse struct {
	Outcome session.Outcome  `json:"outcome"`
	Session session.Snapshot `json:"session"`
}

func (suite *handlersTestSuite) TestHealthCheck() {
	w := suite.do(http.MethodGet, "/health", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (suite *handlersTestSuite) TestCountryCodes() {
	w := suite.do(http.MethodGet, "/api/country-codes", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"+91"`)
	suite.Contains(w.Body.String(), `"+1"`)
}

func (suite *handlersTestSuite) TestCreateSession() {
	snapshot := suite.create()

	suite.NotEmpty(snapshot.ID)
	suite.Equal(1, snapshot.Step)
	suite.Equal(models.DefaultCountryCode, snapshot.Form.CountryCode)
	suite.False(snapshot.CanGoBack)
}

func (suite *handlersTestSuite) TestGetSession_NotFound() {
	w := suite.do(http.MethodGet, "/api/sessions/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *handlersTestSuite) TestUpdateFields_NeverEchoesPassword() {
	id := suite.create().ID

	w := suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", map[string]interface{}{
		models.FieldEmailID:  "a@b.com",
		models.FieldPassword: "Aa1!Aa1!",
	})

	suite.Equal(http.StatusOK, w.Code)
	suite.NotContains(w.Body.String(), "Aa1!Aa1!")
	var snapshot session.Snapshot
	suite.decode(w, &snapshot)
	suite.Equal("a@b.com", snapshot.Form.EmailID)
	suite.True(snapshot.Form.PasswordSet)
}

func (suite *handlersTestSuite) TestUpdateFields_RejectsUnknownField() {
	id := suite.create().ID

	w := suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", map[string]interface{}{"nickname": "x"})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *handlersTestSuite) TestUpdateFields_RejectsNumbers() {
	id := suite.create().ID

	w := suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", map[string]interface{}{models.FieldPhoneNumber: 9876543210})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *handlersTestSuite) TestUpdateFields_RejectedBatchChangesNothing() {
	id := suite.create().ID
	path := "/api/sessions/" + id + "/fields"

	cases := []map[string]interface{}{
		{models.FieldAddress: "123 Main Street", models.FieldEmailID: "a@b.com", "nickname": "x"},
		{models.FieldAddress: "123 Main Street", models.FieldEmailID: "a@b.com", models.FieldPhoneNumber: 9876543210},
		{models.FieldAddress: "123 Main Street", models.FieldEmailID: "a@b.com", models.FieldAcceptTermsAndCondition: "maybe"},
	}
	for _, fields := range cases {
		w := suite.do(http.MethodPatch, path, fields)
		suite.Equal(http.StatusBadRequest, w.Code)
	}

	var snapshot session.Snapshot
	suite.decode(suite.do(http.MethodGet, "/api/sessions/"+id, nil), &snapshot)
	suite.Empty(snapshot.Form.EmailID)
	suite.Empty(snapshot.Form.Address)
}

func (suite *handlersTestSuite) TestUpdateFields_RejectsMalformedJSON() {
	id := suite.create().ID
	req := httptest.NewRequest(http.MethodPatch, "/api/sessions/"+id+"/fields", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *handlersTestSuite) TestSubmit_InvalidEmail() {
	id := suite.create().ID
	suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", map[string]interface{}{
		models.FieldEmailID:  "bad",
		models.FieldPassword: "Aa1!Aa1!",
	})

	w := suite.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp submitResponse
	suite.decode(w, &resp)
	suite.Equal(session.OutcomeInvalid, resp.Outcome)
	suite.Equal(1, resp.Session.Step)
	suite.True(resp.Session.Errors.Has(models.FieldEmailID))
	suite.False(resp.Session.Errors.Has(models.FieldPassword))
}

func (suite *handlersTestSuite) TestBack_ConflictOnFirstStep() {
	id := suite.create().ID

	w := suite.do(http.MethodPost, "/api/sessions/"+id+"/back", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *handlersTestSuite) TestFullRegistration() {
	id := suite.create().ID
	suite.mockRegistration.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, form models.FormData) (models.SubmitAck, error) {
			suite.Equal("a@b.com", form.EmailID)
			return models.SubmitAck{StatusCode: http.StatusOK, Body: json.RawMessage(`{}`)}, nil
		}).
		Times(1)

	steps := []struct {
		fields  map[string]interface{}
		outcome session.Outcome
		step    int
	}{
		{map[string]interface{}{models.FieldEmailID: "a@b.com", models.FieldPassword: "Aa1!Aa1!"}, session.OutcomeAdvanced, 2},
		{map[string]interface{}{models.FieldFirstName: "Al", models.FieldLastName: "", models.FieldAddress: "123 Main Street"}, session.OutcomeAdvanced, 3},
		{map[string]interface{}{models.FieldPhoneNumber: "9876543210", models.FieldAcceptTermsAndCondition: true}, session.OutcomeSubmitted, 4},
	}

	for _, step := range steps {
		w := suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", step.fields)
		suite.Require().Equal(http.StatusOK, w.Code)

		w = suite.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)
		suite.Require().Equal(http.StatusOK, w.Code)
		var resp submitResponse
		suite.decode(w, &resp)
		suite.Equal(step.outcome, resp.Outcome)
		suite.Equal(step.step, resp.Session.Step)
	}

	w := suite.do(http.MethodPost, "/api/sessions/"+id+"/submit", nil)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPatch, "/api/sessions/"+id+"/fields", map[string]interface{}{models.FieldEmailID: "c@d.com"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *handlersTestSuite) TestDeleteSession() {
	id := suite.create().ID

	w := suite.do(http.MethodDelete, "/api/sessions/"+id, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, "/api/sessions/"+id, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}
