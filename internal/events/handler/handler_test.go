package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"egresados/internal/events/handler/mocks"
	"egresados/internal/events/models"
	"egresados/internal/platform/blob"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/requestcontext"
	"egresados/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	user    id.UserID
	admin   id.UserID
	event   id.EventID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.user = id.UserID(uuid.New())
	s.admin = id.UserID(uuid.New())
	s.event = id.NewEventID()
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) asUser(method, path string, body any) *http.Request {
	return testutil.AsUser(testutil.NewJSONRequest(s.T(), method, path, body), s.user.String(), requestcontext.RoleEgresado)
}

func (s *HandlerSuite) asAdmin(method, path string, body any) *http.Request {
	return testutil.AsAdmin(testutil.NewJSONRequest(s.T(), method, path, body), s.admin.String())
}

func (s *HandlerSuite) eventPath(suffix string) string {
	return "/events/" + s.event.String() + suffix
}

// =============================================================================
// Listing
// =============================================================================

func (s *HandlerSuite) TestListMarksRegistration() {
	e := &models.Event{ID: s.event, Title: "Feria", Date: time.Now().Add(time.Hour), FormQuestions: []models.Question{}}
	s.service.EXPECT().ListForUser(gomock.Any(), s.user).
		Return([]models.EventView{{Event: e, IsRegistered: true}}, nil)

	rr := testutil.DoRequest(s.router, s.asUser(http.MethodGet, "/events", nil))

	s.Equal(http.StatusOK, rr.Code)
	body := testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
	s.Require().Len(body, 1)
	s.Equal("Feria", body[0]["title"])
	s.Equal(true, body[0]["is_registered"])
	s.NotContains(body[0], "ImageData")
}

func (s *HandlerSuite) TestListUnauthenticated() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/events", nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
}

func (s *HandlerSuite) TestGetInvalidID() {
	rr := testutil.DoRequest(s.router, s.asUser(http.MethodGet, "/events/123", nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
}

func (s *HandlerSuite) TestGetNotFound() {
	s.service.EXPECT().Get(gomock.Any(), s.event, s.user).Return(nil, dErrors.New(dErrors.CodeNotFound, "Event not found"))

	rr := testutil.DoRequest(s.router, s.asUser(http.MethodGet, s.eventPath(""), nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	testutil.AssertErrorDescription(s.T(), rr, "Event not found")
}

func (s *HandlerSuite) TestImageServesRawBytes() {
	s.service.EXPECT().Image(gomock.Any(), s.event).
		Return(blob.Object{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}, nil)

	rr := testutil.DoRequest(s.router, s.asUser(http.MethodGet, s.eventPath("/image"), nil))

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("image/png", rr.Header().Get("Content-Type"))
	s.Equal([]byte{0x89, 'P', 'N', 'G'}, rr.Body.Bytes())
}

// =============================================================================
// Registration
// =============================================================================

func (s *HandlerSuite) TestRegisterCreated() {
	reg := &models.Registration{EventID: s.event, UserID: s.user, FormResponses: map[string]string{"Talla": "M"}}
	s.service.EXPECT().Register(gomock.Any(), s.event, s.user, map[string]string{"Talla": "M"}).Return(reg, true, nil)

	body := map[string]any{"form_responses": map[string]string{"Talla": "M"}}
	rr := testutil.DoRequest(s.router, s.asUser(http.MethodPost, s.eventPath("/register"), body))

	s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("Registered successfully", resp["message"])
	s.Equal(false, resp["registration"].(map[string]any)["attended"])
}

func (s *HandlerSuite) TestRegisterAgainReturnsExisting() {
	reg := &models.Registration{EventID: s.event, UserID: s.user, FormResponses: map[string]string{}}
	s.service.EXPECT().Register(gomock.Any(), s.event, s.user, map[string]string{}).Return(reg, false, nil)

	rr := testutil.DoRequest(s.router, s.asUser(http.MethodPost, s.eventPath("/register"), map[string]any{}))

	s.Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
	s.Equal("Already registered", resp.Message)
	s.Equal(s.user, resp.Registration.UserID)
}

func (s *HandlerSuite) TestRegisterUnansweredQuestions() {
	s.service.EXPECT().Register(gomock.Any(), s.event, s.user, gomock.Any()).
		Return(nil, false, dErrors.New(dErrors.CodeValidation, "Unanswered questions: Talla"))

	rr := testutil.DoRequest(s.router, s.asUser(http.MethodPost, s.eventPath("/register"), map[string]any{}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	testutil.AssertErrorDescription(s.T(), rr, "Unanswered questions: Talla")
}

func (s *HandlerSuite) TestRegisterRejectsNonTextAnswers() {
	body := map[string]any{"form_responses": map[string]any{"Talla": []string{"M"}}}
	rr := testutil.DoRequest(s.router, s.asUser(http.MethodPost, s.eventPath("/register"), body))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

// =============================================================================
// Admin
// =============================================================================

func (s *HandlerSuite) TestCreateBuildsDraft() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, d models.Draft) (*models.Event, error) {
			s.Equal("Feria laboral", d.Title)
			s.Equal("2030-05-01T10:00", d.Date)
			s.Require().Len(d.FormQuestions, 1)
			s.Equal(models.QuestionSelect, d.FormQuestions[0].Type)
			return &models.Event{ID: s.event, Title: d.Title}, nil
		})

	body := map[string]any{
		"title": "  Feria laboral ",
		"date":  "2030-05-01T10:00",
		"form_questions": []map[string]any{
			{"text": "Talla", "type": "select", "options": []string{"S", "M"}},
		},
	}
	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPost, "/events", body))

	s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *HandlerSuite) TestCreateRequiresAdmin() {
	rr := testutil.DoRequest(s.router, s.asUser(http.MethodPost, "/events", map[string]any{"title": "x"}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func (s *HandlerSuite) TestCreateInThePast() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "Cannot create event in the past"))

	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPost, "/events", map[string]any{"title": "x", "date": "2001-01-01"}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	testutil.AssertErrorDescription(s.T(), rr, "Cannot create event in the past")
}

func (s *HandlerSuite) TestUpdateWithoutQuestionsKeepsThem() {
	s.service.EXPECT().Update(gomock.Any(), s.event, gomock.Any()).
		DoAndReturn(func(_ any, _ id.EventID, d models.Draft) (*models.Event, error) {
			s.Nil(d.FormQuestions)
			return &models.Event{ID: s.event, Title: d.Title}, nil
		})

	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPut, s.eventPath(""), map[string]any{"title": "Nuevo", "date": "2030-01-01"}))

	s.Equal(http.StatusOK, rr.Code, rr.Body.String())
}

func (s *HandlerSuite) TestUpdateFrozenQuestions() {
	s.service.EXPECT().Update(gomock.Any(), s.event, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "Form questions cannot change once participants have registered"))

	body := map[string]any{"title": "x", "date": "2030-01-01", "form_questions": []any{}}
	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPut, s.eventPath(""), body))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
}

func (s *HandlerSuite) TestDelete() {
	s.service.EXPECT().Delete(gomock.Any(), s.event).Return(nil)

	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodDelete, s.eventPath(""), nil))

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("Event deleted successfully", testutil.UnmarshalResponse[MessageResponse](s.T(), rr).Message)
}

func (s *HandlerSuite) TestDeleteFailureHidesDetail() {
	s.service.EXPECT().Delete(gomock.Any(), s.event).
		Return(dErrors.Wrap(errors.New("pq: deadlock detected"), dErrors.CodeInternal, "failed to delete event"))

	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodDelete, s.eventPath(""), nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	s.NotContains(rr.Body.String(), "deadlock")
}

func (s *HandlerSuite) TestParticipants() {
	s.service.EXPECT().ListParticipants(gomock.Any(), s.event).Return([]models.Participant{
		{UserID: s.user, Email: "ana@uni.edu.co", Nombre: "Ana", ProgramaAcademico: "Ingeniería"},
	}, nil)

	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodGet, s.eventPath("/participants"), nil))

	s.Equal(http.StatusOK, rr.Code)
	body := testutil.UnmarshalResponse[[]models.Participant](s.T(), rr)
	s.Require().Len(body, 1)
	s.Equal("Ingeniería", body[0].ProgramaAcademico)
}

func (s *HandlerSuite) TestParticipantsRequireAdmin() {
	rr := testutil.DoRequest(s.router, s.asUser(http.MethodGet, s.eventPath("/participants"), nil))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func (s *HandlerSuite) TestAttendance() {
	s.service.EXPECT().SetAttendance(gomock.Any(), s.event, s.user, true).
		Return(&models.Registration{EventID: s.event, UserID: s.user, Attended: true}, nil)

	path := s.eventPath("/attendance/" + s.user.String())
	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPost, path, map[string]any{"attended": true}))

	s.Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.True(testutil.UnmarshalResponse[models.Registration](s.T(), rr).Attended)
}

func (s *HandlerSuite) TestAttendanceRequiresFlag() {
	path := s.eventPath("/attendance/" + s.user.String())
	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPost, path, map[string]any{}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	testutil.AssertErrorDescription(s.T(), rr, "attended is required")
}

func (s *HandlerSuite) TestAttendanceWithoutRegistration() {
	s.service.EXPECT().SetAttendance(gomock.Any(), s.event, s.user, false).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "Registration not found"))

	path := s.eventPath("/attendance/" + s.user.String())
	rr := testutil.DoRequest(s.router, s.asAdmin(http.MethodPost, path, map[string]any{"attended": false}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}
