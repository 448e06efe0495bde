package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	dirmodels "egresados/internal/directory/models"
	dirstore "egresados/internal/directory/store"
	"egresados/internal/history/models"
	"egresados/internal/history/service/mocks"
	histstore "egresados/internal/history/store"
	id "egresados/pkg/domain"
	dErrors "egresados/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	entries   *histstore.InMemory
	directory *dirstore.InMemoryStore
	service   *Service
	user      id.UserID
	admin     id.UserID
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.entries = histstore.NewInMemory()
	s.directory = dirstore.NewInMemory()
	s.service = New(s.entries, s.directory, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.user = id.UserID(uuid.New())
	s.admin = id.UserID(uuid.New())
	s.now = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	s.directory.Put(dirmodels.Identity{UserID: s.user, Email: "ana@uni.edu.co", Role: "egresado"})
	s.directory.Put(dirmodels.Identity{UserID: s.admin, Email: "admin@uni.edu.co", Role: "admin"})
}

func (s *ServiceSuite) append(e *models.Entry) {
	s.Require().NoError(s.entries.Append(context.Background(), e))
}

func (s *ServiceSuite) TestUserHistoryNewestFirstWithActorEmail() {
	old := "111"
	s.append(models.NewCreatedEntry(s.user, s.user, s.now))
	s.append(models.NewFieldEntry(s.user, s.admin, "telefono", &old, "222", s.now.Add(time.Minute)))
	s.append(models.NewFieldEntry(id.UserID(uuid.New()), s.admin, "sede", nil, "Neiva", s.now.Add(2*time.Minute)))

	got, err := s.service.UserHistory(context.Background(), s.user)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("telefono", got[0].FieldName)
	s.Equal("admin@uni.edu.co", got[0].ChangedByEmail)
	s.Empty(got[0].UserEmail)
	s.Equal(models.FieldProfile, got[1].FieldName)
	s.Equal("ana@uni.edu.co", got[1].ChangedByEmail)
}

func (s *ServiceSuite) TestUserHistoryEmpty() {
	got, err := s.service.UserHistory(context.Background(), s.user)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *ServiceSuite) TestUserHistoryRequiresUser() {
	_, err := s.service.UserHistory(context.Background(), id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestRecentChangesLimits() {
	for i := range 30 {
		s.append(models.NewFieldEntry(s.user, s.admin, "telefono", nil, "v", s.now.Add(time.Duration(i)*time.Second)))
	}

	s.Run("default", func() {
		got, err := s.service.RecentChanges(context.Background(), 0)
		s.Require().NoError(err)
		s.Len(got, DefaultRecentLimit)
		s.Equal(s.now.Add(29*time.Second), got[0].CreatedAt)
		s.Equal("ana@uni.edu.co", got[0].UserEmail)
		s.Equal("admin@uni.edu.co", got[0].ChangedByEmail)
	})
	s.Run("explicit", func() {
		got, err := s.service.RecentChanges(context.Background(), 5)
		s.Require().NoError(err)
		s.Len(got, 5)
	})
	s.Run("above the maximum", func() {
		got, err := s.service.RecentChanges(context.Background(), 10_000)
		s.Require().NoError(err)
		s.Len(got, 30)
	})
}

func (s *ServiceSuite) TestUnknownActorHasBlankEmail() {
	s.append(models.NewCreatedEntry(s.user, id.UserID(uuid.New()), s.now))

	got, err := s.service.UserHistory(context.Background(), s.user)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Empty(got[0].ChangedByEmail)
}

type ServiceMockSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	directory *mocks.MockDirectory
	service   *Service
}

func TestServiceMockSuite(t *testing.T) {
	suite.Run(t, new(ServiceMockSuite))
}

func (s *ServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.directory = mocks.NewMockDirectory(s.ctrl)
	s.service = New(s.store, s.directory, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceMockSuite) TestStoreFailure() {
	s.store.EXPECT().ListRecent(gomock.Any(), DefaultRecentLimit).Return(nil, errors.New("timeout"))

	_, err := s.service.RecentChanges(context.Background(), -1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceMockSuite) TestDirectoryFailureDegrades() {
	user := id.UserID(uuid.New())
	entry := models.NewCreatedEntry(user, user, time.Now())
	s.store.EXPECT().ListByUser(gomock.Any(), user).Return([]models.Entry{*entry}, nil)
	s.directory.EXPECT().Lookup(gomock.Any(), []id.UserID{user}).Return(nil, errors.New("redis down"))

	got, err := s.service.UserHistory(context.Background(), user)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Empty(got[0].ChangedByEmail)
}

func (s *ServiceMockSuite) TestLookupIsBatchedAndDeduplicated() {
	user, admin := id.UserID(uuid.New()), id.UserID(uuid.New())
	entries := []models.Entry{
		*models.NewFieldEntry(user, admin, "sede", nil, "a", time.Now()),
		*models.NewFieldEntry(user, admin, "barrio", nil, "b", time.Now()),
	}
	s.store.EXPECT().ListRecent(gomock.Any(), 2).Return(entries, nil)
	s.directory.EXPECT().Lookup(gomock.Any(), []id.UserID{admin, user}).
		Return(map[id.UserID]dirmodels.Identity{admin: {Email: "a@uni.edu.co"}}, nil).Times(1)

	got, err := s.service.RecentChanges(context.Background(), 2)
	s.Require().NoError(err)
	s.Equal("a@uni.edu.co", got[1].ChangedByEmail)
}
