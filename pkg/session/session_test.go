package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/digitalocean/registration-wizard/pkg/mocks"
	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/wizard"
)

type sessionTestSuite struct {
	suite.Suite
	mockCtrl         *gomock.Controller
	mockRegistration *mocks.MockRegistrationService
	mockPosts        *mocks.MockPostsService
	manager          *Manager
	ctx              context.Context
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(sessionTestSuite))
}

func (suite *sessionTestSuite) SetupTest() {
	suite.mockCtrl = gomock.NewController(suite.T())
	suite.mockRegistration = mocks.NewMockRegistrationService(suite.mockCtrl)
	suite.mockPosts = mocks.NewMockPostsService(suite.mockCtrl)
	suite.manager = NewManager(suite.mockRegistration, suite.mockPosts, time.Hour)
	suite.ctx = context.Background()
	uuidNewString = func() string {
		return "new-uuid"
	}
}

func (suite *sessionTestSuite) TearDownTest() {
	suite.manager.Close()
}

func (suite *sessionTestSuite) fillAll(s *Session) {
	fields := []struct{ name, value string }{
		{models.FieldEmailID, "a@b.com"},
		{models.FieldPassword, "Aa1!Aa1!"},
		{models.FieldFirstName, "Al"},
		{models.FieldAddress, "123 Main Street"},
		{models.FieldPhoneNumber, "9876543210"},
		{models.FieldAcceptTermsAndCondition, "true"},
	}
	for _, f := range fields {
		suite.Require().NoError(s.SetField(f.name, f.value))
	}
}

func (suite *sessionTestSuite) reachContactStep(s *Session) {
	suite.fillAll(s)
	for i := 0; i < 2; i++ {
		outcome, err := s.Submit(suite.ctx)
		suite.Require().NoError(err)
		suite.Require().Equal(OutcomeAdvanced, outcome)
	}
}

func (suite *sessionTestSuite) TestCreate_ShouldFetchPostsOnStart() {
	posts := []models.Post{{ID: "1", Writeup: "hello"}}
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(posts, nil).Times(1)

	s := suite.manager.Create()
	s.Wait()

	snapshot := s.Snapshot()
	suite.Equal("new-uuid", snapshot.ID)
	suite.Equal(int(wizard.StepCredentials), snapshot.Step)
	suite.Equal(posts, snapshot.Posts)
	suite.False(snapshot.LoadingPosts)
	suite.False(snapshot.CanGoBack)
}

func (suite *sessionTestSuite) TestCreate_ShouldKeepEmptyPosts_WhenFetchFails() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, errors.New("some-error")).Times(1)

	s := suite.manager.Create()
	s.Wait()

	snapshot := s.Snapshot()
	suite.Empty(snapshot.Posts)
	suite.False(snapshot.LoadingPosts)
	suite.Empty(snapshot.Errors)
}

func (suite *sessionTestSuite) TestSubmit_ShouldReachTerminalStepAndFetchPosts() {
	posts := []models.Post{{ID: "2", Writeup: "after"}}
	gomock.InOrder(
		suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).Times(1),
		suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(posts, nil).Times(1),
	)

	s := suite.manager.Create()
	s.Wait()
	suite.reachContactStep(s)

	expectedForm := s.wizard.Form()
	suite.mockRegistration.EXPECT().
		Submit(suite.ctx, expectedForm).
		Return(models.SubmitAck{StatusCode: 200}, nil).
		Times(1)

	outcome, err := s.Submit(suite.ctx)
	s.Wait()

	suite.Nil(err)
	suite.Equal(OutcomeSubmitted, outcome)
	snapshot := s.Snapshot()
	suite.Equal(int(wizard.StepPosts), snapshot.Step)
	suite.Equal(posts, snapshot.Posts)
	suite.False(snapshot.CanGoBack)
}

func (suite *sessionTestSuite) TestSubmit_ShouldStayOnContactStep_WhenRegistrationFails() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).Times(1)

	s := suite.manager.Create()
	s.Wait()
	suite.reachContactStep(s)

	suite.mockRegistration.EXPECT().
		Submit(suite.ctx, gomock.Any()).
		Return(models.SubmitAck{}, errors.New("connection refused")).
		Times(1)

	outcome, err := s.Submit(suite.ctx)

	suite.Nil(err)
	suite.Equal(OutcomeSubmissionFailed, outcome)
	snapshot := s.Snapshot()
	suite.Equal(int(wizard.StepContact), snapshot.Step)
	for field, message := range snapshot.Errors {
		suite.Empty(message, "field %s", field)
	}
}

func (suite *sessionTestSuite) TestSubmit_ShouldNotCallRegistration_WhenContactStepInvalid() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).Times(1)

	s := suite.manager.Create()
	s.Wait()
	suite.reachContactStep(s)
	suite.Require().NoError(s.SetField(models.FieldPhoneNumber, "12345"))

	outcome, err := s.Submit(suite.ctx)

	suite.Nil(err)
	suite.Equal(OutcomeInvalid, outcome)
	suite.True(s.Snapshot().Errors.Has(models.FieldPhoneNumber))
}

func (suite *sessionTestSuite) TestSubmit_ShouldRejectConcurrentSubmit() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).AnyTimes()

	s := suite.manager.Create()
	s.Wait()
	suite.reachContactStep(s)

	entered := make(chan struct{})
	release := make(chan struct{})
	suite.mockRegistration.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, form models.FormData) (models.SubmitAck, error) {
			close(entered)
			<-release
			return models.SubmitAck{StatusCode: 200}, nil
		}).
		Times(1)

	done := make(chan Outcome)
	go func() {
		outcome, _ := s.Submit(suite.ctx)
		done <- outcome
	}()
	<-entered

	_, err := s.Submit(suite.ctx)
	suite.ErrorIs(err, ErrSubmitInProgress)
	suite.Equal(int(wizard.StepContact), s.Snapshot().Step)

	close(release)
	suite.Equal(OutcomeSubmitted, <-done)
	s.Wait()
}

func (suite *sessionTestSuite) TestSubmit_ShouldFreezeSessionWhileRegistering() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).AnyTimes()

	s := suite.manager.Create()
	s.Wait()
	suite.reachContactStep(s)

	entered := make(chan struct{})
	release := make(chan struct{})
	suite.mockRegistration.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, form models.FormData) (models.SubmitAck, error) {
			close(entered)
			<-release
			return models.SubmitAck{StatusCode: 200}, nil
		}).
		Times(1)

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result)
	go func() {
		outcome, err := s.Submit(suite.ctx)
		done <- result{outcome, err}
	}()
	<-entered

	suite.ErrorIs(s.Back(), ErrSubmitInProgress)
	suite.ErrorIs(s.SetField(models.FieldPhoneNumber, "1"), ErrSubmitInProgress)
	suite.ErrorIs(s.SetFields([]wizard.Edit{{Name: models.FieldAddress, Value: "x"}}), ErrSubmitInProgress)

	close(release)
	res := <-done
	suite.NoError(res.err)
	suite.Equal(OutcomeSubmitted, res.outcome)
	s.Wait()

	snapshot := s.Snapshot()
	suite.Equal(int(wizard.StepPosts), snapshot.Step)
	suite.Equal("9876543210", snapshot.Form.PhoneNumber)
}

func (suite *sessionTestSuite) TestFetchPosts_ShouldIgnoreOlderFetchResolvingLast() {
	release := make(chan struct{})
	oldPosts := []models.Post{{ID: "1", Writeup: "old"}}
	newPosts := []models.Post{{ID: "2", Writeup: "new"}}
	gomock.InOrder(
		suite.mockPosts.EXPECT().
			FetchPosts(gomock.Any()).
			DoAndReturn(func(ctx context.Context) ([]models.Post, error) {
				<-release
				return oldPosts, nil
			}).
			Times(1),
		suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(newPosts, nil).Times(1),
	)

	s := suite.manager.Create()
	suite.reachContactStep(s)
	suite.mockRegistration.EXPECT().
		Submit(suite.ctx, gomock.Any()).
		Return(models.SubmitAck{StatusCode: 200}, nil).
		Times(1)

	outcome, err := s.Submit(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(OutcomeSubmitted, outcome)

	suite.Eventually(func() bool {
		return len(s.Snapshot().Posts) == 1 && !s.Snapshot().LoadingPosts
	}, time.Second, 5*time.Millisecond)

	close(release)
	s.Wait()

	suite.Equal(newPosts, s.Snapshot().Posts)
}

func (suite *sessionTestSuite) TestBack_ShouldFailOnFirstStep() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).Times(1)

	s := suite.manager.Create()
	s.Wait()

	suite.ErrorIs(s.Back(), wizard.ErrNoTransition)
}

func (suite *sessionTestSuite) TestSnapshot_ShouldHidePassword() {
	suite.mockPosts.EXPECT().FetchPosts(gomock.Any()).Return(nil, nil).Times(1)

	s := suite.manager.Create()
	s.Wait()
	suite.Require().NoError(s.SetField(models.FieldPassword, "Aa1!Aa1!"))

	snapshot := s.Snapshot()
	suite.True(snapshot.Form.PasswordSet)
	suite.Equal([]string{models.FieldEmailID, models.FieldPassword}, snapshot.Fields)
}
