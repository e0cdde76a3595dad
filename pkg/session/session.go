// Package session runs registration wizards for HTTP clients. Each session
// owns one wizard and serialises every operation on it.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/services"
	"github.com/digitalocean/registration-wizard/pkg/validation"
	"github.com/digitalocean/registration-wizard/pkg/wizard"
)

var ErrSubmitInProgress = errors.New("submission already in progress")

// Outcome is the result of a submit as reported to clients
type Outcome string

const (
	OutcomeInvalid          Outcome = "invalid"
	OutcomeAdvanced         Outcome = "advanced"
	OutcomeSubmitted        Outcome = "submitted"
	OutcomeSubmissionFailed Outcome = "submission_failed"
)

// FormView is the form as shown back to clients. The password never leaves
// the server.
type FormView struct {
	EmailID                 string `json:"emailId"`
	FirstName               string `json:"firstName"`
	LastName                string `json:"lastName"`
	Address                 string `json:"address"`
	CountryCode             string `json:"countryCode"`
	PhoneNumber             string `json:"phoneNumber"`
	AcceptTermsAndCondition bool   `json:"acceptTermsAndCondition"`
	PasswordSet             bool   `json:"passwordSet"`
}

// Snapshot is a consistent copy of a session's state
type Snapshot struct {
	ID           string              `json:"id"`
	Step         int                 `json:"step"`
	StepName     string              `json:"stepName"`
	Fields       []string            `json:"fields"`
	CanGoBack    bool                `json:"canGoBack"`
	Form         FormView            `json:"form"`
	Errors       validation.ErrorMap `json:"errors"`
	Posts        []models.Post       `json:"posts"`
	LoadingPosts bool                `json:"loadingPosts"`
}

type Session struct {
	id string

	mu         sync.Mutex
	wizard     *wizard.Wizard
	submitting bool

	registration services.RegistrationService
	posts        services.PostsService

	ctx     context.Context
	cancel  context.CancelFunc
	fetches sync.WaitGroup
}

func newSession(id string, registration services.RegistrationService, posts services.PostsService) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:           id,
		wizard:       wizard.New(),
		registration: registration,
		posts:        posts,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start issues the initial posts fetch
func (s *Session) Start() {
	s.mu.Lock()
	seq := s.wizard.BeginPostsFetch()
	s.mu.Unlock()

	s.fetchPosts(seq)
}

// SetField records one field edit. The form is frozen while a registration
// call is in flight.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInProgress
	}
	return s.wizard.SetField(name, value)
}

// SetFields applies a batch of edits; a rejected batch changes nothing
func (s *Session) SetFields(edits []wizard.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInProgress
	}
	return s.wizard.SetFields(edits)
}

// Back moves the wizard one step back
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInProgress
	}
	return s.wizard.Back()
}

// Submit validates the current step. On a valid contact step the form is sent
// for registration; the session lock is not held during that call so reads
// keep working. Network failures are logged and reported as an outcome,
// never as field errors.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return "", ErrSubmitInProgress
	}
	outcome, err := s.wizard.Submit()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	switch outcome {
	case wizard.OutcomeInvalid:
		s.mu.Unlock()
		return OutcomeInvalid, nil
	case wizard.OutcomeAdvanced:
		s.mu.Unlock()
		return OutcomeAdvanced, nil
	}
	form := s.wizard.Form()
	s.submitting = true
	s.mu.Unlock()

	_, err = s.registration.Submit(ctx, form)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		log.Printf("Session %s: registration failed: %v", s.id, err)
		return OutcomeSubmissionFailed, nil
	}
	if err := s.wizard.CompleteSubmission(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	seq := s.wizard.BeginPostsFetch()
	s.mu.Unlock()

	s.fetchPosts(seq)
	return OutcomeSubmitted, nil
}

// fetchPosts loads posts in the background and hands the result to the
// wizard, which drops it if a newer request was issued meanwhile.
func (s *Session) fetchPosts(seq uint64) {
	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()

		posts, err := s.posts.FetchPosts(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.wizard.FailPosts(seq)
			log.Printf("Session %s: posts fetch %d failed: %v", s.id, seq, err)
			return
		}
		if !s.wizard.ApplyPosts(seq, posts) {
			log.Printf("Session %s: discarding stale posts fetch %d", s.id, seq)
		}
	}()
}

// Wait blocks until every posts fetch started so far has finished
func (s *Session) Wait() {
	s.fetches.Wait()
}

// Close cancels outstanding fetches and waits for them
func (s *Session) Close() {
	s.cancel()
	s.fetches.Wait()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.wizard.Form()
	step := s.wizard.Step()
	return Snapshot{
		ID:        s.id,
		Step:      int(step),
		StepName:  step.String(),
		Fields:    validation.StepFields(int(step)),
		CanGoBack: s.wizard.CanGoBack(),
		Form: FormView{
			EmailID:                 form.EmailID,
			FirstName:               form.FirstName,
			LastName:                form.LastName,
			Address:                 form.Address,
			CountryCode:             form.CountryCode,
			PhoneNumber:             form.PhoneNumber,
			AcceptTermsAndCondition: form.AcceptTermsAndCondition,
			PasswordSet:             form.Password != "",
		},
		Errors:       s.wizard.Errors(),
		Posts:        s.wizard.Posts(),
		LoadingPosts: s.wizard.LoadingPosts(),
	}
}
