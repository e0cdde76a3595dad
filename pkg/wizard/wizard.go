// Package wizard implements the three-step registration state machine.
//
// A Wizard is owned by a single caller and is not safe for concurrent use;
// front ends serialise access to it (a mutex per HTTP session, the update
// loop in the terminal UI).
package wizard

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/validation"
)

var (
	ErrNoTransition = errors.New("no transition")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid field value")
)

// Outcome describes what a Submit did
type Outcome string

const (
	// The current step has invalid fields and was not left
	OutcomeInvalid Outcome = "invalid"
	// The wizard moved to the next step
	OutcomeAdvanced Outcome = "advanced"
	// The contact step is valid and the form must be sent for registration
	OutcomeReadyToSubmit Outcome = "ready_to_submit"
)

// Wizard holds the state of one registration session
type Wizard struct {
	step   Step
	form   models.FormData
	errors validation.ErrorMap

	posts        []models.Post
	postsSeq     uint64
	loadingPosts bool
}

// New returns a wizard on the first step with an empty form
func New() *Wizard {
	return &Wizard{
		step:   StepCredentials,
		form:   models.NewFormData(),
		errors: validation.ErrorMap{},
	}
}

func (w *Wizard) Step() Step {
	return w.step
}

func (w *Wizard) Form() models.FormData {
	return w.form
}

// Errors returns a copy of the error map
func (w *Wizard) Errors() validation.ErrorMap {
	return w.errors.Clone()
}

// Posts returns a copy of the last applied posts list
func (w *Wizard) Posts() []models.Post {
	out := make([]models.Post, len(w.posts))
	copy(out, w.posts)
	return out
}

func (w *Wizard) LoadingPosts() bool {
	return w.loadingPosts
}

// CanGoBack reports whether a Back transition exists from the current step
func (w *Wizard) CanGoBack() bool {
	_, err := nextStep(w.step, EventBack)
	return err == nil
}

// SetField records an edit of one field. It neither validates nor clears
// errors. The terms flag accepts anything strconv.ParseBool does.
func (w *Wizard) SetField(name, value string) error {
	if w.step.Terminal() {
		return fmt.Errorf("%w: form is read-only on step %s", ErrNoTransition, w.step)
	}

	switch name {
	case models.FieldEmailID:
		w.form.EmailID = value
	case models.FieldPassword:
		w.form.Password = value
	case models.FieldFirstName:
		w.form.FirstName = value
	case models.FieldLastName:
		w.form.LastName = value
	case models.FieldAddress:
		w.form.Address = value
	case models.FieldCountryCode:
		w.form.CountryCode = value
	case models.FieldPhoneNumber:
		w.form.PhoneNumber = value
	case models.FieldAcceptTermsAndCondition:
		accepted, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, name, value)
		}
		w.form.AcceptTermsAndCondition = accepted
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// Edit is one field assignment
type Edit struct {
	Name  string
	Value string
}

// SetFields applies edits in order. If one is rejected the form is restored
// and none of them is kept.
func (w *Wizard) SetFields(edits []Edit) error {
	saved := w.form
	for _, e := range edits {
		if err := w.SetField(e.Name, e.Value); err != nil {
			w.form = saved
			return err
		}
	}
	return nil
}

// Submit validates the current step. Errors for the step's fields are
// replaced; errors of other steps are kept.
func (w *Wizard) Submit() (Outcome, error) {
	next, err := nextStep(w.step, EventSubmit)
	if err != nil {
		return "", err
	}

	valid, stepErrors := validation.ValidateStep(int(w.step), w.form)
	w.errors.Merge(stepErrors)
	if !valid {
		return OutcomeInvalid, nil
	}

	if next == w.step {
		return OutcomeReadyToSubmit, nil
	}

	w.step = next
	return OutcomeAdvanced, nil
}

// Back moves one step back without validating anything
func (w *Wizard) Back() error {
	prev, err := nextStep(w.step, EventBack)
	if err != nil {
		return err
	}
	w.step = prev
	return nil
}

// CompleteSubmission moves the wizard to the terminal step once the
// registration call has succeeded. The contact step must still be valid.
func (w *Wizard) CompleteSubmission() error {
	next, err := nextStep(w.step, EventSubmitted)
	if err != nil {
		return err
	}
	if valid, _ := validation.ValidateStep(int(w.step), w.form); !valid {
		return fmt.Errorf("%w: step %s changed since it was submitted", ErrNoTransition, w.step)
	}
	w.step = next
	return nil
}

// BeginPostsFetch reserves a sequence number for a new posts request and
// marks the posts slot as loading.
func (w *Wizard) BeginPostsFetch() uint64 {
	w.postsSeq++
	w.loadingPosts = true
	return w.postsSeq
}

// ApplyPosts stores the result of request seq if no newer request was issued
// after it. The list replaces the previous one.
func (w *Wizard) ApplyPosts(seq uint64, posts []models.Post) bool {
	if seq != w.postsSeq {
		return false
	}
	w.posts = make([]models.Post, len(posts))
	copy(w.posts, posts)
	w.loadingPosts = false
	return true
}

// FailPosts ends request seq without touching the current list
func (w *Wizard) FailPosts(seq uint64) bool {
	if seq != w.postsSeq {
		return false
	}
	w.loadingPosts = false
	return true
}
