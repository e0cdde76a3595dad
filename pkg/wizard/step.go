package wizard

import "fmt"

// Step is one page of the wizard
type Step int

const (
	StepCredentials Step = iota + 1
	StepProfile
	StepContact
	StepPosts
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepProfile:
		return "profile"
	case StepContact:
		return "contact"
	case StepPosts:
		return "posts"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Terminal reports whether the step is the read-only results step
func (s Step) Terminal() bool {
	return s == StepPosts
}

// Event drives a transition between steps
type Event string

const (
	EventSubmit Event = "Submit"
	EventBack   Event = "Back"
	// Fired by the session once the registration call went through
	EventSubmitted Event = "INTERNAL_Submitted"
)

type transition struct {
	event       Event
	destination Step
}

// Submit on the contact step keeps the step; the submission adapter fires
// EventSubmitted when the registration call succeeds.
var transitions = map[Step][]transition{
	StepCredentials: {
		{event: EventSubmit, destination: StepProfile},
	},
	StepProfile: {
		{event: EventSubmit, destination: StepContact},
		{event: EventBack, destination: StepCredentials},
	},
	StepContact: {
		{event: EventSubmit, destination: StepContact},
		{event: EventSubmitted, destination: StepPosts},
		{event: EventBack, destination: StepProfile},
	},
	StepPosts: nil,
}

func nextStep(current Step, event Event) (Step, error) {
	for _, t := range transitions[current] {
		if t.event == event {
			return t.destination, nil
		}
	}
	return current, fmt.Errorf("%w: invalid event %s for step %s", ErrNoTransition, event, current)
}
