// Package tui renders the registration wizard in a terminal. The bubbletea
// update loop owns the wizard; network calls run as commands and report back
// as messages.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/services"
	"github.com/digitalocean/registration-wizard/pkg/validation"
	"github.com/digitalocean/registration-wizard/pkg/wizard"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Italic(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

var labels = map[string]string{
	models.FieldEmailID:                 "Email ID",
	models.FieldPassword:                "Password",
	models.FieldFirstName:               "First Name",
	models.FieldLastName:                "Last Name",
	models.FieldAddress:                 "Address",
	models.FieldCountryCode:             "Country Code",
	models.FieldPhoneNumber:             "Phone Number",
	models.FieldAcceptTermsAndCondition: "I accept the terms and conditions",
}

type submitResultMsg struct {
	err error
}

type postsResultMsg struct {
	seq   uint64
	posts []models.Post
	err   error
}

// Model is the bubbletea model of the wizard
type Model struct {
	ctx          context.Context
	wizard       *wizard.Wizard
	registration services.RegistrationService
	posts        services.PostsService

	inputs     map[string]*textinput.Model
	focus      int
	submitting bool
	status     string
}

func New(ctx context.Context, registration services.RegistrationService, posts services.PostsService) Model {
	m := Model{
		ctx:          ctx,
		wizard:       wizard.New(),
		registration: registration,
		posts:        posts,
		inputs:       make(map[string]*textinput.Model),
	}

	for _, name := range []string{
		models.FieldEmailID,
		models.FieldPassword,
		models.FieldFirstName,
		models.FieldLastName,
		models.FieldAddress,
		models.FieldPhoneNumber,
	} {
		ti := textinput.New()
		ti.Prompt = "> "
		if name == models.FieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		m.inputs[name] = &ti
	}
	m.focusField()
	return m
}

// Run starts the terminal wizard and blocks until the user quits
func Run(ctx context.Context, registration services.RegistrationService, posts services.PostsService) error {
	_, err := tea.NewProgram(New(ctx, registration, posts), tea.WithContext(ctx)).Run()
	return err
}

// Init issues the posts fetch made when the wizard opens
func (m Model) Init() tea.Cmd {
	seq := m.wizard.BeginPostsFetch()
	return tea.Batch(textinput.Blink, m.fetchPosts(seq))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submitResultMsg:
		return m.onSubmitResult(msg)
	case postsResultMsg:
		if msg.err != nil {
			m.wizard.FailPosts(msg.seq)
			return m, nil
		}
		m.wizard.ApplyPosts(msg.seq, msg.posts)
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	// The form is frozen until the registration call reports back
	if m.submitting {
		return m, nil
	}

	if m.wizard.Step().Terminal() {
		if key == "q" || key == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "enter":
		return m.submit()
	case "esc":
		if !m.wizard.CanGoBack() {
			return m, nil
		}
		if err := m.wizard.Back(); err == nil {
			m.focus = 0
			m.status = ""
			m.focusField()
		}
		return m, nil
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.fields())
		m.focusField()
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus + len(m.fields()) - 1) % len(m.fields())
		m.focusField()
		return m, nil
	}

	switch name := m.focusedField(); name {
	case models.FieldCountryCode:
		if key == "left" || key == "right" {
			m.cycleCountryCode(key == "right")
		}
		return m, nil
	case models.FieldAcceptTermsAndCondition:
		if key == " " || key == "x" {
			accepted := m.wizard.Form().AcceptTermsAndCondition
			_ = m.wizard.SetField(name, strconv.FormatBool(!accepted))
		}
		return m, nil
	default:
		input, ok := m.inputs[name]
		if !ok {
			return m, nil
		}
		updated, cmd := input.Update(msg)
		*input = updated
		_ = m.wizard.SetField(name, input.Value())
		return m, cmd
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	outcome, err := m.wizard.Submit()
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	switch outcome {
	case wizard.OutcomeInvalid:
		m.status = "Please fix the highlighted fields"
		return m, nil
	case wizard.OutcomeAdvanced:
		m.status = ""
		m.focus = 0
		m.focusField()
		return m, nil
	}

	m.submitting = true
	m.status = "Submitting..."
	form := m.wizard.Form()
	return m, func() tea.Msg {
		_, err := m.registration.Submit(m.ctx, form)
		return submitResultMsg{err: err}
	}
}

func (m Model) onSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		m.status = fmt.Sprintf("Registration failed: %v", msg.err)
		return m, nil
	}
	if err := m.wizard.CompleteSubmission(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = ""
	seq := m.wizard.BeginPostsFetch()
	return m, m.fetchPosts(seq)
}

func (m Model) fetchPosts(seq uint64) tea.Cmd {
	return func() tea.Msg {
		posts, err := m.posts.FetchPosts(m.ctx)
		return postsResultMsg{seq: seq, posts: posts, err: err}
	}
}

func (m *Model) cycleCountryCode(forward bool) {
	// Index 0 is the empty "select" option
	options := []string{""}
	for _, cc := range models.CountryCodes {
		options = append(options, cc.Code)
	}

	current := 0
	for i, code := range options {
		if code == m.wizard.Form().CountryCode {
			current = i
		}
	}
	if forward {
		current = (current + 1) % len(options)
	} else {
		current = (current + len(options) - 1) % len(options)
	}
	_ = m.wizard.SetField(models.FieldCountryCode, options[current])
}

func (m Model) fields() []string {
	return validation.StepFields(int(m.wizard.Step()))
}

func (m Model) focusedField() string {
	fields := m.fields()
	if len(fields) == 0 {
		return ""
	}
	return fields[m.focus%len(fields)]
}

func (m *Model) focusField() {
	focused := m.focusedField()
	for name, input := range m.inputs {
		if name == focused {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	step := m.wizard.Step()
	if step.Terminal() {
		b.WriteString(titleStyle.Render("Posts"))
		b.WriteString("\n")
		b.WriteString(m.postsView())
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("Registration - step %d of 3", int(step))))
	b.WriteString("\n")

	errs := m.wizard.Errors()
	form := m.wizard.Form()
	for i, name := range m.fields() {
		label := labelStyle.Render(labels[name] + ":")
		if i == m.focus {
			label = focusStyle.Render("› ") + label
		} else {
			label = "  " + label
		}

		switch name {
		case models.FieldCountryCode:
			value := form.CountryCode
			if value == "" {
				value = "Select Country Code"
			}
			fmt.Fprintf(&b, "%s\n  ‹ %s ›\n", label, value)
		case models.FieldAcceptTermsAndCondition:
			box := "[ ]"
			if form.AcceptTermsAndCondition {
				box = "[x]"
			}
			fmt.Fprintf(&b, "%s %s\n", box, label)
		default:
			fmt.Fprintf(&b, "%s\n  %s\n", label, m.inputs[name].View())
		}

		if errs.Has(name) {
			b.WriteString("  " + errorStyle.Render(errs[name]) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	action := "save and next"
	if step == wizard.StepContact {
		action = "submit"
	}
	help := "tab: next field • enter: " + action
	if m.wizard.CanGoBack() {
		help += " • esc: back"
	}
	b.WriteString(helpStyle.Render(help + " • ctrl+c: quit"))
	return b.String()
}

func (m Model) postsView() string {
	if m.wizard.LoadingPosts() {
		return "Loading posts...\n"
	}

	posts := m.wizard.Posts()
	if len(posts) == 0 {
		return "No posts yet.\n"
	}

	var b strings.Builder
	for _, post := range posts {
		b.WriteString(authorStyle.Render(strings.TrimSpace(post.FirstName+" "+post.LastName)) + "\n")
		b.WriteString(post.Writeup + "\n")
		if post.Image != "" {
			b.WriteString(helpStyle.UnsetMarginTop().Render(post.Image) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
