/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tui is a hot-seat terminal client for a debate game. Both debaters
// share one keyboard: the active speaker types, Enter submits, and Ctrl+E or
// Ctrl+O toggles the end vote for player one or player two.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Seednode/argunet/games/debate"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldPlayer1 = iota
	fieldPlayer2
	fieldTopic
	fieldThreshold
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Proponent (for)",
	"Opponent (against)",
	"Topic",
	"Points to win",
}

// Model is the bubbletea model. It is the single owner of the game.
type Model struct {
	ctx  context.Context
	game *debate.Game

	defaultThreshold int

	inputs   [fieldCount]textinput.Model
	focus    int
	argument textinput.Model
	spinner  spinner.Model

	// scoring is set while an argument is out for evaluation. generation
	// changes on start and reset so stale evaluations are dropped.
	scoring    bool
	starting   bool
	generation int

	err    error
	width  int
	height int
}

// New returns a model over game, which should already be loaded.
// threshold prefills the setup form.
func New(ctx context.Context, game *debate.Game, threshold int) Model {
	m := Model{
		ctx:              ctx,
		game:             game,
		defaultThreshold: threshold,
		spinner:          spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(mutedStyle)),
	}

	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 120
		ti.Width = 48
		m.inputs[i] = ti
	}
	m.inputs[fieldTopic].Placeholder = "leave blank for a random topic"
	m.inputs[fieldThreshold].CharLimit = 4
	m.resetForm()

	m.argument = textinput.New()
	m.argument.Placeholder = "Make your argument"
	m.argument.CharLimit = debate.MaxArgumentLength
	m.argument.Width = 72
	m.argument.Focus()

	return m
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.inputs[fieldThreshold].SetValue(strconv.Itoa(m.defaultThreshold))
	m.focus = fieldPlayer1
	m.inputs[m.focus].Focus()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.argument.Width = max(20, msg.Width-8)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		switch m.game.State() {
		case debate.StateSetup:
			return m.updateSetup(msg)
		case debate.StateActive:
			return m.updateArena(msg)
		default:
			return m.updateResults(msg)
		}

	case startMsg:
		m.starting = false
		m.start(msg)
		return m, nil

	case scoredMsg:
		if msg.generation != m.generation {
			return m, nil
		}

		m.scoring = false
		_, m.err = m.game.Apply(m.ctx, msg.text, msg.eval)
		return m, nil

	case spinner.TickMsg:
		if !m.scoring && !m.starting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

// updateInputs forwards anything else, such as cursor blinks, to the
// focused text input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.game.State() == debate.StateSetup {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	} else {
		m.argument, cmd = m.argument.Update(msg)
	}

	return m, cmd
}

func (m Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.starting {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyTab, tea.KeyDown:
		return m, m.moveFocus(1)

	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.moveFocus(-1)

	case tea.KeyEnter:
		if m.focus < fieldThreshold {
			return m, m.moveFocus(1)
		}
		return m.submitSetup()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount

	return m.inputs[m.focus].Focus()
}

func (m Model) submitSetup() (tea.Model, tea.Cmd) {
	threshold, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldThreshold].Value()))
	if err != nil {
		m.err = errors.New("points to win must be a number")
		return m, nil
	}

	start := startMsg{
		player1:   m.inputs[fieldPlayer1].Value(),
		player2:   m.inputs[fieldPlayer2].Value(),
		threshold: threshold,
		topic:     strings.TrimSpace(m.inputs[fieldTopic].Value()),
	}

	// Validate before a possibly slow topic lookup.
	if _, err := debate.NewSession(start.player1, start.player2, start.threshold, "-"); err != nil {
		m.err = err
		return m, nil
	}

	if start.topic == "" {
		topics := m.game.Topics
		if topics == nil {
			topics = debate.LocalTopics{}
		}

		m.err = nil
		m.starting = true

		return m, tea.Batch(m.spinner.Tick, suggestThenStart(m.ctx, topics, start))
	}

	m.start(start)

	return m, nil
}

func (m *Model) start(s startMsg) {
	m.err = m.game.Start(m.ctx, s.player1, s.player2, s.threshold, s.topic)
	if m.err != nil && !errors.Is(m.err, debate.ErrPersistence) {
		return
	}

	m.generation++
	m.scoring = false
	m.argument.SetValue("")
}

func (m Model) updateArena(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.scoring {
			return m, nil
		}

		text := m.argument.Value()

		req, err := m.game.Request(text)
		if err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil
		m.scoring = true
		m.argument.SetValue("")

		return m, tea.Batch(m.spinner.Tick, scoreArgument(m.ctx, m.game.Scorer(), m.generation, req))

	case tea.KeyCtrlE:
		return m.vote(0)

	case tea.KeyCtrlO:
		return m.vote(1)
	}

	if m.scoring {
		return m, nil
	}

	var cmd tea.Cmd
	m.argument, cmd = m.argument.Update(msg)

	return m, cmd
}

func (m Model) vote(player int) (tea.Model, tea.Cmd) {
	if m.scoring {
		return m, nil
	}

	m.err = m.game.ToggleEndVote(m.ctx, player)

	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc, msg.String() == "q":
		return m, tea.Quit

	case msg.String() == "n":
		m.generation++
		m.scoring = false
		m.err = m.game.Reset(m.ctx)
		m.resetForm()

		return m, textinput.Blink
	}

	return m, nil
}

// Run shows the terminal client until the user quits or ctx is cancelled.
func Run(ctx context.Context, game *debate.Game, threshold int) error {
	p := tea.NewProgram(New(ctx, game, threshold), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}
