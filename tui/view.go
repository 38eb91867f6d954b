/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import (
	"fmt"
	"strings"

	"github.com/Seednode/argunet/games/debate"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	var body string

	switch m.game.State() {
	case debate.StateSetup:
		body = m.viewSetup()
	case debate.StateActive:
		body = m.viewArena()
	default:
		body = m.viewResults()
	}

	if m.err != nil {
		body += "\n" + errorStyle.Render(m.err.Error())
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (m Model) viewSetup() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ARGUNET · new debate"))
	b.WriteString("\n")

	for i, input := range m.inputs {
		label := labelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = focusStyle.Render("› " + fieldLabels[i])
		}
		b.WriteString(label + input.View() + "\n")
	}

	if m.starting {
		b.WriteString("\n" + m.spinner.View() + mutedStyle.Render(" Choosing a topic…") + "\n")
	}

	b.WriteString(helpStyle.Render("tab/↑↓ move • enter next/start • esc quit"))

	return b.String()
}

func (m Model) viewArena() string {
	s := m.game.Session()

	var b strings.Builder

	board := lipgloss.JoinHorizontal(lipgloss.Center,
		m.viewSide(s, 0),
		lipgloss.NewStyle().Padding(0, 2).Width(36).Align(lipgloss.Center).Render(
			mutedStyle.Render("TOPIC")+"\n"+s.Topic+"\n"+mutedStyle.Render(fmt.Sprintf("limit %d", s.Threshold)),
		),
		m.viewSide(s, 1),
	)
	b.WriteString(board + "\n\n")

	for _, msg := range m.visibleMessages(s.Messages) {
		b.WriteString(viewMessage(msg) + "\n")
	}

	if len(s.Messages) == 0 && !m.scoring {
		b.WriteString(mutedStyle.Render("No arguments yet.") + "\n")
	}

	if m.scoring {
		b.WriteString(m.spinner.View() + mutedStyle.Render(" Processing argument…") + "\n")
	}

	speaker := s.ActivePlayer()
	b.WriteString("\n" + mutedStyle.Render("Current speaker: ") +
		lipgloss.NewStyle().Bold(true).Foreground(roleColor(speaker.Role == debate.Proponent)).Render(speaker.Name) + "\n")
	b.WriteString("> " + m.argument.View() + "\n")

	b.WriteString(helpStyle.Render(fmt.Sprintf("enter submit • ctrl+e end vote (%s) • ctrl+o end vote (%s) • ctrl+c quit",
		s.Players[0].Name, s.Players[1].Name)))

	return b.String()
}

func (m Model) viewSide(s *debate.Session, idx int) string {
	p := s.Players[idx]

	role := lipgloss.NewStyle().Bold(true).Foreground(roleColor(p.Role == debate.Proponent)).Render(p.Role.Label())

	lines := []string{
		role,
		scoreStyle.Render(strings.ToUpper(p.Name)),
		scoreStyle.Render(fmt.Sprintf("%d pts", p.Score)),
	}
	if s.EndAgreement[idx] {
		lines = append(lines, voteStyle.Render("VOTED END"))
	} else {
		lines = append(lines, mutedStyle.Render(" "))
	}

	style := sideStyle
	if s.TurnIndex == idx {
		style = activeSideStyle
	}

	return style.Width(24).Render(strings.Join(lines, "\n"))
}

// visibleMessages keeps the transcript within the window, newest last.
func (m Model) visibleMessages(msgs []debate.Message) []debate.Message {
	if m.height <= 0 {
		return msgs
	}

	// Roughly four lines per message, after the board and input.
	room := max(1, (m.height-16)/4)
	if len(msgs) > room {
		return msgs[len(msgs)-room:]
	}

	return msgs
}

func viewMessage(msg debate.Message) string {
	color := roleColor(msg.Role == debate.Proponent)

	header := lipgloss.NewStyle().Bold(true).Foreground(color).Render(
		fmt.Sprintf("%s (%s)", msg.SenderName, msg.Role.Label()),
	) + "  " + scoreStyle.Render(fmt.Sprintf("+%d", msg.Score))

	return header + "\n" + msg.Text + "\n" + mutedStyle.Render(msg.Reasoning) + "\n"
}

func (m Model) viewResults() string {
	sum, _ := m.game.Summary()

	var b strings.Builder

	b.WriteString(titleStyle.Render("DEBATE ENDED"))
	b.WriteString("\n")

	switch {
	case sum.Winner != "":
		card := lipgloss.JoinVertical(lipgloss.Center,
			mutedStyle.Render("WINNER"),
			lipgloss.NewStyle().Bold(true).Foreground(roleColor(sum.WinnerRole == debate.Proponent)).Render(strings.ToUpper(sum.Winner)),
			"",
			fmt.Sprintf("Final score %d   Efficiency %.1f", sum.FinalScore, sum.Efficiency),
		)
		b.WriteString(cardStyle.Render(card) + "\n")
	case sum.Stalemate:
		b.WriteString(cardStyle.Render("MUTUAL STALEMATE") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Topic") + sum.Topic + "\n")
	b.WriteString(labelStyle.Render("Rounds") + fmt.Sprintf("%d", sum.Rounds) + "\n")
	b.WriteString(labelStyle.Render("Limit") + fmt.Sprintf("%d pts", sum.Threshold) + "\n")
	b.WriteString(labelStyle.Render("Final tally") + fmt.Sprintf("%d : %d", sum.ScoreFor, sum.ScoreAgainst) + "\n")

	b.WriteString(helpStyle.Render("n new debate • q quit"))

	return b.String()
}
