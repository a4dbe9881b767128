package main

import (
	"fmt"
	"io"
	"time"

	"haggle/internal/adapter/render"
	"haggle/internal/app/live"
	"haggle/internal/domain/negotiation"

	"github.com/charmbracelet/lipgloss"
)

type theme struct {
	title  lipgloss.Style
	buyer  lipgloss.Style
	seller lipgloss.Style
	muted  lipgloss.Style
	deal   lipgloss.Style
	noDeal lipgloss.Style
	warn   lipgloss.Style
}

func newTheme() theme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		title: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		buyer:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		seller: lipgloss.NewStyle().Foreground(pink).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(muted),
		deal:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		noDeal: lipgloss.NewStyle().Foreground(pink).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c")),
	}
}

// transcript prints a finished negotiation. The typing effect is purely
// cosmetic and runs after every decision has been made.
type transcript struct {
	w     io.Writer
	delay time.Duration
	sleep func(time.Duration)
	theme theme
}

func newTranscript(w io.Writer, delay time.Duration) *transcript {
	return &transcript{w: w, delay: delay, sleep: time.Sleep, theme: newTheme()}
}

func (t *transcript) header(cfg negotiation.SessionConfig) {
	title := fmt.Sprintf("%s | market %s | %s (%s) vs %s (%s)",
		cfg.Product, render.Rupees(cfg.MarketPrice),
		cfg.Buyer.Name, negotiation.ParsePersonality(cfg.Buyer.Personality),
		cfg.Seller.Name, negotiation.ParsePersonality(cfg.Seller.Personality))
	fmt.Fprintln(t.w, t.theme.title.Render(title))
}

func (t *transcript) replay(history []negotiation.TurnRecord, pause time.Duration) {
	for i, rec := range history {
		if i > 0 && rec.Round != history[i-1].Round && pause > 0 {
			t.sleep(pause)
		}
		t.turn(rec)
	}
}

func (t *transcript) turn(rec negotiation.TurnRecord) {
	fmt.Fprintf(t.w, "%s %s ", t.theme.muted.Render(fmt.Sprintf("[%d]", rec.Round)), t.speaker(rec.Role, rec.Speaker))
	t.typeOut(rec.Message)
	fmt.Fprintln(t.w)
}

func (t *transcript) liveStep(role negotiation.Role, name string, step live.Step) {
	fmt.Fprintf(t.w, "%s %s ", t.theme.muted.Render(fmt.Sprintf("[%d]", step.Round)), t.speaker(role, name))
	t.typeOut(step.Message)
	fmt.Fprintln(t.w)

	if step.Warning != "" {
		t.warning(step.Warning)
	}
	if step.CounterpartyMarketPercent != nil {
		t.note(fmt.Sprintf("    their offer vs market %+.2f%%", *step.CounterpartyMarketPercent))
	}
	if step.OwnMarginPercent != nil {
		t.note(fmt.Sprintf("    agent margin %.2f%%", *step.OwnMarginPercent))
	}
}

func (t *transcript) speaker(role negotiation.Role, name string) string {
	label := fmt.Sprintf("%s:", name)
	if role == negotiation.RoleSeller {
		return t.theme.seller.Render(label)
	}
	return t.theme.buyer.Render(label)
}

func (t *transcript) typeOut(s string) {
	if t.delay <= 0 {
		fmt.Fprint(t.w, s)
		return
	}
	for _, r := range s {
		fmt.Fprint(t.w, string(r))
		t.sleep(t.delay)
	}
}

func (t *transcript) result(status negotiation.Status, finalPrice *float64, rounds int) {
	fmt.Fprintln(t.w, resultLine(t.theme, status, finalPrice, rounds))
}

func resultLine(th theme, status negotiation.Status, finalPrice *float64, rounds int) string {
	if status == negotiation.StatusDealReached && finalPrice != nil {
		return th.deal.Render(fmt.Sprintf("Result: %s at %s after %d rounds", status, render.Rupees(*finalPrice), rounds))
	}
	return th.noDeal.Render(fmt.Sprintf("Result: %s after %d rounds", status, rounds))
}

func (t *transcript) warning(msg string) {
	fmt.Fprintln(t.w, t.theme.warn.Render("warning: "+msg))
}

func (t *transcript) note(msg string) {
	fmt.Fprintln(t.w, t.theme.muted.Render(msg))
}

func (t *transcript) prompt() {
	fmt.Fprint(t.w, "> ")
}
