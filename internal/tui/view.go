package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

func (a *App) View() string {
	var body string
	switch a.state {
	case viewLiked:
		body = a.renderLiked()
	case viewSettings:
		body = a.renderSettings()
	default:
		body = a.renderSwipe()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		body,
		a.renderStatus(),
		a.help.View(scopedKeys{keyMap: a.keys, state: a.state}),
	)
}

func (a *App) renderTabs() string {
	tabs := []struct {
		state appState
		label string
	}{
		{viewSwipe, "Swipe"},
		{viewLiked, fmt.Sprintf("Liked (%d)", len(a.snap.Liked))},
		{viewSettings, "Settings"},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.state == a.state {
			parts = append(parts, activeTabStyle.Render(t.label))
		} else {
			parts = append(parts, tabStyle.Render(t.label))
		}
	}
	return titleStyle.Render("foodswipe") + "  " + strings.Join(parts, "")
}

func (a *App) renderStatus() string {
	msg := strings.TrimSpace(a.status)
	if msg == "" && a.snap.LastError != nil {
		return statusErrStyle.Render(a.snap.LastError.Message())
	}
	if msg == "" {
		if a.snap.IsLoading {
			msg = "loading..."
		} else {
			msg = "Ready"
		}
	}
	if a.statusErr {
		return statusErrStyle.Render(msg)
	}
	return statusStyle.Render(msg)
}

func (a *App) renderSwipe() string {
	s := a.snap
	if s.Current == nil {
		switch {
		case s.IsLoading:
			return cardStyle.Render("Looking for places nearby...")
		case s.SessionID == "":
			return cardStyle.Render("No search yet.\n\n" + mutedStyle.Render("[r] search around your location"))
		default:
			return cardStyle.Render("You've seen every place so far.\n" +
				mutedStyle.Render("Try a wider radius or another category.") +
				"\n\n" + mutedStyle.Render("[m] load more  [r] new search"))
		}
	}
	progress := mutedStyle.Render(fmt.Sprintf("%d of %d · %d left", s.Position+1, s.Total, s.Remaining))
	return lipgloss.JoinVertical(lipgloss.Left, renderCard(*s.Current), progress)
}

func renderCard(v venue.Venue) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Name))
	b.WriteString("\n")
	if c := v.CategoryLabel(); c != "" {
		b.WriteString(mutedStyle.Render(c) + "\n")
	}
	b.WriteString("\n")
	if v.Rating != nil {
		b.WriteString(ratingStyle.Render(fmt.Sprintf("★ %.1f", *v.Rating)) + "   ")
	} else {
		b.WriteString(mutedStyle.Render("no rating") + "   ")
	}
	b.WriteString(v.DistanceLabel() + "   ")
	if v.IsOpenNow {
		b.WriteString(openStyle.Render("open"))
	} else {
		b.WriteString(closedStyle.Render("closed"))
	}
	if v.DisplayPhone != nil {
		b.WriteString("\n" + *v.DisplayPhone)
	}
	if !v.HasImage() {
		b.WriteString("\n" + mutedStyle.Render("no photo"))
	}
	return cardStyle.Render(b.String())
}

func (a *App) renderLiked() string {
	title := titleStyle.Render("Liked places")
	var b strings.Builder
	b.WriteString(title + "\n")
	if a.filtering || a.filter.Value() != "" {
		b.WriteString(a.filter.View() + "\n")
	}
	list := a.likedList()
	if len(list) == 0 {
		if len(a.snap.Liked) == 0 {
			b.WriteString(mutedStyle.Render("Nothing liked yet. Swipe right on a place to keep it here."))
		} else {
			b.WriteString(mutedStyle.Render("No liked place matches the filter."))
		}
		return b.String()
	}
	for i, v := range list {
		line := fmt.Sprintf("%-32s %-14s %s", truncate(v.Name, 32), truncate(v.CategoryLabel(), 14), ratingLabel(v))
		if i == a.likedCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func ratingLabel(v venue.Venue) string {
	if v.Rating == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v.Rating)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *App) renderSettings() string {
	d := a.draft
	open := "off"
	if d.OpenOnly {
		open = "on"
	}
	rating := "any"
	if d.MinimumRating > 0 {
		rating = fmt.Sprintf("%.1f+", d.MinimumRating)
	}
	rows := []struct {
		label string
		value string
	}{
		{"Radius", fmt.Sprintf("%.1f km", float64(d.RadiusMeters)/1000)},
		{"Category", d.Category.Label()},
		{"Sort", d.SortMode.Label()},
		{"Open now only", open},
		{"Minimum rating", rating},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings") + "\n")
	for i, r := range rows {
		line := fmt.Sprintf("%-16s ‹ %s ›", r.label, r.value)
		if i == a.settingsCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	switch settings.Classify(a.svc.Settings(), d) {
	case settings.Restart:
		b.WriteString(mutedStyle.Render("enter starts a new search"))
	case settings.Refetch:
		b.WriteString(mutedStyle.Render("enter runs a new search (already seen places stay hidden)"))
	case settings.Refilter:
		b.WriteString(mutedStyle.Render("enter re-ranks the loaded places"))
	}
	return b.String()
}
