package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/foodswipe/internal/pipeline"
	"github.com/jask/foodswipe/internal/service"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// App ties together views.
type App struct {
	ctx    context.Context
	svc    *service.SessionService
	keys   keyMap
	help   help.Model
	filter textinput.Model

	state     appState
	snap      service.Snapshot
	status    string
	statusErr bool
	width     int

	changes     <-chan struct{}
	unsubscribe func()

	// liked view
	likedCursor int
	filtering   bool

	// settings view
	settingsCursor int
	draft          settings.Settings
}

type appState string

const (
	viewSwipe    appState = "swipe"
	viewLiked    appState = "liked"
	viewSettings appState = "settings"
)

type settingsField int

const (
	fieldRadius settingsField = iota
	fieldCategory
	fieldSort
	fieldOpenOnly
	fieldRating
	fieldCount
)

func New(ctx context.Context, svc *service.SessionService) *App {
	changes, unsubscribe := svc.Subscribe()
	filter := textinput.New()
	filter.Placeholder = "name or category"
	filter.Prompt = "/ "
	return &App{
		ctx:         ctx,
		svc:         svc,
		keys:        newKeyMap(),
		help:        help.New(),
		filter:      filter,
		state:       viewSwipe,
		snap:        svc.Snapshot(),
		changes:     changes,
		unsubscribe: unsubscribe,
	}
}

// Close stops listening for session changes.
func (a *App) Close() {
	a.unsubscribe()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.startCmd(), a.waitForChange())
}

// messages
type changedMsg struct{}

type statusMsg string

type errMsg struct{ error }

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-a.changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// commands
func (a *App) startCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.Start(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		if res.Busy {
			return statusMsg("a search is already running")
		}
		return statusMsg(fmt.Sprintf("found %d venues", res.Fetched))
	}
}

func (a *App) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.LoadMore(a.ctx)
		switch {
		case err != nil:
			return errMsg{err}
		case res.Busy:
			return statusMsg("a search is already running")
		case res.NoReference:
			return statusMsg("start a search first")
		case res.Exhausted:
			return statusMsg("no more venues nearby")
		}
		return statusMsg(fmt.Sprintf("loaded %d more", res.Fetched))
	}
}

func (a *App) decideCmd(d pipeline.Direction) tea.Cmd {
	return func() tea.Msg {
		res, err := a.svc.Decide(a.ctx, d)
		if err != nil {
			return errMsg{err}
		}
		if res.NewlyLiked {
			return statusMsg("saved to liked")
		}
		return statusMsg("")
	}
}

func (a *App) removeLikedCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if !a.svc.RemoveLiked(a.ctx, id) {
			return statusMsg("already removed")
		}
		return statusMsg("removed")
	}
}

func (a *App) updateSettingsCmd(next settings.Settings) tea.Cmd {
	return func() tea.Msg {
		effect, err := a.svc.UpdateSettings(a.ctx, next)
		if errors.Is(err, service.ErrBusy) {
			return statusMsg("still searching, try again in a moment")
		}
		if err != nil {
			return errMsg{err}
		}
		switch effect {
		case settings.Restart:
			return statusMsg("new search started")
		case settings.Refetch:
			return statusMsg("searching with new settings")
		case settings.Refilter:
			return statusMsg("re-ranked")
		}
		return statusMsg("no changes")
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.help.Width = m.Width
	case tea.KeyMsg:
		if key.Matches(m, a.keys.Quit) && !a.filtering {
			return a, tea.Quit
		}
		switch a.state {
		case viewLiked:
			return a.handleLikedKey(m)
		case viewSettings:
			return a.handleSettingsKey(m)
		default:
			return a.handleSwipeKey(m)
		}
	case changedMsg:
		a.snap = a.svc.Snapshot()
		a.clampLikedCursor()
		return a, a.waitForChange()
	case statusMsg:
		a.snap = a.svc.Snapshot()
		a.status = string(m)
		a.statusErr = false
	case errMsg:
		a.snap = a.svc.Snapshot()
		a.status = errorText(m.error)
		a.statusErr = true
	}
	return a, nil
}

func errorText(err error) string {
	var f *service.Failure
	if errors.As(err, &f) {
		return f.Message()
	}
	return err.Error()
}

func (a *App) handleSwipeKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Skip):
		if a.snap.Current != nil {
			return a, a.decideCmd(pipeline.Skip)
		}
	case key.Matches(m, a.keys.Like):
		if a.snap.Current != nil {
			return a, a.decideCmd(pipeline.Like)
		}
	case key.Matches(m, a.keys.More):
		a.status = "loading..."
		return a, a.loadMoreCmd()
	case key.Matches(m, a.keys.Restart):
		a.status = "searching..."
		return a, a.startCmd()
	case key.Matches(m, a.keys.Map):
		if a.snap.Current != nil {
			a.status = a.snap.Current.MapsURL()
			a.statusErr = false
		}
	case key.Matches(m, a.keys.Liked):
		a.state = viewLiked
		a.status = ""
	case key.Matches(m, a.keys.Settings):
		a.state = viewSettings
		a.draft = a.svc.Settings()
		a.settingsCursor = 0
		a.status = ""
	}
	return a, nil
}

func (a *App) likedList() []venue.Venue {
	return a.svc.SearchLiked(a.filter.Value())
}

func (a *App) clampLikedCursor() {
	n := len(a.likedList())
	if a.likedCursor >= n {
		a.likedCursor = n - 1
	}
	if a.likedCursor < 0 {
		a.likedCursor = 0
	}
}

func (a *App) handleLikedKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.filtering {
		switch m.Type {
		case tea.KeyEnter, tea.KeyEsc:
			a.filtering = false
			a.filter.Blur()
			if m.Type == tea.KeyEsc {
				a.filter.SetValue("")
			}
			a.clampLikedCursor()
			return a, nil
		}
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(m)
		a.likedCursor = 0
		return a, cmd
	}

	list := a.likedList()
	switch {
	case key.Matches(m, a.keys.Back):
		a.state = viewSwipe
	case key.Matches(m, a.keys.Filter):
		a.filtering = true
		return a, a.filter.Focus()
	case m.String() == "up" || m.String() == "k":
		if a.likedCursor > 0 {
			a.likedCursor--
		}
	case m.String() == "down" || m.String() == "j":
		if a.likedCursor < len(list)-1 {
			a.likedCursor++
		}
	case key.Matches(m, a.keys.Map):
		if len(list) > 0 {
			a.status = list[a.likedCursor].MapsURL()
			a.statusErr = false
		}
	case key.Matches(m, a.keys.Remove):
		if len(list) > 0 {
			return a, a.removeLikedCmd(list[a.likedCursor].ID)
		}
	}
	return a, nil
}

func (a *App) handleSettingsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.state = viewSwipe
	case "up", "k":
		if a.settingsCursor > 0 {
			a.settingsCursor--
		}
	case "down", "j":
		if a.settingsCursor < int(fieldCount)-1 {
			a.settingsCursor++
		}
	case "left", "h":
		a.adjust(-1)
	case "right", "l", " ":
		a.adjust(1)
	case "enter":
		a.state = viewSwipe
		a.status = "applying..."
		return a, a.updateSettingsCmd(a.draft)
	}
	return a, nil
}

const radiusStep = 500

func (a *App) adjust(dir int) {
	switch settingsField(a.settingsCursor) {
	case fieldRadius:
		a.draft.RadiusMeters += dir * radiusStep
	case fieldCategory:
		if dir > 0 {
			a.draft.Category = a.draft.Category.Next()
		} else {
			a.draft.Category = prevCategory(a.draft.Category)
		}
	case fieldSort:
		a.draft.SortMode = a.draft.SortMode.Toggle()
	case fieldOpenOnly:
		a.draft.OpenOnly = !a.draft.OpenOnly
	case fieldRating:
		a.draft.MinimumRating += float64(dir) * settings.RatingStep
	}
	a.draft = a.draft.Normalize()
}

func prevCategory(c settings.Category) settings.Category {
	for i, cat := range settings.Categories {
		if cat == c {
			return settings.Categories[(i+len(settings.Categories)-1)%len(settings.Categories)]
		}
	}
	return settings.CategoryAll
}
