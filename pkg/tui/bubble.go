package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/selection"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// chromeHeight is the number of rows used by everything except the results.
const chromeHeight = 9

type browser interface {
	Start()
	SetQuery(query string)
	SetMediaType(mediaType string)
	OnScroll()
	OnResize()
	Toggle(item *types.MediaItem) bool
	Close()
}

type changedMsg struct{}

type statefulBubble struct {
	ctx    context.Context
	logger *zerolog.Logger

	keymap   *statefulKeymap
	queryC   textinput.Model
	spinnerC spinner.Model
	helpC    help.Model

	browser   browser
	selection *selection.Manager
	results   *results
	importer  Importer
	fetcher   Fetcher

	sourceID    string
	mediaTypes  []string
	typeIndex   int
	concurrency int
	importing   bool
	status      string
	width       int
}

func newBubble(ctx context.Context, b browser, sel *selection.Manager, res *results, options *Options) *statefulBubble {
	queryC := textinput.New()
	queryC.Placeholder = "Search..."
	queryC.Prompt = "🔍 "
	queryC.CharLimit = 100
	queryC.Focus()

	spinnerC := spinner.New()
	spinnerC.Spinner = spinner.Dot
	spinnerC.Style = lipgloss.NewStyle().Foreground(accentColor)

	return &statefulBubble{
		ctx:         ctx,
		logger:      options.Logger,
		keymap:      newStatefulKeymap(),
		queryC:      queryC,
		spinnerC:    spinnerC,
		helpC:       help.New(),
		browser:     b,
		selection:   sel,
		results:     res,
		importer:    options.Importer,
		fetcher:     options.Fetcher,
		sourceID:    options.SourceID,
		mediaTypes:  options.MediaTypes,
		concurrency: options.Concurrency,
	}
}

func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		b.spinnerC.Tick,
		b.waitForChange(),
		func() tea.Msg {
			b.browser.Start()
			return nil
		},
	)
}

func (b *statefulBubble) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.results.changed:
			return changedMsg{}
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.helpC.Width = msg.Width
		b.results.setHeight(msg.Height - chromeHeight)
		b.browser.OnResize()
		return b, nil
	case changedMsg:
		return b, b.waitForChange()
	case importedMsg:
		b.finishImport(msg)
		return b, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		return b.handleKey(msg)
	}

	return b, nil
}

func (b *statefulBubble) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keymap.quit):
		b.browser.Close()
		return b, tea.Quit
	case key.Matches(msg, b.keymap.mediaType):
		b.cycleMediaType()
		return b, nil
	}

	if b.keymap.focus == focusQuery {
		return b.handleQueryKey(msg)
	}
	return b.handleResultsKey(msg)
}

func (b *statefulBubble) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keymap.back):
		b.browser.Close()
		return b, tea.Quit
	case key.Matches(msg, b.keymap.switchFocus):
		b.keymap.focus = focusResults
		b.queryC.Blur()
		return b, nil
	}

	before := b.queryC.Value()
	var cmd tea.Cmd
	b.queryC, cmd = b.queryC.Update(msg)
	if value := b.queryC.Value(); value != before {
		b.browser.SetQuery(value)
	}

	return b, cmd
}

func (b *statefulBubble) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keymap.back), key.Matches(msg, b.keymap.switchFocus):
		b.keymap.focus = focusQuery
		return b, b.queryC.Focus()
	case key.Matches(msg, b.keymap.up):
		b.scroll(-1)
	case key.Matches(msg, b.keymap.down):
		b.scroll(1)
	case key.Matches(msg, b.keymap.pageUp):
		b.scroll(-b.results.Metrics().ClientHeight)
	case key.Matches(msg, b.keymap.pageDown):
		b.scroll(b.results.Metrics().ClientHeight)
	case key.Matches(msg, b.keymap.toggle):
		if item := b.results.current(); item != nil {
			b.browser.Toggle(item)
		}
	case key.Matches(msg, b.keymap.clear):
		b.selection.Clear()
	case key.Matches(msg, b.keymap.importSelected):
		return b, b.startImport()
	case key.Matches(msg, b.keymap.help):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	return b, nil
}

func (b *statefulBubble) scroll(delta int) {
	b.results.move(delta)
	b.browser.OnScroll()
}

func (b *statefulBubble) cycleMediaType() {
	if len(b.mediaTypes) < 2 {
		return
	}
	b.typeIndex = (b.typeIndex + 1) % len(b.mediaTypes)
	b.browser.SetMediaType(b.mediaTypes[b.typeIndex])
}

func (b *statefulBubble) mediaType() string {
	if len(b.mediaTypes) == 0 {
		return ""
	}
	return b.mediaTypes[b.typeIndex]
}

func (b *statefulBubble) startImport() tea.Cmd {
	if b.importing || b.importer == nil || b.fetcher == nil {
		return nil
	}

	items := b.selection.Items()
	if len(items) == 0 {
		b.status = "Nothing selected"
		return nil
	}

	b.importing = true
	b.status = fmt.Sprintf("Importing %d item(s)...", len(items))

	ctx, importer, fetcher, concurrency, logger := b.ctx, b.importer, b.fetcher, b.concurrency, b.logger
	return func() tea.Msg {
		return importedMsg(importItems(ctx, importer, fetcher, items, concurrency, logger))
	}
}

// finishImport deselects every item that was imported and reports the outcome.
func (b *statefulBubble) finishImport(msg importedMsg) {
	b.importing = false

	var failed []string
	imported := 0
	for _, res := range msg {
		if res.err != nil {
			failed = append(failed, types.UserMessage(res.err))
			continue
		}
		imported++
		b.selection.Remove(res.item.Key())
	}

	switch {
	case len(failed) == 0:
		b.status = fmt.Sprintf("Imported %d item(s)", imported)
	default:
		b.status = fmt.Sprintf("Imported %d item(s), %d failed: %s", imported, len(failed), failed[0])
	}
}

func (b *statefulBubble) View() string {
	view := b.results.visible()

	var s strings.Builder

	header := fmt.Sprintf("Media Import · %s", b.sourceID)
	if t := b.mediaType(); t != "" {
		header += " · " + t
	}
	s.WriteString(titleStyle.Render(header))
	s.WriteString("\n\n")
	s.WriteString(b.queryC.View())
	s.WriteString("\n\n")

	switch {
	case view.errorMsg != "":
		s.WriteString(errorStyle.Render(view.errorMsg))
	case view.empty != "":
		s.WriteString(faintStyle.Render(view.empty))
	case view.loading:
		s.WriteString(b.spinnerC.View() + " Loading...")
	}
	s.WriteString("\n")

	for i, t := range view.tiles {
		s.WriteString(row(t, b.keymap.focus == focusResults && i == view.cursor))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	footer := fmt.Sprintf("%d selected · %d results", b.selection.Len(), view.total)
	if b.status != "" {
		footer += " · " + b.status
	}
	s.WriteString(faintStyle.Render(footer))
	s.WriteString("\n")
	s.WriteString(b.helpC.View(b.keymap))

	return paddingStyle.Render(s.String())
}
