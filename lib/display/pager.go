// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pager is a bubbletea model that shows rows one page at a time with
// the header repeated above each page.
type Pager struct {
	title  string
	header []string
	rows   []string

	pages     Paginator
	indicator paginator.Model
	keys      KeyMap
	theme     Theme
	quitting  bool
}

// NewPager returns a Pager sized for a terminal of the given height.
func NewPager(title string, header, rows []string, height int) Pager {
	indicator := paginator.New()
	indicator.Type = paginator.Arabic
	pager := Pager{
		title:     title,
		header:    header,
		rows:      rows,
		indicator: indicator,
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
	}
	pager.resize(height)
	return pager
}

func (pager *Pager) resize(height int) {
	size := PageSizeFor(height)
	if pager.pages.size == 0 {
		pager.pages = NewPaginator(len(pager.rows), size)
	} else {
		pager.pages.Resize(size)
	}
	pager.syncIndicator()
}

func (pager *Pager) syncIndicator() {
	pager.indicator.PerPage = pager.pages.Size()
	pager.indicator.SetTotalPages(len(pager.rows))
	if pager.indicator.TotalPages < 1 {
		pager.indicator.TotalPages = 1
	}
	pager.indicator.Page = pager.pages.Page()
}

// Page returns the zero-based current page.
func (pager Pager) Page() int { return pager.pages.Page() }

// Pages returns the page count.
func (pager Pager) Pages() int { return pager.pages.Pages() }

// Init implements tea.Model.
func (pager Pager) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (pager Pager) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, pager.keys.Quit):
			pager.quitting = true
			return pager, tea.Quit
		case key.Matches(message, pager.keys.Next):
			pager.pages.Next()
		case key.Matches(message, pager.keys.Prev):
			pager.pages.Prev()
		}
		pager.syncIndicator()
	case tea.WindowSizeMsg:
		pager.resize(message.Height)
	}
	return pager, nil
}

// View implements tea.Model.
func (pager Pager) View() string {
	var builder strings.Builder
	if pager.title != "" {
		builder.WriteString(pager.theme.TitleStyle().Render(pager.title))
		builder.WriteByte('\n')
	}
	for _, line := range pager.header {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	start, end := pager.pages.Bounds()
	for _, line := range pager.rows[start:end] {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	if pager.quitting {
		return builder.String()
	}

	faint := lipgloss.NewStyle().Foreground(pager.theme.FaintText)
	builder.WriteByte('\n')
	builder.WriteString(faint.Render(fmt.Sprintf("page %s · %d rows · %s %s · %s %s · %s %s",
		pager.indicator.View(), len(pager.rows),
		pager.keys.Next.Help().Key, pager.keys.Next.Help().Desc,
		pager.keys.Prev.Help().Key, pager.keys.Prev.Help().Desc,
		pager.keys.Quit.Help().Key, pager.keys.Quit.Help().Desc,
	)))
	builder.WriteByte('\n')
	return builder.String()
}

// Output decides between paging and writing everything.
type Output struct {
	In  io.Reader
	Out io.Writer

	// Paginate is set when Out is a terminal and paging is not
	// disabled.
	Paginate bool

	// Height is the terminal height in lines.
	Height int
}

// Show writes title, header and rows. When paginating and the rows do
// not fit on one page, it runs the pager until the user quits or ctx is
// cancelled; otherwise every row is written at once.
func (output Output) Show(ctx context.Context, title string, header, rows []string) error {
	if !output.Paginate || len(rows) <= PageSizeFor(output.Height) {
		if title != "" {
			if _, err := fmt.Fprintln(output.Out, title); err != nil {
				return err
			}
		}
		return WriteLines(output.Out, header, rows)
	}

	program := tea.NewProgram(NewPager(title, header, rows, output.Height),
		tea.WithContext(ctx),
		tea.WithInput(output.In),
		tea.WithOutput(output.Out),
	)
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
