// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func numberedRows(n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("row-%02d", i)
	}
	return rows
}

func press(t *testing.T, pager Pager, message tea.KeyMsg) (Pager, tea.Cmd) {
	t.Helper()
	updated, cmd := pager.Update(message)
	return updated.(Pager), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPager_Navigation(t *testing.T) {
	// Height 16 leaves 10 rows per page: 25 rows is 3 pages.
	pager := NewPager("acme urls", []string{"URL"}, numberedRows(25), 16)
	if pager.Pages() != 3 {
		t.Fatalf("pages: got %d, want 3", pager.Pages())
	}

	view := pager.View()
	if !strings.Contains(view, "row-00") || strings.Contains(view, "row-10") {
		t.Errorf("first page should show rows 0-9:\n%s", view)
	}
	if !strings.Contains(view, "1/3") {
		t.Errorf("page indicator missing:\n%s", view)
	}

	pager, _ = press(t, pager, runes("n"))
	pager, _ = press(t, pager, tea.KeyMsg{Type: tea.KeyRight})
	if pager.Page() != 2 {
		t.Fatalf("page after n and →: got %d, want 2", pager.Page())
	}
	pager, _ = press(t, pager, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if pager.Page() != 2 {
		t.Errorf("next on the last page must be a no-op, got page %d", pager.Page())
	}
	if view := pager.View(); !strings.Contains(view, "row-24") || !strings.Contains(view, "3/3") {
		t.Errorf("last page view:\n%s", view)
	}

	pager, _ = press(t, pager, runes("p"))
	pager, _ = press(t, pager, tea.KeyMsg{Type: tea.KeyLeft})
	pager, _ = press(t, pager, runes("p"))
	if pager.Page() != 0 {
		t.Errorf("prev before the first page must be a no-op, got page %d", pager.Page())
	}
}

func TestPager_Resize(t *testing.T) {
	pager := NewPager("", nil, numberedRows(40), 16)
	pager, _ = press(t, pager, runes("n"))
	pager, _ = press(t, pager, runes("n")) // rows 20-29

	updated, _ := pager.Update(tea.WindowSizeMsg{Width: 80, Height: 11})
	pager = updated.(Pager)
	// Five rows per page now; row 20 is on page 4.
	if pager.Page() != 4 {
		t.Errorf("page after resize: got %d, want 4", pager.Page())
	}
	if pager.Pages() != 8 {
		t.Errorf("pages after resize: got %d, want 8", pager.Pages())
	}
	if view := pager.View(); !strings.Contains(view, "row-20") {
		t.Errorf("previously first row should stay visible:\n%s", view)
	}
}

func TestPager_Quit(t *testing.T) {
	for _, message := range []tea.KeyMsg{
		runes("q"),
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		pager := NewPager("", nil, numberedRows(30), 10)
		pager, cmd := press(t, pager, message)
		if cmd == nil {
			t.Errorf("%s: expected a quit command", message)
			continue
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command did not quit", message)
		}
		if strings.Contains(pager.View(), "quit") {
			t.Errorf("%s: footer should be gone after quitting", message)
		}
	}
}
