package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/ffind/internal/search"
	"github.com/mattn/go-runewidth"
)

var (
	promptStyle   = tcell.StyleDefault.Bold(true)
	dirStyle      = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	matchStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	selectedStyle = tcell.StyleDefault.Reverse(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (p *Panel) render() {
	p.screen.Clear()
	w, h := p.screen.Size()

	p.drawPrompt(w)
	p.drawResults(w, h)
	p.drawStatus(w, h)

	p.screen.Show()
}

func (p *Panel) drawPrompt(w int) {
	x := drawText(p.screen, 0, 0, w, "> ", promptStyle)
	drawText(p.screen, x, 0, w-x, string(p.input), tcell.StyleDefault)

	if p.mode == modeInput {
		cursorX := runewidth.StringWidth("> ") + runewidth.StringWidth(string(p.input[:p.cursor]))
		if cursorX >= w {
			cursorX = w - 1
		}
		p.screen.ShowCursor(cursorX, 0)
	} else {
		p.screen.HideCursor()
	}
}

func (p *Panel) drawResults(w, h int) {
	visible := p.visibleRows()
	for row := 0; row < visible; row++ {
		idx := p.scroll + row
		if idx >= len(p.results.Matches) {
			break
		}
		p.drawResultRow(row+1, w, p.results.Matches[idx], idx == p.selected && p.mode == modeResults)
	}
}

func (p *Panel) drawResultRow(y, w int, match search.ScoredMatch, selected bool) {
	base := tcell.StyleDefault
	if selected {
		base = selectedStyle
	}

	text := match.Entry.RelPath
	if match.Entry.IsDir {
		text += "/"
	}

	highlighted := highlightedRunes(match, p.lastQuery.MatchesPath())

	x := 0
	if selected {
		// Pad the whole row so the selection bar spans the width.
		for fx := 0; fx < w; fx++ {
			p.screen.SetContent(fx, y, ' ', nil, base)
		}
	}
	for i, ru := range []rune(text) {
		// One-for-one replacement keeps span offsets aligned.
		if ru < 0x20 || ru == 0x7f {
			ru = '?'
		}
		width := runewidth.RuneWidth(ru)
		if x+width > w {
			break
		}
		style := base
		if match.Entry.IsDir && !selected {
			style = dirStyle
		}
		if highlighted[i] {
			if selected {
				style = base.Foreground(tcell.ColorYellow).Bold(true)
			} else {
				style = matchStyle
			}
		}
		p.screen.SetContent(x, y, ru, nil, style)
		x += width
	}
}

// highlightedRunes maps match spans onto rune offsets of the displayed
// relative path. Spans produced by name-scoped matches index into the
// final path segment, so they shift by the length of the leading
// directories.
func highlightedRunes(match search.ScoredMatch, pathScoped bool) map[int]bool {
	offset := 0
	if !pathScoped {
		offset = utf8.RuneCountInString(match.Entry.RelPath) - utf8.RuneCountInString(match.Entry.Name)
	}

	marks := make(map[int]bool, len(match.Spans))
	for _, span := range match.Spans {
		for i := 0; i < span.Len; i++ {
			marks[offset+span.Start+i] = true
		}
	}
	return marks
}

func (p *Panel) drawStatus(w, h int) {
	y := h - 1
	if y < 1 {
		return
	}

	left := p.statusText()
	x := drawText(p.screen, 0, y, w, left, statusStyle)

	hints := "enter run · tab results · ^R hidden · ^D dirs · esc quit"
	hintW := runewidth.StringWidth(hints)
	if w-hintW > x+1 {
		drawText(p.screen, w-hintW, y, hintW, hints, statusStyle)
	}
}

func (p *Panel) statusText() string {
	if p.status != "" {
		return p.status
	}
	if p.searching {
		return "searching…"
	}
	if !p.hasQuery {
		return fmt.Sprintf("search in %s", p.baseDir)
	}

	var b strings.Builder
	n := len(p.results.Matches)
	if n == 1 {
		b.WriteString("1 result")
	} else {
		fmt.Fprintf(&b, "%d results", n)
	}
	if p.results.Truncated {
		b.WriteString(" (truncated)")
	}
	if p.results.TimedOut {
		b.WriteString(" (timed out)")
	}
	if p.showHidden {
		b.WriteString(" [hidden]")
	}
	if p.dirsOnly {
		b.WriteString(" [dirs]")
	}
	return b.String()
}

// drawText writes text at (x, y) clipped to maxWidth cells and returns
// the x position after the last cell written.
func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) int {
	if maxWidth <= 0 {
		return x
	}
	limit := x + maxWidth
	for _, ru := range text {
		width := runewidth.RuneWidth(ru)
		if width < 1 {
			continue
		}
		if x+width > limit {
			break
		}
		screen.SetContent(x, y, ru, nil, style)
		x += width
	}
	return x
}
