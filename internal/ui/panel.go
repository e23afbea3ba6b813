package ui

import (
	"context"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/ffind/internal/config"
	"github.com/kk-code-lab/ffind/internal/query"
	"github.com/kk-code-lab/ffind/internal/search"
)

type panelMode int

const (
	modeInput panelMode = iota
	modeResults
)

type searchOutcome struct {
	token   int
	results search.ResultSet
	err     error
}

// Panel is the interactive full-screen search UI. Queries typed at the
// prompt run through the same grammar as the command line; results are
// navigable and the selected path is returned from Run.
type Panel struct {
	screen    tcell.Screen
	ownScreen bool
	searcher  *search.Searcher
	baseDir   string
	defaults  query.Defaults

	mode       panelMode
	input      []rune
	cursor     int
	results    search.ResultSet
	lastQuery  query.Query
	hasQuery   bool
	selected   int
	scroll     int
	showHidden bool
	dirsOnly   bool
	searching  bool
	status     string

	token    int
	cancel   context.CancelFunc
	resultCh chan searchOutcome
}

// NewPanel creates a panel with its own terminal screen rooted at baseDir.
func NewPanel(baseDir string, cfg *config.Config) (*Panel, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	p := NewPanelWithScreen(screen, baseDir, cfg)
	p.ownScreen = true
	return p, nil
}

// NewPanelWithScreen creates a panel on an existing screen. The caller
// keeps ownership of the screen.
func NewPanelWithScreen(screen tcell.Screen, baseDir string, cfg *config.Config) *Panel {
	return &Panel{
		screen:   screen,
		searcher: search.NewSearcher(),
		baseDir:  baseDir,
		defaults: query.Defaults{
			BaseDir: baseDir,
			Limit:   cfg.Limit,
			Timeout: cfg.Timeout,
		},
		showHidden: cfg.ShowHidden,
		resultCh:   make(chan searchOutcome, 8),
	}
}

// Run drives the event loop until the user selects a result or quits.
// It returns the absolute path of the selection, or "" when the panel
// was dismissed without one.
func (p *Panel) Run() (string, error) {
	if p.ownScreen {
		defer p.screen.Fini()
	}

	eventCh := make(chan tcell.Event, 8)
	quitCh := make(chan struct{})
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-quitCh:
				return
			}
		}
	}()
	defer close(quitCh)
	defer p.cancelSearch()

	p.render()

	for {
		select {
		case ev := <-eventCh:
			done, selected := p.handleEvent(ev)
			if done {
				return selected, nil
			}
		case out := <-p.resultCh:
			if !p.acceptOutcome(out) {
				continue
			}
		}
		p.render()
	}
}

// acceptOutcome applies an outcome unless a newer query superseded it.
func (p *Panel) acceptOutcome(out searchOutcome) bool {
	if out.token != p.token {
		return false
	}
	p.applyOutcome(out)
	return true
}

func (p *Panel) applyOutcome(out searchOutcome) {
	p.searching = false
	if out.err != nil {
		p.status = out.err.Error()
		return
	}
	p.results = out.results
	p.selected = 0
	p.scroll = 0
	p.status = ""
	if !p.results.Empty() {
		p.mode = modeResults
	}
}

func (p *Panel) handleEvent(ev tcell.Event) (done bool, selected string) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.screen.Sync()
		p.clampSelection()
		return false, ""
	case *tcell.EventKey:
		return p.handleKey(ev)
	}
	return false, ""
}

func (p *Panel) handleKey(ev *tcell.EventKey) (done bool, selected string) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true, ""
	// Ctrl-H is indistinguishable from backspace on many terminals,
	// so the hidden toggle lives on Ctrl-R instead.
	case tcell.KeyCtrlR:
		p.toggleHidden()
		return false, ""
	case tcell.KeyCtrlD:
		p.toggleDirsOnly()
		return false, ""
	}

	if p.mode == modeResults {
		return p.handleResultsKey(ev)
	}
	return p.handleInputKey(ev)
}

func (p *Panel) handleInputKey(ev *tcell.EventKey) (done bool, selected string) {
	switch ev.Key() {
	case tcell.KeyEscape:
		return true, ""
	case tcell.KeyEnter:
		p.submit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if p.cursor > 0 {
			p.input = append(p.input[:p.cursor-1], p.input[p.cursor:]...)
			p.cursor--
		}
	case tcell.KeyDelete:
		if p.cursor < len(p.input) {
			p.input = append(p.input[:p.cursor], p.input[p.cursor+1:]...)
		}
	case tcell.KeyLeft:
		if p.cursor > 0 {
			p.cursor--
		}
	case tcell.KeyRight:
		if p.cursor < len(p.input) {
			p.cursor++
		}
	case tcell.KeyHome, tcell.KeyCtrlA:
		p.cursor = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		p.cursor = len(p.input)
	case tcell.KeyCtrlU:
		p.input = p.input[:0]
		p.cursor = 0
	case tcell.KeyDown, tcell.KeyTab:
		if !p.results.Empty() {
			p.mode = modeResults
		}
	case tcell.KeyRune:
		p.input = append(p.input[:p.cursor], append([]rune{ev.Rune()}, p.input[p.cursor:]...)...)
		p.cursor++
	}
	return false, ""
}

func (p *Panel) handleResultsKey(ev *tcell.EventKey) (done bool, selected string) {
	switch ev.Key() {
	case tcell.KeyEscape:
		p.mode = modeInput
		return false, ""
	case tcell.KeyEnter:
		if match, ok := p.currentMatch(); ok {
			return true, match.Entry.FullPath
		}
		return false, ""
	case tcell.KeyUp, tcell.KeyBacktab:
		p.moveSelection(-1)
		return false, ""
	case tcell.KeyDown, tcell.KeyTab:
		p.moveSelection(1)
		return false, ""
	case tcell.KeyPgUp:
		p.moveSelection(-p.visibleRows())
		return false, ""
	case tcell.KeyPgDn:
		p.moveSelection(p.visibleRows())
		return false, ""
	case tcell.KeyHome:
		p.selected = 0
		p.clampSelection()
		return false, ""
	case tcell.KeyEnd:
		p.selected = len(p.results.Matches) - 1
		p.clampSelection()
		return false, ""
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		p.mode = modeInput
		return p.handleInputKey(ev)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k':
			p.moveSelection(-1)
		case 'j':
			p.moveSelection(1)
		default:
			p.mode = modeInput
			return p.handleInputKey(ev)
		}
		return false, ""
	}
	return false, ""
}

func (p *Panel) currentMatch() (search.ScoredMatch, bool) {
	if p.selected < 0 || p.selected >= len(p.results.Matches) {
		return search.ScoredMatch{}, false
	}
	return p.results.Matches[p.selected], true
}

func (p *Panel) moveSelection(delta int) {
	p.selected += delta
	p.clampSelection()
}

func (p *Panel) clampSelection() {
	if p.results.Empty() {
		p.selected = 0
		p.scroll = 0
		return
	}
	if p.selected < 0 {
		p.selected = 0
	} else if p.selected >= len(p.results.Matches) {
		p.selected = len(p.results.Matches) - 1
	}

	visible := p.visibleRows()
	maxScroll := len(p.results.Matches) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.scroll > maxScroll {
		p.scroll = maxScroll
	}
	if p.selected < p.scroll {
		p.scroll = p.selected
	} else if p.selected >= p.scroll+visible {
		p.scroll = p.selected - visible + 1
	}
}

func (p *Panel) visibleRows() int {
	_, h := p.screen.Size()
	rows := h - 2 // prompt and status lines
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (p *Panel) submit() {
	raw := strings.TrimSpace(string(p.input))
	if raw == "" {
		return
	}

	def := p.defaults
	def.IncludeHidden = p.showHidden
	q, err := query.Parse(raw, def)
	if err != nil {
		p.status = err.Error()
		return
	}
	if p.dirsOnly {
		q.Scope = query.ScopeDirectoriesOnly
	}
	p.runQuery(q)
}

func (p *Panel) toggleHidden() {
	p.showHidden = !p.showHidden
	if p.hasQuery {
		q := p.lastQuery
		q.IncludeHidden = p.showHidden
		p.runQuery(q)
	}
}

func (p *Panel) toggleDirsOnly() {
	p.dirsOnly = !p.dirsOnly
	if p.hasQuery {
		q := p.lastQuery
		if p.dirsOnly {
			q.Scope = query.ScopeDirectoriesOnly
		} else {
			q.Scope = query.ScopeAny
		}
		p.runQuery(q)
	}
}

// runQuery starts an asynchronous search, displacing any in-flight one.
// Outcomes carry the token of the query that produced them so the loop
// can discard results that arrive after a newer submission.
func (p *Panel) runQuery(q query.Query) {
	p.cancelSearch()
	p.token++
	token := p.token

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.searching = true
	p.lastQuery = q
	p.hasQuery = true

	go func() {
		rs, err := p.searcher.Search(ctx, q)
		select {
		case p.resultCh <- searchOutcome{token: token, results: rs, err: err}:
		case <-ctx.Done():
			// superseded or the panel is gone; nobody wants this outcome
		}
	}()
}

func (p *Panel) cancelSearch() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
