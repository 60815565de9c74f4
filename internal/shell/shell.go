// Package shell renders the toolbar and document in a terminal and turns
// key presses into toolbar dispatches and selection moves.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/toolbar"
)

// Screen rows.
const (
	rowButtons = 0
	rowMenu    = 1
	rowDoc     = 3
)

// Shell is an interactive terminal front end for one toolbar.
type Shell struct {
	screen   tcell.Screen
	session  *document.Session
	ctrl     *toolbar.Controller
	bindings map[string]string
	logger   *slog.Logger

	menuOpen  bool
	menuIndex int
	status    string
}

// Option configures a Shell.
type Option func(*Shell)

// WithBindings replaces the key bindings.
func WithBindings(b map[string]string) Option {
	return func(s *Shell) { s.bindings = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = logging.WithComponent(l, "shell") }
}

// New creates a shell on an initialized screen.
func New(screen tcell.Screen, session *document.Session, ctrl *toolbar.Controller, opts ...Option) *Shell {
	s := &Shell{
		screen:   screen,
		session:  session,
		ctrl:     ctrl,
		bindings: DefaultBindings,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run draws and handles events until the user quits or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	s.Draw()
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok && ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.HandleEvent(ev) {
			return nil
		}
		s.Draw()
	}
}

// Status returns the status line text.
func (s *Shell) Status() string {
	return s.status
}

// MenuOpen reports whether the block-type dropdown is open.
func (s *Shell) MenuOpen() bool {
	return s.menuOpen
}

// HandleEvent applies one event. It returns false when the shell should exit.
func (s *Shell) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventResize:
		s.screen.Sync()
	case *tcell.EventKey:
		return s.handleKey(e)
	}
	return true
}

func (s *Shell) handleKey(ev *tcell.EventKey) bool {
	name := KeyName(ev)

	if s.menuOpen {
		s.handleMenuKey(name)
		return true
	}

	switch name {
	case "Ctrl+Q", "Ctrl+C":
		return false
	case "Ctrl+P", "F2":
		s.openMenu()
		return true
	case "Left", "Right", "Up", "Down", "Home", "End":
		s.move(name, false)
		return true
	case "Shift+Left", "Shift+Right", "Shift+Home", "Shift+End":
		s.move(strings.TrimPrefix(name, "Shift+"), true)
		return true
	case "Backspace":
		s.backspace()
		return true
	case "":
		if ev.Key() == tcell.KeyRune {
			s.insert(string(ev.Rune()))
		}
		return true
	}

	if key, ok := s.bindings[name]; ok {
		s.dispatch(key)
	}
	return true
}

func (s *Shell) dispatch(key string) {
	r := s.ctrl.Dispatch(key)
	label := s.ctrl.Registry().PlainLabel(key)
	if label == "" {
		label = key
	}
	switch r.Status {
	case dispatcher.StatusError:
		s.status = fmt.Sprintf("%s: %v", label, r.Error)
	default:
		s.status = fmt.Sprintf("%s: %s", label, r.Status)
	}
}

// Menu handling.

func (s *Shell) menuEntries() []command.Entry {
	return s.ctrl.State().Entries
}

func (s *Shell) openMenu() {
	st := s.ctrl.State()
	s.menuOpen = true
	s.menuIndex = -1
	for i, e := range st.Entries {
		if e.IsOption() && e.Key() == st.ActiveKey() {
			s.menuIndex = i
			return
		}
	}
	s.stepMenu(1)
}

func (s *Shell) handleMenuKey(name string) {
	switch name {
	case "Esc", "Ctrl+P", "F2":
		s.menuOpen = false
	case "Up":
		s.stepMenu(-1)
	case "Down":
		s.stepMenu(1)
	case "Enter":
		entries := s.menuEntries()
		if s.menuIndex >= 0 && s.menuIndex < len(entries) {
			s.dispatch(entries[s.menuIndex].Key())
		}
		s.menuOpen = false
	}
}

// stepMenu moves to the next option in dir, skipping category labels.
func (s *Shell) stepMenu(dir int) {
	entries := s.menuEntries()
	for i := s.menuIndex + dir; i >= 0 && i < len(entries); i += dir {
		if entries[i].IsOption() {
			s.menuIndex = i
			return
		}
	}
}

// Editing.

func (s *Shell) move(dir string, extend bool) {
	sel := s.session.Selection()
	blocks := s.session.Blocks()
	if len(blocks) == 0 {
		return
	}
	head := sel.Head

	switch dir {
	case "Left":
		if head.Offset > 0 {
			head.Offset--
		} else if head.Block > 0 {
			head = document.Pos(head.Block-1, blocks[head.Block-1].Len())
		}
	case "Right":
		if head.Offset < blocks[head.Block].Len() {
			head.Offset++
		} else if head.Block < len(blocks)-1 {
			head = document.Pos(head.Block+1, 0)
		}
	case "Up":
		if head.Block > 0 {
			head = document.Pos(head.Block-1, min(head.Offset, blocks[head.Block-1].Len()))
		}
	case "Down":
		if head.Block < len(blocks)-1 {
			head = document.Pos(head.Block+1, min(head.Offset, blocks[head.Block+1].Len()))
		}
	case "Home":
		head.Offset = 0
	case "End":
		head.Offset = blocks[head.Block].Len()
	}

	next := document.Cursor(head)
	if extend {
		next = document.Range(sel.Anchor, head)
	}
	if err := s.session.Select(next); err != nil {
		s.logger.Warn("selection move failed", "error", err)
	}
}

func (s *Shell) insert(text string) {
	err := s.session.Transact(func(tx *document.Tx) error {
		return tx.Focus().InsertText(text).Err()
	})
	if err != nil {
		s.status = err.Error()
	}
}

func (s *Shell) backspace() {
	sel := s.session.Selection()
	if sel.Collapsed() {
		p := sel.Head
		switch {
		case p.Offset > 0:
			sel = document.Range(document.Pos(p.Block, p.Offset-1), p)
		case p.Block > 0:
			sel = document.Range(document.Pos(p.Block-1, s.session.Blocks()[p.Block-1].Len()), p)
		default:
			return
		}
	}
	err := s.session.Transact(func(tx *document.Tx) error {
		return tx.Focus().Select(sel).InsertText("").Err()
	})
	if err != nil {
		s.status = err.Error()
	}
}

// Drawing.

// Draw renders the whole screen.
func (s *Shell) Draw() {
	s.screen.Clear()
	width, height := s.screen.Size()
	st := s.ctrl.State()

	s.drawButtons(st, width)
	cx, cy := s.drawDocument(width, height-1)
	if s.menuOpen {
		s.drawMenu(st, width, height-1)
		s.screen.HideCursor()
	} else if cy >= 0 {
		s.screen.ShowCursor(cx, cy)
	}

	clearRow(s.screen, height-1, width)
	drawString(s.screen, 0, height-1, width, s.status, styleStatus)
	s.screen.Show()
}

func (s *Shell) drawButtons(st toolbar.State, width int) {
	reg := s.ctrl.Registry()
	x := 0
	for _, b := range st.Buttons {
		if b.Key == catalog.Separator {
			x = drawString(s.screen, x, rowButtons, width, " │ ", styleDefault)
			continue
		}
		style := styleDefault
		if b.Active {
			style = styleActive
		}
		x = drawString(s.screen, x, rowButtons, width, "["+reg.PlainLabel(b.Key)+"]", style)
		x = drawString(s.screen, x, rowButtons, width, " ", styleDefault)
	}

	drawString(s.screen, 0, rowMenu, width, "Type: "+st.Label+" ▾", styleDefault)
}

func (s *Shell) drawMenu(st toolbar.State, width, maxY int) {
	reg := s.ctrl.Registry()
	menuWidth := 0
	for _, e := range st.Entries {
		menuWidth = max(menuWidth, textWidth(reg.PlainLabel(e.Key()))+4)
	}
	menuWidth = min(menuWidth, width)

	for i, e := range st.Entries {
		y := rowMenu + 1 + i
		if y >= maxY {
			break
		}
		for x := 0; x < menuWidth; x++ {
			s.screen.SetContent(x, y, ' ', nil, styleDefault)
		}

		label := reg.PlainLabel(e.Key())
		style := styleDefault
		switch e.Kind {
		case command.KindCategory:
			style = styleCategory
		case command.KindOption:
			mark := "  "
			if e.Key() == st.ActiveKey() {
				mark = "● "
			}
			label = "  " + mark + label
		}
		if i == s.menuIndex {
			style = styleSelected
		}
		drawString(s.screen, 0, y, menuWidth, label, style)
	}
}

// drawDocument renders one block per row and returns the cursor cell, or
// (-1, -1) when it is off screen.
func (s *Shell) drawDocument(width, maxY int) (int, int) {
	sel := s.session.Selection()
	from, to := sel.From(), sel.To()
	cx, cy := -1, -1
	ordinal := 0

	for bi, b := range s.session.Blocks() {
		y := rowDoc + bi
		if y >= maxY {
			break
		}
		if b.Type == document.BlockOrderedList {
			ordinal++
		} else {
			ordinal = 0
		}

		x := drawString(s.screen, 0, y, width, blockPrefix(b, ordinal), styleCategory)
		offset := 0
		for _, run := range b.Runs {
			for _, r := range run.Text {
				if bi == sel.Head.Block && offset == sel.Head.Offset {
					cx, cy = x, y
				}
				style := runStyle(run.Marks)
				pos := document.Pos(bi, offset)
				if !sel.Collapsed() && pos.Compare(from) >= 0 && pos.Compare(to) < 0 {
					style = style.Reverse(true)
				}
				x = drawString(s.screen, x, y, width, string(r), style)
				offset++
			}
		}
		if bi == sel.Head.Block && cy < 0 {
			cx, cy = x, y
		}
	}
	return cx, cy
}

func blockPrefix(b document.Block, ordinal int) string {
	switch b.Type {
	case document.BlockHeading:
		return strings.Repeat("#", b.Level) + " "
	case document.BlockBlockquote:
		return "> "
	case document.BlockCodeBlock:
		return "` "
	case document.BlockBulletList:
		return "• "
	case document.BlockOrderedList:
		return fmt.Sprintf("%d. ", ordinal)
	}
	return ""
}

func runStyle(m document.MarkSet) tcell.Style {
	return styleDefault.
		Bold(m.Has(document.MarkBold)).
		Italic(m.Has(document.MarkItalic)).
		Underline(m.Has(document.MarkUnderline)).
		StrikeThrough(m.Has(document.MarkStrike)).
		Dim(m.Has(document.MarkCode))
}
