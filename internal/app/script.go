package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/toolbar"
)

// RunScript executes one directive per line from r and writes results to w:
//
//	select B:O[-B:O]   move the selection (anchor-head)
//	dispatch KEY       run a toolbar command
//	type TEXT          insert text at the selection
//	state              print the toolbar state
//	json               print the document as TipTap JSON
//	metrics [KEY]      print dispatch totals and the busiest commands,
//	                   or the statistics of one command
//
// Blank lines and lines starting with # are skipped. Failed commands are
// reported in the output; malformed lines stop the script.
func (app *Application) RunScript(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := app.runDirective(text, w); err != nil {
			return &ScriptError{Line: line, Text: text, Err: err}
		}
	}
	return sc.Err()
}

func (app *Application) runDirective(text string, w io.Writer) error {
	verb, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "select":
		sel, err := ParseSelection(arg)
		if err != nil {
			return err
		}
		return app.session.Select(sel)

	case "dispatch":
		if arg == "" {
			return fmt.Errorf("%w: dispatch needs a key", ErrUnknownDirective)
		}
		r := app.toolbar.Dispatch(arg)
		_, err := fmt.Fprintln(w, FormatResult(r))
		return err

	case "type":
		return app.session.Transact(func(tx *document.Tx) error {
			return tx.Focus().InsertText(arg).Err()
		})

	case "state":
		_, err := fmt.Fprintln(w, FormatState(app.toolbar.State()))
		return err

	case "json":
		data, err := app.session.TipTapJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case "metrics":
		m := app.dispatcher.Metrics()
		if m == nil {
			return ErrMetricsDisabled
		}
		_, err := fmt.Fprint(w, FormatMetrics(m, arg))
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownDirective, verb)
}

// ParseSelection parses "B:O" as a cursor or "B:O-B:O" as an
// anchor-head range.
func ParseSelection(s string) (document.Selection, error) {
	from, to, ranged := strings.Cut(s, "-")
	anchor, err := parsePosition(from)
	if err != nil {
		return document.Selection{}, err
	}
	if !ranged {
		return document.Cursor(anchor), nil
	}
	head, err := parsePosition(to)
	if err != nil {
		return document.Selection{}, err
	}
	return document.Range(anchor, head), nil
}

func parsePosition(s string) (document.Position, error) {
	b, o, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return document.Position{}, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	block, err := strconv.Atoi(b)
	if err != nil {
		return document.Position{}, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	offset, err := strconv.Atoi(o)
	if err != nil {
		return document.Position{}, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	return document.Pos(block, offset), nil
}

// FormatResult renders a dispatch result on one line.
func FormatResult(r dispatcher.Result) string {
	if r.Error != nil {
		return fmt.Sprintf("dispatch %s: %s: %v", r.Key, r.Status, r.Error)
	}
	return fmt.Sprintf("dispatch %s: %s", r.Key, r.Status)
}

// FormatState renders toolbar state on one line. Active buttons carry a
// trailing asterisk.
func FormatState(st toolbar.State) string {
	active := st.ActiveKey()
	if active == "" {
		active = "-"
	}

	buttons := make([]string, 0, len(st.Buttons))
	for _, b := range st.Buttons {
		switch {
		case b.Key == catalog.Separator:
			buttons = append(buttons, catalog.Separator)
		case b.Active:
			buttons = append(buttons, b.Key+"*")
		default:
			buttons = append(buttons, b.Key)
		}
	}

	return fmt.Sprintf("active=%s icon=%s label=%q buttons=[%s]",
		active, st.Icon, st.Label, strings.Join(buttons, " "))
}

// topCommandCount bounds the per-command lines of FormatMetrics.
const topCommandCount = 5

// FormatMetrics renders dispatch totals followed by the busiest commands.
// With a key, only that command's line is rendered.
func FormatMetrics(m *dispatcher.Metrics, key string) string {
	var sb strings.Builder
	if key != "" {
		cm := m.CommandStats(key)
		if cm == nil {
			cm = &dispatcher.CommandMetrics{Key: key}
		}
		writeCommandMetrics(&sb, cm)
		return sb.String()
	}

	snap := m.Snapshot()
	fmt.Fprintf(&sb, "metrics: dispatches=%d errors=%d cancelled=%d panics=%d commands=%d\n",
		snap.TotalDispatches, snap.TotalErrors, snap.TotalCancelled, snap.TotalPanics, snap.CommandCount)
	for _, cm := range m.TopCommands(topCommandCount) {
		writeCommandMetrics(&sb, cm)
	}
	return sb.String()
}

func writeCommandMetrics(sb *strings.Builder, cm *dispatcher.CommandMetrics) {
	fmt.Fprintf(sb, "  %s: dispatches=%d errors=%d (%.1f%%) noops=%d panics=%d\n",
		cm.Key, cm.DispatchCount, cm.ErrorCount, cm.ErrorRate(), cm.NoOpCount, cm.PanicCount)
}
