// Package tui is a terminal front end for the student form.
//
// The model mirrors the web page: four inputs, a grid of rows and a status
// line for the last notice. Store calls run as tea.Cmds. While one is in
// flight the controller belongs to that command, so the model ignores any
// key that would touch it until the result arrives.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/student"
)

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

// doneMsg carries the outcome of a controller action back to Update.
type doneMsg struct {
	action string
	notice form.Notice
}

/* ----------------------------------------
	MODEL
---------------------------------------- */

const (
	inputName = iota
	inputClass
	inputBatchYear
	inputMobile
	focusTable
	focusCount
)

var inputLabels = [...]string{
	inputName:      "Student Name",
	inputClass:     "Student Class",
	inputBatchYear: "Batch Year",
	inputMobile:    "Mobile Number",
}

// Model is the bubbletea model for the student form.
type Model struct {
	ctx  context.Context
	ctrl *form.Controller

	inputs []textinput.Model
	table  table.Model
	focus  int

	busy   bool
	notice form.Notice
}

// New builds the model. The grid is loaded by the command Init returns, so
// the model starts busy.
func New(ctx context.Context, ctrl *form.Controller) Model {
	inputs := make([]textinput.Model, len(inputLabels))
	for i, label := range inputLabels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.Prompt = ""
		ti.Width = 30
		inputs[i] = ti
	}
	inputs[inputBatchYear].CharLimit = 4

	t := table.New(
		table.WithColumns(columns()),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		inputs: inputs,
		table:  t,
		busy:   true,
	}
	m.applyFocus()
	return m
}

func columns() []table.Column {
	widths := []int{6, 24, 12, 10, 14}
	cols := make([]table.Column, len(student.Columns))
	for i, title := range student.Columns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

// Init loads the grid.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(form.ActionRead))
}

// Update handles keys and action results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.busy = false
		m.notice = msg.notice
		m.syncRows()
		// A write leaves the controller's fields either as typed (rejected)
		// or cleared (stored), so the inputs follow it. Read doesn't touch them.
		if msg.action != form.ActionRead {
			m.syncInputs()
		}
		return m, nil

	case tea.WindowSizeMsg:
		if h := msg.Height - 16; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % focusCount
			return m, m.applyFocus()
		case "shift+tab":
			m.focus = (m.focus + focusCount - 1) % focusCount
			return m, m.applyFocus()
		case "ctrl+n":
			return m.submit(form.ActionCreate, true)
		case "ctrl+r":
			return m.submit(form.ActionRead, false)
		case "ctrl+u":
			return m.submit(form.ActionUpdate, true)
		case "ctrl+d":
			return m.submit(form.ActionDelete, false)
		case "ctrl+l":
			if !m.busy {
				m.ctrl.Clear()
				m.syncInputs()
				m.notice = form.Notice{}
			}
			return m, nil
		case "enter":
			if m.focus == focusTable {
				if !m.busy {
					m.selectRow()
				}
				return m, nil
			}
			m.focus = (m.focus + 1) % focusCount
			return m, m.applyFocus()
		}
	}

	var cmd tea.Cmd
	if m.focus == focusTable {
		m.table, cmd = m.table.Update(msg)
	} else {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	}
	return m, cmd
}

// submit starts an action unless one is already running. Create and Update
// first copy the inputs into the controller.
func (m Model) submit(action string, withFields bool) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if withFields {
		f, err := m.readFields()
		if err != nil {
			m.notice = form.InputError(err)
			return m, nil
		}
		m.ctrl.SetFields(f)
	}
	m.busy = true
	return m, m.run(action)
}

// run wraps a controller action in a command. The controller must not be
// touched again until its doneMsg arrives.
func (m Model) run(action string) tea.Cmd {
	var fn func(context.Context) form.Notice
	switch action {
	case form.ActionCreate:
		fn = m.ctrl.Create
	case form.ActionUpdate:
		fn = m.ctrl.Update
	case form.ActionDelete:
		fn = m.ctrl.Delete
	default:
		fn = m.ctrl.Read
	}
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{action: action, notice: fn(ctx)}
	}
}

func (m *Model) selectRow() {
	if err := m.ctrl.Select(m.table.SelectedRow()); err != nil {
		m.notice = form.InputError(err)
		return
	}
	m.syncInputs()
	m.notice = form.Notice{}
}

func (m *Model) readFields() (student.Fields, error) {
	year, err := student.ParseBatchYear(strings.TrimSpace(m.inputs[inputBatchYear].Value()))
	if err != nil {
		return student.Fields{}, err
	}
	return student.Fields{
		Name:      strings.TrimSpace(m.inputs[inputName].Value()),
		Class:     strings.TrimSpace(m.inputs[inputClass].Value()),
		BatchYear: year,
		Mobile:    strings.TrimSpace(m.inputs[inputMobile].Value()),
	}, nil
}

// syncInputs shows the controller's fields in the inputs.
func (m *Model) syncInputs() {
	f := m.ctrl.Fields()
	year := ""
	if f.BatchYear != 0 {
		year = strconv.Itoa(f.BatchYear)
	}
	m.inputs[inputName].SetValue(f.Name)
	m.inputs[inputClass].SetValue(f.Class)
	m.inputs[inputBatchYear].SetValue(year)
	m.inputs[inputMobile].SetValue(f.Mobile)
}

// syncRows copies the controller's rows into the table.
func (m *Model) syncRows() {
	records := m.ctrl.Rows()
	rows := make([]table.Row, len(records))
	for i, rec := range records {
		rows[i] = table.Row(rec.Values())
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if m.focus == focusTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
	return cmd
}
