// Package form holds the state behind the student form: the four editable
// fields, the grid rows as of the last read, and which row is selected.
//
// Display surfaces (the web page, the terminal UI) write user input with
// SetFields, forward grid clicks to Select, and call one of the four
// actions when a button is pressed. Each action runs to completion before
// returning and reports its outcome as a Notice; errors never escape.
package form

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/students/internal/logging"
	"github.com/JonMunkholm/students/internal/student"
)

// Gateway is the record store the controller drives.
// *store.Gateway satisfies it.
type Gateway interface {
	Create(ctx context.Context, f student.Fields) (student.Record, error)
	ReadAll(ctx context.Context) ([]student.Record, error)
	Update(ctx context.Context, id int64, f student.Fields) error
	Delete(ctx context.Context, id int64) error
}

// Phase is a step of the per-action state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseExecuting
	PhaseRefreshing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseExecuting:
		return "executing"
	case PhaseRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to be called on every phase transition.
func WithObserver(fn func(from, to Phase)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// Controller mediates between the displayed grid and fields and the Gateway.
// It is not safe for concurrent use; callers serialize actions.
type Controller struct {
	gw       Gateway
	observer func(from, to Phase)

	fields   student.Fields
	rows     []student.Record
	selected int64
	hasSel   bool
	phase    Phase
}

// NewController creates a Controller with empty fields, no rows and no selection.
func NewController(gw Gateway, opts ...Option) *Controller {
	c := &Controller{gw: gw}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fields returns the current editable values.
func (c *Controller) Fields() student.Fields {
	return c.fields
}

// SetFields replaces the editable values with what the user typed.
// The selection is kept so an edited row can still be updated.
func (c *Controller) SetFields(f student.Fields) {
	c.fields = f
}

// Rows returns the grid rows as of the last successful read.
func (c *Controller) Rows() []student.Record {
	out := make([]student.Record, len(c.rows))
	copy(out, c.rows)
	return out
}

// Selected returns the id of the selected row.
func (c *Controller) Selected() (int64, bool) {
	return c.selected, c.hasSel
}

// Phase returns the current state-machine phase. Between actions it is PhaseIdle.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Select copies a grid row's cells into the fields and remembers its id.
// An empty row is ignored.
func (c *Controller) Select(row []string) error {
	if len(row) == 0 {
		return nil
	}

	rec, err := student.ParseRow(row)
	if err != nil {
		return fmt.Errorf("select row: %w", err)
	}

	c.fields = rec.Fields()
	c.selected = rec.ID
	c.hasSel = true
	return nil
}

// SelectID selects the displayed row with the given id.
func (c *Controller) SelectID(id int64) error {
	for _, rec := range c.rows {
		if rec.ID == id {
			return c.Select(rec.Values())
		}
	}
	return fmt.Errorf("student %d is not in the grid: %w", id, student.ErrNoSelection)
}

// Clear resets the fields to empty and forgets the selection.
func (c *Controller) Clear() {
	c.fields = student.Fields{}
	c.selected = 0
	c.hasSel = false
}

// Validate fails with student.ErrValidation if any field is empty.
func (c *Controller) Validate() error {
	return c.fields.Validate()
}

// RequireSelection fails with student.ErrNoSelection if no row is selected.
func (c *Controller) RequireSelection() error {
	if !c.hasSel {
		return student.ErrNoSelection
	}
	return nil
}

// Create inserts the current fields as a new record.
func (c *Controller) Create(ctx context.Context) Notice {
	logger := logging.WithFields(ctx, "action", ActionCreate)

	c.transition(PhaseValidating)
	if err := c.Validate(); err != nil {
		c.transition(PhaseIdle)
		logger.Debug("validation failed", "error", err)
		return failure(ActionCreate, err)
	}

	c.transition(PhaseExecuting)
	if _, err := c.gw.Create(ctx, c.fields); err != nil {
		c.transition(PhaseIdle)
		logger.Warn("store rejected create", "error", err)
		return failure(ActionCreate, err)
	}

	return c.finish(ctx, ActionCreate)
}

// Read re-reads every record into the grid. There is nothing to validate.
func (c *Controller) Read(ctx context.Context) Notice {
	c.transition(PhaseExecuting)
	records, err := c.gw.ReadAll(ctx)
	if err != nil {
		c.transition(PhaseIdle)
		logging.WithFields(ctx, "action", ActionRead).Warn("read failed", "error", err)
		return failure(ActionRead, err)
	}

	c.transition(PhaseRefreshing)
	c.rows = records
	c.transition(PhaseIdle)
	return loaded(len(c.rows))
}

// Update writes the current fields over the selected record.
func (c *Controller) Update(ctx context.Context) Notice {
	logger := logging.WithFields(ctx, "action", ActionUpdate)

	c.transition(PhaseValidating)
	if err := c.RequireSelection(); err != nil {
		c.transition(PhaseIdle)
		return failure(ActionUpdate, err)
	}
	if err := c.Validate(); err != nil {
		c.transition(PhaseIdle)
		logger.Debug("validation failed", "error", err)
		return failure(ActionUpdate, err)
	}

	c.transition(PhaseExecuting)
	if err := c.gw.Update(ctx, c.selected, c.fields); err != nil {
		c.transition(PhaseIdle)
		logger.Warn("store rejected update", "id", c.selected, "error", err)
		return failure(ActionUpdate, err)
	}

	return c.finish(ctx, ActionUpdate)
}

// Delete removes the selected record.
func (c *Controller) Delete(ctx context.Context) Notice {
	logger := logging.WithFields(ctx, "action", ActionDelete)

	c.transition(PhaseValidating)
	if err := c.RequireSelection(); err != nil {
		c.transition(PhaseIdle)
		return failure(ActionDelete, err)
	}

	c.transition(PhaseExecuting)
	if err := c.gw.Delete(ctx, c.selected); err != nil {
		c.transition(PhaseIdle)
		logger.Warn("store rejected delete", "id", c.selected, "error", err)
		return failure(ActionDelete, err)
	}

	return c.finish(ctx, ActionDelete)
}

// finish runs after a successful write: clear the form, then redisplay.
// The fields are cleared even when the redisplay fails, since the write stands.
func (c *Controller) finish(ctx context.Context, action string) Notice {
	c.Clear()

	c.transition(PhaseRefreshing)
	err := c.refresh(ctx)
	c.transition(PhaseIdle)
	if err != nil {
		logging.WithFields(ctx, "action", action).Warn("refresh after write failed", "error", err)
		return savedNotRefreshed(action, err)
	}
	return success(action)
}

// refresh replaces the grid rows. On failure the old rows stay.
func (c *Controller) refresh(ctx context.Context) error {
	records, err := c.gw.ReadAll(ctx)
	if err != nil {
		return err
	}
	c.rows = records
	return nil
}

func (c *Controller) transition(to Phase) {
	from := c.phase
	c.phase = to
	if c.observer != nil && from != to {
		c.observer(from, to)
	}
}
