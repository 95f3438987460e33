package form

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/students/internal/student"
)

// fakeGateway is an in-memory store that enforces mobile uniqueness.
type fakeGateway struct {
	records []student.Record
	nextID  int64
	calls   []string

	// failNext makes the named operation fail once with this error.
	failOp  string
	failErr error
}

func (g *fakeGateway) fail(op string) error {
	g.calls = append(g.calls, op)
	if g.failOp == op {
		g.failOp = ""
		return g.failErr
	}
	return nil
}

func (g *fakeGateway) mobileTaken(mobile string, except int64) bool {
	for _, r := range g.records {
		if r.Mobile == mobile && r.ID != except {
			return true
		}
	}
	return false
}

func (g *fakeGateway) Create(_ context.Context, f student.Fields) (student.Record, error) {
	if err := g.fail("create"); err != nil {
		return student.Record{}, err
	}
	if g.mobileTaken(f.Mobile, 0) {
		return student.Record{}, &student.StoreError{Op: "create student", Duplicate: true, Err: errors.New("UNIQUE constraint failed")}
	}
	g.nextID++
	rec := student.Record{ID: g.nextID, Name: f.Name, Class: f.Class, BatchYear: f.BatchYear, Mobile: f.Mobile}
	g.records = append(g.records, rec)
	return rec, nil
}

func (g *fakeGateway) ReadAll(context.Context) ([]student.Record, error) {
	if err := g.fail("read"); err != nil {
		return nil, err
	}
	out := make([]student.Record, len(g.records))
	copy(out, g.records)
	return out, nil
}

func (g *fakeGateway) Update(_ context.Context, id int64, f student.Fields) error {
	if err := g.fail("update"); err != nil {
		return err
	}
	if g.mobileTaken(f.Mobile, id) {
		return &student.StoreError{Op: "update student", Duplicate: true, Err: errors.New("UNIQUE constraint failed")}
	}
	for i := range g.records {
		if g.records[i].ID == id {
			g.records[i] = student.Record{ID: id, Name: f.Name, Class: f.Class, BatchYear: f.BatchYear, Mobile: f.Mobile}
		}
	}
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, id int64) error {
	if err := g.fail("delete"); err != nil {
		return err
	}
	for i := range g.records {
		if g.records[i].ID == id {
			g.records = append(g.records[:i], g.records[i+1:]...)
			break
		}
	}
	return nil
}

var asha = student.Fields{Name: "Asha", Class: "10A", BatchYear: 2024, Mobile: "9998887771"}

var connRefused = &student.StoreError{Op: "read students", Err: errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")}

func TestCreate_Success(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)

	n := c.Create(context.Background())

	if n.Level != LevelSuccess {
		t.Fatalf("Create() notice = %+v, want success", n)
	}
	if n.Message != "Student record created successfully." {
		t.Errorf("Message = %q", n.Message)
	}
	if !c.Fields().IsZero() {
		t.Errorf("fields not cleared: %+v", c.Fields())
	}
	rows := c.Rows()
	if len(rows) != 1 || rows[0].Fields() != asha || rows[0].ID == 0 {
		t.Errorf("Rows() = %+v, want one record matching %+v", rows, asha)
	}
	if !reflect.DeepEqual(gw.calls, []string{"create", "read"}) {
		t.Errorf("gateway calls = %v, want [create read]", gw.calls)
	}
}

func TestCreate_DuplicateMobile(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)
	c.Create(context.Background())

	dup := asha
	dup.Name = "Other"
	c.SetFields(dup)
	n := c.Create(context.Background())

	if n.Level != LevelError || n.Code != "DB002" {
		t.Fatalf("Create() notice = %+v, want error DB002", n)
	}
	if n.Message != "Error while creating the student record: Mobile number already exists." {
		t.Errorf("Message = %q", n.Message)
	}
	if !errors.Is(n.Err, student.ErrDuplicateMobile) {
		t.Errorf("Err = %v, want ErrDuplicateMobile", n.Err)
	}
	if c.Fields() != dup {
		t.Errorf("fields = %+v, want retained %+v", c.Fields(), dup)
	}
	if len(gw.records) != 1 || len(c.Rows()) != 1 {
		t.Errorf("store has %d records, grid %d; want 1 and 1", len(gw.records), len(c.Rows()))
	}
}

func TestCreate_ValidationSkipsStore(t *testing.T) {
	tests := []struct {
		name   string
		fields student.Fields
	}{
		{"empty form", student.Fields{}},
		{"missing name", student.Fields{Class: "10A", BatchYear: 2024, Mobile: "1"}},
		{"blank class", student.Fields{Name: "A", Class: "  ", BatchYear: 2024, Mobile: "1"}},
		{"zero batch year", student.Fields{Name: "A", Class: "10A", Mobile: "1"}},
		{"missing mobile", student.Fields{Name: "A", Class: "10A", BatchYear: 2024}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			c := NewController(gw)
			c.SetFields(tt.fields)

			n := c.Create(context.Background())

			if n.Level != LevelWarning || n.Code != "VAL003" {
				t.Errorf("notice = %+v, want warning VAL003", n)
			}
			if n.Message != "Please fill all the fields." {
				t.Errorf("Message = %q", n.Message)
			}
			if len(gw.calls) != 0 {
				t.Errorf("gateway called: %v", gw.calls)
			}
			if c.Fields() != tt.fields {
				t.Errorf("fields changed to %+v", c.Fields())
			}
		})
	}
}

func TestCreate_StoreFailureKeepsFields(t *testing.T) {
	gw := &fakeGateway{failOp: "create", failErr: connRefused}
	c := NewController(gw)
	c.SetFields(asha)

	n := c.Create(context.Background())

	if n.Level != LevelError || n.Code != "DB004" {
		t.Fatalf("notice = %+v, want error DB004", n)
	}
	if c.Fields() != asha {
		t.Errorf("fields = %+v, want retained", c.Fields())
	}
	if !reflect.DeepEqual(gw.calls, []string{"create"}) {
		t.Errorf("gateway calls = %v, want only create", gw.calls)
	}
}

func TestRead_FailureKeepsGrid(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)
	c.Create(context.Background())
	before := c.Rows()

	gw.records = nil
	gw.failOp, gw.failErr = "read", connRefused
	n := c.Read(context.Background())

	if n.Level != LevelError {
		t.Fatalf("Read() notice = %+v, want error", n)
	}
	if n.Message != "Error while fetching student records: Unable to connect to database" {
		t.Errorf("Message = %q", n.Message)
	}
	if !reflect.DeepEqual(c.Rows(), before) {
		t.Errorf("Rows() = %+v, want last known %+v", c.Rows(), before)
	}
}

func TestRead_Success(t *testing.T) {
	gw := &fakeGateway{records: []student.Record{{ID: 1, Name: "A", Class: "1", BatchYear: 2020, Mobile: "1"}}}
	c := NewController(gw)

	n := c.Read(context.Background())

	if n.Level != LevelInfo || n.Message != "1 student record loaded." {
		t.Errorf("Read() notice = %+v", n)
	}
	if len(c.Rows()) != 1 {
		t.Errorf("Rows() = %+v", c.Rows())
	}
}

func TestUpdate_RequiresSelection(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)

	n := c.Update(context.Background())

	if n.Level != LevelWarning || n.Code != "SEL001" {
		t.Fatalf("notice = %+v, want warning SEL001", n)
	}
	if n.Message != "Please select a student to update." {
		t.Errorf("Message = %q", n.Message)
	}
	if len(gw.calls) != 0 {
		t.Errorf("gateway called: %v", gw.calls)
	}
}

func TestUpdate_ChangesSelectedRecord(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)
	c.Create(context.Background())
	c.SetFields(student.Fields{Name: "Ravi", Class: "10B", BatchYear: 2023, Mobile: "9998887772"})
	c.Create(context.Background())

	first := c.Rows()[0]
	second := c.Rows()[1]
	if err := c.Select(first.Values()); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if c.Fields() != first.Fields() {
		t.Fatalf("Select() fields = %+v, want %+v", c.Fields(), first.Fields())
	}

	edited := c.Fields()
	edited.Class = "11A"
	c.SetFields(edited)
	n := c.Update(context.Background())

	if n.Level != LevelSuccess || n.Message != "Student record updated successfully." {
		t.Fatalf("Update() notice = %+v", n)
	}
	rows := c.Rows()
	if rows[0].ID != first.ID || rows[0].Class != "11A" {
		t.Errorf("updated row = %+v", rows[0])
	}
	if rows[1] != second {
		t.Errorf("other row changed: %+v, want %+v", rows[1], second)
	}
	if _, ok := c.Selected(); ok {
		t.Error("selection should be cleared after update")
	}
}

func TestUpdate_DuplicateMobileIsError(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)
	c.Create(context.Background())
	c.SetFields(student.Fields{Name: "Ravi", Class: "10B", BatchYear: 2023, Mobile: "9998887772"})
	c.Create(context.Background())

	if err := c.SelectID(c.Rows()[1].ID); err != nil {
		t.Fatalf("SelectID() error = %v", err)
	}
	clash := c.Fields()
	clash.Mobile = asha.Mobile
	c.SetFields(clash)
	n := c.Update(context.Background())

	if n.Level != LevelError || n.Code != "DB002" {
		t.Fatalf("Update() notice = %+v, want error DB002", n)
	}
	if c.Fields() != clash {
		t.Errorf("fields = %+v, want retained", c.Fields())
	}
	if _, ok := c.Selected(); !ok {
		t.Error("selection should survive a failed update")
	}
}

func TestDelete_RemovesSelected(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)
	c.Create(context.Background())

	id := c.Rows()[0].ID
	if err := c.SelectID(id); err != nil {
		t.Fatalf("SelectID() error = %v", err)
	}
	n := c.Delete(context.Background())

	if n.Level != LevelSuccess || n.Message != "Student record deleted successfully." {
		t.Fatalf("Delete() notice = %+v", n)
	}
	if len(c.Rows()) != 0 {
		t.Errorf("Rows() = %+v, want empty", c.Rows())
	}

	n = c.Delete(context.Background())
	if n.Code != "SEL001" {
		t.Errorf("second Delete() notice = %+v, want SEL001", n)
	}
}

func TestDelete_StoreFailure(t *testing.T) {
	gw := &fakeGateway{records: []student.Record{{ID: 4, Name: "A", Class: "1", BatchYear: 2020, Mobile: "1"}}}
	c := NewController(gw)
	c.Read(context.Background())
	if err := c.SelectID(4); err != nil {
		t.Fatalf("SelectID() error = %v", err)
	}

	gw.failOp, gw.failErr = "delete", &student.StoreError{Op: "delete student", Err: errors.New("i/o timeout")}
	n := c.Delete(context.Background())

	if n.Level != LevelError || n.Code != "DB006" {
		t.Fatalf("Delete() notice = %+v, want error DB006", n)
	}
	if n.Message != "Error while deleting the student record: Operation timed out" {
		t.Errorf("Message = %q", n.Message)
	}
	if id, ok := c.Selected(); !ok || id != 4 {
		t.Errorf("Selected() = %d, %v; want 4, true", id, ok)
	}
}

func TestRefreshFailureAfterWrite(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw)
	c.SetFields(asha)

	gw.failOp, gw.failErr = "read", connRefused
	n := c.Create(context.Background())

	if n.Level != LevelError || n.Code != "DB004" {
		t.Fatalf("notice = %+v, want refresh error", n)
	}
	want := "Student record created successfully. Error while fetching student records: Unable to connect to database"
	if n.Message != want {
		t.Errorf("Message = %q, want %q", n.Message, want)
	}
	if len(gw.records) != 1 {
		t.Errorf("record should still be stored, got %d", len(gw.records))
	}
	if len(c.Rows()) != 0 {
		t.Errorf("grid should keep last known (empty) rows, got %+v", c.Rows())
	}
	if !c.Fields().IsZero() {
		t.Errorf("fields = %+v, want cleared after the stored write", c.Fields())
	}
}

func TestRefreshFailureAfterUpdateAndDelete(t *testing.T) {
	tests := []struct {
		name   string
		action func(*Controller, context.Context) Notice
		want   string
	}{
		{"update", (*Controller).Update, "Student record updated successfully. Error while fetching student records: Unable to connect to database"},
		{"delete", (*Controller).Delete, "Student record deleted successfully. Error while fetching student records: Unable to connect to database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			c := NewController(gw)
			c.SetFields(asha)
			c.Create(context.Background())
			if err := c.SelectID(1); err != nil {
				t.Fatalf("SelectID: %v", err)
			}

			gw.failOp, gw.failErr = "read", connRefused
			n := tt.action(c, context.Background())

			if n.Level != LevelError || n.Message != tt.want {
				t.Errorf("notice = %+v, want %q", n, tt.want)
			}
			if _, ok := c.Selected(); ok {
				t.Error("selection should be cleared after the stored write")
			}
		})
	}
}

func TestSelectThenClear(t *testing.T) {
	c := NewController(&fakeGateway{})

	if err := c.Select([]string{"7", "Asha", "10A", "2024", "9998887771"}); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if id, ok := c.Selected(); !ok || id != 7 {
		t.Fatalf("Selected() = %d, %v", id, ok)
	}
	if c.Fields() != asha {
		t.Fatalf("Fields() = %+v, want %+v", c.Fields(), asha)
	}

	c.Clear()

	if !c.Fields().IsZero() {
		t.Errorf("Fields() = %+v, want zero", c.Fields())
	}
	if err := c.RequireSelection(); !errors.Is(err, student.ErrNoSelection) {
		t.Errorf("RequireSelection() = %v, want ErrNoSelection", err)
	}
}

func TestSelect_EmptyRowIsNoop(t *testing.T) {
	c := NewController(&fakeGateway{})
	c.SetFields(asha)

	if err := c.Select(nil); err != nil {
		t.Fatalf("Select(nil) error = %v", err)
	}
	if c.Fields() != asha {
		t.Errorf("fields changed: %+v", c.Fields())
	}
	if _, ok := c.Selected(); ok {
		t.Error("empty row should not select")
	}
}

func TestSelect_MalformedRow(t *testing.T) {
	c := NewController(&fakeGateway{})

	if err := c.Select([]string{"x", "A", "B", "2024", "1"}); err == nil {
		t.Error("Select() expected error for non-numeric id")
	}
	if _, ok := c.Selected(); ok {
		t.Error("malformed row should not select")
	}
}

func TestSelectID_NotInGrid(t *testing.T) {
	c := NewController(&fakeGateway{})

	err := c.SelectID(42)
	if !errors.Is(err, student.ErrNoSelection) {
		t.Errorf("SelectID() error = %v, want ErrNoSelection", err)
	}
}

func TestPhaseTransitions(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*Controller, *fakeGateway)
		action func(*Controller) Notice
		want   []Phase
	}{
		{
			name:   "create success",
			setup:  func(c *Controller, _ *fakeGateway) { c.SetFields(asha) },
			action: func(c *Controller) Notice { return c.Create(context.Background()) },
			want:   []Phase{PhaseValidating, PhaseExecuting, PhaseRefreshing, PhaseIdle},
		},
		{
			name:   "create invalid",
			setup:  func(*Controller, *fakeGateway) {},
			action: func(c *Controller) Notice { return c.Create(context.Background()) },
			want:   []Phase{PhaseValidating, PhaseIdle},
		},
		{
			name: "create store failure",
			setup: func(c *Controller, gw *fakeGateway) {
				c.SetFields(asha)
				gw.failOp, gw.failErr = "create", connRefused
			},
			action: func(c *Controller) Notice { return c.Create(context.Background()) },
			want:   []Phase{PhaseValidating, PhaseExecuting, PhaseIdle},
		},
		{
			name:   "read",
			setup:  func(*Controller, *fakeGateway) {},
			action: func(c *Controller) Notice { return c.Read(context.Background()) },
			want:   []Phase{PhaseExecuting, PhaseRefreshing, PhaseIdle},
		},
		{
			name:   "delete without selection",
			setup:  func(*Controller, *fakeGateway) {},
			action: func(c *Controller) Notice { return c.Delete(context.Background()) },
			want:   []Phase{PhaseValidating, PhaseIdle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Phase
			gw := &fakeGateway{}
			c := NewController(gw, WithObserver(func(_, to Phase) { got = append(got, to) }))
			tt.setup(c, gw)

			tt.action(c)

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("transitions = %v, want %v", got, tt.want)
			}
			if c.Phase() != PhaseIdle {
				t.Errorf("Phase() = %v after action, want idle", c.Phase())
			}
		})
	}
}

func TestRowsReturnsCopy(t *testing.T) {
	gw := &fakeGateway{records: []student.Record{{ID: 1, Name: "A", Class: "1", BatchYear: 2020, Mobile: "1"}}}
	c := NewController(gw)
	c.Read(context.Background())

	rows := c.Rows()
	rows[0].Name = "changed"

	if c.Rows()[0].Name != "A" {
		t.Error("Rows() exposed internal slice")
	}
}
