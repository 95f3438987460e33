package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/logging"
	"github.com/JonMunkholm/students/internal/student"
	"github.com/JonMunkholm/students/internal/web/templates"
)

// handleIndex renders the form, the grid and any pending notice.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := s.pageData()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleHealth reports whether the backing store answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.runAction(w, r, true, s.ctrl.Create)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	s.runAction(w, r, false, s.ctrl.Read)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.runAction(w, r, true, s.ctrl.Update)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.runAction(w, r, false, s.ctrl.Delete)
}

// handleClear empties the fields and drops the selection.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ctrl.Clear()
	s.mu.Unlock()

	s.respond(w, r)
}

// handleSelect copies a grid row into the fields.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid student id %q", chi.URLParam(r, "id")), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if err := s.ctrl.SelectID(id); err != nil {
		s.flash = &flash{notice: form.InputError(err)}
	}
	s.mu.Unlock()

	s.respond(w, r)
}

// handleListStudents returns the grid rows as of the last read.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rows := s.ctrl.Rows()
	s.mu.Unlock()

	if rows == nil {
		rows = []student.Record{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// runAction applies the submitted fields (when withFields is set), runs
// the action and shows its notice.
func (s *Server) runAction(w http.ResponseWriter, r *http.Request, withFields bool, action func(context.Context) form.Notice) {
	var (
		fields student.Fields
		values templates.FormValues
		bad    error
	)
	if withFields {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		fields, values, bad = readFields(r)
	}

	s.mu.Lock()
	if withFields {
		s.ctrl.SetFields(fields)
	}
	if bad != nil {
		s.flash = &flash{notice: form.InputError(bad), values: &values}
	} else {
		notice := action(r.Context())
		s.flash = &flash{notice: notice}
	}
	s.mu.Unlock()

	s.respond(w, r)
}

// respond redirects plain form posts back to the page, and renders the
// body in place for HTMX requests.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.mu.Lock()
	data := s.pageData()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Body(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render body", "error", err)
	}
}

// pageData snapshots controller state and consumes the flash.
// Callers hold mu.
func (s *Server) pageData() templates.PageData {
	id, selected := s.ctrl.Selected()
	data := templates.PageData{
		Rows:        s.ctrl.Rows(),
		Values:      templates.ValuesFromFields(s.ctrl.Fields()),
		SelectedID:  id,
		HasSelected: selected,
	}
	if s.flash != nil {
		data.Notice = s.flash.notice
		if s.flash.values != nil {
			data.Values = *s.flash.values
		}
		s.flash = nil
	}
	return data
}

// readFields reads the four inputs. A batch year that isn't a number is
// returned as an error alongside the raw values so they can be shown again.
func readFields(r *http.Request) (student.Fields, templates.FormValues, error) {
	values := templates.FormValues{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		Class:     strings.TrimSpace(r.PostFormValue("class")),
		BatchYear: strings.TrimSpace(r.PostFormValue("batch_year")),
		Mobile:    strings.TrimSpace(r.PostFormValue("mobile")),
	}

	year, err := student.ParseBatchYear(values.BatchYear)
	fields := student.Fields{
		Name:      values.Name,
		Class:     values.Class,
		BatchYear: year,
		Mobile:    values.Mobile,
	}
	return fields, values, err
}
