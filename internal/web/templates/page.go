// Package templates holds the templ components for the student form page.
// Edit page.templ; page_templ.go is generated from it.
package templates

//go:generate templ generate

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/student"
)

// FormValues are the input field contents as typed.
// BatchYear stays a string so a bad value can be shown back to the user.
type FormValues struct {
	Name      string
	Class     string
	BatchYear string
	Mobile    string
}

// ValuesFromFields renders controller fields for the inputs.
// A zero batch year shows as an empty input.
func ValuesFromFields(f student.Fields) FormValues {
	v := FormValues{Name: f.Name, Class: f.Class, Mobile: f.Mobile}
	if f.BatchYear != 0 {
		v.BatchYear = strconv.Itoa(f.BatchYear)
	}
	return v
}

// PageData is everything the page shows.
type PageData struct {
	Rows        []student.Record
	Values      FormValues
	SelectedID  int64
	HasSelected bool
	Notice      form.Notice
}

// ErrorAlert renders a request-level error outside any form action.
func ErrorAlert(message, action, code string) templ.Component {
	return NoticeAlert(form.Notice{
		Level:   form.LevelError,
		Title:   "Error",
		Message: message,
		Action:  action,
		Code:    code,
	})
}

func selectPath(id int64) string {
	return "/select/" + strconv.FormatInt(id, 10)
}
