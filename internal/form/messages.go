package form

// messages.go turns action outcomes into user-facing notices.
//
// Known error kinds map directly to a message and code. Anything else is
// matched against technical error patterns (case-insensitive), and falls
// back to ERR000.
//
//	VAL001 - Invalid number: batch year is not a number
//	VAL003 - Required field: a field is empty
//	SEL001 - No selection: update/delete with no row selected
//	DB002  - Duplicate mobile: mobile number already exists
//	DB004  - Connection refused
//	DB005  - Connection reset
//	DB006  - Timeout
//	DB008  - Access denied: bad database credentials
//	DB009  - Unknown database or table: bootstrap has not run
//	ERR000 - Anything else; check the logs for the technical error

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/students/internal/student"
)

// Action names, also used as log fields.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is what the user sees after an action.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`

	// Err is the technical error behind a warning or error notice.
	Err error `json:"-"`
}

// IsZero reports whether the notice is empty (no action has run yet).
func (n Notice) IsZero() bool {
	return n.Level == "" && n.Message == ""
}

// userMessage is a mapped error: what happened, what to do, a support code.
type userMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     userMessage
}

// errorPatterns maps technical error text to messages. First match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: userMessage{
			Message: "Unable to connect to database",
			Action:  "Check the database is running and try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: userMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: userMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: userMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "access denied",
		msg: userMessage{
			Message: "Database rejected the credentials",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB008",
		},
	},
	{
		pattern: "password authentication failed",
		msg: userMessage{
			Message: "Database rejected the credentials",
			Action:  "Check DB_USER and DB_PASSWORD",
			Code:    "DB008",
		},
	},
	{
		pattern: "unknown database",
		msg: userMessage{
			Message: "Database does not exist",
			Action:  "Restart the application to create it",
			Code:    "DB009",
		},
	},
	{
		pattern: "no such table",
		msg: userMessage{
			Message: "Students table does not exist",
			Action:  "Restart the application to create it",
			Code:    "DB009",
		},
	},
	{
		pattern: "does not exist",
		msg: userMessage{
			Message: "Database or table does not exist",
			Action:  "Restart the application to create it",
			Code:    "DB009",
		},
	},
	{
		pattern: "unable to open database file",
		msg: userMessage{
			Message: "Unable to open database file",
			Action:  "Check DB_NAME points to a writable location",
			Code:    "DB004",
		},
	},
}

var defaultMessage = userMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// mapError converts an error to a user message.
func mapError(err error) userMessage {
	switch {
	case err == nil:
		return userMessage{}
	case errors.Is(err, student.ErrValidation):
		return userMessage{
			Message: "Please fill all the fields.",
			Action:  "Name, class, batch year and mobile are all required",
			Code:    "VAL003",
		}
	case errors.Is(err, student.ErrNoSelection):
		return userMessage{
			Message: "Please select a student.",
			Action:  "Click a row in the grid first",
			Code:    "SEL001",
		}
	case errors.Is(err, student.ErrDuplicateMobile):
		return userMessage{
			Message: "Mobile number already exists.",
			Action:  "Use a different mobile number",
			Code:    "DB002",
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "invalid number") {
		return userMessage{
			Message: "Batch year must be a number.",
			Action:  "Enter a year such as 2024",
			Code:    "VAL001",
		}
	}
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// actionVerb fills "Error while ... the student record".
var actionVerb = map[string]string{
	ActionCreate: "creating",
	ActionUpdate: "updating",
	ActionDelete: "deleting",
}

var actionPast = map[string]string{
	ActionCreate: "created",
	ActionUpdate: "updated",
	ActionDelete: "deleted",
}

func success(action string) Notice {
	return Notice{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: fmt.Sprintf("Student record %s successfully.", actionPast[action]),
	}
}

func loaded(n int) Notice {
	msg := fmt.Sprintf("%d student records loaded.", n)
	if n == 1 {
		msg = "1 student record loaded."
	}
	return Notice{
		Level:   LevelInfo,
		Title:   "Students",
		Message: msg,
	}
}

// failure builds the notice for an action that did not complete.
// Input problems are warnings; store problems are errors.
func failure(action string, err error) Notice {
	um := mapError(err)

	switch {
	case errors.Is(err, student.ErrValidation):
		return Notice{Level: LevelWarning, Title: "Error", Message: um.Message, Action: um.Action, Code: um.Code, Err: err}

	case errors.Is(err, student.ErrNoSelection):
		return Notice{
			Level:   LevelWarning,
			Title:   "Warning",
			Message: fmt.Sprintf("Please select a student to %s.", action),
			Action:  um.Action,
			Code:    um.Code,
			Err:     err,
		}
	}

	var msg string
	if action == ActionRead {
		msg = "Error while fetching student records: " + um.Message
	} else {
		msg = fmt.Sprintf("Error while %s the student record: %s", actionVerb[action], um.Message)
	}
	return Notice{Level: LevelError, Title: "Error", Message: msg, Action: um.Action, Code: um.Code, Err: err}
}

// savedNotRefreshed reports a write that was stored but whose grid refresh
// failed. The grid now shows stale rows, so the notice is an error.
func savedNotRefreshed(action string, err error) Notice {
	n := failure(ActionRead, err)
	n.Message = success(action).Message + " " + n.Message
	return n
}

// InputError reports a problem with raw user input (such as a batch year
// that isn't a number) before any action runs.
func InputError(err error) Notice {
	um := mapError(err)
	return Notice{Level: LevelWarning, Title: "Error", Message: um.Message, Action: um.Action, Code: um.Code, Err: err}
}
