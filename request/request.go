// Package request composes transport-ready request descriptors for each
// logical intranet operation. Builders are pure: they perform no I/O and
// know nothing about the session artifact. The session layer attaches the
// CSRF token to descriptors that ask for it.
package request

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
	"github.com/opentam/tamclient/transport"
)

// Spec describes one intranet call. Path is relative to the school base URL
// ("https://intranet.tam.ch/<school>/").
type Spec struct {
	// Name is the logical endpoint name, used in diagnostics and errors.
	Name string

	Method string
	Path   string

	// Form is the urlencoded body for POST requests.
	Form url.Values

	// XHR marks endpoints that expect the X-Requested-With header.
	XHR bool

	// NeedsCSRF marks endpoints that expect the session CSRF token in the
	// form body.
	NeedsCSRF bool

	// Timeout is the per-call transport timeout.
	Timeout time.Duration
}

// List page ids of the intranet's generic list controller.
const (
	absencesListID   = "112"
	classMatesListID = "45"
	teachersListID   = "46"
)

// resourcePeriodID selects the current school period on the resources
// endpoint. The intranet ignores stale period ids and answers with the
// active one.
const resourcePeriodID = "75"

// Timetable builds the timetable query. The intranet expects the window as
// unix-millisecond strings; zero userID means the acting user and is filled
// in by the session layer's resolved person id before building.
func Timetable(start, end time.Time, userID int, timeout time.Duration) Spec {
	form := url.Values{
		"startDate":    {epochMillis(start)},
		"endDate":      {epochMillis(end)},
		"studentId[]":  {strconv.Itoa(userID)},
		"holidaysOnly": {"0"},
	}
	return Spec{
		Name:    "ajax-get-timetable",
		Method:  http.MethodPost,
		Path:    "timetable/ajax-get-timetable",
		Form:    form,
		XHR:     true,
		Timeout: normalizeTimeout(timeout),
	}
}

// Absences builds the absence list fetch.
func Absences() Spec {
	return listPage("absence-list", absencesListID)
}

// ClassMates builds the classmate list fetch.
func ClassMates() Spec {
	return listPage("classmate-list", classMatesListID)
}

// ClassTeachers builds the class-teacher list fetch.
func ClassTeachers() Spec {
	return listPage("teacher-list", teachersListID)
}

// Resources builds the generic resource fetch.
func Resources() Spec {
	return Spec{
		Name:   "ajax-get-resources",
		Method: http.MethodPost,
		Path:   "timetable/ajax-get-resources",
		Form: url.Values{
			"periodId": {resourcePeriodID},
		},
		XHR:       true,
		NeedsCSRF: true,
		Timeout:   transport.DefaultTimeout,
	}
}

// LessonAbsence builds the lesson-scoped absence lookup. The lesson's own
// calendar fields are echoed back verbatim; the student is identified by id
// and by the intranet's "Name,+Vorname" form.
func LessonAbsence(lesson entity.Lesson, student entity.Student) Spec {
	return Spec{
		Name:   "ajax-get-lesson-students-absence-data",
		Method: http.MethodPost,
		Path:   "timetable/ajax-get-lesson-students-absence-data",
		Form: url.Values{
			"timetableId":              {strconv.Itoa(lesson.ID)},
			"CourseId":                 {strconv.Itoa(lesson.CourseID)},
			"Date":                     {lesson.LessonDate},
			"StartTime":                {lesson.LessonStart},
			"EndTime":                  {lesson.LessonEnd},
			"Students[0][studentId]":   {strconv.Itoa(student.StudentID)},
			"Students[0][studentName]": {student.StudentName},
		},
		XHR:       true,
		NeedsCSRF: true,
		Timeout:   transport.DefaultTimeout,
	}
}

// HomeworkInfo builds the homework detail fetch for a lesson.
func HomeworkInfo(lesson entity.Lesson) Spec {
	return Spec{
		Name:   "ajax-get-lesson-home-work-data",
		Method: http.MethodPost,
		Path:   "timetable/ajax-get-lesson-home-work-data",
		Form: url.Values{
			"timetableClassBookId": {strconv.Itoa(lesson.CourseID)},
		},
		XHR:       true,
		NeedsCSRF: true,
		Timeout:   transport.DefaultTimeout,
	}
}

// SaveHomework builds the homework write. The write target is echoed as the
// lesson id plus the lesson's first class id; a lesson without class ids
// cannot address the classbook record.
func SaveHomework(lesson entity.Lesson, title, description string) (Spec, error) {
	if len(lesson.ClassID) == 0 {
		return Spec{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: "classId"}
	}
	return Spec{
		Name:   "ajax-save-lesson-home-work-data",
		Method: http.MethodPost,
		Path:   "timetable/ajax-save-lesson-home-work-data",
		Form: url.Values{
			"timetableClassBookId":      {strconv.Itoa(lesson.ClassID[0])},
			"timetableId":               {strconv.Itoa(lesson.ID)},
			"homeWorkData[title]":       {title},
			"homeWorkData[description]": {description},
		},
		XHR:       true,
		NeedsCSRF: true,
		Timeout:   transport.DefaultTimeout,
	}, nil
}

// PersonPicture builds the profile picture fetch.
func PersonPicture(personID int) Spec {
	return Spec{
		Name:   "get-person-picture",
		Method: http.MethodPost,
		Path:   "list/get-person-picture",
		Form: url.Values{
			"person": {strconv.Itoa(personID)},
		},
		XHR:       true,
		NeedsCSRF: true,
		Timeout:   transport.DefaultTimeout,
	}
}

func listPage(name, listID string) Spec {
	return Spec{
		Name:    name,
		Method:  http.MethodGet,
		Path:    "list/index/list/" + listID,
		Timeout: transport.DefaultTimeout,
	}
}

// epochMillis encodes a calendar date the way the timetable endpoint expects
// it: milliseconds since the unix epoch, as a string.
func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func normalizeTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return transport.DefaultTimeout
	}
	return timeout
}
