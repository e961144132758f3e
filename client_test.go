package tamclient

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentam/tamclient/config"
	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
	"github.com/opentam/tamclient/transport"
)

const loginPageHTML = `<!DOCTYPE html>
<html><body><form method="post">
<input type="hidden" name="hash" value="h4sh">
<input type="password" name="loginpassword">
</form></body></html>`

const classbookHTML = `<html><head><script>var csrfToken='t0k3n';</script></head></html>`

const resourcesJSON = `{"data":{
	"students":[{"personId":4711,"name":"Muster, Jana"}],
	"rooms":[{"roomId":7,"roomName":"Turnhalle"}]
}}`

const timetableJSON = `{"status":1,"data":[
	{"id":4242,"start":"/Date(1633039200000)/","end":"/Date(1633041900000)/",
	 "lessonDate":"2021-10-01","lessonStart":"08:00:00","lessonEnd":"08:45:00",
	 "courseId":315,"courseName":"Sport","classId":12,"className":"4a",
	 "teacherId":55,"teacherFullName":"Muster Max","roomId":7,"roomName":"Turnhalle"},
	{"id":4243,"start":1633042200000,"end":1633044900000,
	 "courseId":316,"courseName":"Mathematik","classId":12,"className":"4a",
	 "teacherId":56,"teacherFullName":"Keller Karla","roomId":8,"roomName":"B12"}
]}`

const classMatesHTML = `<html><script>var o = {gridDataAndConfiguration:` +
	`{"data":{"data":[{"PersonID":4711,"Name":"Muster","Vorname":"Jana","Klasse":"4a"},` +
	`{"PersonID":4712,"Name":"Keller","Vorname":"Ben","Klasse":"4a"}]}}` +
	`,front:{}};</script></html>`

const absencesHTML = `<html><script>var o = {gridDataAndConfiguration:` +
	`{"data":{"data":[{"AbsenceEventID":9001,"Datum":"01.10.2021","Status":"offen"}]}}` +
	`,front:{}};</script></html>`

// testIntranet is a fake intranet with the full login flow and overridable
// data endpoints.
type testIntranet struct {
	server   *httptest.Server
	mux      *http.ServeMux
	homework http.HandlerFunc
}

func newTestIntranet(t *testing.T) *testIntranet {
	t.Helper()
	f := &testIntranet{mux: http.NewServeMux()}

	f.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPageHTML))
	})
	f.mux.HandleFunc("POST /krm/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "session"})
	})
	f.mux.HandleFunc("GET /krm/timetable/classbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(classbookHTML))
	})
	f.mux.HandleFunc("POST /krm/timetable/ajax-get-resources", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resourcesJSON))
	})
	f.mux.HandleFunc("POST /krm/timetable/ajax-get-timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timetableJSON))
	})
	f.mux.HandleFunc("GET /krm/list/index/list/45", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(classMatesHTML))
	})
	f.mux.HandleFunc("GET /krm/list/index/list/112", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(absencesHTML))
	})
	f.mux.HandleFunc("POST /krm/timetable/ajax-get-lesson-students-absence-data", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4711", r.PostForm.Get("Students[0][studentId]"))
		assert.Equal(t, "Muster,+Jana", r.PostForm.Get("Students[0][studentName]"))
		w.Write([]byte(`{"data":{"AbsenceEventID":9001,"Status":"offen","PersonID":4711}}`))
	})
	f.mux.HandleFunc("POST /krm/timetable/ajax-save-lesson-home-work-data", func(w http.ResponseWriter, r *http.Request) {
		if f.homework != nil {
			f.homework(w, r)
			return
		}
		w.Write([]byte(`{"data":{"id":12,"timetableId":4242,"title":"Neu"}}`))
	})
	f.mux.HandleFunc("POST /krm/timetable/ajax-get-lesson-home-work-data", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":12,"timetableId":4242,"title":"Seite 42","description":"Aufgaben"}}`))
	})
	f.mux.HandleFunc("POST /krm/list/get-person-picture", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))))
	})

	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *testIntranet) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(Options{
		Username: "jana.muster",
		Password: "secret",
		School:   "krm",
		BaseURL:  f.server.URL + "/",
		Now:      func() time.Time { return time.Date(2021, 10, 1, 12, 0, 0, 0, time.Local) },
	})
	require.NoError(t, err)
	return c
}

func collect[T any](t *testing.T, seq func(func(T, error) bool)) []T {
	t.Helper()
	var out []T
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestGetTimetable(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	lessons := collect(t, c.GetTimetable(context.Background()))
	require.Len(t, lessons, 2)

	assert.Equal(t, 4242, lessons[0].ID)
	assert.Equal(t, "Sport", lessons[0].CourseName)
	assert.Equal(t, []int{12}, lessons[0].ClassID)
	assert.Equal(t, "2021-10-01", lessons[0].LessonDate)

	// The second record has no literal calendar fields; they derive from
	// the absolute instants.
	assert.Equal(t, time.UnixMilli(1633042200000).Format("15:04:05"), lessons[1].LessonStart)
	assert.Equal(t, 45, lessons[1].LessonDuration)
}

func TestGetTimetableMalformedDateStopsBeforeTransport(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	var count int
	for _, err := range c.GetTimetable(context.Background(), WithStartDate("bogus")) {
		count++
		require.Error(t, err)
		assert.True(t, errors.Is(err, tamerrors.ErrMalformedDate))
	}
	assert.Equal(t, 1, count)
}

func TestGetClassMates(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	mates := collect(t, c.GetClassMates(context.Background()))
	require.Len(t, mates, 2)
	assert.Equal(t, "Muster", mates[0].Name)
	assert.Equal(t, 4712, mates[1].PersonID)
}

func TestGetAbsences(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	absences := collect(t, c.GetAbsences(context.Background()))
	require.Len(t, absences, 1)
	assert.Equal(t, 9001, absences[0].AbsenceEventID)
	assert.Equal(t, "offen", absences[0].Status)
}

func TestGetLessonAbsenceData(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	lesson := entity.Lesson{ID: 4242, CourseID: 315, LessonDate: "2021-10-01"}
	absence, err := c.GetLessonAbsenceData(context.Background(), lesson)
	require.NoError(t, err)
	assert.Equal(t, 9001, absence.AbsenceEventID)
	assert.Equal(t, 4711, absence.PersonID)
}

func TestGetLessonAbsenceDataAllPreservesOrder(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	lessons := []entity.Lesson{{ID: 1}, {ID: 2}, {ID: 3}}
	absences, err := c.GetLessonAbsenceDataAll(context.Background(), lessons)
	require.NoError(t, err)
	assert.Len(t, absences, len(lessons))
}

func TestSetHomeworkData(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	lesson := entity.Lesson{ID: 4242, ClassID: []int{12}}
	hw, err := c.SetHomeworkData(context.Background(), lesson, "Neu", "Beschreibung")
	require.NoError(t, err)
	assert.Equal(t, "Neu", hw.Title)
	assert.Equal(t, 4242, hw.TimetableID)
}

func TestSetHomeworkDataMissingPermission(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)
	f.homework = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}

	lesson := entity.Lesson{ID: 4242, ClassID: []int{12}}
	_, err := c.SetHomeworkData(context.Background(), lesson, "Neu", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrMissingPermission))
	assert.False(t, errors.Is(err, tamerrors.ErrAuthentication))
}

func TestDeleteHomeworkInfoWritesEmptyRecord(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	var gotTitle, gotDescription string
	f.homework = func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTitle = r.PostForm.Get("homeWorkData[title]")
		gotDescription = r.PostForm.Get("homeWorkData[description]")
		w.Write([]byte(`{"data":{"id":12,"timetableId":4242}}`))
	}

	lesson := entity.Lesson{ID: 4242, ClassID: []int{12}}
	require.NoError(t, c.DeleteHomeworkInfo(context.Background(), lesson))
	assert.Empty(t, gotTitle)
	assert.Empty(t, gotDescription)
}

func TestGetAdditionalHomeworkInfo(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	hw, err := c.GetAdditionalHomeworkInfo(context.Background(), entity.Lesson{ID: 4242, CourseID: 315})
	require.NoError(t, err)
	assert.Equal(t, "Seite 42", hw.Title)
}

func TestGetResources(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	bundle, err := c.GetResources(context.Background())
	require.NoError(t, err)
	require.Len(t, bundle.Students, 1)
	assert.Equal(t, 4711, bundle.Students[0].PersonID)
	require.Len(t, bundle.Rooms, 1)
	assert.Equal(t, "Turnhalle", bundle.Rooms[0].RoomName)
}

func TestGetPersonPicture(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	picture, err := c.GetPersonPicture(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), picture)
}

// deadlineRecorder captures the context deadline of timetable calls passing
// through the transport.
type deadlineRecorder struct {
	inner transport.Transport

	mu       sync.Mutex
	deadline time.Time
}

func (d *deadlineRecorder) Do(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Path, "ajax-get-timetable") {
		if deadline, ok := req.Context().Deadline(); ok {
			d.mu.Lock()
			d.deadline = deadline
			d.mu.Unlock()
		}
	}
	return d.inner.Do(req)
}

func (d *deadlineRecorder) timetableDeadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deadline
}

func TestRequestTimeoutOptionReachesTransport(t *testing.T) {
	f := newTestIntranet(t)
	inner, err := transport.NewHTTPTransport()
	require.NoError(t, err)
	rec := &deadlineRecorder{inner: inner}

	c, err := New(Options{
		Username:       "jana.muster",
		Password:       "secret",
		School:         "krm",
		BaseURL:        f.server.URL + "/",
		Transport:      rec,
		RequestTimeout: 5 * time.Minute,
	})
	require.NoError(t, err)

	collect(t, c.GetTimetable(context.Background()))

	// The default would put the deadline about 20 seconds out.
	remaining := time.Until(rec.timetableDeadline())
	assert.Greater(t, remaining, time.Minute)
}

func TestWithTimeoutOverridesRequestTimeout(t *testing.T) {
	f := newTestIntranet(t)
	inner, err := transport.NewHTTPTransport()
	require.NoError(t, err)
	rec := &deadlineRecorder{inner: inner}

	c, err := New(Options{
		Username:       "jana.muster",
		Password:       "secret",
		School:         "krm",
		BaseURL:        f.server.URL + "/",
		Transport:      rec,
		RequestTimeout: 10 * time.Minute,
	})
	require.NoError(t, err)

	collect(t, c.GetTimetable(context.Background(), WithTimeout(2*time.Minute)))

	remaining := time.Until(rec.timetableDeadline())
	assert.Greater(t, remaining, time.Minute)
	assert.Less(t, remaining, 3*time.Minute)
}

func TestNewFromConfigThreadsRequestTimeout(t *testing.T) {
	c, err := NewFromConfig(config.Config{
		Username:       "jana.muster",
		Password:       "secret",
		School:         "krm",
		RequestTimeout: 42 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, c.requestTimeout)
}

func TestUserID(t *testing.T) {
	f := newTestIntranet(t)
	c := f.client(t)

	id, err := c.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4711, id)
}
