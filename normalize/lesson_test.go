package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentam/tamclient/tamerrors"
)

func TestTimetableEnvelope(t *testing.T) {
	body := []byte(`{"status":1,"data":[{"id":1},{"id":2}]}`)
	records, err := TimetableEnvelope(body)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTimetableEnvelopeBadStatus(t *testing.T) {
	_, err := TimetableEnvelope([]byte(`{"status":0,"data":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrBadStatus))
}

func TestTimetableEnvelopeNotJSON(t *testing.T) {
	_, err := TimetableEnvelope([]byte(`<html>login</html>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrIncompleteResponse))
}

func TestLessonFullRecord(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "4242",
		"timetableElementId": 77,
		"holidayId": 0,
		"start": "/Date(1633039200000)/",
		"end": "/Date(1633041900000)/",
		"lessonDate": "2021-10-01",
		"lessonStart": "08:00:00",
		"lessonEnd": "08:45:00",
		"lessonDuration": "45",
		"courseId": 315,
		"courseName": "",
		"courseNameEscaped": "Sport &amp; Spiel",
		"course": "4a-SP",
		"subjectId": 9,
		"subjectName": "Sport",
		"classId": 12,
		"className": "4a",
		"teacherId": [55, 56],
		"teacherAcronym": ["MM", "KK"],
		"teacherFullName": ["Max Muster", "Karla Keller"],
		"studentId": null,
		"student": null,
		"roomId": "7",
		"roomName": "Turnhalle",
		"hasHomework": "1",
		"hasExam": 0,
		"isExamLesson": false
	}`)

	lesson, err := Lesson(raw)
	require.NoError(t, err)

	assert.Equal(t, 4242, lesson.ID)
	assert.Equal(t, 77, lesson.TimetableElementID)
	assert.True(t, lesson.Start.Equal(time.UnixMilli(1633039200000)))
	assert.True(t, lesson.End.Equal(time.UnixMilli(1633041900000)))
	assert.Equal(t, "2021-10-01", lesson.LessonDate)
	assert.Equal(t, 45, lesson.LessonDuration)

	// Escaped twin collapses into the canonical unescaped value.
	assert.Equal(t, "Sport & Spiel", lesson.CourseName)
	assert.Equal(t, "4a-SP", lesson.Course)

	// Singular scalars become one-element lists.
	assert.Equal(t, []int{12}, lesson.ClassID)
	assert.Equal(t, []string{"4a"}, lesson.ClassName)
	assert.Equal(t, []int{7}, lesson.RoomID)
	assert.Equal(t, []string{"Turnhalle"}, lesson.RoomName)

	assert.Equal(t, []int{55, 56}, lesson.TeacherID)
	assert.Equal(t, []string{"MM", "KK"}, lesson.TeacherAcronym)
	assert.Nil(t, lesson.StudentID)

	assert.True(t, lesson.HasHomework)
	assert.False(t, lesson.HasExam)
	assert.False(t, lesson.IsBlock())
	assert.False(t, lesson.IsHoliday())
}

func TestLessonDerivedCalendarFields(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"start": "/Date(1633039200000)/",
		"end": "/Date(1633041900000)/"
	}`)

	lesson, err := Lesson(raw)
	require.NoError(t, err)

	start := time.UnixMilli(1633039200000)
	end := time.UnixMilli(1633041900000)
	assert.Equal(t, start.Format("2006-01-02"), lesson.LessonDate)
	assert.Equal(t, start.Format("15:04:05"), lesson.LessonStart)
	assert.Equal(t, end.Format("15:04:05"), lesson.LessonEnd)
	assert.Equal(t, 45, lesson.LessonDuration)
}

func TestLessonBlockSequences(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"start": 1633039200000,
		"end": 1633041900000,
		"blockId": [9, 10],
		"blockTeacherId": [55, 55],
		"blockClassId": [12, 12],
		"blockRoomId": [7, 8]
	}`)

	lesson, err := Lesson(raw)
	require.NoError(t, err)
	assert.True(t, lesson.IsBlock())
	assert.Equal(t, []int{9, 10}, lesson.BlockID)
	assert.Equal(t, []int{7, 8}, lesson.BlockRoomID)
}

func TestLessonBlockSequenceMismatch(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"start": 1633039200000,
		"end": 1633041900000,
		"blockId": [9, 10],
		"blockTeacherId": [55],
		"blockClassId": [12, 12],
		"blockRoomId": [7, 8]
	}`)

	_, err := Lesson(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrIncompleteResponse))
	assert.Contains(t, err.Error(), "blockTeacherId")
}

func TestLessonParallelFieldMismatch(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"start": 1633039200000,
		"end": 1633041900000,
		"teacherId": [55, 56],
		"teacherFullName": "Max Muster"
	}`)

	_, err := Lesson(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrIncompleteResponse))
}

func TestLessonMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"id", `{"start": 1, "end": 2}`},
		{"start", `{"id": 1, "end": 2}`},
		{"end", `{"id": 1, "start": 2}`},
	}
	for _, tc := range cases {
		_, err := Lesson(json.RawMessage(tc.raw))
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, tamerrors.ErrIncompleteResponse), tc.name)
		assert.Contains(t, err.Error(), tc.name)
	}
}

func TestLessonMalformedDateSurfaces(t *testing.T) {
	raw := json.RawMessage(`{"id": 1, "start": "/Date(bogus)/", "end": 2}`)
	_, err := Lesson(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tamerrors.ErrMalformedDate))
}

func TestLessonUnknownFieldsTolerated(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 1,
		"start": 1633039200000,
		"end": 1633041900000,
		"someFutureField": {"nested": true}
	}`)
	_, err := Lesson(raw)
	assert.NoError(t, err)
}
