package normalize

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIMETABLE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

type timetableEnvelope struct {
	Status *FlexInt          `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// TimetableEnvelope decodes the ajax-get-timetable wrapper and returns the
// raw lesson records. A payload status other than 1 is a backend error.
func TimetableEnvelope(body []byte) ([]json.RawMessage, error) {
	var envelope timetableEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: "timetable", Field: "status"}
	}
	if envelope.Status == nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: "timetable", Field: "status"}
	}
	if envelope.Status.Int() != 1 {
		return nil, &tamerrors.BadStatusError{Endpoint: "ajax-get-timetable", Status: envelope.Status.Int()}
	}
	if envelope.Data == nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: "timetable", Field: "data"}
	}
	return envelope.Data, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// lessonDTO mirrors one raw timetable record. Pointer fields distinguish an
// absent key from a legitimate zero value; the *Escaped twins carry the
// duplicated HTML-escaped variants the intranet emits next to most strings.
type lessonDTO struct {
	ID                 *FlexInt   `json:"id"`
	TimetableElementID FlexInt    `json:"timetableElementId"`
	HolidayID          FlexInt    `json:"holidayId"`
	Start              *EpochTime `json:"start"`
	End                *EpochTime `json:"end"`

	LessonDate     string   `json:"lessonDate"`
	LessonStart    string   `json:"lessonStart"`
	LessonEnd      string   `json:"lessonEnd"`
	LessonDuration *FlexInt `json:"lessonDuration"`

	BlockID        IntList `json:"blockId"`
	BlockTeacherID IntList `json:"blockTeacherId"`
	BlockClassID   IntList `json:"blockClassId"`
	BlockRoomID    IntList `json:"blockRoomId"`

	CourseID           FlexInt `json:"courseId"`
	CourseName         string  `json:"courseName"`
	CourseNameEscaped  string  `json:"courseNameEscaped"`
	Course             string  `json:"course"`
	CourseEscaped      string  `json:"courseEscaped"`
	SubjectID          FlexInt `json:"subjectId"`
	SubjectName        string  `json:"subjectName"`
	SubjectNameEscaped string  `json:"subjectNameEscaped"`

	ClassID   IntList    `json:"classId"`
	ClassName StringList `json:"className"`

	TeacherID       IntList    `json:"teacherId"`
	TeacherAcronym  StringList `json:"teacherAcronym"`
	TeacherFullName StringList `json:"teacherFullName"`

	StudentID IntList    `json:"studentId"`
	Student   StringList `json:"student"`

	RoomID   IntList    `json:"roomId"`
	RoomName StringList `json:"roomName"`

	HasHomework  FlexBool `json:"hasHomework"`
	HasExam      FlexBool `json:"hasExam"`
	IsExamLesson FlexBool `json:"isExamLesson"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Lesson normalizes one raw timetable record into an entity.Lesson. Scalars
// and lists are coerced, escaped duplicates collapsed, block sequences
// checked for parallelism, and the derived calendar fields filled from the
// absolute instants when the record does not carry them.
func Lesson(raw json.RawMessage) (entity.Lesson, error) {
	var dto lessonDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		var malformed *tamerrors.MalformedDateError
		if errors.As(err, &malformed) {
			return entity.Lesson{}, malformed
		}
		return entity.Lesson{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: "id"}
	}
	if dto.ID == nil {
		return entity.Lesson{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: "id"}
	}
	if dto.Start == nil {
		return entity.Lesson{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: "start"}
	}
	if dto.End == nil {
		return entity.Lesson{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: "end"}
	}

	if err := checkParallel("lesson", "classId", len(dto.ClassID), "className", len(dto.ClassName)); err != nil {
		return entity.Lesson{}, err
	}
	if err := checkParallel("lesson", "teacherId", len(dto.TeacherID), "teacherFullName", len(dto.TeacherFullName)); err != nil {
		return entity.Lesson{}, err
	}
	if len(dto.TeacherAcronym) > 0 {
		if err := checkParallel("lesson", "teacherId", len(dto.TeacherID), "teacherAcronym", len(dto.TeacherAcronym)); err != nil {
			return entity.Lesson{}, err
		}
	}
	if err := checkParallel("lesson", "roomId", len(dto.RoomID), "roomName", len(dto.RoomName)); err != nil {
		return entity.Lesson{}, err
	}
	if err := checkParallel("lesson", "studentId", len(dto.StudentID), "student", len(dto.Student)); err != nil {
		return entity.Lesson{}, err
	}

	block, err := normalizeBlock(dto)
	if err != nil {
		return entity.Lesson{}, err
	}

	start := dto.Start.Time
	end := dto.End.Time
	lesson := entity.Lesson{
		ID:                 dto.ID.Int(),
		TimetableElementID: dto.TimetableElementID.Int(),
		HolidayID:          dto.HolidayID.Int(),

		BlockID:        block.id,
		BlockTeacherID: block.teacherID,
		BlockClassID:   block.classID,
		BlockRoomID:    block.roomID,

		Start: start,
		End:   end,

		LessonDate:     orDerived(dto.LessonDate, start, dateLayout),
		LessonStart:    orDerived(dto.LessonStart, start, timeLayout),
		LessonEnd:      orDerived(dto.LessonEnd, end, timeLayout),
		LessonDuration: lessonDuration(dto, start, end),

		CourseID:    dto.CourseID.Int(),
		CourseName:  Canonical(dto.CourseName, dto.CourseNameEscaped),
		Course:      Canonical(dto.Course, dto.CourseEscaped),
		SubjectID:   dto.SubjectID.Int(),
		SubjectName: Canonical(dto.SubjectName, dto.SubjectNameEscaped),

		ClassID:   dto.ClassID.Ints(),
		ClassName: dto.ClassName.Strings(),

		TeacherID:       dto.TeacherID.Ints(),
		TeacherAcronym:  dto.TeacherAcronym.Strings(),
		TeacherFullName: dto.TeacherFullName.Strings(),

		StudentID: dto.StudentID.Ints(),
		Student:   dto.Student.Strings(),

		RoomID:   dto.RoomID.Ints(),
		RoomName: dto.RoomName.Strings(),

		HasHomework:  dto.HasHomework.Bool(),
		HasExam:      dto.HasExam.Bool(),
		IsExamLesson: dto.IsExamLesson.Bool(),
	}
	return lesson, nil
}

type blockSequences struct {
	id        []int
	teacherID []int
	classID   []int
	roomID    []int
}

// normalizeBlock enforces that the four block sequences are parallel: equal
// length for block members, all empty for unblocked lessons. A record with
// no blockId but stray companion values is treated as unblocked.
func normalizeBlock(dto lessonDTO) (blockSequences, error) {
	if len(dto.BlockID) == 0 {
		return blockSequences{}, nil
	}
	n := len(dto.BlockID)
	for _, companion := range []struct {
		field string
		len   int
	}{
		{"blockTeacherId", len(dto.BlockTeacherID)},
		{"blockClassId", len(dto.BlockClassID)},
		{"blockRoomId", len(dto.BlockRoomID)},
	} {
		if companion.len != n {
			return blockSequences{}, &tamerrors.IncompleteResponseError{Entity: "lesson", Field: companion.field}
		}
	}
	return blockSequences{
		id:        dto.BlockID.Ints(),
		teacherID: dto.BlockTeacherID.Ints(),
		classID:   dto.BlockClassID.Ints(),
		roomID:    dto.BlockRoomID.Ints(),
	}, nil
}

func checkParallel(entityName, idField string, idLen int, nameField string, nameLen int) error {
	if idLen == nameLen {
		return nil
	}
	field := nameField
	if nameLen > idLen {
		field = idField
	}
	return &tamerrors.IncompleteResponseError{Entity: entityName, Field: field}
}

func orDerived(value string, instant time.Time, layout string) string {
	if value != "" {
		return value
	}
	if instant.IsZero() {
		return ""
	}
	return instant.Format(layout)
}

func lessonDuration(dto lessonDTO, start, end time.Time) int {
	if dto.LessonDuration != nil {
		return dto.LessonDuration.Int()
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Minutes())
}
