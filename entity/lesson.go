// Package entity contains the typed records produced by the normalization
// layer and consumed by callers. All entities are immutable value snapshots:
// the pipeline keeps no reference to a returned entity.
package entity

import "time"

// Lesson is one timetable record. A lesson that is part of a block keeps its
// own record; BlockID and the other Block* sequences link the members.
type Lesson struct {
	// ID is the timetable entry identifier and the target of homework writes.
	ID int

	// TimetableElementID identifies the recurring timetable element behind
	// this concrete lesson.
	TimetableElementID int

	// HolidayID is non-zero when the entry represents a holiday.
	HolidayID int

	// BlockID, BlockTeacherID, BlockClassID and BlockRoomID are parallel
	// ordered sequences of equal length. All four are empty when the lesson
	// is not part of a block.
	BlockID        []int
	BlockTeacherID []int
	BlockClassID   []int
	BlockRoomID    []int

	// Start and End are the absolute instants of the lesson.
	Start time.Time
	End   time.Time

	// LessonDate (YYYY-MM-DD), LessonStart and LessonEnd (HH:MM:SS) are the
	// calendar/time fields the intranet expects to be echoed back on
	// lesson-scoped lookups.
	LessonDate  string
	LessonStart string
	LessonEnd   string

	// LessonDuration is the length of the lesson in minutes.
	LessonDuration int

	CourseID    int
	CourseName  string
	Course      string
	SubjectID   int
	SubjectName string

	// ClassID/ClassName, TeacherID/TeacherAcronym/TeacherFullName,
	// StudentID/Student and RoomID/RoomName are parallel ordered sequences.
	ClassID   []int
	ClassName []string

	TeacherID       []int
	TeacherAcronym  []string
	TeacherFullName []string

	StudentID []int
	Student   []string

	RoomID   []int
	RoomName []string

	// HasHomework, HasExam and IsExamLesson are passed through exactly as the
	// intranet reports them. They are known to be unreliable upstream.
	HasHomework  bool
	HasExam      bool
	IsExamLesson bool
}

// IsBlock reports whether the lesson is part of a block.
func (l Lesson) IsBlock() bool {
	return len(l.BlockID) > 0
}

// IsHoliday reports whether the entry represents a holiday instead of a
// taught lesson.
func (l Lesson) IsHoliday() bool {
	return l.HolidayID != 0
}
