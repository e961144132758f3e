package entity

// Absence is one absence record of the acting user. The intranet reports
// absence lists with German column names; the JSON tags in the normalization
// layer keep those keys, the Go fields translate them.
type Absence struct {
	// AbsenceEventID identifies the absence record.
	AbsenceEventID int

	// Course is the course or occasion the absence applies to (Kurs_Anlass).
	Course string

	// Date is the calendar date of the absence (Datum).
	Date string

	// LessonCount is the number of affected lessons (Zeit_Anzahl_Lekt).
	LessonCount string

	// Teacher is the teacher who recorded the absence (Lehrperson).
	Teacher string

	// AbsenceGroup is the absence category (Absenzgruppe).
	AbsenceGroup string

	// Status is the processing state, e.g. whether the absence is excused.
	Status string

	// PersonID is the person the absence belongs to.
	PersonID int
}

// ClassMate is one member of the acting user's class.
type ClassMate struct {
	PersonID  int
	Name      string
	FirstName string
	Class     string
	Email     string
	Mobile    string
	Phone     string

	// ResponsibleSL is the school-management member responsible for the
	// student (zust_SL).
	ResponsibleSL string
}

// Teacher is one class teacher together with the course assignment that made
// them visible to the acting user.
type Teacher struct {
	PersonID  int
	Name      string
	FirstName string
	Address   string
	ZipCity   string
	Email     string
	Phone     string
	CourseID  int
	Course    string
	StartDate string
	EndDate   string
}

// Student is the minimal person record used in lesson-scoped lookups.
type Student struct {
	StudentID   int
	StudentName string
}

// Homework is the homework record attached to a lesson.
type Homework struct {
	ID          int
	TimetableID int
	Title       string
	Description string
}
