package entity

// ResourceBundle is the result of the generic resource fetch. The intranet
// returns every lookup table of the school in one payload; the bundle keeps
// the ordered sub-sequences as delivered.
type ResourceBundle struct {
	Classes   []ClassResource
	Courses   []CourseResource
	Resources []SchoolResource
	Rooms     []RoomResource
	Students  []PersonResource
	Teachers  []TeacherResource
}

// ClassResource is one school class in the resource bundle.
type ClassResource struct {
	ClassID       int
	ClassName     string
	ClassLongName string
	StudentCount  int
}

// CourseResource is one course in the resource bundle.
type CourseResource struct {
	CourseID       int
	CourseName     string
	CourseLongName string
	StudentCount   int
}

// SchoolResource is a bookable school resource (projectors, lab kits, ...).
type SchoolResource struct {
	ResourceID   int
	ResourceName string
	Occupancy    int
}

// RoomResource is one room in the resource bundle.
type RoomResource struct {
	RoomID    int
	RoomName  string
	Occupancy int
}

// PersonResource is one student entry in the resource bundle. Name carries
// the intranet's "lastname, firstname" form used for person matching.
type PersonResource struct {
	PersonID int
	Name     string
}

// TeacherResource is one teacher entry in the resource bundle.
type TeacherResource struct {
	PersonID int
	Acronym  string
	Name     string
}
