package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
)

// ══════════════════════════════════════════════════════════════════════════════
// ABSENCES
// ══════════════════════════════════════════════════════════════════════════════

// absenceDTO mirrors one absence row. The intranet keeps German column names
// on the list endpoints; the JSON tags preserve them.
type absenceDTO struct {
	AbsenceEventID *FlexInt `json:"AbsenceEventID"`
	Course         string   `json:"Kurs_Anlass"`
	Date           string   `json:"Datum"`
	LessonCount    string   `json:"Zeit_Anzahl_Lekt"`
	Teacher        string   `json:"Lehrperson"`
	AbsenceGroup   string   `json:"Absenzgruppe"`
	Status         string   `json:"Status"`
	PersonID       FlexInt  `json:"PersonID"`
}

// Absence normalizes one raw absence row.
func Absence(raw json.RawMessage) (entity.Absence, error) {
	var dto absenceDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return entity.Absence{}, &tamerrors.IncompleteResponseError{Entity: "absence", Field: "AbsenceEventID"}
	}
	if dto.AbsenceEventID == nil {
		return entity.Absence{}, &tamerrors.IncompleteResponseError{Entity: "absence", Field: "AbsenceEventID"}
	}
	return entity.Absence{
		AbsenceEventID: dto.AbsenceEventID.Int(),
		Course:         Unescape(dto.Course),
		Date:           dto.Date,
		LessonCount:    dto.LessonCount,
		Teacher:        Unescape(dto.Teacher),
		AbsenceGroup:   Unescape(dto.AbsenceGroup),
		Status:         Unescape(dto.Status),
		PersonID:       dto.PersonID.Int(),
	}, nil
}

// LessonAbsence normalizes the lesson-scoped absence lookup. The endpoint
// answers with the JSON double-escaped and, depending on the record, either
// a bare object or a data wrapper around it.
func LessonAbsence(body []byte) (entity.Absence, error) {
	blob := bytes.TrimSpace(CollapseBackslashes(body))

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(blob, &wrapper); err != nil {
		return entity.Absence{}, &tamerrors.IncompleteResponseError{Entity: "absence", Field: "data"}
	}
	record := json.RawMessage(blob)
	if len(wrapper.Data) > 0 && !bytes.Equal(bytes.TrimSpace(wrapper.Data), []byte("null")) {
		record = wrapper.Data
	}
	// Scalar/list duality applies to the wrapper as well.
	if trimmed := bytes.TrimSpace(record); len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
			return entity.Absence{}, &tamerrors.IncompleteResponseError{Entity: "absence", Field: "data"}
		}
		record = list[0]
	}
	return Absence(record)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSMATES AND TEACHERS
// ══════════════════════════════════════════════════════════════════════════════

type classMateDTO struct {
	PersonID      *FlexInt `json:"PersonID"`
	Name          string   `json:"Name"`
	FirstName     string   `json:"Vorname"`
	Class         string   `json:"Klasse"`
	Email         string   `json:"EMail"`
	Mobile        string   `json:"Mobile"`
	Phone         string   `json:"Telefon"`
	ResponsibleSL string   `json:"zust_SL"`
}

// ClassMate normalizes one classmate row.
func ClassMate(raw json.RawMessage) (entity.ClassMate, error) {
	var dto classMateDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return entity.ClassMate{}, &tamerrors.IncompleteResponseError{Entity: "classmate", Field: "PersonID"}
	}
	if dto.PersonID == nil {
		return entity.ClassMate{}, &tamerrors.IncompleteResponseError{Entity: "classmate", Field: "PersonID"}
	}
	return entity.ClassMate{
		PersonID:      dto.PersonID.Int(),
		Name:          Unescape(dto.Name),
		FirstName:     Unescape(dto.FirstName),
		Class:         Unescape(dto.Class),
		Email:         dto.Email,
		Mobile:        dto.Mobile,
		Phone:         dto.Phone,
		ResponsibleSL: Unescape(dto.ResponsibleSL),
	}, nil
}

type teacherDTO struct {
	PersonID  *FlexInt `json:"PersonID"`
	Name      string   `json:"Name"`
	FirstName string   `json:"Vorname"`
	Address   string   `json:"Adresse"`
	ZipCity   string   `json:"PLZOrt"`
	Email     string   `json:"Email"`
	Phone     string   `json:"Telefon"`
	CourseID  FlexInt  `json:"CourseID"`
	Course    string   `json:"Kurs"`
	StartDate string   `json:"StartDate"`
	EndDate   string   `json:"EndDate"`
}

// Teacher normalizes one class-teacher row.
func Teacher(raw json.RawMessage) (entity.Teacher, error) {
	var dto teacherDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return entity.Teacher{}, &tamerrors.IncompleteResponseError{Entity: "teacher", Field: "PersonID"}
	}
	if dto.PersonID == nil {
		return entity.Teacher{}, &tamerrors.IncompleteResponseError{Entity: "teacher", Field: "PersonID"}
	}
	return entity.Teacher{
		PersonID:  dto.PersonID.Int(),
		Name:      Unescape(dto.Name),
		FirstName: Unescape(dto.FirstName),
		Address:   Unescape(dto.Address),
		ZipCity:   Unescape(dto.ZipCity),
		Email:     dto.Email,
		Phone:     dto.Phone,
		CourseID:  dto.CourseID.Int(),
		Course:    Unescape(dto.Course),
		StartDate: dto.StartDate,
		EndDate:   dto.EndDate,
	}, nil
}
