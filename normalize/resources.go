package normalize

import (
	"encoding/json"

	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
)

// resourcesEnvelope mirrors the ajax-get-resources payload. Each sub-list is
// a lookup table of the school; ids switch between numbers and numeric
// strings like everywhere else.
type resourcesEnvelope struct {
	Data *struct {
		Classes []struct {
			ClassID       FlexInt `json:"classId"`
			ClassName     string  `json:"className"`
			ClassLongName string  `json:"classLongName"`
			StudentCount  FlexInt `json:"studentCount"`
		} `json:"classes"`
		Courses []struct {
			CourseID       FlexInt `json:"courseId"`
			CourseName     string  `json:"courseName"`
			CourseLongName string  `json:"courseLongName"`
			StudentCount   FlexInt `json:"studentCount"`
		} `json:"courses"`
		Resources []struct {
			ResourceID   FlexInt `json:"resourceId"`
			ResourceName string  `json:"resourceName"`
			Occupancy    FlexInt `json:"occupancy"`
		} `json:"resources"`
		Rooms []struct {
			RoomID    FlexInt `json:"roomId"`
			RoomName  string  `json:"roomName"`
			Occupancy FlexInt `json:"occupancy"`
		} `json:"rooms"`
		Students []struct {
			PersonID FlexInt `json:"personId"`
			Name     string  `json:"name"`
		} `json:"students"`
		Teachers []struct {
			PersonID FlexInt `json:"personId"`
			Acronym  string  `json:"acronym"`
			Name     string  `json:"name"`
		} `json:"teachers"`
	} `json:"data"`
}

// Resources normalizes the ajax-get-resources payload into a ResourceBundle.
// A body that does not decode as JSON is how the intranet signals a dead
// session on this endpoint, so that case is surfaced as an authentication
// failure rather than an incomplete payload.
func Resources(body []byte) (entity.ResourceBundle, error) {
	var envelope resourcesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return entity.ResourceBundle{}, &tamerrors.AuthenticationError{Op: "resources", Err: err}
	}
	if envelope.Data == nil {
		return entity.ResourceBundle{}, &tamerrors.IncompleteResponseError{Entity: "resources", Field: "data"}
	}

	var bundle entity.ResourceBundle
	for _, c := range envelope.Data.Classes {
		bundle.Classes = append(bundle.Classes, entity.ClassResource{
			ClassID:       c.ClassID.Int(),
			ClassName:     Unescape(c.ClassName),
			ClassLongName: Unescape(c.ClassLongName),
			StudentCount:  c.StudentCount.Int(),
		})
	}
	for _, c := range envelope.Data.Courses {
		bundle.Courses = append(bundle.Courses, entity.CourseResource{
			CourseID:       c.CourseID.Int(),
			CourseName:     Unescape(c.CourseName),
			CourseLongName: Unescape(c.CourseLongName),
			StudentCount:   c.StudentCount.Int(),
		})
	}
	for _, r := range envelope.Data.Resources {
		bundle.Resources = append(bundle.Resources, entity.SchoolResource{
			ResourceID:   r.ResourceID.Int(),
			ResourceName: Unescape(r.ResourceName),
			Occupancy:    r.Occupancy.Int(),
		})
	}
	for _, r := range envelope.Data.Rooms {
		bundle.Rooms = append(bundle.Rooms, entity.RoomResource{
			RoomID:    r.RoomID.Int(),
			RoomName:  Unescape(r.RoomName),
			Occupancy: r.Occupancy.Int(),
		})
	}
	for _, s := range envelope.Data.Students {
		bundle.Students = append(bundle.Students, entity.PersonResource{
			PersonID: s.PersonID.Int(),
			Name:     Unescape(s.Name),
		})
	}
	for _, t := range envelope.Data.Teachers {
		bundle.Teachers = append(bundle.Teachers, entity.TeacherResource{
			PersonID: t.PersonID.Int(),
			Acronym:  Unescape(t.Acronym),
			Name:     Unescape(t.Name),
		})
	}
	return bundle, nil
}
