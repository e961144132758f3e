package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/tamerrors"
)

type homeworkDTO struct {
	ID                 FlexInt `json:"id"`
	TimetableID        FlexInt `json:"timetableId"`
	Title              string  `json:"title"`
	TitleEscaped       string  `json:"titleEscaped"`
	Description        string  `json:"description"`
	DescriptionEscaped string  `json:"descriptionEscaped"`
}

func (dto homeworkDTO) toEntity() entity.Homework {
	return entity.Homework{
		ID:          dto.ID.Int(),
		TimetableID: dto.TimetableID.Int(),
		Title:       Canonical(dto.Title, dto.TitleEscaped),
		Description: Canonical(dto.Description, dto.DescriptionEscaped),
	}
}

// Homework normalizes the homework detail payload of a lesson.
func Homework(body []byte) (entity.Homework, error) {
	record, err := homeworkRecord(body)
	if err != nil {
		return entity.Homework{}, err
	}
	if record == nil {
		// No homework attached to the lesson.
		return entity.Homework{}, nil
	}
	var dto homeworkDTO
	if err := json.Unmarshal(record, &dto); err != nil {
		return entity.Homework{}, &tamerrors.IncompleteResponseError{Entity: "homework", Field: "data"}
	}
	return dto.toEntity(), nil
}

// SavedHomework normalizes the response of a homework write. The intranet
// answers an unauthorized write with an empty data list instead of an error
// status, so that shape maps to MissingPermissionError here.
func SavedHomework(body []byte, timetableID int) (entity.Homework, error) {
	record, err := homeworkRecord(body)
	if err != nil {
		return entity.Homework{}, err
	}
	if record == nil {
		return entity.Homework{}, &tamerrors.MissingPermissionError{Op: "save homework", TimetableID: timetableID}
	}
	var dto homeworkDTO
	if err := json.Unmarshal(record, &dto); err != nil {
		return entity.Homework{}, &tamerrors.IncompleteResponseError{Entity: "homework", Field: "data"}
	}
	return dto.toEntity(), nil
}

// homeworkRecord unwraps the data envelope and resolves the usual
// scalar/list duality. nil means the envelope carried no record.
func homeworkRecord(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &tamerrors.IncompleteResponseError{Entity: "homework", Field: "data"}
	}
	record := bytes.TrimSpace(envelope.Data)
	if len(record) == 0 || bytes.Equal(record, []byte("null")) {
		return nil, nil
	}
	if record[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(record, &list); err != nil {
			return nil, &tamerrors.IncompleteResponseError{Entity: "homework", Field: "data"}
		}
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	}
	return record, nil
}
