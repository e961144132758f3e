// Package tamclient is a client for the TAM school intranet. It logs in with
// the user's credentials, keeps the session alive across expiry, and exposes
// the intranet's timetable, absence, classmate, teacher and resource data as
// typed entities.
//
// The same pipeline is available with two calling conventions: Client blocks
// the calling goroutine, AsyncClient hands back futures and streams that
// suspend at the transport call.
package tamclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/opentam/tamclient/config"
	"github.com/opentam/tamclient/daterange"
	"github.com/opentam/tamclient/entity"
	"github.com/opentam/tamclient/normalize"
	"github.com/opentam/tamclient/request"
	"github.com/opentam/tamclient/session"
)

// Client is the synchronous facade over the session/request/normalization
// pipeline. A Client is safe for concurrent use.
type Client struct {
	session        *session.Session
	resolver       *daterange.Resolver
	requestTimeout time.Duration
}

// New creates a Client. No network traffic happens until the first call.
func New(opts Options) (*Client, error) {
	sess, err := session.New(session.Config{
		BaseURL:             opts.BaseURL,
		School:              opts.School,
		Username:            opts.Username,
		Password:            opts.Password,
		Transport:           opts.Transport,
		Logger:              opts.Logger,
		Debug:               opts.Debug,
		AuthFailureDetector: opts.AuthFailureDetector,
	})
	if err != nil {
		return nil, err
	}
	var resolverOpts []daterange.Option
	if opts.Now != nil {
		resolverOpts = append(resolverOpts, daterange.WithNow(opts.Now))
	}
	return &Client{
		session:        sess,
		resolver:       daterange.New(resolverOpts...),
		requestTimeout: opts.RequestTimeout,
	}, nil
}

// NewFromConfig creates a Client from an environment-driven configuration.
func NewFromConfig(cfg config.Config) (*Client, error) {
	return New(Options{
		Username:       cfg.Username,
		Password:       cfg.Password,
		School:         cfg.School,
		BaseURL:        cfg.BaseURL,
		Debug:          cfg.Debug,
		RequestTimeout: cfg.RequestTimeout,
	})
}

// UserID returns the acting person id, logging in first when necessary.
func (c *Client) UserID(ctx context.Context) (int, error) {
	if err := c.session.Login(ctx); err != nil {
		return 0, err
	}
	return c.session.UserID(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTimetable fetches the timetable for the resolved date window and yields
// one Lesson per timetable record. The sequence is lazy and single-pass: the
// intranet is contacted on first pull and each record is normalized as it is
// consumed. On an error the sequence yields it once and stops.
func (c *Client) GetTimetable(ctx context.Context, opts ...TimetableOption) iter.Seq2[entity.Lesson, error] {
	var q timetableQuery
	for _, opt := range opts {
		opt(&q)
	}
	return func(yield func(entity.Lesson, error) bool) {
		start, end, err := c.resolver.Resolve(q.startDate, q.endDate)
		if err != nil {
			yield(entity.Lesson{}, err)
			return
		}
		userID := q.userID
		if userID == 0 {
			if err := c.session.Login(ctx); err != nil {
				yield(entity.Lesson{}, err)
				return
			}
			userID = c.session.UserID()
		}

		timeout := q.timeout
		if timeout == 0 {
			timeout = c.requestTimeout
		}
		body, err := c.session.Execute(ctx, request.Timetable(start, end, userID, timeout))
		if err != nil {
			yield(entity.Lesson{}, err)
			return
		}
		records, err := normalize.TimetableEnvelope(body)
		if err != nil {
			yield(entity.Lesson{}, err)
			return
		}
		for _, record := range records {
			lesson, err := normalize.Lesson(record)
			if err != nil {
				yield(entity.Lesson{}, err)
				return
			}
			if !yield(lesson, nil) {
				return
			}
		}
	}
}

// GetAbsences yields the absence records of the acting user.
func (c *Client) GetAbsences(ctx context.Context) iter.Seq2[entity.Absence, error] {
	return gridSequence(c, ctx, request.Absences(), "absence", normalize.Absence)
}

// GetClassMates yields the members of the acting user's class.
func (c *Client) GetClassMates(ctx context.Context) iter.Seq2[entity.ClassMate, error] {
	return gridSequence(c, ctx, request.ClassMates(), "classmate", normalize.ClassMate)
}

// GetClassTeachers yields the class teachers visible to the acting user.
func (c *Client) GetClassTeachers(ctx context.Context) iter.Seq2[entity.Teacher, error] {
	return gridSequence(c, ctx, request.ClassTeachers(), "teacher", normalize.Teacher)
}

// gridSequence fetches one intranet list page lazily and yields its rows
// through the given row normalizer.
func gridSequence[T any](c *Client, ctx context.Context, spec request.Spec, entityName string, normalizeRow func(json.RawMessage) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		body, err := c.session.Execute(ctx, spec)
		if err != nil {
			yield(zero, err)
			return
		}
		rows, err := normalize.ExtractGrid(entityName, body)
		if err != nil {
			yield(zero, err)
			return
		}
		for _, row := range rows {
			value, err := normalizeRow(row)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON-SCOPED LOOKUPS
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonAbsenceData fetches the absence data of the acting user for one
// lesson. The plural variant GetLessonAbsenceDataAll mirrors a sequence
// input with a sequence result; this single-lesson form answers with a
// single Absence.
func (c *Client) GetLessonAbsenceData(ctx context.Context, lesson entity.Lesson) (entity.Absence, error) {
	student, err := c.self(ctx)
	if err != nil {
		return entity.Absence{}, err
	}
	body, err := c.session.Execute(ctx, request.LessonAbsence(lesson, student))
	if err != nil {
		return entity.Absence{}, err
	}
	return normalize.LessonAbsence(body)
}

// GetLessonAbsenceDataAll fetches absence data for an ordered sequence of
// lessons and answers in the same order.
func (c *Client) GetLessonAbsenceDataAll(ctx context.Context, lessons []entity.Lesson) ([]entity.Absence, error) {
	absences := make([]entity.Absence, 0, len(lessons))
	for _, lesson := range lessons {
		absence, err := c.GetLessonAbsenceData(ctx, lesson)
		if err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}
	return absences, nil
}

// self resolves the acting user's roster entry into the id/name pair the
// lesson-scoped endpoints expect ("Name,+Vorname").
func (c *Client) self(ctx context.Context) (entity.Student, error) {
	if err := c.session.Login(ctx); err != nil {
		return entity.Student{}, err
	}
	userID := c.session.UserID()
	for mate, err := range c.GetClassMates(ctx) {
		if err != nil {
			return entity.Student{}, err
		}
		if mate.PersonID == userID {
			return entity.Student{
				StudentID:   userID,
				StudentName: mate.Name + ",+" + mate.FirstName,
			}, nil
		}
	}
	return entity.Student{}, fmt.Errorf("no classmate entry for person id %d", userID)
}

// ══════════════════════════════════════════════════════════════════════════════
// HOMEWORK
// ══════════════════════════════════════════════════════════════════════════════

// GetAdditionalHomeworkInfo fetches the homework detail record of a lesson.
func (c *Client) GetAdditionalHomeworkInfo(ctx context.Context, lesson entity.Lesson) (entity.Homework, error) {
	body, err := c.session.Execute(ctx, request.HomeworkInfo(lesson))
	if err != nil {
		return entity.Homework{}, err
	}
	return normalize.Homework(body)
}

// SetHomeworkData writes title and description onto a lesson's homework
// record and returns the updated record. A MissingPermissionError means the
// session is valid but the acting account may not edit this lesson.
func (c *Client) SetHomeworkData(ctx context.Context, lesson entity.Lesson, title, description string) (entity.Homework, error) {
	spec, err := request.SaveHomework(lesson, title, description)
	if err != nil {
		return entity.Homework{}, err
	}
	body, err := c.session.Execute(ctx, spec)
	if err != nil {
		return entity.Homework{}, err
	}
	return normalize.SavedHomework(body, lesson.ID)
}

// DeleteHomeworkInfo clears the homework record of a lesson. The intranet
// has no delete endpoint; an empty write is the observed deletion idiom.
func (c *Client) DeleteHomeworkInfo(ctx context.Context, lesson entity.Lesson) error {
	_, err := c.SetHomeworkData(ctx, lesson, "", "")
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOURCES
// ══════════════════════════════════════════════════════════════════════════════

// GetResources fetches the school's lookup tables in one bundle.
func (c *Client) GetResources(ctx context.Context) (entity.ResourceBundle, error) {
	body, err := c.session.Execute(ctx, request.Resources())
	if err != nil {
		return entity.ResourceBundle{}, err
	}
	return normalize.Resources(body)
}

// GetPersonPicture fetches the profile picture of a person as raw JPEG
// bytes. A personID of zero means the acting user.
func (c *Client) GetPersonPicture(ctx context.Context, personID int) ([]byte, error) {
	if personID == 0 {
		if err := c.session.Login(ctx); err != nil {
			return nil, err
		}
		personID = c.session.UserID()
	}
	body, err := c.session.Execute(ctx, request.PersonPicture(personID))
	if err != nil {
		return nil, err
	}
	picture, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("decode person picture: %w", err)
	}
	return picture, nil
}
