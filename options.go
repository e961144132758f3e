package tamclient

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/opentam/tamclient/session"
	"github.com/opentam/tamclient/transport"
)

// Options are the construction parameters of a Client.
type Options struct {
	// Username and Password are the intranet credentials (required). The
	// password is never echoed in diagnostics.
	Username string
	Password string

	// School is the lowercase institution code embedded in request paths,
	// e.g. "krm" (required).
	School string

	// BaseURL overrides the intranet root, mainly for testing.
	BaseURL string

	// Debug raises diagnostic verbosity. It has no effect on control flow.
	Debug bool

	// Logger receives diagnostics. The zero value discards everything
	// unless Debug is set.
	Logger zerolog.Logger

	// Transport overrides the HTTP collaborator.
	Transport transport.Transport

	// AuthFailureDetector overrides how session expiry is recognized.
	AuthFailureDetector session.AuthFailureDetector

	// RequestTimeout is the default per-call transport timeout, overridable
	// per fetch with WithTimeout. Zero means 20 seconds.
	RequestTimeout time.Duration

	// Now overrides the clock used for date-range defaults, for testing.
	Now func() time.Time
}

// timetableQuery carries the per-call parameters of a timetable fetch.
type timetableQuery struct {
	startDate string
	endDate   string
	userID    int
	timeout   time.Duration
}

// TimetableOption configures one timetable fetch.
type TimetableOption func(*timetableQuery)

// WithStartDate sets the window start as a DD.MM.YY literal. Unset defaults
// to the Monday of the current week.
func WithStartDate(date string) TimetableOption {
	return func(q *timetableQuery) {
		q.startDate = date
	}
}

// WithEndDate sets the window end as a DD.MM.YY literal. Unset defaults to
// the Sunday of the current week.
func WithEndDate(date string) TimetableOption {
	return func(q *timetableQuery) {
		q.endDate = date
	}
}

// WithUserID fetches the timetable of the given person instead of the acting
// user. The intranet performs no authorization check on this parameter; the
// behavior is preserved as observed and may not be a permanent contract.
func WithUserID(userID int) TimetableOption {
	return func(q *timetableQuery) {
		q.userID = userID
	}
}

// WithTimeout sets the per-call transport timeout. Defaults to 20 seconds.
func WithTimeout(timeout time.Duration) TimetableOption {
	return func(q *timetableQuery) {
		q.timeout = timeout
	}
}
