// Package session owns the authentication state of one intranet account and
// executes authenticated calls. The login exchange mirrors the intranet's
// browser flow: scrape the login-form hash, post the credentials, scrape the
// CSRF token from the classbook page, and resolve the acting person id from
// the school resources. Session expiry is detected reactively; an expired
// call is re-logged-in and retried exactly once.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/opentam/tamclient/normalize"
	"github.com/opentam/tamclient/request"
	"github.com/opentam/tamclient/tamerrors"
	"github.com/opentam/tamclient/transport"
)

// DefaultBaseURL is the production intranet root.
const DefaultBaseURL = "https://intranet.tam.ch/"

// csrfTokenPattern matches the token the classbook page assigns to its
// csrfToken variable.
var csrfTokenPattern = regexp.MustCompile(`csrfToken='(\w+)'`)

// AuthFailureDetector decides whether a response means the session is no
// longer authenticated. The intranet does not signal expiry explicitly; it
// either answers 401/403 or serves the login page where JSON was expected.
type AuthFailureDetector func(status int, body []byte) bool

// DefaultAuthFailureDetector is the detection predicate used unless the
// caller overrides it.
func DefaultAuthFailureDetector(status int, body []byte) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return bytes.Contains(body, []byte(`name="loginpassword"`))
}

// Config configures a Session.
type Config struct {
	// BaseURL is the intranet root. Defaults to DefaultBaseURL.
	BaseURL string

	// School is the lowercase institution code embedded in request paths.
	School string

	// Username and Password are the intranet credentials. The password is
	// never logged.
	Username string
	Password string

	// Transport executes the HTTP exchanges. Defaults to an *http.Client
	// with a cookie jar.
	Transport transport.Transport

	// Logger receives diagnostics. Debug raises the verbosity only; it has
	// no effect on control flow.
	Logger zerolog.Logger
	Debug  bool

	// AuthFailureDetector overrides the expiry detection predicate.
	AuthFailureDetector AuthFailureDetector
}

// Session holds the authentication state for one account. A Session is safe
// for concurrent use; independent Sessions share nothing.
type Session struct {
	baseURL    string
	schoolBase string
	school     string
	username   string
	password   string
	transport  transport.Transport
	log        zerolog.Logger
	detect     AuthFailureDetector

	mu         sync.RWMutex
	loggedIn   bool
	generation uint64
	csrfToken  string
	userID     int

	loginGroup singleflight.Group
}

// New creates a Session. No network traffic happens until the first call.
func New(cfg Config) (*Session, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.School == "" {
		return nil, errors.New("session: username, password and school are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	tr := cfg.Transport
	if tr == nil {
		var err error
		tr, err = transport.NewHTTPTransport()
		if err != nil {
			return nil, fmt.Errorf("session: create transport: %w", err)
		}
	}
	detect := cfg.AuthFailureDetector
	if detect == nil {
		detect = DefaultAuthFailureDetector
	}
	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := cfg.Logger.Level(level).With().Str("school", cfg.School).Logger()

	return &Session{
		baseURL:    baseURL,
		schoolBase: baseURL + cfg.School + "/",
		school:     cfg.School,
		username:   cfg.Username,
		password:   cfg.Password,
		transport:  tr,
		log:        log,
		detect:     detect,
	}, nil
}

// Login makes sure an authenticated session exists. Calls share one
// in-flight login exchange. Execute calls this implicitly; it is exposed for
// callers that need the resolved person id before building a request.
func (s *Session) Login(ctx context.Context) error {
	return s.ensureLogin(ctx)
}

// UserID returns the acting person id. Zero before the first login.
func (s *Session) UserID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTE
// ══════════════════════════════════════════════════════════════════════════════

// Execute performs one authenticated call. On a detected authentication
// failure the stored session artifact is invalidated, one re-login is
// performed (shared between concurrent callers) and the call is retried
// exactly once. A second authentication failure is fatal.
func (s *Session) Execute(ctx context.Context, spec request.Spec) ([]byte, error) {
	log := s.log.With().
		Str("request_id", uuid.NewString()).
		Str("endpoint", spec.Name).
		Logger()

	if err := s.ensureLogin(ctx); err != nil {
		return nil, err
	}

	// Read the artifact exactly once for this attempt; a re-login triggered
	// by a concurrent call replaces it atomically without affecting us.
	gen, csrf := s.artifact()
	status, body, err := s.roundTrip(ctx, spec, csrf)
	if err != nil {
		return nil, err
	}
	if !s.detect(status, body) {
		return finish(spec, status, body)
	}

	log.Debug().Int("status", status).Msg("session rejected, re-authenticating")
	if err := s.refresh(ctx, gen); err != nil {
		return nil, err
	}

	_, csrf = s.artifact()
	status, body, err = s.roundTrip(ctx, spec, csrf)
	if err != nil {
		return nil, err
	}
	if s.detect(status, body) {
		return nil, &tamerrors.AuthenticationError{
			Op:  spec.Name,
			Err: &tamerrors.BadStatusError{Endpoint: spec.Name, Status: status},
		}
	}
	return finish(spec, status, body)
}

func finish(spec request.Spec, status int, body []byte) ([]byte, error) {
	if status >= 400 {
		return nil, &tamerrors.BadStatusError{Endpoint: spec.Name, Status: status}
	}
	return body, nil
}

// artifact reads the stored session artifact under the lock.
func (s *Session) artifact() (generation uint64, csrfToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, s.csrfToken
}

// refresh invalidates the artifact of the given generation and logs in
// again. When another call already replaced the artifact the fresh one is
// reused without a redundant login.
func (s *Session) refresh(ctx context.Context, staleGeneration uint64) error {
	s.mu.Lock()
	if s.generation == staleGeneration {
		s.loggedIn = false
	}
	s.mu.Unlock()
	return s.ensureLogin(ctx)
}

// ensureLogin performs the login exchange unless a valid artifact exists.
// Concurrent callers share one in-flight login.
func (s *Session) ensureLogin(ctx context.Context) error {
	s.mu.RLock()
	ok := s.loggedIn
	s.mu.RUnlock()
	if ok {
		return nil
	}
	_, err, _ := s.loginGroup.Do("login", func() (any, error) {
		s.mu.RLock()
		ok := s.loggedIn
		s.mu.RUnlock()
		if ok {
			return nil, nil
		}
		return nil, s.login(ctx)
	})
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN EXCHANGE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Session) login(ctx context.Context) error {
	s.log.Debug().Str("username", s.username).Msg("starting login exchange")

	hash, err := s.fetchLoginHash(ctx)
	if err != nil {
		return &tamerrors.AuthenticationError{Op: "login page", Err: err}
	}

	form := url.Values{
		"hash":          {hash},
		"loginschool":   {s.school},
		"loginuser":     {s.username},
		"loginpassword": {s.password},
	}
	if _, _, err := s.rawPost(ctx, "login", s.schoolBase, form, false); err != nil {
		return &tamerrors.AuthenticationError{Op: "login", Err: err}
	}

	token, err := s.fetchCSRFToken(ctx)
	if err != nil {
		return &tamerrors.AuthenticationError{Op: "csrf", Err: err}
	}

	userID, err := s.resolveUserID(ctx, token)
	if err != nil {
		if errors.Is(err, tamerrors.ErrAuthentication) || errors.Is(err, tamerrors.ErrUserIDNotMatching) {
			return err
		}
		return &tamerrors.AuthenticationError{Op: "resources", Err: err}
	}

	s.mu.Lock()
	s.csrfToken = token
	s.userID = userID
	s.loggedIn = true
	s.generation++
	s.mu.Unlock()

	s.log.Debug().Int("user_id", userID).Msg("login exchange complete")
	return nil
}

// fetchLoginHash scrapes the hidden hash input from the intranet login page.
func (s *Session) fetchLoginHash(ctx context.Context) (string, error) {
	status, body, err := s.rawGet(ctx, "login page", s.baseURL)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", &tamerrors.BadStatusError{Endpoint: "login page", Status: status}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse login page: %w", err)
	}
	hash, ok := doc.Find("input").First().Attr("value")
	if !ok || hash == "" {
		return "", errors.New("login page carries no hash input")
	}
	return hash, nil
}

// fetchCSRFToken scrapes the CSRF token from the classbook page.
func (s *Session) fetchCSRFToken(ctx context.Context) (string, error) {
	status, body, err := s.rawGet(ctx, "classbook", s.schoolBase+"timetable/classbook")
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", &tamerrors.BadStatusError{Endpoint: "classbook", Status: status}
	}
	match := csrfTokenPattern.FindSubmatch(body)
	if match == nil {
		return "", errors.New("classbook page carries no csrf token")
	}
	return string(match[1]), nil
}

// resolveUserID fetches the school resources and matches the login username
// against the student roster. Usernames follow FIRSTNAME.LASTNAME while the
// roster lists "lastname, firstname".
func (s *Session) resolveUserID(ctx context.Context, csrfToken string) (int, error) {
	spec := request.Resources()
	status, body, err := s.roundTrip(ctx, spec, csrfToken)
	if err != nil {
		return 0, err
	}
	if status >= 400 {
		return 0, &tamerrors.BadStatusError{Endpoint: spec.Name, Status: status}
	}
	bundle, err := normalize.Resources(body)
	if err != nil {
		return 0, err
	}

	first, last, found := strings.Cut(s.username, ".")
	if !found {
		return 0, fmt.Errorf("%w: username %q is not FIRSTNAME.LASTNAME", tamerrors.ErrUserIDNotMatching, s.username)
	}
	want := strings.ToLower(strings.TrimSpace(last)) + ", " + strings.ToLower(strings.TrimSpace(first))
	for _, student := range bundle.Students {
		if strings.ToLower(student.Name) == want {
			return student.PersonID, nil
		}
	}
	return 0, fmt.Errorf("%w: no roster entry for %q", tamerrors.ErrUserIDNotMatching, s.username)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP PLUMBING
// ══════════════════════════════════════════════════════════════════════════════

// roundTrip executes one Spec against the school base URL, attaching the
// CSRF token where the descriptor asks for it.
func (s *Session) roundTrip(ctx context.Context, spec request.Spec, csrfToken string) (int, []byte, error) {
	form := make(url.Values, len(spec.Form)+1)
	for key, values := range spec.Form {
		form[key] = values
	}
	if spec.NeedsCSRF {
		form.Set("csrfToken", csrfToken)
	}

	target := s.schoolBase + spec.Path
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = transport.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if spec.Method == http.MethodGet {
		return s.do(ctx, spec.Name, http.MethodGet, target, nil, spec.XHR)
	}
	return s.do(ctx, spec.Name, spec.Method, target, form, spec.XHR)
}

func (s *Session) rawGet(ctx context.Context, name, target string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, transport.DefaultTimeout)
	defer cancel()
	return s.do(ctx, name, http.MethodGet, target, nil, false)
}

func (s *Session) rawPost(ctx context.Context, name, target string, form url.Values, xhr bool) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, transport.DefaultTimeout)
	defer cancel()
	return s.do(ctx, name, http.MethodPost, target, form, xhr)
}

func (s *Session) do(ctx context.Context, name, method, target string, form url.Values, xhr bool) (int, []byte, error) {
	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", name, err)
	}
	req.Header.Set("User-Agent", transport.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	started := time.Now()
	resp, err := s.transport.Do(req)
	if err != nil {
		return 0, nil, transport.WrapError(name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transport.WrapError(name, err)
	}
	s.log.Debug().
		Str("endpoint", name).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("intranet call")
	return resp.StatusCode, body, nil
}
