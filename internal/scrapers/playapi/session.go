package playapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apkfetch/internal/components/assert"
	"apkfetch/internal/components/telemetry"

	"github.com/avast/retry-go/v4"
)

var (
	// ErrAuthFailed is returned by API.Login when the account credentials are rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrMissingCredential means Initialize was called without an email, password or device id.
	ErrMissingCredential = errors.New("missing credential")
	// ErrNotInitialized means the session was used before Initialize succeeded.
	ErrNotInitialized = errors.New("session not initialized, call Initialize first")
	// ErrInvalidPolicy means the login policy cannot make a single attempt.
	ErrInvalidPolicy = errors.New("invalid login policy")
)

const (
	report_session_login    = "session.login"
	report_session_details  = "session.details"
	report_session_download = "session.download"
)

type Credentials struct {
	Email    string
	Password string
	// DeviceId is the Google Services Framework id of the device the account is registered to.
	DeviceId string
}

// API is the private storefront api, it is an external collaborator that
// this package only orchestrates.
//
// note: fault injection point
type API interface {
	// Login authenticates the account, bad credentials should be reported by
	// wrapping ErrAuthFailed.
	Login(ctx context.Context, creds Credentials) error
	// Details returns the authenticated listing for a package.
	Details(ctx context.Context, packageName string) (map[string]any, error)
	// Download returns the raw apk of a specific version of a package.
	Download(ctx context.Context, packageName string, versionCode int64) ([]byte, error)
}

type LoginPolicy struct {
	MaxAttempts uint
	Cooldown    time.Duration
}

var DefaultLoginPolicy = LoginPolicy{
	MaxAttempts: 3,
	Cooldown:    5 * time.Second,
}

// Session owns an authenticated connection to the private api.
type Session struct {
	api         API
	tel         telemetry.API
	timer       retry.Timer
	initialized bool
}

func NewSession(api API, tel telemetry.API) *Session {
	assert.NotNil(api)
	assert.NotNil(tel)
	return &Session{
		api: api,
		tel: telemetry.NewScopedAPI("playapi", tel),
	}
}

// SetTimer replaces the timer used to wait out login cooldowns.
func (s *Session) SetTimer(timer retry.Timer) {
	s.timer = timer
}

func (s *Session) Initialized() bool {
	return s.initialized
}

// Initialize logs into the api, retrying rejected credentials up to
// policy.MaxAttempts times with policy.Cooldown between attempts. Once it has
// succeeded, further calls do nothing.
func (s *Session) Initialize(ctx context.Context, creds Credentials, policy LoginPolicy) error {
	if s.initialized {
		return nil
	}

	if creds.Email == "" {
		return fmt.Errorf("%w: account email address is required", ErrMissingCredential)
	}
	if creds.Password == "" {
		return fmt.Errorf("%w: account password is required", ErrMissingCredential)
	}
	if creds.DeviceId == "" {
		return fmt.Errorf("%w: device id is required", ErrMissingCredential)
	}
	if policy.MaxAttempts == 0 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidPolicy)
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(policy.MaxAttempts),
		retry.Delay(policy.Cooldown),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrAuthFailed)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.tel.ReportWarning(report_session_login, fmt.Errorf("attempt %d: %w", n+1, err))
		}),
	}
	if s.timer != nil {
		opts = append(opts, retry.WithTimer(s.timer))
	}

	err := retry.Do(func() error {
		return s.api.Login(ctx, creds)
	}, opts...)
	if err != nil {
		s.tel.ReportBroken(report_session_login, err, creds.Email)
		return err
	}

	s.tel.ReportDebug("logged in", creds.Email, creds.DeviceId)
	s.initialized = true
	return nil
}

func (s *Session) Details(ctx context.Context, packageName string) (map[string]any, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	details, err := s.api.Details(ctx, packageName)
	if err != nil {
		s.tel.ReportBroken(report_session_details, err, packageName)
		return nil, fmt.Errorf("details for %s: %w", packageName, err)
	}
	return details, nil
}

func (s *Session) Download(ctx context.Context, packageName string, versionCode int64) ([]byte, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	apk, err := s.api.Download(ctx, packageName, versionCode)
	if err != nil {
		s.tel.ReportBroken(report_session_download, err, packageName, versionCode)
		return nil, fmt.Errorf("download %s (%d): %w", packageName, versionCode, err)
	}
	return apk, nil
}
