package playapi

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"apkfetch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	// loginErrors are returned by consecutive Login calls, once exhausted Login succeeds
	loginErrors []error
	logins      int
	listing     map[string]any
}

func (f *fakeAPI) Login(ctx context.Context, creds Credentials) error {
	f.logins++
	if f.logins <= len(f.loginErrors) {
		return f.loginErrors[f.logins-1]
	}
	return nil
}

func (f *fakeAPI) Details(ctx context.Context, packageName string) (map[string]any, error) {
	return f.listing, nil
}

func (f *fakeAPI) Download(ctx context.Context, packageName string, versionCode int64) ([]byte, error) {
	return []byte(fmt.Sprintf("%s-%d", packageName, versionCode)), nil
}

type countingTimer struct {
	waits []time.Duration
}

func (c *countingTimer) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

var testCreds = Credentials{
	Email:    "alice@example.com",
	Password: "default",
	DeviceId: "3a1b2c3d4e5f6789",
}

func TestInitializeRetriesUntilExhausted(t *testing.T) {
	api := &fakeAPI{loginErrors: []error{
		fmt.Errorf("%w: first", ErrAuthFailed),
		fmt.Errorf("%w: second", ErrAuthFailed),
		fmt.Errorf("%w: third", ErrAuthFailed),
	}}
	timer := &countingTimer{}
	session := NewSession(api, telemetry.SlogAPI{})
	session.SetTimer(timer)

	err := session.Initialize(context.Background(), testCreds, LoginPolicy{
		MaxAttempts: 3,
		Cooldown:    time.Second * 5,
	})
	require.ErrorIs(t, err, ErrAuthFailed)
	require.Contains(t, err.Error(), "third")
	require.Equal(t, 3, api.logins)
	require.Equal(t, []time.Duration{time.Second * 5, time.Second * 5}, timer.waits)
	require.False(t, session.Initialized())

	_, err = session.Details(context.Background(), "com.example.app")
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitializeRecovers(t *testing.T) {
	api := &fakeAPI{loginErrors: []error{ErrAuthFailed}}
	timer := &countingTimer{}
	session := NewSession(api, telemetry.SlogAPI{})
	session.SetTimer(timer)

	err := session.Initialize(context.Background(), testCreds, DefaultLoginPolicy)
	require.NoError(t, err)
	require.Equal(t, 2, api.logins)
	require.Len(t, timer.waits, 1)

	// initialized sessions are not logged into again
	err = session.Initialize(context.Background(), testCreds, DefaultLoginPolicy)
	require.NoError(t, err)
	require.Equal(t, 2, api.logins)
}

func TestInitializeDoesNotRetryOtherErrors(t *testing.T) {
	network := errors.New("connection refused")
	api := &fakeAPI{loginErrors: []error{network, network}}
	timer := &countingTimer{}
	session := NewSession(api, telemetry.SlogAPI{})
	session.SetTimer(timer)

	err := session.Initialize(context.Background(), testCreds, DefaultLoginPolicy)
	require.ErrorIs(t, err, network)
	require.Equal(t, 1, api.logins)
	require.Empty(t, timer.waits)
}

func TestInitializePreconditions(t *testing.T) {
	table := []struct {
		creds    Credentials
		policy   LoginPolicy
		expected error
	}{
		{creds: Credentials{Password: "p", DeviceId: "d"}, policy: DefaultLoginPolicy, expected: ErrMissingCredential},
		{creds: Credentials{Email: "e", DeviceId: "d"}, policy: DefaultLoginPolicy, expected: ErrMissingCredential},
		{creds: Credentials{Email: "e", Password: "p"}, policy: DefaultLoginPolicy, expected: ErrMissingCredential},
		{creds: testCreds, policy: LoginPolicy{}, expected: ErrInvalidPolicy},
	}

	for _, row := range table {
		api := &fakeAPI{}
		session := NewSession(api, telemetry.SlogAPI{})
		err := session.Initialize(context.Background(), row.creds, row.policy)
		require.ErrorIs(t, err, row.expected)
		require.Equal(t, 0, api.logins)
	}
}

func TestSessionRequiresInitialize(t *testing.T) {
	api := &fakeAPI{listing: map[string]any{"docV2": map[string]any{}}}
	session := NewSession(api, telemetry.SlogAPI{})

	_, err := session.Details(context.Background(), "com.example.app")
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = session.Download(context.Background(), "com.example.app", 42)
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, session.Initialize(context.Background(), testCreds, DefaultLoginPolicy))

	listing, err := session.Details(context.Background(), "com.example.app")
	require.NoError(t, err)
	require.Equal(t, api.listing, listing)

	apk, err := session.Download(context.Background(), "com.example.app", 42)
	require.NoError(t, err)
	require.Equal(t, []byte("com.example.app-42"), apk)
}
