package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(now *time.Time) *Service {
	s := NewService([]byte("test-jwt-secret"), 30*time.Minute)
	s.Now = func() time.Time { return *now }
	return s
}

func TestService_IssueVerify_WithinTTL(t *testing.T) {
	t.Parallel()

	now := baseTime
	svc := newTestService(&now)

	tok, err := svc.Issue("alice", 10*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, baseTime.Add(10*time.Minute), tok.ExpiresAt)

	now = baseTime.Add(9*time.Minute + 59*time.Second)
	sub, err := svc.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestService_Verify_ExpiredToken(t *testing.T) {
	t.Parallel()

	now := baseTime
	svc := newTestService(&now)

	tok, err := svc.Issue("alice", 10*time.Minute)
	require.NoError(t, err)

	now = baseTime.Add(10*time.Minute + time.Second)
	sub, err := svc.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, sub)
}

func TestService_Issue_SubSecondClock(t *testing.T) {
	t.Parallel()

	now := baseTime.Add(900 * time.Millisecond)
	svc := newTestService(&now)

	tok, err := svc.Issue("alice", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(10*time.Second), tok.ExpiresAt)

	now = baseTime.Add(9500 * time.Millisecond)
	sub, err := svc.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	now = tok.ExpiresAt.Add(time.Millisecond)
	_, err = svc.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Issue_DefaultTTL(t *testing.T) {
	t.Parallel()

	now := baseTime
	svc := newTestService(&now)

	tok, err := svc.Issue("bob", 0)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(30*time.Minute), tok.ExpiresAt)
	assert.Equal(t, 30*time.Minute, svc.TTL())
}

func TestService_Issue_EmptySubject(t *testing.T) {
	t.Parallel()

	now := baseTime
	_, err := newTestService(&now).Issue("", time.Minute)
	require.Error(t, err)
}

func TestService_Verify_Rejects(t *testing.T) {
	t.Parallel()

	now := baseTime
	svc := newTestService(&now)
	tok, err := svc.Issue("alice", time.Hour)
	require.NoError(t, err)

	other := NewService([]byte("other-secret"), time.Hour)
	other.Now = svc.Now
	foreign, err := other.Issue("alice", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "alice",
		"exp": baseTime.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
	}).SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": baseTime.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-valid-jwt"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: foreign.AccessToken},
		{name: "tampered payload", token: tampered},
		{name: "alg none", token: noneToken},
		{name: "missing exp", token: noExp},
		{name: "missing subject", token: noSub},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sub, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, sub)
		})
	}
}
