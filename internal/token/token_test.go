package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronounapi/internal/identity"
	domainerrors "pronounapi/pkg/domain-errors"
	"pronounapi/pkg/platform/sentinel"
)

const testIssuer = "pronounapi"

var testSecret = []byte("test-secret")

func TestProofRoundTrip(t *testing.T) {
	svc := NewService(testSecret, testIssuer)

	signed, err := svc.IssueProof(identity.PlatformGitHub, "8675309", "octocat")
	require.NoError(t, err)

	claims, err := svc.VerifyProof(signed)
	require.NoError(t, err)
	assert.Equal(t, KindProof, claims.Type)
	assert.Equal(t, "github", claims.Platform)
	assert.Equal(t, "octocat", claims.Username)
	assert.Equal(t, "8675309", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestUserRoundTrip(t *testing.T) {
	svc := NewService(testSecret, testIssuer)

	signed, err := svc.IssueUser(42)
	require.NoError(t, err)

	id, err := svc.VerifyUser(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestKindMismatch(t *testing.T) {
	svc := NewService(testSecret, testIssuer)

	userToken, err := svc.IssueUser(42)
	require.NoError(t, err)
	proofToken, err := svc.IssueProof(identity.PlatformDiscord, "100", "somebody")
	require.NoError(t, err)

	_, err = svc.VerifyProof(userToken)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))

	_, err = svc.VerifyUser(proofToken)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestPlatformMismatch(t *testing.T) {
	svc := NewService(testSecret, testIssuer)

	signed, err := svc.IssueProof(identity.PlatformGitHub, "8675309", "octocat")
	require.NoError(t, err)

	_, err = svc.VerifyProofFor(signed, identity.PlatformGitHub)
	require.NoError(t, err)

	_, err = svc.VerifyProofFor(signed, identity.PlatformDiscord)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	svc := NewService(testSecret, testIssuer, WithClock(func() time.Time { return now }))

	signed, err := svc.IssueUser(42)
	require.NoError(t, err)

	_, err = svc.VerifyUser(signed)
	require.NoError(t, err)

	now = now.Add(TTL + time.Minute)
	_, err = svc.VerifyUser(signed)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestTamperedSignature(t *testing.T) {
	svc := NewService(testSecret, testIssuer)

	signed, err := svc.IssueUser(42)
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = svc.VerifyUser(tampered)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestIssuerMismatch(t *testing.T) {
	other := NewService(testSecret, "someone-else")
	signed, err := other.IssueUser(42)
	require.NoError(t, err)

	svc := NewService(testSecret, testIssuer)
	_, err = svc.VerifyUser(signed)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}
