package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronounapi/internal/compat"
	"pronounapi/internal/identity"
	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/pronoun"
	pronounstore "pronounapi/internal/pronoun/store"
	domainerrors "pronounapi/pkg/domain-errors"
)

type fixture struct {
	identities *identitystore.InMemoryStore
	pronouns   *pronounstore.InMemoryStore
	upstream   *httptest.Server
	svc        *Service
}

func newFixture(t *testing.T, upstreamCode string, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		identities: identitystore.NewInMemoryStore(),
		pronouns:   pronounstore.NewInMemoryStore(),
	}
	require.NoError(t, f.pronouns.Seed(context.Background(), pronoun.Builtins()))

	f.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if upstreamCode == "" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":404}`))
			return
		}
		_, _ = w.Write([]byte(`{"pronouns":"` + upstreamCode + `"}`))
	}))
	t.Cleanup(f.upstream.Close)

	f.svc = NewService(f.identities, f.pronouns, compat.NewClient(f.upstream.URL), opts...)
	return f
}

func (f *fixture) register(t *testing.T, discordID, preferred string, extras []string, randomize bool) *identity.Identity {
	t.Helper()
	ident := &identity.Identity{
		Discord:              &discordID,
		PreferredPronounID:   preferred,
		ExtraPronounIDs:      extras,
		RandomizeSubVariants: randomize,
	}
	require.NoError(t, f.identities.Create(context.Background(), ident))
	return ident
}

func TestResolveLocalIdentity(t *testing.T) {
	f := newFixture(t, "")
	f.register(t, "100", "theyThem", []string{"itIts"}, false)

	profile, err := f.svc.Resolve(context.Background(), "discord", "100")
	require.NoError(t, err)
	assert.Equal(t, "100", profile.ExternalID)
	assert.False(t, profile.Compat)
	assert.Equal(t, "theyThem", profile.Preferred.ID)
	assert.Equal(t, "they/them", profile.Preferred.DisplayName)
	require.Len(t, profile.Extra, 1)
	assert.Equal(t, "itIts", profile.Extra[0].ID)
}

func TestResolveNonPrimaryPlatformUsesFallback(t *testing.T) {
	f := newFixture(t, "ii")
	// A local identity exists but twitter lookups never consult it.
	f.register(t, "100", "theyThem", nil, false)

	profile, err := f.svc.Resolve(context.Background(), "twitter", "100")
	require.NoError(t, err)
	assert.True(t, profile.Compat)
	assert.Equal(t, "100", profile.ExternalID)
	assert.Equal(t, "it/its", profile.Preferred.DisplayName)
	assert.NotNil(t, profile.Extra)
	assert.Empty(t, profile.Extra)
}

func TestResolveUnknownAccountUsesFallback(t *testing.T) {
	f := newFixture(t, "sh")

	profile, err := f.svc.Resolve(context.Background(), "discord", "nobody")
	require.NoError(t, err)
	assert.True(t, profile.Compat)
	assert.Equal(t, "she/her", profile.Preferred.DisplayName)
}

func TestResolveUpstreamErrorPassesThrough(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.svc.Resolve(context.Background(), "twitter", "nobody")
	require.Error(t, err)

	var upstream *compat.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
}

func TestResolveRandomizesEligibleDefinitions(t *testing.T) {
	// Always pick the first sub-variant.
	f := newFixture(t, "", WithRand(func(int) int { return 0 }))
	f.register(t, "100", "heShe", nil, true)

	profile, err := f.svc.Resolve(context.Background(), "discord", "100")
	require.NoError(t, err)
	assert.Equal(t, "heShe", profile.Preferred.ID)
	assert.Equal(t, "he/him (he/she)", profile.Preferred.DisplayName)
	assert.Equal(t, "he", profile.Preferred.Forms.Subject)
}

func TestResolveSkipsRandomizationWithoutVariants(t *testing.T) {
	f := newFixture(t, "", WithRand(func(int) int {
		t.Fatal("randomization must not run for definitions without sub-variants")
		return 0
	}))
	f.register(t, "100", "theyThem", nil, true)

	profile, err := f.svc.Resolve(context.Background(), "discord", "100")
	require.NoError(t, err)
	assert.Equal(t, "they/them", profile.Preferred.DisplayName)
}

func TestProfileEchoesQueriedAccountID(t *testing.T) {
	f := newFixture(t, "tt")
	f.register(t, "100", "theyThem", nil, false)
	ctx := context.Background()

	local, err := f.svc.Resolve(ctx, "discord", "100")
	require.NoError(t, err)
	assert.Equal(t, "100", local.ExternalID)

	fallback, err := f.svc.Resolve(ctx, "twitter", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", fallback.ExternalID)

	// The wire field is the queried account id as a string, never an
	// internal row id, and is present on both paths.
	raw, err := json.Marshal(local)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userId":"100"`)

	raw, err = json.Marshal(fallback)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userId":"42"`)
}

func TestResolveMissingPreferredIsInvariantViolation(t *testing.T) {
	f := newFixture(t, "")
	f.register(t, "100", "doesNotExist", nil, false)

	_, err := f.svc.Resolve(context.Background(), "discord", "100")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvariantViolation))
}
