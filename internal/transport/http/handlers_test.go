package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronounapi/internal/account"
	"pronounapi/internal/compat"
	"pronounapi/internal/identity"
	identitystore "pronounapi/internal/identity/store"
	"pronounapi/internal/oauth"
	"pronounapi/internal/pronoun"
	pronounservice "pronounapi/internal/pronoun/service"
	pronounstore "pronounapi/internal/pronoun/store"
	"pronounapi/internal/ratelimit"
	"pronounapi/internal/resolve"
	"pronounapi/internal/token"
)

// stubProvider resolves every code to a fixed account.
type stubProvider struct {
	platform identity.Platform
	account  oauth.Account
}

func (p *stubProvider) Platform() identity.Platform { return p.platform }

func (p *stubProvider) Exchange(context.Context, string) (*oauth.Account, error) {
	acct := p.account
	return &acct, nil
}

type fixture struct {
	t        *testing.T
	handler  http.Handler
	tokens   *token.Service
	upstream struct {
		code   string
		status int
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t}
	f.upstream.status = http.StatusOK

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.upstream.status != http.StatusOK {
			w.WriteHeader(f.upstream.status)
			_, _ = w.Write([]byte(`{"error":404,"message":"no pronouns"}`))
			return
		}
		_, _ = w.Write([]byte(`{"pronouns":"` + f.upstream.code + `"}`))
	}))
	t.Cleanup(upstream.Close)

	identities := identitystore.NewInMemoryStore()
	pronouns := pronounstore.NewInMemoryStore()
	require.NoError(t, pronouns.Seed(context.Background(), pronoun.Builtins()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.tokens = token.NewService([]byte("test-secret"), "pronounapi")

	f.handler = NewRouter(Dependencies{
		Logger:   logger,
		Tokens:   f.tokens,
		Accounts: account.NewService(identities, pronouns, f.tokens),
		Pronouns: pronounservice.NewService(pronouns, identities,
			ratelimit.NewInMemoryLimiter(3, 10*time.Second)),
		Resolver: resolve.NewService(identities, pronouns, compat.NewClient(upstream.URL)),
		Providers: []oauth.Provider{
			&stubProvider{
				platform: identity.PlatformDiscord,
				account:  oauth.Account{ExternalID: "100", Username: "somebody"},
			},
			&stubProvider{
				platform: identity.PlatformGitHub,
				account:  oauth.Account{ExternalID: "8675309", Username: "octocat"},
			},
		},
	})
	return f
}

func (f *fixture) do(method, path, bearer string, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) decode(rec *httptest.ResponseRecorder, v any) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), v))
}

// sessionToken walks the full flow: callback then login.
func (f *fixture) sessionToken() string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/callback/discord?code=abc", "", "")
	require.Equal(f.t, http.StatusOK, rec.Code)
	var proof struct {
		Token string `json:"token"`
	}
	f.decode(rec, &proof)

	rec = f.do(http.MethodPost, "/api/v1/users/login", proof.Token, "")
	require.Equal(f.t, http.StatusOK, rec.Code)
	var session struct {
		Token string `json:"token"`
	}
	f.decode(rec, &session)
	return session.Token
}

func TestCallbackMissingCode(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/callback/discord", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":1`)
}

func TestCallbackUnknownProvider(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/callback/myspace?code=abc", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":1`)
}

func TestLoginWithoutToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/users/login", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":3`)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodGet, "/api/v1/users/@me", session, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		ID                 int64   `json:"id"`
		Discord            *string `json:"discord"`
		PreferredPronounID string  `json:"preferredPronounId"`
	}
	f.decode(rec, &user)
	assert.NotZero(t, user.ID)
	require.NotNil(t, user.Discord)
	assert.Equal(t, "100", *user.Discord)
	assert.Equal(t, "unspecified", user.PreferredPronounID)
}

func TestLookupLocalProfile(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodPatch, "/api/v1/users", session, `{"preferredPronounId":"theyThem"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/lookup?platform=discord&id=100", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		UserID    string `json:"userId"`
		Preferred struct {
			ID string `json:"id"`
		} `json:"preferredPronoun"`
		Compat bool `json:"pronoundbCompat"`
	}
	f.decode(rec, &profile)
	assert.Equal(t, "100", profile.UserID)
	assert.Equal(t, "theyThem", profile.Preferred.ID)
	assert.False(t, profile.Compat)
}

func TestLookupFallback(t *testing.T) {
	f := newFixture(t)
	f.upstream.code = "ii"

	rec := f.do(http.MethodGet, "/api/v1/lookup?platform=twitter&id=999", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		UserID    string `json:"userId"`
		Preferred struct {
			DisplayName string `json:"pronoun"`
		} `json:"preferredPronoun"`
		Compat bool `json:"pronoundbCompat"`
	}
	f.decode(rec, &profile)
	assert.Equal(t, "999", profile.UserID)
	assert.Equal(t, "it/its", profile.Preferred.DisplayName)
	assert.True(t, profile.Compat)
}

func TestLookupUpstreamPassthrough(t *testing.T) {
	f := newFixture(t)
	f.upstream.status = http.StatusNotFound

	rec := f.do(http.MethodGet, "/api/v1/lookup?platform=twitter&id=999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":404,"message":"no pronouns"}`, rec.Body.String())
}

func TestLookupInvalidPlatform(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/lookup?platform=myspace&id=1", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":1`)
}

func TestUpdateUnknownPronoun(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodPatch, "/api/v1/users", session, `{"preferredPronounId":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":7`)
}

func TestUpdateLinksGitHub(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodPost, "/api/v1/callback/github?code=abc", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var proof struct {
		Token string `json:"token"`
	}
	f.decode(rec, &proof)

	rec = f.do(http.MethodPatch, "/api/v1/users", session, `{"githubToken":"`+proof.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		GitHub *string `json:"github"`
	}
	f.decode(rec, &user)
	require.NotNil(t, user.GitHub)
	assert.Equal(t, "8675309", *user.GitHub)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodDelete, "/api/v1/users", session, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/users/@me", session, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePronoun(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	before := time.Now().UnixMilli()
	body := `{"pronoun":"xe/xem","forms":{"subject":"xe","object":"xem","possessiveDeterminer":"xyr","possessivePronoun":"xyrs","reflexive":"xemself"}}`
	rec := f.do(http.MethodPost, "/api/v1/pronouns", session, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))

	// The reset header is epoch milliseconds, one window out.
	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reset, before)
	assert.LessOrEqual(t, reset, time.Now().Add(11*time.Second).UnixMilli())

	var created struct {
		ID          string `json:"id"`
		DisplayName string `json:"pronoun"`
	}
	f.decode(rec, &created)
	assert.Len(t, created.ID, 40)
	assert.Equal(t, "xe/xem", created.DisplayName)

	rec = f.do(http.MethodGet, "/api/v1/pronouns/"+created.ID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePronounRateLimited(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	body := `{"pronoun":"xe/xem","forms":{"subject":"xe","object":"xem","possessiveDeterminer":"xyr","possessivePronoun":"xyrs","reflexive":"xemself"}}`
	for i := 0; i < 3; i++ {
		rec := f.do(http.MethodPost, "/api/v1/pronouns", session, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(http.MethodPost, "/api/v1/pronouns", session, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":4`)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestDeleteBuiltinPronounForbidden(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodDelete, "/api/v1/pronouns?id=theyThem", session, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":8`)
}

func TestDeleteUnknownPronoun(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	rec := f.do(http.MethodDelete, "/api/v1/pronouns?id=nope", session, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":7`)
}

func TestDeletePreferredPronounAnswers403(t *testing.T) {
	f := newFixture(t)
	session := f.sessionToken()

	body := `{"pronoun":"xe/xem","forms":{"subject":"xe","object":"xem","possessiveDeterminer":"xyr","possessivePronoun":"xyrs","reflexive":"xemself"}}`
	rec := f.do(http.MethodPost, "/api/v1/pronouns", session, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	f.decode(rec, &created)

	rec = f.do(http.MethodPatch, "/api/v1/users", session, `{"preferredPronounId":"`+created.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/pronouns?id="+created.ID, session, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":9`)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListPronouns(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/pronouns", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var defs []struct {
		ID string `json:"id"`
	}
	f.decode(rec, &defs)
	assert.Len(t, defs, len(pronoun.Builtins()))
}
