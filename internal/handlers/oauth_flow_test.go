package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func oauthTestHandler() (*AuthHandler, *http.ServeMux) {
	providers := map[string]OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     "client-id",
				ClientSecret: "secret",
				Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: "https://accounts.example/token"},
				Scopes:       []string{"email"},
			},
			AuthParams: map[string]string{"prompt": "select_account"},
		},
		"facebook": {Name: "facebook", Label: "Facebook", Config: &oauth2.Config{}},
	}
	h := NewAuthHandler(nil, nil, providers, "https://church.example", "https://church.example/app")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/providers", h.Providers)
	mux.HandleFunc("GET /api/auth/{provider}/start", h.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", h.OAuthCallback)
	return h, mux
}

func TestOAuthProviderViewsListsConfiguredOnly(t *testing.T) {
	h, _ := oauthTestHandler()

	views := h.oauthProviderViews()
	require.Len(t, views, 1)
	assert.Equal(t, OAuthProviderView{Name: "google", Label: "Google", URL: "/api/auth/google/start"}, views[0])
}

func TestStartOAuthRedirectsWithState(t *testing.T) {
	_, mux := oauthTestHandler()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/start", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example", location.Host)
	assert.Equal(t, "https://church.example/api/auth/google/callback", location.Query().Get("redirect_uri"))
	assert.Equal(t, "select_account", location.Query().Get("prompt"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthFlowCookie, cookies[0].Name)
	assert.Equal(t, "/api/auth/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)

	flow, ok := parseOAuthFlow(cookies[0].Value)
	require.True(t, ok)
	assert.Equal(t, "google", flow.Provider)
	assert.Equal(t, flow.State, location.Query().Get("state"))
}

func TestStartOAuthRejectsUnconfiguredProvider(t *testing.T) {
	_, mux := oauthTestHandler()

	for _, provider := range []string{"facebook", "myspace"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/"+provider+"/start", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, provider)
	}
}

func TestOAuthCallbackChecksFlow(t *testing.T) {
	_, mux := oauthTestHandler()
	good := oauthFlow{Provider: "google", State: "state-1", Nonce: "nonce-1"}

	tests := []struct {
		name   string
		query  string
		cookie string
		want   string
	}{
		{"missing code", "state=state-1", good.encode(), "Missing authorization code"},
		{"no flow cookie", "code=abc&state=state-1", "", "Invalid OAuth state"},
		{"state mismatch", "code=abc&state=forged", good.encode(), "Invalid OAuth state"},
		{"garbled cookie", "code=abc&state=state-1", "nonsense", "Invalid OAuth state"},
		{"started with another provider", "code=abc&state=state-1", oauthFlow{Provider: "apple", State: "state-1"}.encode(), "OAuth provider mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthFlowCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestParseOAuthFlow(t *testing.T) {
	flow := oauthFlow{Provider: "apple", State: "0b6c3f9e-1d2a-4c1e-9f0a-7e3d2b1c4a5f", Nonce: "n"}
	parsed, ok := parseOAuthFlow(flow.encode())
	require.True(t, ok)
	assert.Equal(t, flow, parsed)

	for _, bad := range []string{"", "google", "google.state", ".state.nonce", "google..nonce", "a.b.c.d"} {
		_, ok := parseOAuthFlow(bad)
		assert.False(t, ok, "parseOAuthFlow(%q)", bad)
	}
}

func TestJSONWebKeyToRSA(t *testing.T) {
	private, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	key := jsonWebKey{
		Kid: "k1",
		Kty: "RSA",
		N:   base64.RawURLEncoding.EncodeToString(private.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(private.E)).Bytes()),
	}
	public, err := key.rsaPublicKey()
	require.NoError(t, err)
	assert.True(t, private.PublicKey.Equal(public))

	_, err = jsonWebKey{Kty: "EC"}.rsaPublicKey()
	assert.Error(t, err)
	_, err = jsonWebKey{Kty: "RSA", N: "!!"}.rsaPublicKey()
	assert.Error(t, err)
}
