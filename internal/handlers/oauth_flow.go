package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"churchadmin/internal/security"
)

const (
	oauthRoutePrefix = "/api/auth/"
	oauthFlowCookie  = "oauth_flow"
	oauthFlowTTL     = 10 * time.Minute
	oauthExchangeTTL = 10 * time.Second

	appleIssuer  = "https://appleid.apple.com"
	appleKeysURL = "https://appleid.apple.com/auth/keys"
)

// OAuthProvider is one configured sign-in option
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// OAuthProviderView is the public description of a sign-in option
type OAuthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type oauthIdentity struct {
	Subject string
	Email   string
	Name    string
}

// oauthFlow is what the browser carries between start and callback.
// It is stored as provider.state.nonce in one short-lived cookie.
type oauthFlow struct {
	Provider string
	State    string
	Nonce    string
}

func (f oauthFlow) encode() string {
	return f.Provider + "." + f.State + "." + f.Nonce
}

func parseOAuthFlow(value string) (oauthFlow, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return oauthFlow{}, false
	}
	return oauthFlow{Provider: parts[0], State: parts[1], Nonce: parts[2]}, true
}

func (h *AuthHandler) oauthProviderViews() []OAuthProviderView {
	views := []OAuthProviderView{}
	for key, p := range h.oauthProviders {
		if p.configured() {
			views = append(views, OAuthProviderView{Name: key, Label: p.Label, URL: oauthRoutePrefix + key + "/start"})
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

func (h *AuthHandler) lookupProvider(w http.ResponseWriter, r *http.Request) (string, OAuthProvider, bool) {
	key := r.PathValue("provider")
	p, ok := h.oauthProviders[key]
	if !ok || !p.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return "", OAuthProvider{}, false
	}
	return key, p, true
}

// oauthConfig copies the provider config with the callback URL for this deployment
func (h *AuthHandler) oauthConfig(r *http.Request, key string, p OAuthProvider) oauth2.Config {
	base := strings.TrimSpace(h.oauthRedirectBaseURL)
	if base == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	config := *p.Config
	config.RedirectURL = strings.TrimRight(base, "/") + oauthRoutePrefix + key + "/callback"
	return config
}

// StartOAuth redirects the browser to the provider's consent page
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	key, p, ok := h.lookupProvider(w, r)
	if !ok {
		return
	}

	flow := oauthFlow{Provider: key, State: security.GenerateSessionID(), Nonce: security.GenerateSessionID()}
	http.SetCookie(w, flowCookie(r, flow.encode(), oauthFlowTTL))

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for name, value := range p.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(name, value))
	}
	if key == "apple" {
		options = append(options, oauth2.SetAuthURLParam("nonce", flow.Nonce))
	}

	config := h.oauthConfig(r, key, p)
	http.Redirect(w, r, config.AuthCodeURL(flow.State, options...), http.StatusFound)
}

// OAuthCallback finishes the flow, signs the staff member in and returns them to the dashboard
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	key, p, ok := h.lookupProvider(w, r)
	if !ok {
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}
	var flow oauthFlow
	if cookie, err := r.Cookie(oauthFlowCookie); err == nil {
		flow, ok = parseOAuthFlow(cookie.Value)
	} else {
		ok = false
	}
	if !ok || flow.State != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if flow.Provider != key {
		respondWithError(w, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}
	http.SetCookie(w, flowCookie(r, "", -1))

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeTTL)
	defer cancel()

	config := h.oauthConfig(r, key, p)
	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	var identity oauthIdentity
	if key == "apple" {
		identity, err = appleIdentity(ctx, token, p.Config.ClientID, flow.Nonce)
	} else {
		identity, err = fetchUserInfo(ctx, p, token)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	session, _, err := h.authService.OAuthLogin(key, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		respondServiceError(w, err, "Error during OAuth login")
		return
	}

	http.SetCookie(w, security.NewSessionCookie(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, strings.TrimRight(h.appBaseURL, "/")+"/", http.StatusSeeOther)
}

// flowCookie sets the flow cookie for ttl, or removes it when ttl is negative
func flowCookie(r *http.Request, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     oauthFlowCookie,
		Value:    value,
		Path:     oauthRoutePrefix,
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
	if ttl < 0 {
		c.MaxAge = -1
	}
	return c
}

// fetchUserInfo reads the id, email and name fields that Google and Facebook both return
func fetchUserInfo(ctx context.Context, p OAuthProvider, token *oauth2.Token) (oauthIdentity, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(p.UserInfoURL)
	if err != nil {
		return oauthIdentity{}, fmt.Errorf("failed to fetch %s user info", p.Label)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return oauthIdentity{}, fmt.Errorf("failed to fetch %s user info", p.Label)
	}

	var payload struct {
		ID    string `json:"id"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthIdentity{}, fmt.Errorf("failed to parse %s user info", p.Label)
	}
	if payload.Email == "" {
		return oauthIdentity{}, fmt.Errorf("%s did not share an email address", p.Label)
	}
	subject := payload.ID
	if subject == "" {
		subject = payload.Sub
	}
	return oauthIdentity{Subject: subject, Email: payload.Email, Name: payload.Name}, nil
}

type appleClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

// jsonWebKey is the subset of an RFC 7517 key Apple publishes
type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unexpected key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}, nil
}

// appleIdentity verifies the id_token Apple returns with the access token.
// Apple only shares the user's name on the first consent, so Name stays empty.
func appleIdentity(ctx context.Context, token *oauth2.Token, clientID, nonce string) (oauthIdentity, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return oauthIdentity{}, errors.New("missing Apple id_token")
	}

	claims := &appleClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(clientID),
	)
	_, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return applePublicKey(ctx, kid)
	})
	if err != nil {
		return oauthIdentity{}, errors.New("invalid Apple token")
	}
	if nonce != "" && claims.Nonce != "" && claims.Nonce != nonce {
		return oauthIdentity{}, errors.New("invalid Apple nonce")
	}
	if claims.Email == "" {
		return oauthIdentity{}, errors.New("Apple did not share an email address")
	}
	return oauthIdentity{Subject: claims.Subject, Email: claims.Email}, nil
}

func applePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("missing key id")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, appleKeysURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apple keys returned %d", resp.StatusCode)
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, err
	}
	for _, k := range set.Keys {
		if k.Kid == kid {
			return k.rsaPublicKey()
		}
	}
	return nil, fmt.Errorf("apple key %q not found", kid)
}
