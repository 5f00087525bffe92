package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"getpay-backend/config"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleIssuer     = "https://accounts.google.com"
	oauthStateCookie = "oauth_state"
)

var errNoStudentAccount = apperrors.Forbidden("No student account is registered for this Google email")

// GoogleAuth signs in existing students with their Google account.
type GoogleAuth struct {
	oauth            *oauth2.Config
	frontendRedirect string
	secureCookie     bool

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogleAuth(cfg config.GoogleConfig, secureCookie bool) *GoogleAuth {
	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		frontendRedirect: cfg.FrontendRedirect,
		secureCookie:     secureCookie,
	}
}

// idVerifier builds the OIDC verifier on first use; a failed discovery is retried on the next call.
func (g *GoogleAuth) idVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.oauth.ClientID})
	return g.verifier, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /api/auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 300, "/", "", h.Google.secureCookie, true)

	c.Redirect(http.StatusFound, h.Google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /api/auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.Google.secureCookie, true)

	ctx := c.Request.Context()
	tok, err := h.Google.oauth.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	claims, err := h.verifyIDToken(ctx, rawIDToken)
	if err != nil {
		logger.Warn().Err(err).Msg("google id token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id_token"})
		return
	}

	s, err := linkGoogleStudent(h.DB.WithContext(ctx), claims)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": apperrors.Message(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	resp, err := h.session(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	if h.Google.frontendRedirect == "" {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.Redirect(http.StatusFound, h.Google.frontendRedirect+"?token="+url.QueryEscape(resp.Token))
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (h *Handler) verifyIDToken(ctx context.Context, raw string) (*googleIDClaims, error) {
	verifier, err := h.Google.idVerifier(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, errors.New("token missing required claims")
	}
	return &claims, nil
}

// linkGoogleStudent resolves the student for a Google identity. Accounts are
// never created here; an unlinked account is linked by verified email.
func linkGoogleStudent(db *gorm.DB, gc *googleIDClaims) (*students.Student, error) {
	var s students.Student
	err := db.Where("google_sub = ?", gc.Sub).First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !gc.EmailVerified {
		return nil, errNoStudentAccount
	}
	found, err := students.FindByEmail(db, gc.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errNoStudentAccount
		}
		return nil, err
	}
	if found.GoogleSub != nil && *found.GoogleSub != gc.Sub {
		return nil, errNoStudentAccount
	}

	sub := gc.Sub
	if err := db.Model(found).Update("google_sub", sub).Error; err != nil {
		return nil, err
	}
	found.GoogleSub = &sub
	return found, nil
}
