package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "oauth_state"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// NewGoogleOAuthConfig builds the OAuth2 client configuration for Google sign-in
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// AuthResponse is returned once a Google sign-in completes
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func newOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleLoginHandler handles the login request by redirecting to Google
func (h *Handler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Google Login API]")

	if h.OAuth == nil {
		utils.RespondError(w, &logMessageBuilder, "Google sign-in is not configured", http.StatusNotImplemented)
		return
	}

	state, err := newOAuthState()
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to start sign-in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.AddToLogMessage(&logMessageBuilder, "Redirecting to Google Auth")
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallbackHandler handles the callback from Google and issues an API token
func (h *Handler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Google Callback API]")

	if h.OAuth == nil {
		utils.RespondError(w, &logMessageBuilder, "Google sign-in is not configured", http.StatusNotImplemented)
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || r.FormValue("state") != cookie.Value {
		utils.RespondError(w, &logMessageBuilder, "State invalid", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.FormValue("code")
	if code == "" {
		utils.RespondError(w, &logMessageBuilder, "Code not found", http.StatusBadRequest)
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.HTTPClient)
	token, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to exchange token: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	resp, err := h.OAuth.Client(ctx, token).Get(googleUserInfo)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to get user info: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to get user info", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Failed to get user info: status %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to read user info response: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to read user info", http.StatusBadGateway)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Signed in: %s", profile.Email))

	dbCtx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	defer cancel()
	user, err := h.Store.UpsertGoogleUser(dbCtx, models.User{
		Name:     profile.Name,
		Email:    profile.Email,
		Image:    profile.Picture,
		GoogleID: profile.ID,
	})
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Upsert user: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to save user", http.StatusInternalServerError)
		return
	}

	apiToken, err := utils.GenerateToken(h.JWTSecret, user.ID.Hex(), user.Email)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, AuthResponse{Token: apiToken, User: user})
}
