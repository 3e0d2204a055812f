package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

type LinkedinUser struct {
	Sub     string `json:"sub"` // LinkedIn 的用户唯一标识
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type LinkedinOAuth struct {
	config *oauth2.Config
}

func NewLinkedinOAuth(clientID, clientSecret, redirectURI string) *LinkedinOAuth {
	return &LinkedinOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     linkedin.Endpoint,
		},
	}
}

// GetAuthURL 获取 LinkedIn 授权 URL
func (l *LinkedinOAuth) GetAuthURL(state string) string {
	return l.config.AuthCodeURL(state)
}

// Exchange 用授权码换取 access token
func (l *LinkedinOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return l.config.Exchange(ctx, code)
}

// GetUser 获取 LinkedIn 用户信息（OpenID Connect userinfo）
func (l *LinkedinOAuth) GetUser(ctx context.Context, token *oauth2.Token) (*LinkedinUser, error) {
	client := l.config.Client(ctx, token)

	resp, err := client.Get("https://api.linkedin.com/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("linkedin api error: %s", string(body))
	}

	var user LinkedinUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if user.Sub == "" {
		return nil, fmt.Errorf("linkedin userinfo missing sub")
	}

	return &user, nil
}
