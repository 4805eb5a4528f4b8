package lapor

import (
	"context"
	"fmt"

	"github.com/laporkota/laporkit/internal/envelope"
	"github.com/laporkota/laporkit/internal/session"
	"github.com/laporkota/laporkit/pkg/resilient"
)

// AuthService wraps the auth service. Login and Register persist the
// credentials so every later call through the same session store is
// authenticated.
type AuthService struct {
	client   *resilient.Client
	sessions session.Store
}

// NewAuthService creates an auth wrapper bound to the auth service's client.
func NewAuthService(client *resilient.Client, sessions session.Store) *AuthService {
	return &AuthService{client: client, sessions: sessions}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	NIK      string `json:"nik,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentials struct {
	ID         string `json:"id"`
	Token      string `json:"token"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	AccessRole string `json:"access_role"`
	Department string `json:"department"`
}

// Register creates an account and stores the returned session.
func (a *AuthService) Register(ctx context.Context, name, email, password, nik, phone string) (session.User, error) {
	body, err := a.client.Post(ctx, "/api/auth/register", registerRequest{
		Name: name, Email: email, Password: password, NIK: nik, Phone: phone,
	})
	if err != nil {
		return session.User{}, err
	}
	return a.storeCredentials(body)
}

// Login authenticates and stores the returned session.
func (a *AuthService) Login(ctx context.Context, email, password string) (session.User, error) {
	body, err := a.client.Post(ctx, "/api/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return session.User{}, err
	}
	return a.storeCredentials(body)
}

// Me fetches the profile of the authenticated user.
func (a *AuthService) Me(ctx context.Context) (session.User, error) {
	body, err := a.client.Get(ctx, "/api/auth/me", nil)
	if err != nil {
		return session.User{}, err
	}
	var user session.User
	if err := envelope.DecodeData(body, &user); err != nil {
		return session.User{}, fmt.Errorf("decode profile: %w", err)
	}
	return user, nil
}

// Logout drops the stored session. Purely local, there is no server call.
func (a *AuthService) Logout() error {
	return a.sessions.Clear()
}

func (a *AuthService) storeCredentials(body []byte) (session.User, error) {
	var creds credentials
	if err := envelope.DecodeData(body, &creds); err != nil {
		return session.User{}, fmt.Errorf("decode credentials: %w", err)
	}
	user := session.User{
		ID:         creds.ID,
		Name:       creds.Name,
		Role:       creds.Role,
		AccessRole: creds.AccessRole,
		Department: creds.Department,
	}
	if err := a.sessions.Save(session.Session{Token: creds.Token, User: user}); err != nil {
		return session.User{}, fmt.Errorf("save session: %w", err)
	}
	return user, nil
}
