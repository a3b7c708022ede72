package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("account pending approval")
)

// directoryUser is the wire shape of a user record in the directory,
// password included. The password never leaves this package.
type directoryUser struct {
	User
	Password string `json:"password"`
}

// Gate logs users in against the user directory and persists the resulting
// session. The directory is the fixture server's /users resource; the
// password comparison happens here only because the fixture cannot do it
// itself. The real backend authenticates server-side.
type Gate struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	logger     *zap.Logger
	now        func() time.Time
}

func NewGate(baseURL string, store Store, logger *zap.Logger) *Gate {
	return &Gate{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Login looks the user up by email, verifies the password and the approval
// flag, and persists the session. Admins skip the approval check.
func (g *Gate) Login(ctx context.Context, email, password string) (*Session, error) {
	users, err := g.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrInvalidCredentials
	}

	candidate := users[0]
	if candidate.Password != password {
		return nil, ErrInvalidCredentials
	}
	if candidate.Role != RoleAdmin && candidate.IsApproved != ApprovedYes {
		return nil, ErrPendingApproval
	}

	sess := &Session{
		User:  candidate.User,
		Token: fmt.Sprintf("token_%s_%d", candidate.ID, g.now().UnixMilli()),
	}
	if err := g.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	g.logger.Info("user logged in",
		zap.String("user_id", sess.User.ID),
		zap.String("role", sess.User.Role))
	return sess, nil
}

// Current returns the persisted session, or ErrNoSession.
func (g *Gate) Current(ctx context.Context) (*Session, error) {
	return g.store.Current(ctx)
}

// Logout drops the persisted session.
func (g *Gate) Logout(ctx context.Context) error {
	return g.store.Clear(ctx)
}

func (g *Gate) lookupByEmail(ctx context.Context, email string) ([]directoryUser, error) {
	u := fmt.Sprintf("%s/users?email=%s", g.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query user directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}

	var users []directoryUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	return users, nil
}
