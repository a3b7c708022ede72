// Package session holds the logged-in user state and the gate that
// establishes it against the user directory. The persisted session never
// contains the password.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/kv"
)

const (
	RoleAdmin    = "ADMIN"
	RoleRetailer = "RETAILER"
	RoleClinic   = "CLINIC"

	ApprovedYes = "YES"
	ApprovedNo  = "NO"
)

// Blob keys, carried over from the prototype that versioned them.
const (
	UserKey  = "pt_user"
	TokenKey = "pt_token"
)

var ErrNoSession = errors.New("no active session")

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	IsApproved string `json:"isApproved"`
}

// Session is the current user plus the opaque token issued at login.
type Session struct {
	User  User
	Token string
}

// CanOrder reports whether this session may reach the cart and order
// operations. Admins bypass the approval queue.
func (s Session) CanOrder() bool {
	return s.User.Role == RoleAdmin || s.User.IsApproved == ApprovedYes
}

// Store persists the session across restarts.
type Store interface {
	Current(ctx context.Context) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Clear(ctx context.Context) error
}

// KVStore keeps the session in the same blob storage as the cart, under the
// user and token keys the prototypes used.
type KVStore struct {
	blobs kv.Store
}

func NewKVStore(blobs kv.Store) *KVStore {
	return &KVStore{blobs: blobs}
}

func (s *KVStore) Current(ctx context.Context) (*Session, error) {
	token, err := s.blobs.Get(ctx, TokenKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	rawUser, err := s.blobs.Get(ctx, UserKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read user: %w", err)
	}

	var user User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	return &Session{User: user, Token: string(token)}, nil
}

func (s *KVStore) Save(ctx context.Context, sess *Session) error {
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if err := s.blobs.Set(ctx, UserKey, rawUser); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := s.blobs.Set(ctx, TokenKey, []byte(sess.Token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if err := s.blobs.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
