// Package fixture is the in-memory stand-in for the json-server instance
// the PharmaTrade prototypes developed against. Same resource surface, same
// loose semantics: flat collections, auto-assigned ids, no auth.
package fixture

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/catalog"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/order"
)

// User is the directory record, password included, exactly as the fixture
// data file holds it.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	IsApproved string `json:"isApproved"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// Order is a stored order resource: the submitted payload plus the id the
// fixture assigned.
type Order struct {
	ID int `json:"id"`
	order.Payload
}

type Server struct {
	mu       sync.RWMutex
	users    []User
	products []catalog.Product
	orders   []Order
	nextID   int
}

func NewServer() *Server {
	return &Server{nextID: 1}
}

func (s *Server) SeedProducts(products []catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, products...)
}

func (s *Server) SeedUsers(users []User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, users...)
}

// Orders returns a snapshot of everything posted to /orders.
func (s *Server) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.listProducts)
	r.Get("/users", s.listUsers)
	r.Post("/users", s.createUser)
	r.Patch("/users/{id}", s.patchUser)
	r.Delete("/users/{id}", s.deleteUser)
	r.Get("/orders", s.listOrders)
	r.Post("/orders", s.createOrder)

	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := s.products
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	approved := r.URL.Query().Get("isApproved")

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []User{}
	for _, u := range s.users {
		if email != "" && u.Email != email {
			continue
		}
		if approved != "" && u.IsApproved != approved {
			continue
		}
		matched = append(matched, u)
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var u User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = strconv.Itoa(s.nextID)
		s.nextID++
	}
	if u.CreatedAt == "" {
		u.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.users = append(s.users, u)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) patchUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		// merge semantics, field by field, like json-server
		raw, _ := json.Marshal(s.users[i])
		var merged map[string]json.RawMessage
		json.Unmarshal(raw, &merged)
		for k, v := range patch {
			merged[k] = v
		}
		out, _ := json.Marshal(merged)
		json.Unmarshal(out, &s.users[i])
		writeJSON(w, http.StatusOK, s.users[i])
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []Order{}
	for _, o := range s.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		matched = append(matched, o)
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload order.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := Order{ID: s.nextID, Payload: payload}
	s.nextID++
	s.orders = append(s.orders, stored)
	writeJSON(w, http.StatusCreated, stored)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
