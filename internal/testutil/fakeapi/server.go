// Package fakeapi is an in-process stand-in for the storefront REST backend. The bearer token of a
// request is treated as the caller's user UID.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const apiPrefix = "/api/v1"

type failure struct {
	method string
	path   string
	status int
	detail string
}

// idempotencyRecord binds an Idempotency-Key to the order it created and the body that created it.
type idempotencyRecord struct {
	orderID     int64
	requestHash string
}

type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	nextID        int64
	users         map[string]*User
	revoked       map[string]bool
	products      []*Product
	categories    []*Category
	manufacturers []*Manufacturer
	reviews       []*Review
	carts         map[int64][]*CartItem
	orders        []*Order
	comments      []*Comment
	idempotency   map[string]idempotencyRecord
	failures      []failure
	requests      []Request
	hook          func(method, path string)
	now           func() time.Time
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:       map[string]*User{},
		revoked:     map[string]bool{},
		carts:       map[int64][]*CartItem{},
		idempotency: map[string]idempotencyRecord{},
		now:         time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the versioned API root to configure the gateway with.
func (s *Server) BaseURL() string {
	return s.srv.URL + apiPrefix
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes, s.observe)

	r.Route(apiPrefix, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.createUser)
			r.Get("/", s.admin(s.listUsers))
			r.Get("/me", s.authed(s.me))
			r.Put("/me", s.authed(s.updateMe))
			r.Put("/profile", s.authed(s.updateProfile))
			r.Put("/{id}/block", s.admin(s.blockUser))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{id}", s.getProduct)
			r.Post("/", s.admin(s.createProduct))
			r.Put("/{id}", s.admin(s.updateProduct))
			r.Delete("/{id}", s.admin(s.deleteProduct))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.admin(s.createCategory))
			r.Put("/{id}", s.admin(s.updateCategory))
			r.Delete("/{id}", s.admin(s.deleteCategory))
		})
		r.Route("/manufacturers", func(r chi.Router) {
			r.Get("/", s.listManufacturers)
			r.Post("/", s.admin(s.createManufacturer))
			r.Put("/{id}", s.admin(s.updateManufacturer))
			r.Delete("/{id}", s.admin(s.deleteManufacturer))
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{id}", s.listReviews)
			r.Post("/", s.authed(s.createReview))
			r.Put("/{id}", s.authed(s.updateReview))
			r.Delete("/{id}", s.authed(s.deleteReview))
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.authed(s.getCart))
			r.Post("/", s.authed(s.addCartItem))
			r.Put("/{id}", s.authed(s.updateCartItem))
			r.Delete("/item/{id}", s.authed(s.removeCartItem))
			r.Delete("/", s.authed(s.clearCart))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.authed(s.listOrders))
			r.Post("/", s.authed(s.createOrder))
			r.Get("/admin/all", s.admin(s.listAllOrders))
			r.Put("/admin/{id}/status", s.admin(s.updateOrderStatus))
		})
		r.Route("/order-comments", func(r chi.Router) {
			r.Get("/order/{id}", s.authed(s.listComments))
			r.Post("/", s.authed(s.createComment))
		})
	})
	return r
}

// observe records the request, runs the test hook, and applies injected failures.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		path := normalizePath(r.URL.Path)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:         r.Method,
			Path:           path,
			Authorization:  r.Header.Get("Authorization"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Body:           body,
		})
		hook := s.hook
		injected, ok := s.takeFailure(r.Method, path)
		s.mu.Unlock()

		if hook != nil {
			hook(r.Method, path)
		}
		if ok {
			writeDetail(w, injected.status, injected.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFailure(method, path string) (failure, bool) {
	for i, f := range s.failures {
		if f.method == method && f.path == path {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return f, true
		}
	}
	return failure{}, false
}

type authedHandler func(w http.ResponseWriter, r *http.Request, caller *User)

func (s *Server) authed(fn authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := s.caller(r)
		if caller == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		fn(w, r, caller)
	}
}

func (s *Server) admin(fn authedHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, caller *User) {
		if !caller.IsSuperuser {
			writeDetail(w, http.StatusForbidden, "The user doesn't have enough privileges")
			return
		}
		fn(w, r, caller)
	})
}

func (s *Server) caller(r *http.Request) *User {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[token] {
		return nil
	}
	return s.users[token]
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func normalizePath(path string) string {
	path = strings.TrimPrefix(path, apiPrefix)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
