package fakeapi

import "strings"

// AddUser stores u, assigning an id. u.UserUID doubles as its bearer token.
func (s *Server) AddUser(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	if u.Theme == "" {
		u.Theme = "light"
	}
	if u.Addresses == nil {
		u.Addresses = []Address{}
	}
	for i := range u.Addresses {
		if u.Addresses[i].ID == 0 {
			u.Addresses[i].ID = s.id()
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	stored := u
	s.users[u.UserUID] = &stored
	return stored
}

// User returns the stored record for uid.
func (s *Server) User(uid string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// UserByEmail looks a record up by email.
func (s *Server) UserByEmail(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return *u, true
		}
	}
	return User{}, false
}

// Revoke makes the token for uid fail authentication with 401.
func (s *Server) Revoke(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[uid] = true
}

func (s *Server) AddProduct(p Product) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	stored := p
	s.products = append(s.products, &stored)
	return stored
}

func (s *Server) AddCategory(c Category) Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	stored := c
	s.categories = append(s.categories, &stored)
	return stored
}

func (s *Server) AddManufacturer(m Manufacturer) Manufacturer {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	stored := m
	s.manufacturers = append(s.manufacturers, &stored)
	return stored
}

// AddCartItem puts qty of productID into the cart of the user with uid.
func (s *Server) AddCartItem(uid string, productID int64, qty int) CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[uid]
	if u == nil {
		return CartItem{}
	}
	item, _, _ := s.addToCartLocked(u.ID, productID, qty)
	if item == nil {
		return CartItem{}
	}
	return *item
}

// Cart returns the server-side cart of the user with uid.
func (s *Server) Cart(uid string) []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[uid]
	if u == nil {
		return nil
	}
	out := []CartItem{}
	for _, item := range s.carts[u.ID] {
		out = append(out, *item)
	}
	return out
}

// AddOrder stores o for the user with uid.
func (s *Server) AddOrder(uid string, o Order) Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	if u := s.users[uid]; u != nil {
		o.UserID = u.ID
		o.User = &OrderUser{Email: u.Email, FullName: u.FullName}
	}
	if o.Status == "" {
		o.Status = "pending"
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	stored := o
	s.orders = append(s.orders, &stored)
	return stored
}

func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

// AddComment stores a comment on orderID authored by the user with uid.
func (s *Server) AddComment(uid string, orderID int64, text string) Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Comment{ID: s.id(), OrderID: orderID, Comment: text, CreatedAt: s.now()}
	if u := s.users[uid]; u != nil {
		c.UserID = u.ID
		c.UserEmail = u.Email
		c.UserFullName = u.FullName
	}
	stored := c
	s.comments = append(s.comments, &stored)
	return stored
}

func (s *Server) Comments(orderID int64) []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Comment{}
	for _, c := range s.comments {
		if c.OrderID == orderID {
			out = append(out, *c)
		}
	}
	return out
}

// FailNext makes the next request matching method and path (without the /api/v1 prefix or a trailing
// slash) fail with status and a detail body.
func (s *Server) FailNext(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, detail: detail})
}

// OnRequest installs a hook run for every request before it is handled.
func (s *Server) OnRequest(fn func(method, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}
