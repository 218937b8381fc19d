package fakeapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
)

var orderStatuses = map[string]bool{
	"pending": true, "processing": true, "shipped": true, "delivered": true, "cancelled": true,
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		UserUID  string `json:"user_uid"`
		Theme    string `json:"theme"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Email) {
			writeDetail(w, http.StatusBadRequest, "The user with this email already exists in the system.")
			return
		}
	}
	user := &User{
		ID:        s.id(),
		Email:     in.Email,
		IsActive:  true,
		Theme:     in.Theme,
		UserUID:   in.UserUID,
		Addresses: []Address{},
		CreatedAt: s.now(),
	}
	s.users[in.UserUID] = user
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for id := int64(1); id <= s.nextID; id++ {
		for _, u := range s.users {
			if u.ID == id {
				out = append(out, *u)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, caller)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, caller *User) {
	var in struct {
		Theme string `json:"theme"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Theme != "" {
		caller.Theme = in.Theme
	}
	writeJSON(w, http.StatusOK, caller)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, caller *User) {
	var in struct {
		Surname    string `json:"surname"`
		Phone      string `json:"phone"`
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postal_code"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := in.Surname
	caller.FullName = &name
	caller.Verified = true
	addr := Address{Address: in.Address, City: in.City, PostalCode: in.PostalCode, Phone: in.Phone}
	if len(caller.Addresses) > 0 {
		addr.ID = caller.Addresses[0].ID
		caller.Addresses[0] = addr
	} else {
		addr.ID = s.id()
		caller.Addresses = append(caller.Addresses, addr)
	}
	writeJSON(w, http.StatusOK, caller)
}

func (s *Server) blockUser(w http.ResponseWriter, r *http.Request, caller *User) {
	id, ok := pathID(r)
	var in struct {
		IsActive bool `json:"is_active"`
	}
	if !ok || !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.IsActive = in.IsActive
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include") == "manufacturer"
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		item := *p
		item.Manufacturer = nil
		if include {
			item.Manufacturer = s.manufacturerByID(p.ManufacturerID)
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.productByID(id); p != nil {
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeDetail(w, http.StatusNotFound, "Product not found")
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, caller *User) {
	var in Product
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id()
	s.products = append(s.products, &in)
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in Product
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.productByID(id)
	if p == nil {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	in.ID = id
	*p = in
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Product not found")
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request, caller *User) {
	var in Category
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, in.Name) {
			writeDetail(w, http.StatusBadRequest, "Category with this name already exists")
			return
		}
	}
	in.ID = s.id()
	s.categories = append(s.categories, &in)
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in Category
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			in.ID = id
			*c = in
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Category not found")
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Category not found")
}

func (s *Server) listManufacturers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Manufacturer, 0, len(s.manufacturers))
	for _, m := range s.manufacturers {
		out = append(out, *m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createManufacturer(w http.ResponseWriter, r *http.Request, caller *User) {
	var in Manufacturer
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.manufacturers {
		if strings.EqualFold(m.Name, in.Name) {
			writeDetail(w, http.StatusBadRequest, "Manufacturer with this name already exists")
			return
		}
	}
	in.ID = s.id()
	s.manufacturers = append(s.manufacturers, &in)
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) updateManufacturer(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in Manufacturer
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.manufacturerByID(id); m != nil {
		in.ID = id
		*m = in
		writeJSON(w, http.StatusOK, m)
		return
	}
	writeDetail(w, http.StatusNotFound, "Manufacturer not found")
}

func (s *Server) deleteManufacturer(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.manufacturers {
		if m.ID == id {
			s.manufacturers = append(s.manufacturers[:i], s.manufacturers[i+1:]...)
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Manufacturer not found")
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Review{}
	for _, rv := range s.reviews {
		if rv.ProductID == id {
			out = append(out, *rv)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request, caller *User) {
	var in Review
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.productByID(in.ProductID) == nil {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	in.ID = s.id()
	in.UserID = caller.ID
	in.CreatedAt = s.now()
	s.reviews = append(s.reviews, &in)
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in Review
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.ID == id {
			if rv.UserID != caller.ID && !caller.IsSuperuser {
				writeDetail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			rv.Rating = in.Rating
			rv.Comment = in.Comment
			writeJSON(w, http.StatusOK, rv)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Review not found")
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rv := range s.reviews {
		if rv.ID == id {
			if rv.UserID != caller.ID && !caller.IsSuperuser {
				writeDetail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			writeJSON(w, http.StatusOK, rv)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Review not found")
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []CartItem{}
	var total float64
	for _, item := range s.carts[caller.ID] {
		items = append(items, *item)
		total += item.Product.Price * float64(item.Quantity)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request, caller *User) {
	var in struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, status, detail := s.addToCartLocked(caller.ID, in.ProductID, in.Quantity)
	if item == nil {
		writeDetail(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) addToCartLocked(userID, productID int64, qty int) (*CartItem, int, string) {
	if qty < 1 {
		return nil, http.StatusBadRequest, "Quantity must be positive"
	}
	product := s.productByID(productID)
	if product == nil {
		return nil, http.StatusNotFound, "Product not found"
	}
	for _, item := range s.carts[userID] {
		if item.ProductID == productID {
			item.Quantity += qty
			return item, http.StatusOK, ""
		}
	}
	item := &CartItem{
		ID:        s.id(),
		ProductID: productID,
		Quantity:  qty,
		Product:   CartProduct{ID: product.ID, Name: product.Name, Price: product.Price, ImageURL: product.ImageURL},
	}
	s.carts[userID] = append(s.carts[userID], item)
	return item, http.StatusOK, ""
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.carts[caller.ID] {
		if item.ID == id {
			item.Quantity = in.Quantity
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[caller.ID]
	for i, item := range items {
		if item.ID == id {
			s.carts[caller.ID] = append(items[:i], items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, caller.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Order{}
	for _, o := range s.orders {
		if o.UserID == caller.ID {
			out = append(out, *o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listAllOrders(w http.ResponseWriter, r *http.Request, caller *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, caller *User) {
	var in struct {
		UserID          int64       `json:"user_id"`
		Status          string      `json:"status"`
		Items           []OrderItem `json:"items"`
		DeliveryAddress *Address    `json:"delivery_address"`
		TotalAmount     float64     `json:"total_amount"`
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "read request")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if !decode(w, r, &in) {
		return
	}
	sum := sha256.Sum256(body)
	requestHash := base64.StdEncoding.EncodeToString(sum[:])
	key := r.Header.Get("Idempotency-Key")
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		if record, ok := s.idempotency[key]; ok {
			if record.requestHash != requestHash {
				writeDetail(w, http.StatusConflict, "Idempotency key reused with different request body")
				return
			}
			if existing := s.orderByID(record.orderID); existing != nil {
				writeJSON(w, http.StatusOK, existing)
				return
			}
		}
	}
	if len(in.Items) == 0 {
		writeDetail(w, http.StatusBadRequest, "Order must contain items")
		return
	}
	status := in.Status
	if status == "" {
		status = "pending"
	}
	order := &Order{
		ID:              s.id(),
		UserID:          caller.ID,
		TotalAmount:     in.TotalAmount,
		Status:          status,
		OrderItems:      append([]OrderItem(nil), in.Items...),
		DeliveryAddress: in.DeliveryAddress,
		User:            &OrderUser{Email: caller.Email, FullName: caller.FullName},
		CreatedAt:       s.now(),
	}
	s.orders = append(s.orders, order)
	if key != "" {
		s.idempotency[key] = idempotencyRecord{orderID: order.ID, requestHash: requestHash}
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	var in struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	if !orderStatuses[in.Status] {
		writeDetail(w, http.StatusBadRequest, "Invalid status")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.orderByID(id)
	if order == nil {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	order.Status = in.Status
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, caller *User) {
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.orderByID(id)
	if order == nil {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.UserID != caller.ID && !caller.IsSuperuser {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	out := []Comment{}
	for _, c := range s.comments {
		if c.OrderID == id {
			out = append(out, *c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, caller *User) {
	var in struct {
		OrderID int64  `json:"order_id"`
		Comment string `json:"comment"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.orderByID(in.OrderID)
	if order == nil {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.UserID != caller.ID && !caller.IsSuperuser {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	c := &Comment{
		ID:           s.id(),
		OrderID:      in.OrderID,
		UserID:       caller.ID,
		Comment:      in.Comment,
		UserEmail:    caller.Email,
		UserFullName: caller.FullName,
		CreatedAt:    s.now(),
	}
	s.comments = append(s.comments, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) productByID(id int64) *Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) manufacturerByID(id int64) *Manufacturer {
	for _, m := range s.manufacturers {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Server) orderByID(id int64) *Order {
	for _, o := range s.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}
