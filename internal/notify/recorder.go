package notify

import (
	"context"
	"sync"

	"github.com/gardenseed/storefront/pkg/enums"
)

// Toast is one recorded notification.
type Toast struct {
	Success bool
	Message string
	Retry   Action
}

// Recorder captures notifications and navigation in memory. It satisfies both Notifier and Navigator.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
	routes []enums.Route
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(ctx context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Success: true, Message: message})
}

func (r *Recorder) Error(ctx context.Context, message string, retry Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Message: message, Retry: retry})
}

func (r *Recorder) Navigate(ctx context.Context, route enums.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Errors returns the messages of recorded error toasts.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.toasts {
		if !t.Success {
			out = append(out, t.Message)
		}
	}
	return out
}

func (r *Recorder) Routes() []enums.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]enums.Route(nil), r.routes...)
}

// LastRoute returns the most recent navigation target, or "" if none.
func (r *Recorder) LastRoute() enums.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
