package session

import "sync"

// AuthFailureNotifier collapses concurrent authorization failures into a
// single forced logout. The notifier is armed when a session begins;
// the first Trip after arming runs the handler and disarms, so N
// requests failing with 401 at once produce exactly one redirect.
type AuthFailureNotifier struct {
	mu      sync.Mutex
	armed   bool
	handler func()
}

func NewAuthFailureNotifier() *AuthFailureNotifier {
	return &AuthFailureNotifier{}
}

// SetHandler replaces any previously registered handler. Handlers never
// stack.
func (n *AuthFailureNotifier) SetHandler(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = fn
}

// Arm enables the notifier for the session that just started.
func (n *AuthFailureNotifier) Arm() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.armed = true
}

// Trip fires the handler if the notifier is armed and reports whether
// it fired. The handler runs outside the lock; it usually calls back
// into the session store.
func (n *AuthFailureNotifier) Trip() bool {
	n.mu.Lock()
	if !n.armed || n.handler == nil {
		n.mu.Unlock()
		return false
	}
	n.armed = false
	handler := n.handler
	n.mu.Unlock()

	handler()
	return true
}
