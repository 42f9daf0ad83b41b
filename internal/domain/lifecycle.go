package domain

// SessionStatus represents where a session is in its lifecycle
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// sessionTransitions lists the statuses reachable from each status.
// Completed and cancelled are terminal.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusPending: {SessionStatusActive, SessionStatusCancelled},
	SessionStatusActive:  {SessionStatusCompleted, SessionStatusCancelled},
}

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case SessionStatusPending, SessionStatusActive, SessionStatusCompleted, SessionStatusCancelled:
		return SessionStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// IsClosed returns true once the session reached a terminal status
func (s SessionStatus) IsClosed() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// AcceptsMembers returns true if users may still join
func (s SessionStatus) AcceptsMembers() bool {
	return !s.IsClosed()
}

func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the session to next or returns a conflict naming both
// statuses.
func (s *Session) TransitionTo(next SessionStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return ConflictError("cannot move a %s session to %s", s.Status, next)
	}
	s.Status = next
	return nil
}
