package models

// Activity is one extracurricular offering as exposed by GET /activities.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule,omitempty"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Clone returns a copy whose participant slice does not alias a's.
func (a Activity) Clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	a.Participants = participants
	return a
}

// HasParticipant reports whether email is signed up.
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// SignupAction names a registry mutation.
type SignupAction string

const (
	ActionSignup     SignupAction = "signup"
	ActionUnregister SignupAction = "unregister"
)

// SignupEvent describes a completed registry mutation. It feeds the audit
// trail and the notifier.
type SignupEvent struct {
	ID         string       `json:"id"`
	Action     SignupAction `json:"action"`
	Activity   string       `json:"activity"`
	Email      string       `json:"email"`
	RequestID  string       `json:"requestId,omitempty"`
	OccurredAt string       `json:"occurredAt"`
}
