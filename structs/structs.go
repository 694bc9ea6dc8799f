package structs

import "strings"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleEmployee Role = "EMPLOYEE"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
	StatusCancel     Status = "CANCEL"
)

// Statuses is the filter order shown by the requests view.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusOnHold, StatusResolved, StatusClosed, StatusCancel}

// Class is the badge class used when rendering the status.
func (s Status) Class() string {
	return strings.ToLower(string(s))
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type User struct {
	ID        int    `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt Time   `json:"created_at"`
}

type Request struct {
	ID               int     `json:"id"`
	PublicID         string  `json:"public_id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Status           Status  `json:"status"`
	CreatedByUserID  int     `json:"created_by_user_id"`
	AssignedToUserID *int    `json:"assigned_to_user_id"`
	CreatedAt        Time    `json:"created_at"`
	UpdatedAt        Time    `json:"updated_at"`
}

// RequestLog is one entry of a request's change history.
type RequestLog struct {
	ID        int     `json:"id"`
	RequestID int     `json:"request_id"`
	UserID    int     `json:"user_id"`
	Action    string  `json:"action"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
	Comment   *string `json:"comment"`
	Source    string  `json:"source"`
	Timestamp Time    `json:"timestamp"`
}

type NewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Health struct {
	Status   string  `json:"status"`
	Database string  `json:"database"`
	Details  *string `json:"details"`
}
