package tutoring

import (
	"context"
	"time"
)

// Roles as stored on users.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is the slice of a principal this package needs.
type User struct {
	ID    int
	Name  string
	Email string
	Phone string
	Role  string
}

func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

type Appointment struct {
	ID              int
	StudentID       int
	TeacherID       int
	Student         *User
	Teacher         *User
	StartTime       time.Time
	EndTime         time.Time
	Status          Status
	MeetURL         *string
	RejectionReason *string
	Attended        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TeacherQuery selects a teacher's appointments. A nil Statuses means all.
// ByUpdated orders by last update instead of creation, newest first either way.
type TeacherQuery struct {
	TeacherID int
	Statuses  []Status
	ByUpdated bool
}

// Store persists appointments and availability slots.
type Store interface {
	// Atomically runs fn in a single transaction. A non-empty lockKey is held
	// for the whole transaction so callers sharing a key are serialized.
	Atomically(ctx context.Context, lockKey string, fn func(tx Tx) error) error

	User(ctx context.Context, id int) (*User, error)
	Teachers(ctx context.Context) ([]User, error)

	Appointment(ctx context.Context, id int) (*Appointment, error)
	TeacherAppointments(ctx context.Context, q TeacherQuery) ([]Appointment, error)
	StudentAppointments(ctx context.Context, studentID int) ([]Appointment, error)

	Slots(ctx context.Context, teacherID int) ([]Slot, error)
	Slot(ctx context.Context, id int) (*Slot, error)
	InsertSlot(ctx context.Context, slot *Slot) error
	DeleteSlot(ctx context.Context, id int) error
}

// Tx is the transaction-scoped view handed to Atomically callbacks. Lock
// returns nil when the appointment does not exist.
type Tx interface {
	HasPending(ctx context.Context, studentID, teacherID int) (bool, error)
	Insert(ctx context.Context, a *Appointment) error
	Lock(ctx context.Context, id int) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
}

// Notifier tells a student their appointment changed. Failures are logged by
// the caller and never undo the transition.
type Notifier interface {
	AppointmentChanged(ctx context.Context, to User, a Appointment) error
}
