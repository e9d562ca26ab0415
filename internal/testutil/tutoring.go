package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

// TutoringStore is an in-memory tutoring.Store.
type TutoringStore struct {
	mu           sync.Mutex
	users        map[int]tutoring.User
	appointments map[int]tutoring.Appointment
	slots        map[int]tutoring.Slot
	nextApptID   int
	nextSlotID   int
}

var _ tutoring.Store = (*TutoringStore)(nil)

func NewTutoringStore(users ...tutoring.User) *TutoringStore {
	s := &TutoringStore{
		users:        make(map[int]tutoring.User),
		appointments: make(map[int]tutoring.Appointment),
		slots:        make(map[int]tutoring.Slot),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Get returns the stored appointment, bypassing the Store interface.
func (s *TutoringStore) Get(id int) (tutoring.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

// Count returns the number of stored appointments.
func (s *TutoringStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

// Put stores a directly, assigning an id when a.ID is zero.
func (s *TutoringStore) Put(a tutoring.Appointment) tutoring.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextApptID++
		a.ID = s.nextApptID
	}
	s.appointments[a.ID] = a
	return a
}

func (s *TutoringStore) Atomically(ctx context.Context, _ string, fn func(tx tutoring.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[int]tutoring.Appointment, len(s.appointments))
	for k, v := range s.appointments {
		staged[k] = v
	}
	tx := &tutoringTx{appointments: staged, nextID: s.nextApptID}
	if err := fn(tx); err != nil {
		return err
	}
	s.appointments = staged
	s.nextApptID = tx.nextID
	return nil
}

func (s *TutoringStore) User(_ context.Context, id int) (*tutoring.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *TutoringStore) Teachers(_ context.Context) ([]tutoring.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tutoring.User
	for _, u := range s.users {
		if u.IsTeacher() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *TutoringStore) Appointment(_ context.Context, id int) (*tutoring.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.appointments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *TutoringStore) TeacherAppointments(_ context.Context, q tutoring.TeacherQuery) ([]tutoring.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tutoring.Appointment
	for _, a := range s.appointments {
		if a.TeacherID != q.TeacherID {
			continue
		}
		if q.Statuses != nil && !containsStatus(q.Statuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.ByUpdated {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *TutoringStore) StudentAppointments(_ context.Context, studentID int) ([]tutoring.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tutoring.Appointment
	for _, a := range s.appointments {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *TutoringStore) Slots(_ context.Context, teacherID int) ([]tutoring.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tutoring.Slot
	for _, sl := range s.slots {
		if sl.TeacherID == teacherID {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *TutoringStore) Slot(_ context.Context, id int) (*tutoring.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[id]; ok {
		return &sl, nil
	}
	return nil, nil
}

func (s *TutoringStore) InsertSlot(_ context.Context, slot *tutoring.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.TeacherID == slot.TeacherID && sl.Day == slot.Day && sl.Start == slot.Start && sl.End == slot.End {
			return apperr.New(apperr.Conflict, "availability slot already exists")
		}
	}
	s.nextSlotID++
	slot.ID = s.nextSlotID
	s.slots[slot.ID] = *slot
	return nil
}

func (s *TutoringStore) DeleteSlot(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, id)
	return nil
}

type tutoringTx struct {
	appointments map[int]tutoring.Appointment
	nextID       int
}

func (tx *tutoringTx) HasPending(_ context.Context, studentID, teacherID int) (bool, error) {
	for _, a := range tx.appointments {
		if a.StudentID == studentID && a.TeacherID == teacherID && a.Status == tutoring.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (tx *tutoringTx) Insert(_ context.Context, a *tutoring.Appointment) error {
	tx.nextID++
	a.ID = tx.nextID
	tx.appointments[a.ID] = *a
	return nil
}

func (tx *tutoringTx) Lock(_ context.Context, id int) (*tutoring.Appointment, error) {
	if a, ok := tx.appointments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (tx *tutoringTx) Update(_ context.Context, a *tutoring.Appointment) error {
	if _, ok := tx.appointments[a.ID]; !ok {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	tx.appointments[a.ID] = *a
	return nil
}

func containsStatus(list []tutoring.Status, s tutoring.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// RecordingNotifier captures appointment notices.
type RecordingNotifier struct {
	mu      sync.Mutex
	Notices []tutoring.Appointment
	Err     error
}

func (n *RecordingNotifier) AppointmentChanged(_ context.Context, _ tutoring.User, a tutoring.Appointment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, a)
	return n.Err
}
