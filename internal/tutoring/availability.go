package tutoring

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
)

// Slot is a recurring weekly window a teacher declares as bookable.
// Start and End are HH:MM wall-clock times.
type Slot struct {
	ID        int
	TeacherID int
	Day       string
	Start     string
	End       string
	CreatedAt time.Time
}

var weekdayOrder = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// SortSlots orders slots monday..sunday, then by start time.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		di, dj := weekdayOrder[slots[i].Day], weekdayOrder[slots[j].Day]
		if di != dj {
			return di < dj
		}
		return slots[i].Start < slots[j].Start
	})
}

// Availability lists a teacher's weekly slots.
func (s *Service) Availability(ctx context.Context, teacherID int) ([]Slot, error) {
	teacher, err := s.store.User(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, apperr.New(apperr.NotFound, "teacher not found")
	}
	slots, err := s.store.Slots(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	SortSlots(slots)
	return slots, nil
}

// AddSlot declares a new weekly slot for actorID, who must be a teacher.
func (s *Service) AddSlot(ctx context.Context, actorID int, day, start, end string) (Slot, error) {
	actor, err := s.store.User(ctx, actorID)
	if err != nil {
		return Slot{}, err
	}
	if actor == nil || !actor.IsTeacher() {
		return Slot{}, apperr.New(apperr.PermissionDenied, "only teachers can declare availability")
	}

	day = strings.ToLower(strings.TrimSpace(day))
	if _, ok := weekdayOrder[day]; !ok {
		return Slot{}, apperr.Newf(apperr.InvalidArgument, "invalid day_of_week %q", day)
	}
	st, err := time.Parse("15:04", strings.TrimSpace(start))
	if err != nil {
		return Slot{}, apperr.New(apperr.InvalidArgument, "start_time must be HH:MM")
	}
	et, err := time.Parse("15:04", strings.TrimSpace(end))
	if err != nil {
		return Slot{}, apperr.New(apperr.InvalidArgument, "end_time must be HH:MM")
	}
	if !et.After(st) {
		return Slot{}, apperr.New(apperr.InvalidArgument, "end_time must be after start_time")
	}

	slot := Slot{
		TeacherID: actorID,
		Day:       day,
		Start:     st.Format("15:04"),
		End:       et.Format("15:04"),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertSlot(ctx, &slot); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

// RemoveSlot deletes one of actorID's slots.
func (s *Service) RemoveSlot(ctx context.Context, actorID, slotID int) error {
	slot, err := s.store.Slot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot == nil {
		return apperr.New(apperr.NotFound, "availability slot not found")
	}
	if slot.TeacherID != actorID {
		return apperr.New(apperr.PermissionDenied, "only the owning teacher can remove this slot")
	}
	return s.store.DeleteSlot(ctx, slotID)
}
