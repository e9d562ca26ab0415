package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

// TutoringStore is the postgres tutoring.Store.
type TutoringStore struct {
	db *gorm.DB
}

var _ tutoring.Store = (*TutoringStore)(nil)

func NewTutoringStore(db *gorm.DB) *TutoringStore {
	return &TutoringStore{db: db}
}

func (s *TutoringStore) Atomically(ctx context.Context, lockKey string, fn func(tx tutoring.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if lockKey != "" {
			if err := advisoryLock(tx, lockKey); err != nil {
				return err
			}
		}
		return fn(&appointmentTx{db: tx})
	})
}

func (s *TutoringStore) User(ctx context.Context, id int) (*tutoring.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Take(&u, id).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "tutoring: user", "")
	}
	out := toTutoringUser(u)
	return &out, nil
}

func (s *TutoringStore) Teachers(ctx context.Context) ([]tutoring.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleTeacher).
		Order("name asc").
		Find(&users).Error
	if err != nil {
		return nil, wrap(err, "tutoring: teachers", "")
	}
	out := make([]tutoring.User, 0, len(users))
	for _, u := range users {
		out = append(out, toTutoringUser(u))
	}
	return out, nil
}

func (s *TutoringStore) Appointment(ctx context.Context, id int) (*tutoring.Appointment, error) {
	var row models.Appointment
	err := s.db.WithContext(ctx).Preload("Student").Preload("Teacher").Take(&row, id).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "tutoring: appointment", "")
	}
	a := toAppointment(row)
	return &a, nil
}

func (s *TutoringStore) TeacherAppointments(ctx context.Context, q tutoring.TeacherQuery) ([]tutoring.Appointment, error) {
	db := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Teacher").
		Where("teacher_id = ?", q.TeacherID)
	if q.Statuses != nil {
		statuses := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		db = db.Where("status IN ?", statuses)
	}
	if q.ByUpdated {
		db = db.Order("updated_at desc")
	} else {
		db = db.Order("created_at desc").Order("id desc")
	}

	var rows []models.Appointment
	if err := db.Find(&rows).Error; err != nil {
		return nil, wrap(err, "tutoring: teacher appointments", "")
	}
	return toAppointments(rows), nil
}

func (s *TutoringStore) StudentAppointments(ctx context.Context, studentID int) ([]tutoring.Appointment, error) {
	var rows []models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Teacher").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Order("id desc").
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "tutoring: student appointments", "")
	}
	return toAppointments(rows), nil
}

func (s *TutoringStore) Slots(ctx context.Context, teacherID int) ([]tutoring.Slot, error) {
	var rows []models.AvailabilitySlot
	err := s.db.WithContext(ctx).Where("user_id = ?", teacherID).Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "tutoring: slots", "")
	}
	out := make([]tutoring.Slot, 0, len(rows))
	for _, r := range rows {
		out = append(out, toSlot(r))
	}
	return out, nil
}

func (s *TutoringStore) Slot(ctx context.Context, id int) (*tutoring.Slot, error) {
	var row models.AvailabilitySlot
	err := s.db.WithContext(ctx).Take(&row, id).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "tutoring: slot", "")
	}
	slot := toSlot(row)
	return &slot, nil
}

func (s *TutoringStore) InsertSlot(ctx context.Context, slot *tutoring.Slot) error {
	row := models.AvailabilitySlot{
		UserID:    slot.TeacherID,
		DayOfWeek: slot.Day,
		StartTime: slot.Start,
		EndTime:   slot.End,
		CreatedAt: slot.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrap(err, "tutoring: insert slot", "availability slot already exists")
	}
	slot.ID = row.ID
	return nil
}

func (s *TutoringStore) DeleteSlot(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Delete(&models.AvailabilitySlot{}, id).Error
	return wrap(err, "tutoring: delete slot", "")
}

type appointmentTx struct {
	db *gorm.DB
}

func (tx *appointmentTx) HasPending(ctx context.Context, studentID, teacherID int) (bool, error) {
	var n int64
	err := tx.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("student_id = ? AND teacher_id = ? AND status = ?", studentID, teacherID, string(tutoring.StatusPending)).
		Count(&n).Error
	if err != nil {
		return false, wrap(err, "tutoring: has pending", "")
	}
	return n > 0, nil
}

func (tx *appointmentTx) Insert(ctx context.Context, a *tutoring.Appointment) error {
	row := models.Appointment{
		StudentID: a.StudentID,
		TeacherID: a.TeacherID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    string(a.Status),
		MeetURL:   a.MeetURL,
		Attended:  a.Attended,
	}
	if err := tx.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return wrap(err, "tutoring: insert appointment", "pending request already exists")
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	a.UpdatedAt = row.UpdatedAt
	return nil
}

// Lock reads the appointment with SELECT ... FOR UPDATE. Only the appointment
// row is locked; the preloaded users are plain reads.
func (tx *appointmentTx) Lock(ctx context.Context, id int) (*tutoring.Appointment, error) {
	var row models.Appointment
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Student").
		Preload("Teacher").
		Take(&row, id).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "tutoring: lock appointment", "")
	}
	a := toAppointment(row)
	return &a, nil
}

func (tx *appointmentTx) Update(ctx context.Context, a *tutoring.Appointment) error {
	res := tx.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":           string(a.Status),
			"meet_url":         a.MeetURL,
			"rejection_reason": a.RejectionReason,
			"attended":         a.Attended,
			"updated_at":       a.UpdatedAt,
		})
	if res.Error != nil {
		return wrap(res.Error, "tutoring: update appointment", "")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	return nil
}

func toTutoringUser(u models.User) tutoring.User {
	return tutoring.User{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

func toAppointment(row models.Appointment) tutoring.Appointment {
	a := tutoring.Appointment{
		ID:              row.ID,
		StudentID:       row.StudentID,
		TeacherID:       row.TeacherID,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		Status:          tutoring.Status(row.Status),
		MeetURL:         row.MeetURL,
		RejectionReason: row.RejectionReason,
		Attended:        row.Attended,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	// Legacy rows may carry labels outside the canonical set.
	if st, err := tutoring.ParseStatus(row.Status); err == nil {
		a.Status = st
	}
	if row.Student.ID != 0 {
		u := toTutoringUser(row.Student)
		a.Student = &u
	}
	if row.Teacher.ID != 0 {
		u := toTutoringUser(row.Teacher)
		a.Teacher = &u
	}
	return a
}

func toAppointments(rows []models.Appointment) []tutoring.Appointment {
	out := make([]tutoring.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAppointment(r))
	}
	return out
}

func toSlot(r models.AvailabilitySlot) tutoring.Slot {
	return tutoring.Slot{
		ID:        r.ID,
		TeacherID: r.UserID,
		Day:       r.DayOfWeek,
		Start:     r.StartTime,
		End:       r.EndTime,
		CreatedAt: r.CreatedAt,
	}
}
