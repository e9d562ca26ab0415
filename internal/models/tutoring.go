package models

import "time"

type Appointment struct {
	ID              int        `gorm:"primaryKey"`
	StudentID       int        `gorm:"not null;index:idx_appointments_pair"`
	Student         User       `gorm:"foreignKey:StudentID"`
	TeacherID       int        `gorm:"not null;index:idx_appointments_pair;index"`
	Teacher         User       `gorm:"foreignKey:TeacherID"`
	StartTime       time.Time  `gorm:"not null"`
	EndTime         time.Time  `gorm:"not null"`
	Status          string     `gorm:"size:16;not null;default:pending;index"`
	MeetURL         *string    `gorm:"size:512"`
	RejectionReason *string    `gorm:"type:text"`
	Attended        bool       `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailabilitySlot is a recurring weekly window a teacher can be booked in.
// StartTime/EndTime are "HH:MM" wall-clock strings.
type AvailabilitySlot struct {
	ID        int       `gorm:"primaryKey"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_availability_slot"`
	Teacher   User      `gorm:"foreignKey:UserID"`
	DayOfWeek string    `gorm:"size:10;not null;uniqueIndex:idx_availability_slot"`
	StartTime string    `gorm:"size:5;not null;uniqueIndex:idx_availability_slot"`
	EndTime   string    `gorm:"size:5;not null;uniqueIndex:idx_availability_slot"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AvailabilitySlot) TableName() string {
	return "availabilities"
}

type CreateAppointmentRequest struct {
	TeacherID     int    `json:"teacher_id" binding:"required,gt=0"`
	Subject       string `json:"subject" binding:"omitempty,max=255"`
	Topic         string `json:"topic" binding:"omitempty,max=255"`
	RequestedDate string `json:"requested_date" binding:"required,datetime=2006-01-02"`
	RequestedTime string `json:"requested_time" binding:"required,datetime=15:04"`
	Notes         string `json:"notes"`
}

type AcceptAppointmentRequest struct {
	MeetURL *string `json:"meet_url" binding:"omitempty,url"`
}

type RejectAppointmentRequest struct {
	RejectionReason *string `json:"rejection_reason" binding:"omitempty,min=10"`
}

type CreateAvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime   string `json:"end_time" binding:"required,datetime=15:04"`
}
