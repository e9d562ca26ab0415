package models

import "time"

type Course struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"uniqueIndex" json:"code"`
}

type CourseVersion struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	CourseID int    `gorm:"index;not null" json:"course_id"`
	Course   Course `gorm:"foreignKey:CourseID" json:"course"`
	Version  string `json:"version"`
}

type Group struct {
	ID              int           `gorm:"primaryKey" json:"id"`
	CourseVersionID int           `gorm:"index;not null" json:"course_version_id"`
	CourseVersion   CourseVersion `gorm:"foreignKey:CourseVersionID" json:"course_version"`
	Name            string        `gorm:"not null" json:"name"`
	StartDate       *time.Time    `json:"start_date,omitempty"`
	EndDate         *time.Time    `json:"end_date,omitempty"`
}

// Academic statuses of an enrollment.
const (
	AcademicStatusActive    = "active"
	AcademicStatusCompleted = "completed"
	AcademicStatusDropped   = "dropped"
)

// Final result statuses.
const (
	ResultApproved = "approved"
	ResultFailed   = "failed"
)

type Enrollment struct {
	ID             int               `gorm:"primaryKey" json:"id"`
	UserID         int               `gorm:"index;not null;uniqueIndex:idx_enrollment_user_group" json:"user_id"`
	GroupID        int               `gorm:"index;not null;uniqueIndex:idx_enrollment_user_group" json:"group_id"`
	Group          Group             `gorm:"foreignKey:GroupID" json:"group"`
	AcademicStatus string            `gorm:"size:16;not null;default:active" json:"academic_status"`
	Result         *EnrollmentResult `gorm:"foreignKey:EnrollmentID" json:"result,omitempty"`
	Grades         []Grade           `gorm:"foreignKey:EnrollmentID" json:"grades,omitempty"`
	Attendances    []Attendance      `gorm:"foreignKey:EnrollmentID" json:"attendances,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type EnrollmentResult struct {
	ID           int     `gorm:"primaryKey" json:"id"`
	EnrollmentID int     `gorm:"uniqueIndex;not null" json:"enrollment_id"`
	FinalGrade   float64 `json:"final_grade"`
	Status       string  `gorm:"size:16;not null" json:"status"`
}

type Module struct {
	ID              int    `gorm:"primaryKey" json:"id"`
	CourseVersionID int    `gorm:"index;not null" json:"course_version_id"`
	Title           string `gorm:"not null" json:"title"`
	Position        int    `json:"position"`
}

type Exam struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	ModuleID int    `gorm:"index;not null" json:"module_id"`
	Module   Module `gorm:"foreignKey:ModuleID" json:"module"`
	Title    string `gorm:"not null" json:"title"`
}

type Grade struct {
	ID           int     `gorm:"primaryKey" json:"id"`
	EnrollmentID int     `gorm:"index;not null" json:"enrollment_id"`
	ExamID       int     `gorm:"index;not null" json:"exam_id"`
	Exam         Exam    `gorm:"foreignKey:ExamID" json:"exam"`
	Score        float64 `json:"score"`
}

type Attendance struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	EnrollmentID int       `gorm:"index;not null" json:"enrollment_id"`
	Date         time.Time `gorm:"type:date;not null" json:"date"`
	Present      bool      `json:"present"`
}

type StudentReportRequest struct {
	StudentID int `json:"student_id" binding:"required,gt=0"`
}

type CourseReportRequest struct {
	StudentID int `json:"student_id" binding:"required,gt=0"`
	GroupID   int `json:"group_id" binding:"required,gt=0"`
}
