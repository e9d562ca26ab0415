package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/institute-hub/backend/internal/database"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/reports"
)

type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{db: db}
}

type studentResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	DNI   string `json:"dni"`
}

type enrollmentResponse struct {
	ID             int        `json:"id"`
	GroupID        int        `json:"group_id"`
	Group          string     `json:"group"`
	Course         string     `json:"course"`
	CourseCode     string     `json:"course_code"`
	Version        string     `json:"version"`
	AcademicStatus string     `json:"academic_status"`
	FinalGrade     *float64   `json:"final_grade"`
	ResultStatus   string     `json:"result_status,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

func newEnrollmentResponse(e models.Enrollment) enrollmentResponse {
	r := enrollmentResponse{
		ID:             e.ID,
		GroupID:        e.GroupID,
		Group:          e.Group.Name,
		Course:         e.Group.CourseVersion.Course.Name,
		CourseCode:     e.Group.CourseVersion.Course.Code,
		Version:        e.Group.CourseVersion.Version,
		AcademicStatus: e.AcademicStatus,
		StartDate:      e.Group.StartDate,
		EndDate:        e.Group.EndDate,
	}
	if e.Result != nil {
		grade := e.Result.FinalGrade
		r.FinalGrade = &grade
		r.ResultStatus = e.Result.Status
	}
	return r
}

func (h *ReportHandler) student(c *gin.Context, id int) (models.User, bool) {
	var u models.User
	if err := h.db.Take(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return u, false
		}
		respondError(c, err)
		return u, false
	}
	return u, true
}

func (h *ReportHandler) enrollments(studentID int) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := h.db.Where("user_id = ?", studentID).
		Preload("Group.CourseVersion.Course").
		Preload("Result").
		Order("created_at desc").
		Find(&list).Error
	return list, err
}

func reportEnvelope(u models.User, body gin.H) gin.H {
	body["student"] = studentResponse{ID: u.ID, Name: u.Name, Email: u.Email, DNI: u.DNI}
	body["report_date"] = time.Now().Format("2006-01-02")
	return gin.H{"data": body}
}

// EnrolledCourses lists every enrollment of a student.
func (h *ReportHandler) EnrolledCourses(c *gin.Context) {
	var input models.StudentReportRequest
	if !bindJSON(c, &input) {
		return
	}
	u, ok := h.student(c, input.StudentID)
	if !ok {
		return
	}
	list, err := h.enrollments(u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "The student has no enrollments", "student_id": u.ID})
		return
	}

	out := make([]enrollmentResponse, 0, len(list))
	for _, e := range list {
		out = append(out, newEnrollmentResponse(e))
	}
	c.JSON(http.StatusOK, reportEnvelope(u, gin.H{"enrollments": out}))
}

type gradeResponse struct {
	Exam   string  `json:"exam"`
	Module string  `json:"module"`
	Score  float64 `json:"score"`
}

// SingleCourseGrades reports one enrollment's grades with its average and
// attendance percentage.
func (h *ReportHandler) SingleCourseGrades(c *gin.Context) {
	var input models.CourseReportRequest
	if !bindJSON(c, &input) {
		return
	}
	u, ok := h.student(c, input.StudentID)
	if !ok {
		return
	}

	var e models.Enrollment
	err := h.db.Where("user_id = ? AND group_id = ?", u.ID, input.GroupID).
		Preload("Group.CourseVersion.Course").
		Preload("Grades.Exam.Module").
		Preload("Attendances").
		Preload("Result").
		Take(&e).Error
	if database.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	grades := make([]gradeResponse, 0, len(e.Grades))
	scores := make([]float64, 0, len(e.Grades))
	for _, g := range e.Grades {
		grades = append(grades, gradeResponse{Exam: g.Exam.Title, Module: g.Exam.Module.Title, Score: g.Score})
		scores = append(scores, g.Score)
	}
	present := make([]bool, 0, len(e.Attendances))
	for _, a := range e.Attendances {
		present = append(present, a.Present)
	}

	c.JSON(http.StatusOK, reportEnvelope(u, gin.H{
		"enrollment":         newEnrollmentResponse(e),
		"grades":             grades,
		"average":            reports.Average(scores),
		"attendance_percent": reports.AttendancePercent(present),
		"sessions":           len(present),
	}))
}

// AcademicSummary counts a student's total, completed and in-progress courses.
func (h *ReportHandler) AcademicSummary(c *gin.Context) {
	var input models.StudentReportRequest
	if !bindJSON(c, &input) {
		return
	}
	u, ok := h.student(c, input.StudentID)
	if !ok {
		return
	}
	list, err := h.enrollments(u.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	states := make([]reports.EnrollmentState, 0, len(list))
	out := make([]enrollmentResponse, 0, len(list))
	for _, e := range list {
		st := reports.EnrollmentState{AcademicStatus: e.AcademicStatus}
		if e.Result != nil {
			st.ResultStatus = e.Result.Status
		}
		states = append(states, st)
		out = append(out, newEnrollmentResponse(e))
	}

	c.JSON(http.StatusOK, reportEnvelope(u, gin.H{
		"enrollments": out,
		"stats":       reports.Summarize(states),
	}))
}
