package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/institute-hub/backend/internal/models"
	"github.com/emilythestrangee/institute-hub/backend/internal/tutoring"
)

type TutoringHandler struct {
	svc *tutoring.Service
}

func NewTutoringHandler(svc *tutoring.Service) *TutoringHandler {
	return &TutoringHandler{svc: svc}
}

type personResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newPersonResponse(u *tutoring.User) *personResponse {
	if u == nil {
		return nil
	}
	return &personResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type appointmentResponse struct {
	ID              int             `json:"id"`
	StudentID       int             `json:"student_id"`
	TeacherID       int             `json:"teacher_id"`
	Student         *personResponse `json:"student,omitempty"`
	Teacher         *personResponse `json:"teacher,omitempty"`
	Status          string          `json:"status"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	RequestedDate   string          `json:"requested_date"`
	RequestedTime   string          `json:"requested_time"`
	MeetURL         *string         `json:"meet_url"`
	RejectionReason *string         `json:"rejection_reason"`
	Attended        bool            `json:"attended"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// newAppointmentResponse exposes the external status label and the
// requested day and time as seen in the institute's time zone.
func newAppointmentResponse(a tutoring.Appointment, loc *time.Location) appointmentResponse {
	local := a.StartTime.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return appointmentResponse{
		ID:              a.ID,
		StudentID:       a.StudentID,
		TeacherID:       a.TeacherID,
		Student:         newPersonResponse(a.Student),
		Teacher:         newPersonResponse(a.Teacher),
		Status:          a.Status.External(),
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		RequestedDate:   day.Format(time.RFC3339),
		RequestedTime:   local.Format("15:04"),
		MeetURL:         a.MeetURL,
		RejectionReason: a.RejectionReason,
		Attended:        a.Attended,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (h *TutoringHandler) presentAll(list []tutoring.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAppointmentResponse(a, h.svc.Location()))
	}
	return out
}

// GetTeacherRequests lists the caller's requests filtered by ?status.
func (h *TutoringHandler) GetTeacherRequests(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.svc.ListForTeacher(c.Request.Context(), teacherID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.presentAll(list)})
}

func (h *TutoringHandler) AcceptRequest(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.AcceptAppointmentRequest
	if !bindOptionalJSON(c, &input) {
		return
	}

	a, err := h.svc.Accept(c.Request.Context(), teacherID, id, input.MeetURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request accepted", "data": newAppointmentResponse(a, h.svc.Location())})
}

func (h *TutoringHandler) RejectRequest(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.RejectAppointmentRequest
	if !bindOptionalJSON(c, &input) {
		return
	}

	a, err := h.svc.Reject(c.Request.Context(), teacherID, id, input.RejectionReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request rejected", "data": newAppointmentResponse(a, h.svc.Location())})
}

func (h *TutoringHandler) MarkAttendance(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.MarkAttended(c.Request.Context(), teacherID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance recorded", "data": newAppointmentResponse(a, h.svc.Location())})
}

// GetTeacherHistory lists finished appointments, most recently updated first.
func (h *TutoringHandler) GetTeacherHistory(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.svc.History(c.Request.Context(), teacherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.presentAll(list)})
}

// CreateRequest books a session for the caller. Subject, topic and notes are
// echoed back but not stored.
func (h *TutoringHandler) CreateRequest(c *gin.Context) {
	studentID, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.CreateAppointmentRequest
	if !bindJSON(c, &input) {
		return
	}

	start, err := tutoring.ParseRequestedStart(input.RequestedDate, input.RequestedTime, h.svc.Location())
	if err != nil {
		respondError(c, err)
		return
	}
	a, err := h.svc.Create(c.Request.Context(), studentID, input.TeacherID, start)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := newAppointmentResponse(a, h.svc.Location())
	resp.Subject = input.Subject
	resp.Topic = input.Topic
	resp.Notes = input.Notes
	c.JSON(http.StatusCreated, gin.H{"message": "Request created", "data": resp})
}

func (h *TutoringHandler) GetStudentRequests(c *gin.Context) {
	studentID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.svc.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.presentAll(list)})
}

func (h *TutoringHandler) GetAvailableTeachers(c *gin.Context) {
	teachers, err := h.svc.Teachers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]personResponse, 0, len(teachers))
	for i := range teachers {
		out = append(out, *newPersonResponse(&teachers[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type slotResponse struct {
	ID        int    `json:"id"`
	TeacherID int    `json:"teacher_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func newSlotResponse(s tutoring.Slot) slotResponse {
	return slotResponse{ID: s.ID, TeacherID: s.TeacherID, DayOfWeek: s.Day, StartTime: s.Start, EndTime: s.End}
}

func (h *TutoringHandler) GetTeacherAvailability(c *gin.Context) {
	teacherID, ok := paramID(c, "teacherId")
	if !ok {
		return
	}
	slots, err := h.svc.Availability(c.Request.Context(), teacherID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, newSlotResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *TutoringHandler) CreateAvailability(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	var input models.CreateAvailabilityRequest
	if !bindJSON(c, &input) {
		return
	}
	slot, err := h.svc.AddSlot(c.Request.Context(), teacherID, input.DayOfWeek, input.StartTime, input.EndTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newSlotResponse(slot)})
}

func (h *TutoringHandler) DeleteAvailability(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveSlot(c.Request.Context(), teacherID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}
