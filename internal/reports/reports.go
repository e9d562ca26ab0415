// Package reports computes the aggregates shown on a student's academic
// reports. Everything here is pure; loading the rows is the caller's job.
package reports

import "math"

// Enrollment statuses as stored.
const (
	StatusActive   = "active"
	ResultApproved = "approved"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Average is the mean score, or 0 with no scores.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return Round2(sum / float64(len(scores)))
}

// Percent returns part/total as a percentage, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) * 100 / float64(total))
}

// AttendancePercent is the share of sessions marked present.
func AttendancePercent(present []bool) float64 {
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return Percent(n, len(present))
}

// EnrollmentState is the slice of an enrollment the summary needs.
// ResultStatus is empty when no final result has been recorded.
type EnrollmentState struct {
	AcademicStatus string
	ResultStatus   string
}

type Summary struct {
	TotalCourses      int     `json:"total_courses"`
	CompletedCourses  int     `json:"completed_courses"`
	InProgressCourses int     `json:"in_progress_courses"`
	CompletionPercent float64 `json:"completion_percent"`
}

// Summarize counts completed courses by an approved result and in-progress
// courses by an active academic status.
func Summarize(enrollments []EnrollmentState) Summary {
	s := Summary{TotalCourses: len(enrollments)}
	for _, e := range enrollments {
		if e.ResultStatus == ResultApproved {
			s.CompletedCourses++
		}
		if e.AcademicStatus == StatusActive {
			s.InProgressCourses++
		}
	}
	s.CompletionPercent = Percent(s.CompletedCourses, s.TotalCourses)
	return s
}
