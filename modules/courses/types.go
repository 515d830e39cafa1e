package courses

import "time"

// Service names registered in the service container.
const (
	ServiceCreateCourse = "create-course"
	ServiceListCourses  = "list-courses"
	ServiceGetCourse    = "get-course"
	ServiceEnroll       = "enroll"
	ServiceIsEnrolled   = "is-enrolled"
)

// CourseInfo is the transport form of a course.
type CourseInfo struct {
	ID        uint      `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Overview  string    `json:"overview,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCourseRequest creates a new course.
type CreateCourseRequest struct {
	OwnerID  string `json:"owner_id"`
	Title    string `json:"title"`
	Overview string `json:"overview"`
}

// CreateCourseResponse carries the created course.
type CreateCourseResponse struct {
	Course CourseInfo `json:"course"`
}

// ListCoursesRequest lists the catalog.
type ListCoursesRequest struct{}

// ListCoursesResponse carries all courses.
type ListCoursesResponse struct {
	Courses []CourseInfo `json:"courses"`
}

// GetCourseRequest fetches one course.
type GetCourseRequest struct {
	CourseID uint `json:"course_id"`
}

// GetCourseResponse carries the course.
type GetCourseResponse struct {
	Course CourseInfo `json:"course"`
}

// EnrollRequest enrolls a student in a course.
type EnrollRequest struct {
	CourseID  uint   `json:"course_id"`
	StudentID string `json:"student_id"`
}

// EnrollResponse reports the enrollment outcome.
type EnrollResponse struct {
	Success bool `json:"success"`
}

// IsEnrolledRequest is the authorization check consumed by the chat gateway.
type IsEnrolledRequest struct {
	StudentID string `json:"student_id"`
	CourseID  uint   `json:"course_id"`
}

// IsEnrolledResponse carries the boolean outcome.
type IsEnrolledResponse struct {
	Enrolled bool `json:"enrolled"`
}
