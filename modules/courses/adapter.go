package courses

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CoursePort is the interface other modules use to reach the course catalog.
// IsEnrolled is the authorization contract the chat gateway consumes.
type CoursePort interface {
	CreateCourse(ctx context.Context, ownerID, title, overview string) (CourseInfo, error)
	ListCourses(ctx context.Context) ([]CourseInfo, error)
	GetCourse(ctx context.Context, courseID uint) (CourseInfo, error)
	Enroll(ctx context.Context, courseID uint, studentID string) error
	IsEnrolled(ctx context.Context, studentID string, courseID uint) (bool, error)
}

// CourseAdapter implements CoursePort using the service container.
type CourseAdapter struct {
	container mono.ServiceContainer
}

// NewCourseAdapter creates a new CourseAdapter.
func NewCourseAdapter(container mono.ServiceContainer) CoursePort {
	if container == nil {
		panic("courses: ServiceContainer is nil")
	}
	return &CourseAdapter{container: container}
}

// CreateCourse creates a new course.
func (a *CourseAdapter) CreateCourse(ctx context.Context, ownerID, title, overview string) (CourseInfo, error) {
	req := CreateCourseRequest{OwnerID: ownerID, Title: title, Overview: overview}
	var resp CreateCourseResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateCourse,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return CourseInfo{}, fmt.Errorf("failed to create course: %w", err)
	}
	return resp.Course, nil
}

// ListCourses returns the course catalog.
func (a *CourseAdapter) ListCourses(ctx context.Context) ([]CourseInfo, error) {
	req := ListCoursesRequest{}
	var resp ListCoursesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListCourses,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return resp.Courses, nil
}

// GetCourse fetches one course by id.
func (a *CourseAdapter) GetCourse(ctx context.Context, courseID uint) (CourseInfo, error) {
	req := GetCourseRequest{CourseID: courseID}
	var resp GetCourseResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetCourse,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return CourseInfo{}, fmt.Errorf("failed to get course: %w", err)
	}
	return resp.Course, nil
}

// Enroll adds a student to a course.
func (a *CourseAdapter) Enroll(ctx context.Context, courseID uint, studentID string) error {
	req := EnrollRequest{CourseID: courseID, StudentID: studentID}
	var resp EnrollResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceEnroll,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("enrollment was rejected")
	}
	return nil
}

// IsEnrolled reports whether a student may enter a course's chat room.
func (a *CourseAdapter) IsEnrolled(ctx context.Context, studentID string, courseID uint) (bool, error) {
	req := IsEnrolledRequest{StudentID: studentID, CourseID: courseID}
	var resp IsEnrolledResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceIsEnrolled,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return resp.Enrolled, nil
}
