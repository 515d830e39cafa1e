package courses

import (
	"errors"
	"fmt"

	domain "github.com/example/course-chat/domain/course"
	"gorm.io/gorm"
)

var (
	// ErrCourseNotFound is returned when a course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrTitleRequired is returned when a course is created without a title.
	ErrTitleRequired = errors.New("course title is required")
)

// CourseRepository handles course and enrollment persistence using GORM.
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{
		db: db,
	}
}

// Create creates a new course.
func (r *CourseRepository) Create(course *domain.Course) error {
	if course.Title == "" {
		return ErrTitleRequired
	}
	if result := r.db.Create(course); result.Error != nil {
		return fmt.Errorf("failed to create course: %w", result.Error)
	}
	return nil
}

// FindByID finds a course by ID.
func (r *CourseRepository) FindByID(id uint) (*domain.Course, error) {
	var course domain.Course
	result := r.db.First(&course, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, result.Error
	}
	return &course, nil
}

// List returns all courses.
func (r *CourseRepository) List() ([]domain.Course, error) {
	var courseList []domain.Course
	if result := r.db.Order("id").Find(&courseList); result.Error != nil {
		return nil, result.Error
	}
	return courseList, nil
}

// Enroll adds a student to a course. Enrolling twice is a no-op.
func (r *CourseRepository) Enroll(courseID uint, studentID string) error {
	if _, err := r.FindByID(courseID); err != nil {
		return err
	}

	enrollment := domain.Enrollment{CourseID: courseID, StudentID: studentID}
	result := r.db.
		Where(domain.Enrollment{CourseID: courseID, StudentID: studentID}).
		FirstOrCreate(&enrollment)
	if result.Error != nil {
		return fmt.Errorf("failed to enroll: %w", result.Error)
	}
	return nil
}

// IsEnrolled reports whether a student is enrolled in a course.
func (r *CourseRepository) IsEnrolled(studentID string, courseID uint) (bool, error) {
	var count int64
	result := r.db.Model(&domain.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
