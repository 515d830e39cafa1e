package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	domain "github.com/example/course-chat/domain/course"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides the course catalog and the enrollment check that gates
// access to course chat rooms.
type Module struct {
	db     *gorm.DB
	repo   *CourseRepository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new courses module.
func NewModule() *Module {
	dbPath := os.Getenv("COURSES_DB_PATH")
	if dbPath == "" {
		dbPath = "course_chat_courses.db"
	}
	return &Module{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "courses"
}

// Start opens the database and migrates the course schema.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Course{}, &domain.Enrollment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewCourseRepository(db)
	log.Printf("[courses] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[courses] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceCreateCourse,
		json.Unmarshal,
		json.Marshal,
		m.handleCreateCourse,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateCourse, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListCourses,
		json.Unmarshal,
		json.Marshal,
		m.handleListCourses,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListCourses, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetCourse,
		json.Unmarshal,
		json.Marshal,
		m.handleGetCourse,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetCourse, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceEnroll,
		json.Unmarshal,
		json.Marshal,
		m.handleEnroll,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceEnroll, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceIsEnrolled,
		json.Unmarshal,
		json.Marshal,
		m.handleIsEnrolled,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceIsEnrolled, err)
	}

	log.Printf("[courses] Registered services: create-course, list-courses, get-course, enroll, is-enrolled")
	return nil
}

func (m *Module) handleCreateCourse(_ context.Context, req CreateCourseRequest, _ *mono.Msg) (CreateCourseResponse, error) {
	course := &domain.Course{
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		Overview: req.Overview,
	}
	if err := m.repo.Create(course); err != nil {
		return CreateCourseResponse{}, err
	}
	return CreateCourseResponse{Course: toCourseInfo(course)}, nil
}

func (m *Module) handleListCourses(_ context.Context, _ ListCoursesRequest, _ *mono.Msg) (ListCoursesResponse, error) {
	courseList, err := m.repo.List()
	if err != nil {
		return ListCoursesResponse{}, err
	}

	infos := make([]CourseInfo, 0, len(courseList))
	for i := range courseList {
		infos = append(infos, toCourseInfo(&courseList[i]))
	}
	return ListCoursesResponse{Courses: infos}, nil
}

func (m *Module) handleGetCourse(_ context.Context, req GetCourseRequest, _ *mono.Msg) (GetCourseResponse, error) {
	course, err := m.repo.FindByID(req.CourseID)
	if err != nil {
		return GetCourseResponse{}, err
	}
	return GetCourseResponse{Course: toCourseInfo(course)}, nil
}

func (m *Module) handleEnroll(_ context.Context, req EnrollRequest, _ *mono.Msg) (EnrollResponse, error) {
	if err := m.repo.Enroll(req.CourseID, req.StudentID); err != nil {
		return EnrollResponse{}, err
	}
	return EnrollResponse{Success: true}, nil
}

func (m *Module) handleIsEnrolled(_ context.Context, req IsEnrolledRequest, _ *mono.Msg) (IsEnrolledResponse, error) {
	enrolled, err := m.repo.IsEnrolled(req.StudentID, req.CourseID)
	if err != nil {
		return IsEnrolledResponse{}, err
	}
	return IsEnrolledResponse{Enrolled: enrolled}, nil
}

func toCourseInfo(c *domain.Course) CourseInfo {
	return CourseInfo{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Title:     c.Title,
		Overview:  c.Overview,
		CreatedAt: c.CreatedAt,
	}
}
