package courses

import (
	"errors"
	"testing"

	domain "github.com/example/course-chat/domain/course"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *CourseRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Course{}, &domain.Enrollment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewCourseRepository(db)
}

func TestCourseRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepository(t)

	course := &domain.Course{
		OwnerID:  "teacher-1",
		Title:    "Distributed Systems",
		Overview: "From clocks to consensus",
	}
	if err := repo.Create(course); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if course.ID == 0 {
		t.Error("expected course to be assigned an id")
	}

	found, err := repo.FindByID(course.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Title != "Distributed Systems" {
		t.Errorf("Title = %q, want %q", found.Title, "Distributed Systems")
	}
	if found.OwnerID != "teacher-1" {
		t.Errorf("OwnerID = %q, want %q", found.OwnerID, "teacher-1")
	}
}

func TestCourseRepository_CreateRequiresTitle(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Create(&domain.Course{OwnerID: "teacher-1"})
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("Create() error = %v, want ErrTitleRequired", err)
	}
}

func TestCourseRepository_FindByIDNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByID(999)
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("FindByID() error = %v, want ErrCourseNotFound", err)
	}
}

func TestCourseRepository_List(t *testing.T) {
	repo := newTestRepository(t)

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len(List()) = %d, want 0", len(list))
	}

	for _, title := range []string{"Algorithms", "Databases", "Networks"} {
		if err := repo.Create(&domain.Course{OwnerID: "teacher-1", Title: title}); err != nil {
			t.Fatalf("Create(%q) error = %v", title, err)
		}
	}

	list, err = repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(list))
	}
	if list[0].Title != "Algorithms" {
		t.Errorf("list[0].Title = %q, want %q", list[0].Title, "Algorithms")
	}
}

func TestCourseRepository_EnrollAndCheck(t *testing.T) {
	repo := newTestRepository(t)
	course := &domain.Course{OwnerID: "teacher-1", Title: "Compilers"}
	if err := repo.Create(course); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	enrolled, err := repo.IsEnrolled("student-1", course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if enrolled {
		t.Error("IsEnrolled() = true before enrolling")
	}

	if err := repo.Enroll(course.ID, "student-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	enrolled, err = repo.IsEnrolled("student-1", course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if !enrolled {
		t.Error("IsEnrolled() = false after enrolling")
	}

	// Enrollment is scoped per student and per course
	otherEnrolled, err := repo.IsEnrolled("student-2", course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if otherEnrolled {
		t.Error("IsEnrolled() = true for a student who never enrolled")
	}
}

func TestCourseRepository_EnrollIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	course := &domain.Course{OwnerID: "teacher-1", Title: "Operating Systems"}
	if err := repo.Create(course); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Enroll(course.ID, "student-1"); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if err := repo.Enroll(course.ID, "student-1"); err != nil {
		t.Fatalf("second Enroll() error = %v", err)
	}

	enrolled, err := repo.IsEnrolled("student-1", course.ID)
	if err != nil {
		t.Fatalf("IsEnrolled() error = %v", err)
	}
	if !enrolled {
		t.Error("IsEnrolled() = false after double enroll")
	}
}

func TestCourseRepository_EnrollUnknownCourse(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Enroll(999, "student-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Enroll() error = %v, want ErrCourseNotFound", err)
	}
}
