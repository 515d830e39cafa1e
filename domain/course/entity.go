package course

import "time"

// Course represents one course in the catalog. Students enroll through the
// course_students join table; enrollment gates access to the course chat room.
type Course struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerID   string `gorm:"index;not null;type:text"`
	Title     string `gorm:"not null;type:text"`
	Overview  string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the Course entity.
func (Course) TableName() string {
	return "courses"
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID        uint   `gorm:"primaryKey"`
	CourseID  uint   `gorm:"index:idx_course_student,unique;not null"`
	StudentID string `gorm:"index:idx_course_student,unique;not null;type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the Enrollment entity.
func (Enrollment) TableName() string {
	return "course_students"
}
