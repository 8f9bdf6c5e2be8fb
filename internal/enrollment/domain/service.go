package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type EnrollRequest struct {
	UserID        snowflake.ID
	CourseID      snowflake.ID
	SourceEventID snowflake.ID
}

type EnrollResult struct {
	Enrollment Enrollment
	// AlreadyEnrolled is set when the user already had access to the
	// course and no new row was written.
	AlreadyEnrolled bool
}

type Service interface {
	Enroll(context.Context, EnrollRequest) (EnrollResult, error)
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidCourse  = errors.New("invalid_course")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrCourseNotFound = errors.New("course_not_found")
)
