package domain

import (
	"context"
	"errors"
)

type GetCourseRequest struct {
	ID string
}

type Service interface {
	GetByID(context.Context, GetCourseRequest) (Course, error)
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrCourseNotFound = errors.New("course_not_found")
)
