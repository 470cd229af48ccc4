package model

import "errors"

// Store-level sentinels shared by repositories and usecases.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrCourseNotFound = errors.New("course not found")
)
