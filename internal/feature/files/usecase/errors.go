package usecase

import "errors"

var (
	ErrEmptyFileName = errors.New("file name is required")
	ErrEmptyFile     = errors.New("file is empty")
	ErrInvalidUserID = errors.New("user id is required")
)
