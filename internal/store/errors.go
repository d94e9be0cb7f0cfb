package store

import "errors"

var (
	ErrNotFound     = errors.New("session not found")
	ErrPlanNotFound = errors.New("no plan generated for session")
)
