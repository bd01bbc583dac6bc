package model

import "errors"

var (
	// ErrDataCompleteness is returned when a required weekday or table is missing.
	ErrDataCompleteness = errors.New("incomplete data")
	// ErrInsufficientHistory is returned when there is too little history to forecast or validate.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDegenerateInput is returned for inputs that make the computation undefined.
	ErrDegenerateInput = errors.New("degenerate input")
)
