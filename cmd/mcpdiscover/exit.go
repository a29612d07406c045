package main

import (
	"errors"

	"mcpdiscover/internal/domain"
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

// exitWith maps discovery errors onto process exit codes.
func exitWith(err error) error {
	if err == nil {
		return nil
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		return err
	}
	code := 1
	if c, ok := domain.CodeFrom(err); ok {
		switch c {
		case domain.CodeUnavailable:
			code = 3
		case domain.CodeUnauthenticated:
			code = 4
		case domain.CodeFailedPrecond, domain.CodeInvalidArgument, domain.CodeNotFound:
			code = 2
		}
	}
	return exitError{code: code, message: err.Error()}
}
