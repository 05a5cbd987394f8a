package repository

import "errors"

var (
	// ErrDocumentNotFound indicates no record exists for the requested id
	ErrDocumentNotFound = errors.New("document not found")

	// ErrRepositoryUnavailable indicates the database could not be opened
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
