// backend/src/services/errors.go
package services

import "errors"

var (
	ErrMappingInvalid  = errors.New("column mapping is invalid")
	ErrParsingFailed   = errors.New("failed to parse file")
	ErrStorageFailed   = errors.New("failed to store import")
	ErrPreviewNotFound = errors.New("import preview not found or expired")
	ErrUnknownSource   = errors.New("unknown import source")
)
