package services

import "errors"

// Shared error taxonomy. NotFound and PermissionDenied stay distinct so the
// UI can choose its wording; read paths that must not leak a private thread's
// existence map PermissionDenied to NotFound before returning.
var (
	ErrNotFound         = errors.New("record not found")
	ErrPermissionDenied = errors.New("permission denied")
)
