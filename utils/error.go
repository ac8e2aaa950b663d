package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorConflict marks a submission racing a finished inspection
// ("already completed"); callers surface it as an HTTP 409.
var ErrorConflict = errors.New("conflict")

// ErrorValidation marks a synchronously rejected input; no partial write
// happened. Wrap with fmt.Errorf("%w: ...") for detail.
var ErrorValidation = errors.New("validation failed")

// ErrorConfiguration marks a per-schedule configuration problem (unknown
// asset tag, malformed week rank). It rolls back only that schedule's work.
var ErrorConfiguration = errors.New("configuration error")
