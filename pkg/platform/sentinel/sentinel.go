package sentinel

import "errors"

// ErrNotFound is returned (optionally wrapped) by stores when a record does not
// exist. Services translate it into a domain error.
//
// Validation failures belong in pkg/domain-errors, not here.
var ErrNotFound = errors.New("not found")
