// Package service implements the marketplace operations on top of the
// storage ports: the item catalog, conversations and their messages, the
// rental lifecycle and reviews.  Every failure returned by this package is
// classified by one of the Err* kinds below so the HTTP layer can map it to
// a status code with errors.Is.
package service

import (
    "errors"
    "fmt"

    "github.com/iliyamo/peer-rental/internal/repository"
)

// Error kinds.
var (
    ErrNotFound   = errors.New("not found")
    ErrForbidden  = errors.New("forbidden")
    ErrConflict   = errors.New("conflict")
    ErrValidation = errors.New("validation failed")
    ErrInternal   = errors.New("internal error")
)

// Error carries a kind, a client-safe message and the underlying cause.
type Error struct {
    Kind error
    Msg  string
    Err  error
}

func (e *Error) Error() string {
    if e.Err != nil && e.Kind == ErrInternal {
        return fmt.Sprintf("%s: %v", e.Msg, e.Err)
    }
    return e.Msg
}

// Is matches the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }
func conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }
func invalid(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }
func internal(msg string, err error) error {
    return &Error{Kind: ErrInternal, Msg: msg, Err: err}
}

// storeErr classifies an error returned by a store.  A missing row becomes
// NotFound with msg; errors already classified by this package pass
// through; anything else is an infrastructure failure.
func storeErr(err error, msg string) error {
    var se *Error
    switch {
    case err == nil:
        return nil
    case errors.As(err, &se):
        return err
    case errors.Is(err, repository.ErrNotFound):
        return notFound(msg)
    default:
        return internal("storage failure", err)
    }
}
