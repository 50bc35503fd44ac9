// Package errs provides the error vocabulary shared by the dispatch service.
//
// Each error kind follows the same shape:
//   - a sentinel variable (ErrObjectNotFound, ErrValueIsInvalid, ...) used with errors.Is
//   - a struct carrying the details of one occurrence
//   - constructors with and without a cause
//   - Error() for a single-line message and Unwrap() returning the sentinel
//
// The dispatch coordinator relies on this split to tell "already resolved" outcomes
// (ErrObjectNotFound) from transient store failures, and the HTTP adapter maps the
// sentinels to status codes.
package errs
