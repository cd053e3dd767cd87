package clientapi

import (
	"fmt"
)

// ConnectivityError means a node could not be reached or did not answer in
// time. It aborts the whole block or epoch attempt.
type ConnectivityError struct {
	Node string
	Path string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("unable to reach %s%s: %v", e.Node, e.Path, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StatusError is returned when a node answers with a status code the request
// did not list as accepted.
type StatusError struct {
	Node string
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s%s answered with status %d: %s", e.Node, e.Path, e.Code, e.Body)
}

// UnexpectedResponseError means the status or the shape of a response does
// not match any case the caller knows how to handle.
type UnexpectedResponseError struct {
	Node   string
	Path   string
	Code   int
	Reason string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %s%s (status %d): %s", e.Node, e.Path, e.Code, e.Reason)
}

func unexpected(resp Response, format string, args ...interface{}) *UnexpectedResponseError {
	return &UnexpectedResponseError{
		Node:   resp.Request.Node,
		Path:   resp.Request.Path,
		Code:   resp.Code,
		Reason: fmt.Sprintf(format, args...),
	}
}
