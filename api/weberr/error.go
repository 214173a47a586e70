package weberr

import (
	"net/http"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	ErrorKey string `json:"errorKey,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	return newError(err, &ErrorResponse{Error: msg}, status, opts...)
}

func newError(err error, body *ErrorResponse, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	if body == nil {
		opts = append(opts, WithResponse(nil, status))
	} else {
		opts = append(opts, WithResponse(body, status))
	}

	return Wrap(e, opts...)
}

// NotFound answers with an empty body.
func NotFound(err error, opts ...Opt) error {
	return newError(err, nil, http.StatusNotFound, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}

// Invalid is a validation failure; key names the rule that was broken.
func Invalid(err error, key string, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, append([]Opt{WithKey(key)}, opts...)...)
}

func SearchUnavailable(err error, opts ...Opt) error {
	return NewError(
		err,
		"search backend unavailable",
		http.StatusServiceUnavailable,
		append([]Opt{WithKey("search.unavailable")}, opts...)...,
	)
}

func SearchMalformed(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, append([]Opt{WithKey("search.malformed")}, opts...)...)
}
