package weberr

import "errors"

type responder interface {
	Response() (body interface{}, status int)
}

// Response returns the body and status the outermost WithResponse asked for.
// An ErrorResponse without a key picks up the error key from the chain.
func Response(err error) (body interface{}, status int, ok bool) {
	var re responder
	if !errors.As(err, &re) {
		return nil, 0, false
	}

	body, status = re.Response()
	if eb, isErr := body.(*ErrorResponse); isErr && eb != nil && eb.ErrorKey == "" {
		if key, found := Key(err); found {
			keyed := *eb
			keyed.ErrorKey = key
			body = &keyed
		}
	}
	return body, status, true
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) {
	return e.body, e.status
}

func (e *responseError) Unwrap() error {
	return e.error
}
