package weberr

// Opt decorates an error with something the Errors middleware reads back:
// a response, log fields or an error key.
type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

// WithKey names the rule a request broke, e.g. idexists or search.malformed.
// The key is copied into an ErrorResponse body and into the log fields.
func WithKey(key string) Opt {
	return func(err error) error {
		return &keyError{error: err, key: key}
	}
}

// WithEntity tags the error with the projection index and entity it concerns.
func WithEntity(index string, id int64) Opt {
	return WithFields(map[string]interface{}{"index": index, "entity_id": id})
}

type keyError struct {
	error
	key string
}

func (e *keyError) Unwrap() error { return e.error }

// Key returns the outermost error key in the chain.
func Key(err error) (string, bool) {
	for ; err != nil; err = unwrap(err) {
		if ke, ok := err.(*keyError); ok {
			return ke.key, true
		}
	}
	return "", false
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
