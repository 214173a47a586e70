package weberr

type fielder interface {
	Fields() map[string]interface{}
}

// Fields merges the log fields of every WithFields in the chain; outer ones
// win. The error key, when set, is reported as error_key.
func Fields(err error) (fields map[string]interface{}, ok bool) {
	var layers []map[string]interface{}
	for e := err; e != nil; e = unwrap(e) {
		if fe, isFielder := e.(fielder); isFielder {
			layers = append(layers, fe.Fields())
		}
	}
	key, keyed := Key(err)
	if len(layers) == 0 && !keyed {
		return nil, false
	}

	fields = make(map[string]interface{})
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			fields[k] = v
		}
	}
	if keyed {
		fields["error_key"] = key
	}
	return fields, true
}

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Fields() map[string]interface{} { return e.fields }

func (e *fieldsError) Unwrap() error { return e.error }
