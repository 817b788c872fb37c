package core

// Error is a message followed by the errors it wraps. It formats without fmt
// so the device build stays small; errors.Is and errors.As see every wrapped
// error.
type Error struct {
	Msg  string
	Errs []error
}

// Wrap returns an Error reading "msg: err1: err2". Nil errors are skipped;
// with none left, the result reads msg alone.
func Wrap(msg string, errs ...error) error {
	e := &Error{Msg: msg}
	for _, err := range errs {
		if err != nil {
			e.Errs = append(e.Errs, err)
		}
	}
	return e
}

func (e *Error) Error() string {
	s := e.Msg
	for _, err := range e.Errs {
		s += ": " + err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	return e.Errs
}
