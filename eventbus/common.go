package eventbus

import "errors"

var ErrNotAnEvent = errors.New("published value is not a domain event")
var ErrNilHandler = errors.New("handler must not be nil")
var ErrNilAdapter = errors.New("adapter must not be nil")
var ErrEmptyPattern = errors.New("subscription pattern must not be empty")
var ErrHandlerNotImplemented = errors.New("handler does not implement this method")
var ErrMarshalingEventDataFailed = errors.New("marshaling event data failed")
