package calendar

import "errors"

var ErrUnsupportedType = errors.New("unsupported source type")
