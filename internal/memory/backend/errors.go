package backend

import "errors"

var errUnsupportedSnapshot = errors.New("snapshot type not produced by this backend")
