package filesystem

import "errors"

var errTooManyLinks = errors.New("too many levels of symbolic links")
