package resolve

import "errors"

// errNoValue covers secrets that exist but carry neither a string nor a
// binary payload.
var errNoValue = errors.New("secret has no value")
