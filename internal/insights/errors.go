package insights

import "errors"

// ErrNotFound marks a definitive 404: the resource does not exist and the
// fetch must not be retried.
var ErrNotFound = errors.New("resource not found")

// ErrUnreachable marks the one pipeline-fatal condition: the landing page
// could not be retrieved after retries. Every other sub-extraction failure
// degrades to an empty result instead.
var ErrUnreachable = errors.New("site unreachable")
