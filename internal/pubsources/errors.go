package pubsources

import "errors"

// ErrSourceDisabled is the cause carried by a SourceResult for a source that
// is switched off in configuration or was never registered.
var ErrSourceDisabled = errors.New("source is not enabled")
