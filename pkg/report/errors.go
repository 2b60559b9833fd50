package report

import "errors"

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown format: must be text, json, or simple")
