package isolate

import "errors"

// ErrNoForeground means the whole image classified as background. The
// orchestrator recovers from it by returning the original image; it is
// exported so callers inspecting diagnostics can identify the condition.
var ErrNoForeground = errors.New("no foreground detected")
