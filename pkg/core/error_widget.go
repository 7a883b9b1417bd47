package core

import (
	"sync"

	"github.com/go-drift/drift/pkg/errors"
)

// ErrorWidgetBuilder creates a fallback widget when a widget build fails.
// The builder receives the build error and should return a widget to display
// in place of the failed widget.
type ErrorWidgetBuilder func(err *errors.BoundaryError) Widget

var (
	errorWidgetBuilder ErrorWidgetBuilder = DefaultErrorWidgetBuilder
	errorBuilderMu     sync.RWMutex
)

// SetErrorWidgetBuilder configures the global error widget builder.
// Pass nil to restore the default builder.
func SetErrorWidgetBuilder(builder ErrorWidgetBuilder) {
	errorBuilderMu.Lock()
	defer errorBuilderMu.Unlock()
	if builder == nil {
		errorWidgetBuilder = DefaultErrorWidgetBuilder
	} else {
		errorWidgetBuilder = builder
	}
}

// GetErrorWidgetBuilder returns the current error widget builder.
func GetErrorWidgetBuilder() ErrorWidgetBuilder {
	errorBuilderMu.RLock()
	defer errorBuilderMu.RUnlock()
	return errorWidgetBuilder
}

// DefaultErrorWidgetBuilder is the PolicySubstitutePlaceholder fallback:
// it returns nil, and safeBuild treats a nil replacement as "render
// nothing for this subtree" rather than propagating the panic further
// up the tree. Embedders with a widget catalogue should install a
// builder that returns something more informative via
// SetErrorWidgetBuilder.
func DefaultErrorWidgetBuilder(err *errors.BoundaryError) Widget {
	return nil
}

// ErrorBoundaryCapture is implemented by error boundary elements to capture
// build errors from descendant widgets.
type ErrorBoundaryCapture interface {
	// CaptureError captures a build error from a descendant widget.
	// Returns true if the error was captured and handled.
	CaptureError(err *errors.BoundaryError) bool
}
