package errors

import "go.uber.org/zap"

// ZapHandler is an ErrorHandler that logs through a structured
// go.uber.org/zap logger, for embedders that want leveled, structured
// output instead of the default stderr LogHandler.
type ZapHandler struct {
	Logger *zap.Logger
}

// NewZapHandler wraps logger as an ErrorHandler. A nil logger falls back
// to zap.NewNop(), so constructing a ZapHandler is always safe.
func NewZapHandler(logger *zap.Logger) *ZapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapHandler{Logger: logger}
}

// HandleError logs a DriftError at error level.
func (h *ZapHandler) HandleError(err *DriftError) {
	if err == nil {
		return
	}
	h.Logger.Error("drift error",
		zap.String("op", err.Op),
		zap.String("kind", err.Kind.String()),
		zap.String("channel", err.Channel),
		zap.Error(err.Err),
	)
}

// HandlePanic logs a recovered panic at error level, including the stack.
func (h *ZapHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	h.Logger.Error("drift panic",
		zap.String("op", err.Op),
		zap.Any("value", err.Value),
		zap.String("stack", err.StackTrace),
	)
}

// HandleBuildError logs a widget build error at error level.
func (h *ZapHandler) HandleBuildError(err *BuildError) {
	if err == nil {
		return
	}
	h.Logger.Error("drift build error",
		zap.String("widget", err.Widget),
		zap.String("element", err.Element),
		zap.Any("recovered", err.Recovered),
		zap.Error(err.Err),
	)
}

// HandleBoundaryError logs a boundary error at error level, tagging the
// phase and the widget or render object involved.
func (h *ZapHandler) HandleBoundaryError(err *BoundaryError) {
	if err == nil {
		return
	}
	h.Logger.Error("drift boundary error",
		zap.String("phase", err.Phase),
		zap.String("widget", err.Widget),
		zap.String("render_object", err.RenderObject),
		zap.Any("recovered", err.Recovered),
		zap.Error(err.Err),
		zap.String("stack", err.StackTrace),
	)
}
