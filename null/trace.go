package null

import (
	"runtime"
	"strings"
)

// Frame is one call-stack entry.
type Frame struct {
	File     string
	Line     int
	Function string
}

// NewOptions carries constructor arguments to initializers.
type NewOptions struct {
	// Caller is an explicit call-stack snapshot; the first frame is the
	// construction site. Empty means "capture it".
	Caller []Frame
}

// NewOption configures a single construction.
type NewOption func(*NewOptions)

// WithCaller supplies the call-stack snapshot a traceable type records
// instead of capturing the real one.
func WithCaller(frames ...Frame) NewOption {
	return func(o *NewOptions) { o.Caller = frames }
}

// Trace returns the construction site recorded on a traceable instance.
func Trace(inst *Instance) (file string, line int, ok bool) {
	if inst == nil {
		return "", 0, false
	}
	f, okFile := inst.Field(MsgFile)
	l, okLine := inst.Field(MsgLine)
	if !okFile || !okLine {
		return "", 0, false
	}
	file, _ = f.(string)
	line, _ = l.(int)
	return file, line, true
}

const pkgPrefix = "github.com/sghaida/naught/null."

// maxTraceDepth bounds the frames inspected while looking for the caller.
const maxTraceDepth = 32

// callerOutsidePackage returns the first frame that does not belong to this
// package, i.e. the code that asked for the instance.
func callerOutsidePackage() Frame {
	pcs := make([]uintptr, maxTraceDepth)
	// Skip runtime.Callers and this function.
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if !internalFrame(fr.Function) {
			return Frame{File: fr.File, Line: fr.Line, Function: fr.Function}
		}
		if !more {
			return Frame{File: fr.File, Line: fr.Line, Function: fr.Function}
		}
	}
}

// internalFrame reports frames of this package and of sync.Once, which sits
// between Instance and construct for singleton types.
func internalFrame(fn string) bool {
	return strings.HasPrefix(fn, pkgPrefix) || strings.HasPrefix(fn, "sync.")
}

func traceInitializer(self *Instance, opts NewOptions) {
	var site Frame
	if len(opts.Caller) > 0 {
		site = opts.Caller[0]
	} else {
		site = callerOutsidePackage()
	}
	self.SetField(MsgFile, site.File)
	self.SetField(MsgLine, site.Line)
}
