package trace

// Runnable is the instrumented unit of code a Tracer runs. It executes
// on the tracer's producer goroutine and reports each instrumentation
// point it reaches through the Probe.
type Runnable func(*Probe)

// Raw carries the attributes of one raw instrumentation notification,
// exactly as the event source observed them.
type Raw struct {
	// Path is the source path of the instrumentation point.
	Path string

	// Line is the source line of the instrumentation point.
	Line int

	// Subject is the opaque receiver or value the notification concerns.
	// For raise notifications it is the failure value.
	Subject interface{}

	// Method identifies the method for call-family notifications.
	Method *Method

	// Frame is the live variable scope of the executing stack frame.
	Frame *Frame
}

// Probe is the event source seam installed into a Runnable. Each emit
// runs synchronously on the producer goroutine, interleaved with the
// instrumented code itself; kinds outside the tracer's FilterSet are
// never reported. When the pause predicate accepts an event the emit
// call does not return until the consumer resumes the tracer.
type Probe struct {
	t *Tracer
}

// Emit reports an instrumentation point of the given kind. This is the
// generic entry point; the named helpers below cover the common kinds.
func (p *Probe) Emit(kind Kind, raw Raw) {
	p.t.emit(kind, raw)
}

// Call reports a managed method call.
func (p *Probe) Call(path string, line int, subject interface{}, m Method, frame *Frame) {
	p.Emit(KindCall, Raw{Path: path, Line: line, Subject: subject, Method: &m, Frame: frame})
}

// Return reports a managed method return.
func (p *Probe) Return(path string, line int, subject interface{}, m Method, frame *Frame) {
	p.Emit(KindReturn, Raw{Path: path, Line: line, Subject: subject, Method: &m, Frame: frame})
}

// CCall reports a native-implementation method call.
func (p *Probe) CCall(path string, line int, subject interface{}, m Method, frame *Frame) {
	p.Emit(KindCCall, Raw{Path: path, Line: line, Subject: subject, Method: &m, Frame: frame})
}

// CReturn reports a native-implementation method return.
func (p *Probe) CReturn(path string, line int, subject interface{}, m Method, frame *Frame) {
	p.Emit(KindCReturn, Raw{Path: path, Line: line, Subject: subject, Method: &m, Frame: frame})
}

// Line reports execution reaching a source line.
func (p *Probe) Line(path string, line int, frame *Frame) {
	p.Emit(KindLine, Raw{Path: path, Line: line, Frame: frame})
}

// Raise reports an exception being raised. The failure value becomes
// the event subject.
func (p *Probe) Raise(path string, line int, failure interface{}, frame *Frame) {
	p.Emit(KindRaise, Raw{Path: path, Line: line, Subject: failure, Frame: frame})
}

// ClassOpen reports a module or class body being opened. The subject is
// the module being defined.
func (p *Probe) ClassOpen(path string, line int, subject interface{}, frame *Frame) {
	p.Emit(KindClass, Raw{Path: path, Line: line, Subject: subject, Frame: frame})
}

// ClassEnd reports a module or class body being closed.
func (p *Probe) ClassEnd(path string, line int, subject interface{}, frame *Frame) {
	p.Emit(KindEnd, Raw{Path: path, Line: line, Subject: subject, Frame: frame})
}

// BlockCall reports a block invocation.
func (p *Probe) BlockCall(path string, line int, subject interface{}, frame *Frame) {
	p.Emit(KindBCall, Raw{Path: path, Line: line, Subject: subject, Frame: frame})
}

// BlockReturn reports a block return.
func (p *Probe) BlockReturn(path string, line int, subject interface{}, frame *Frame) {
	p.Emit(KindBReturn, Raw{Path: path, Line: line, Subject: subject, Frame: frame})
}

// ThreadBegin reports an instrumented thread starting. The subject
// identifies the thread.
func (p *Probe) ThreadBegin(path string, line int, subject interface{}) {
	p.Emit(KindThreadBegin, Raw{Path: path, Line: line, Subject: subject})
}

// ThreadEnd reports an instrumented thread terminating.
func (p *Probe) ThreadEnd(path string, line int, subject interface{}) {
	p.Emit(KindThreadEnd, Raw{Path: path, Line: line, Subject: subject})
}

// FiberSwitch reports control transferring between fibers.
func (p *Probe) FiberSwitch(path string, line int, subject interface{}) {
	p.Emit(KindFiberSwitch, Raw{Path: path, Line: line, Subject: subject})
}

// ScriptCompiled reports a script being compiled. The subject is the
// compiled source.
func (p *Probe) ScriptCompiled(path string, line int, subject interface{}) {
	p.Emit(KindScriptCompiled, Raw{Path: path, Line: line, Subject: subject})
}
