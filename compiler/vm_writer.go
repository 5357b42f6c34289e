package compiler

import (
	"io"

	"github.com/nandkit/hack/vmtranslator"
)

// VMWriter writes vm commands one line at a time. The first write error is
// kept and every later write becomes a no-op.
type VMWriter struct {
	output io.Writer
	err    error
}

func NewVMWriter(w io.Writer) *VMWriter {
	return &VMWriter{output: w}
}

func (w *VMWriter) Err() error {
	return w.err
}

func (w *VMWriter) WriteCommand(command vmtranslator.Command) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.output, command.String()+"\n")
}

func (w *VMWriter) WritePush(segment vmtranslator.Segment, index int) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.PushCommand, Segment: segment, Index: index})
}

func (w *VMWriter) WritePop(segment vmtranslator.Segment, index int) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.PopCommand, Segment: segment, Index: index})
}

func (w *VMWriter) WriteArithmetic(op vmtranslator.ArithmeticOp) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.ArithmeticCommand, Op: op})
}

func (w *VMWriter) WriteLabel(label string) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.LabelCommand, Name: label})
}

func (w *VMWriter) WriteGoto(label string) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.GotoCommand, Name: label})
}

func (w *VMWriter) WriteIf(label string) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.IfGotoCommand, Name: label})
}

func (w *VMWriter) WriteCall(function string, nArgs int) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.CallCommand, Name: function, Index: nArgs})
}

func (w *VMWriter) WriteFunction(function string, nLocals int) {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.FunctionCommand, Name: function, Index: nLocals})
}

func (w *VMWriter) WriteReturn() {
	w.WriteCommand(vmtranslator.Command{Tp: vmtranslator.ReturnCommand})
}

// WriteStringConstant leaves a new String holding constant on the stack.
// appendChar returns the string, so it stays on the stack between calls.
func (w *VMWriter) WriteStringConstant(constant string) {
	w.WritePush(vmtranslator.ConstantSegment, len(constant))
	w.WriteCall("String.new", 1)
	for i := 0; i < len(constant); i++ {
		w.WritePush(vmtranslator.ConstantSegment, int(constant[i]))
		w.WriteCall("String.appendChar", 2)
	}
}
