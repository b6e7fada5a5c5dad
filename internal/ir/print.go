package ir

import (
	"fmt"
	"io"
	"strings"
)

// Print writes a textual form of f.
func Print(w io.Writer, f *Func) error {
	p := printer{w: w, f: f}
	p.header()
	p.block(f.Body, 1)
	p.line(0, "}")
	return p.err
}

// String renders f with Print.
func (f *Func) String() string {
	var sb strings.Builder
	_ = Print(&sb, f)
	return sb.String()
}

type printer struct {
	w   io.Writer
	f   *Func
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (p *printer) header() {
	kind := "func"
	if p.f.IsKernel {
		kind = "kernel"
	}
	params := make([]string, 0, len(p.f.Params))
	for _, prm := range p.f.Params {
		s := fmt.Sprintf("%s %s", prm.Value, prm.Name)
		if prm.Feature != "" {
			s += ": " + prm.Feature
		}
		params = append(params, s)
	}
	res := ""
	if p.f.Results > 0 {
		res = fmt.Sprintf(" -> %d", p.f.Results)
	}
	p.line(0, "%s %s(%s)%s {", kind, p.f.Name, strings.Join(params, ", "), res)
}

func (p *printer) name(id ValueID) string {
	if v := p.f.Value(id); v != nil && v.Name != "" {
		return fmt.Sprintf("%s<%s>", id, v.Name)
	}
	return id.String()
}

func (p *printer) args(list []ValueID) string {
	parts := make([]string, len(list))
	for i, id := range list {
		parts[i] = p.name(id)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) block(b *Block, depth int) {
	if b == nil {
		return
	}
	for i := range b.Instrs {
		p.instr(&b.Instrs[i], depth)
	}
}

func (p *printer) instr(in *Instr, depth int) {
	switch in.Op {
	case OpConst:
		p.line(depth, "%s = const %s", in.Dst, in.Operator)
	case OpAlloca:
		if len(in.Args) > 0 {
			p.line(depth, "%s = alloca %s", p.name(in.Dst), p.name(in.Args[0]))
		} else {
			p.line(depth, "%s = alloca", p.name(in.Dst))
		}
	case OpLoad:
		p.line(depth, "%s = load %s", in.Dst, p.name(in.Args[0]))
	case OpStore:
		p.line(depth, "store %s, %s", p.name(in.Args[0]), p.name(in.Args[1]))
	case OpBinary:
		p.line(depth, "%s = %s %s %s", in.Dst, p.name(in.Args[0]), in.Operator, p.name(in.Args[1]))
	case OpUnary:
		p.line(depth, "%s = %s%s", in.Dst, in.Operator, p.name(in.Args[0]))
	case OpCall:
		if in.Dst.IsValid() {
			p.line(depth, "%s = call %s(%s)", in.Dst, in.Callee, p.args(in.Args))
		} else {
			p.line(depth, "call %s(%s)", in.Callee, p.args(in.Args))
		}
	case OpIf:
		p.line(depth, "if %s {", p.name(in.Args[0]))
		p.block(in.Then, depth+1)
		if in.Else.Len() > 0 {
			p.line(depth, "} else {")
			p.block(in.Else, depth+1)
		}
		p.line(depth, "}")
	case OpRangeFor:
		p.line(depth, "for %s in range(%s) {", p.name(in.LoopVar), p.args(in.Args))
		p.block(in.Body, depth+1)
		p.line(depth, "}")
	case OpLoop:
		p.line(depth, "loop {")
		p.block(in.Body, depth+1)
		if in.Post.Len() > 0 {
			p.line(depth, "} post {")
			p.block(in.Post, depth+1)
		}
		p.line(depth, "}")
	case OpBreak, OpContinue:
		p.line(depth, "%s", in.Op)
	case OpReturn:
		if len(in.Args) == 0 {
			p.line(depth, "return")
		} else {
			p.line(depth, "return %s", p.args(in.Args))
		}
	default:
		p.line(depth, "<%s>", in.Op)
	}
}
