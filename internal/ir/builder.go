package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Builder appends instructions to the block on top of its block stack and
// owns the value arena of the function under construction.
type Builder struct {
	fn     *Func
	values []*Value
	blocks []*Block
}

// NewBuilder starts a function with an empty body.
func NewBuilder(name string, isKernel bool) *Builder {
	body := &Block{}
	return &Builder{
		fn:     &Func{Name: name, IsKernel: isKernel, Body: body},
		values: make([]*Value, 0, 32),
		blocks: []*Block{body},
	}
}

func (b *Builder) newValue(kind ValueKind, name string, c *Constant) *Value {
	n, err := safecast.Conv[uint32](len(b.values) + 1)
	if err != nil {
		panic(fmt.Errorf("ir: value arena overflow: %w", err))
	}
	v := &Value{ID: ValueID(n), Kind: kind, Name: name, Const: c}
	b.values = append(b.values, v)
	return v
}

// Current returns the insertion block.
func (b *Builder) Current() *Block { return b.blocks[len(b.blocks)-1] }

// Terminated reports whether the insertion block already ends in a
// terminator.
func (b *Builder) Terminated() bool { return b.Current().Terminated() }

// WithBlock makes blk the insertion block while fn runs.
func (b *Builder) WithBlock(blk *Block, fn func() error) error {
	b.blocks = append(b.blocks, blk)
	defer func() { b.blocks = b.blocks[:len(b.blocks)-1] }()
	return fn()
}

func (b *Builder) emit(in Instr) {
	cur := b.Current()
	cur.Instrs = append(cur.Instrs, in)
}

func ids(vs []*Value) []ValueID {
	out := make([]ValueID, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

// Param declares a parameter.
func (b *Builder) Param(name, feature string) *Value {
	v := b.newValue(ValueArg, name, nil)
	b.fn.Params = append(b.fn.Params, Param{Name: name, Value: v.ID, Feature: feature})
	return v
}

// Const materializes c.
func (b *Builder) Const(c Constant) *Value {
	cc := c
	v := b.newValue(ValueConst, "", &cc)
	b.emit(Instr{Op: OpConst, Dst: v.ID, Operator: c.String()})
	return v
}

// Alloca declares a variable slot named name. init may be nil.
func (b *Builder) Alloca(name string, init *Value) *Value {
	v := b.newValue(ValueVar, name, nil)
	in := Instr{Op: OpAlloca, Dst: v.ID}
	if init != nil {
		in.Args = []ValueID{init.ID}
	}
	b.emit(in)
	return v
}

// Load reads a variable slot.
func (b *Builder) Load(slot *Value) *Value {
	v := b.newValue(ValueTemp, "", nil)
	b.emit(Instr{Op: OpLoad, Dst: v.ID, Args: []ValueID{slot.ID}})
	return v
}

// Store writes src into slot.
func (b *Builder) Store(slot, src *Value) {
	b.emit(Instr{Op: OpStore, Args: []ValueID{slot.ID, src.ID}})
}

// Binary emits x op y.
func (b *Builder) Binary(op string, x, y *Value) *Value {
	v := b.newValue(ValueTemp, "", nil)
	b.emit(Instr{Op: OpBinary, Dst: v.ID, Operator: op, Args: []ValueID{x.ID, y.ID}})
	return v
}

// Unary emits op x.
func (b *Builder) Unary(op string, x *Value) *Value {
	v := b.newValue(ValueTemp, "", nil)
	b.emit(Instr{Op: OpUnary, Dst: v.ID, Operator: op, Args: []ValueID{x.ID}})
	return v
}

// Call emits a builtin call. The result is nil when hasResult is false.
func (b *Builder) Call(callee string, args []*Value, hasResult bool) *Value {
	in := Instr{Op: OpCall, Callee: callee, Args: ids(args)}
	var v *Value
	if hasResult {
		v = b.newValue(ValueTemp, "", nil)
		in.Dst = v.ID
	}
	b.emit(in)
	return v
}

// If emits a conditional and returns its branch blocks.
func (b *Builder) If(cond *Value) (then, els *Block) {
	then, els = &Block{}, &Block{}
	b.emit(Instr{Op: OpIf, Args: []ValueID{cond.ID}, Then: then, Else: els})
	return then, els
}

// RangeFor emits a counted loop over [begin, end) and returns the induction
// variable and the body block.
func (b *Builder) RangeFor(name string, begin, end *Value) (*Value, *Block) {
	iv := b.newValue(ValueTemp, name, nil)
	body := &Block{}
	b.emit(Instr{Op: OpRangeFor, LoopVar: iv.ID, Args: []ValueID{begin.ID, end.ID}, Body: body})
	return iv, body
}

// Loop emits an unbounded loop and returns its body and post blocks.
func (b *Builder) Loop() (body, post *Block) {
	body, post = &Block{}, &Block{}
	b.emit(Instr{Op: OpLoop, Body: body, Post: post})
	return body, post
}

// Break emits a runtime break.
func (b *Builder) Break() { b.emit(Instr{Op: OpBreak}) }

// Continue emits a runtime continue.
func (b *Builder) Continue() { b.emit(Instr{Op: OpContinue}) }

// Return emits a return of vals.
func (b *Builder) Return(vals []*Value) {
	b.emit(Instr{Op: OpReturn, Args: ids(vals)})
}

// SetResults records the number of returned values.
func (b *Builder) SetResults(n int) { b.fn.Results = n }

// Finish freezes the arena into the function and returns it.
func (b *Builder) Finish() *Func {
	b.fn.Values = make([]Value, len(b.values))
	for i, v := range b.values {
		b.fn.Values[i] = *v
	}
	return b.fn
}
