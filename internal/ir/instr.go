package ir

// Op enumerates IR instructions.
type Op uint8

const (
	OpInvalid Op = iota
	// OpConst materializes a constant into Dst.
	OpConst
	// OpAlloca declares a local variable slot Dst, initialized from Args[0] when present.
	OpAlloca
	// OpLoad reads variable Args[0] into Dst.
	OpLoad
	// OpStore writes Args[1] into variable Args[0].
	OpStore
	// OpBinary computes Args[0] Operator Args[1].
	OpBinary
	// OpUnary computes Operator Args[0].
	OpUnary
	// OpCall calls builtin Callee with Args; Dst is optional.
	OpCall
	// OpIf runs Then when Args[0] holds, else Else.
	OpIf
	// OpRangeFor runs Body with LoopVar over [Args[0], Args[1]).
	OpRangeFor
	// OpLoop runs Body then Post until a break; continue jumps to Post.
	OpLoop
	// OpBreak leaves the innermost runtime loop.
	OpBreak
	// OpContinue jumps to the next iteration of the innermost runtime loop.
	OpContinue
	// OpReturn returns Args.
	OpReturn
)

var opNames = [...]string{
	OpInvalid:  "invalid",
	OpConst:    "const",
	OpAlloca:   "alloca",
	OpLoad:     "load",
	OpStore:    "store",
	OpBinary:   "binary",
	OpUnary:    "unary",
	OpCall:     "call",
	OpIf:       "if",
	OpRangeFor: "range_for",
	OpLoop:     "loop",
	OpBreak:    "break",
	OpContinue: "continue",
	OpReturn:   "return",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "invalid"
}

// IsTerminator reports whether nothing after the instruction in the same
// block can run.
func (o Op) IsTerminator() bool {
	return o == OpBreak || o == OpContinue || o == OpReturn
}

// Instr is one structured IR instruction. Control-flow instructions own
// nested blocks.
type Instr struct {
	Op       Op        `json:"op" msgpack:"op"`
	Dst      ValueID   `json:"dst,omitempty" msgpack:"dst,omitempty"`
	Args     []ValueID `json:"args,omitempty" msgpack:"args,omitempty"`
	Operator string    `json:"operator,omitempty" msgpack:"operator,omitempty"`
	Callee   string    `json:"callee,omitempty" msgpack:"callee,omitempty"`
	LoopVar  ValueID   `json:"loop_var,omitempty" msgpack:"loop_var,omitempty"`
	Then     *Block    `json:"then,omitempty" msgpack:"then,omitempty"`
	Else     *Block    `json:"else,omitempty" msgpack:"else,omitempty"`
	Body     *Block    `json:"body,omitempty" msgpack:"body,omitempty"`
	Post     *Block    `json:"post,omitempty" msgpack:"post,omitempty"`
}

// Block is an ordered instruction list.
type Block struct {
	Instrs []Instr `json:"instrs" msgpack:"instrs"`
}

// Terminated reports whether the block ends with a terminator.
func (b *Block) Terminated() bool {
	if b == nil || len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].Op.IsTerminator()
}

// Len reports the number of top-level instructions.
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Instrs)
}
