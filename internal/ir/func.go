package ir

// Param is a function parameter.
type Param struct {
	Name    string  `json:"name" msgpack:"name"`
	Value   ValueID `json:"value" msgpack:"value"`
	Feature string  `json:"feature,omitempty" msgpack:"feature,omitempty"`
}

// Func is the IR of one compilation unit.
type Func struct {
	Name     string  `json:"name" msgpack:"name"`
	IsKernel bool    `json:"is_kernel" msgpack:"is_kernel"`
	Params   []Param `json:"params" msgpack:"params"`
	Results  int     `json:"results" msgpack:"results"`
	Body     *Block  `json:"body" msgpack:"body"`
	Values   []Value `json:"values" msgpack:"values"`
}

// Value returns the value with the given ID, or nil.
func (f *Func) Value(id ValueID) *Value {
	if f == nil || !id.IsValid() || int(id) > len(f.Values) {
		return nil
	}
	return &f.Values[id-1]
}

// Module groups the functions lowered from one source file.
type Module struct {
	Path  string  `json:"path" msgpack:"path"`
	Funcs []*Func `json:"funcs" msgpack:"funcs"`
}
