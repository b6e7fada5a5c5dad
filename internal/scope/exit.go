package scope

import (
	"go/ast"
)

// DeleteBuiltin is the callee of teardown statements emitted by EmitDeletes.
const DeleteBuiltin = "del"

// ExitAction runs when a frame is popped, before it is discarded.
type ExitAction[V any] interface {
	OnExit(f *Frame[V])
}

// ExitFunc adapts a function to ExitAction.
type ExitFunc[V any] func(f *Frame[V])

func (fn ExitFunc[V]) OnExit(f *Frame[V]) {
	if fn != nil {
		fn(f)
	}
}

// EmitDeletes returns the legacy teardown action: on exit it appends one
// `del(name)` statement per name declared in the frame to *sink, most recently
// declared first. A nil sink yields a nil action, so nothing is emitted.
func EmitDeletes[V any](sink *[]ast.Stmt) ExitAction[V] {
	if sink == nil {
		return nil
	}
	return ExitFunc[V](func(f *Frame[V]) {
		for i := len(f.names) - 1; i >= 0; i-- {
			*sink = append(*sink, DeleteStmt(f.names[i]))
		}
	})
}

// DeleteStmt builds `del(name)`.
func DeleteStmt(name string) ast.Stmt {
	return &ast.ExprStmt{
		X: &ast.CallExpr{
			Fun:  ast.NewIdent(DeleteBuiltin),
			Args: []ast.Expr{ast.NewIdent(name)},
		},
	}
}

// DeletedName reports the variable torn down by a statement produced by
// DeleteStmt.
func DeletedName(st ast.Stmt) (string, bool) {
	es, ok := st.(*ast.ExprStmt)
	if !ok {
		return "", false
	}
	call, ok := es.X.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	fn, ok := call.Fun.(*ast.Ident)
	if !ok || fn.Name != DeleteBuiltin {
		return "", false
	}
	arg, ok := call.Args[0].(*ast.Ident)
	if !ok {
		return "", false
	}
	return arg.Name, true
}
