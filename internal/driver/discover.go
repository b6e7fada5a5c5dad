package driver

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"weft/internal/diag"
	"weft/internal/ir"
	"weft/internal/lower"
	"weft/internal/scope"
)

const (
	// KernelDirective marks a function as a kernel entry point.
	KernelDirective = "//weft:kernel"
	// FuncDirective marks a function that kernels may call.
	FuncDirective = "//weft:func"
)

// Unit is one kernel to translate.
type Unit struct {
	Name string
	Decl *ast.FuncDecl
	Path string
}

// Program is what discovery finds in a Source.
type Program struct {
	Source  *Source
	Kernels []*Unit
	// Funcs holds every function a kernel may call, kernels included.
	Funcs   map[string]*ast.FuncDecl
	Globals scope.MapGlobals[*ir.Value]
}

// Kernel returns the kernel called name.
func (p *Program) Kernel(name string) (*Unit, bool) {
	for _, u := range p.Kernels {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

func directive(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(c.Text)
		if text == KernelDirective || text == FuncDirective {
			return text
		}
	}
	return ""
}

// Discover collects kernels, callable functions and package-level
// constants. Problems are reported to bag; discovery itself never fails.
func Discover(src *Source, bag *diag.Bag) *Program {
	prog := &Program{
		Source:  src,
		Funcs:   make(map[string]*ast.FuncDecl),
		Globals: make(scope.MapGlobals[*ir.Value]),
	}
	var consts []*ast.ValueSpec
	seen := make(map[string]token.Pos)

	in := inspector.New(src.Files)
	filter := []ast.Node{(*ast.FuncDecl)(nil), (*ast.GenDecl)(nil)}
	in.WithStack(filter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push || len(stack) != 2 {
			return false
		}
		switch decl := n.(type) {
		case *ast.FuncDecl:
			kind := directive(decl.Doc)
			if kind == "" || decl.Recv != nil {
				return false
			}
			name := decl.Name.Name
			if prev, dup := seen[name]; dup {
				bag.Add(diag.NewError(diag.DuplicateDeclaration, src.Fset.Position(decl.Pos()),
					fmt.Sprintf("%s redeclared", name)).
					WithNote(src.Fset.Position(prev), "previous declaration"))
				return false
			}
			seen[name] = decl.Pos()
			prog.Funcs[name] = decl
			if kind == KernelDirective {
				prog.Kernels = append(prog.Kernels, &Unit{
					Name: name,
					Decl: decl,
					Path: src.Fset.Position(decl.Pos()).Filename,
				})
			}
		case *ast.GenDecl:
			if decl.Tok != token.CONST {
				return false
			}
			for _, spec := range decl.Specs {
				consts = append(consts, spec.(*ast.ValueSpec))
			}
		}
		return false
	})

	collectGlobals(src.Fset, consts, prog.Globals, bag)
	return prog
}

// collectGlobals evaluates constants until no more can be folded, so a
// constant may refer to one declared later or in another file.
func collectGlobals(fset *token.FileSet, specs []*ast.ValueSpec, globals scope.MapGlobals[*ir.Value], bag *diag.Bag) {
	type pending struct {
		name *ast.Ident
		expr ast.Expr
	}
	var todo []pending
	for _, spec := range specs {
		if len(spec.Values) != len(spec.Names) {
			continue
		}
		for i, name := range spec.Names {
			if name.Name != "_" {
				todo = append(todo, pending{name, spec.Values[i]})
			}
		}
	}

	errs := make(map[*ast.Ident]error)
	for progress := true; progress && len(todo) > 0; {
		progress = false
		rest := todo[:0]
		for _, p := range todo {
			c, err := lower.EvalConst(fset, p.expr, globals)
			if err != nil {
				errs[p.name] = err
				rest = append(rest, p)
				continue
			}
			v := ir.NewConst(c)
			v.Name = p.name.Name
			globals.Set(p.name.Name, v)
			delete(errs, p.name)
			progress = true
		}
		todo = rest
	}
	for _, p := range todo {
		bag.Add(diag.New(diag.SevWarning, diag.CodeOf(errs[p.name]), fset.Position(p.name.Pos()),
			fmt.Sprintf("constant %s is not available to kernels: %v", p.name.Name, errs[p.name])))
	}
}
