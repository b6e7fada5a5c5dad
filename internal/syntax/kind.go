package syntax

import "go/ast"

// Kind is a closed enumeration of go/ast node categories. Every concrete node
// type produced by go/parser maps to exactly one Kind; KindInvalid is reserved
// for nil nodes and foreign ast.Node implementations.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindPackage
	KindComment
	KindCommentGroup
	KindField
	KindFieldList
	KindBadExpr
	KindIdent
	KindEllipsis
	KindBasicLit
	KindFuncLit
	KindCompositeLit
	KindParenExpr
	KindSelectorExpr
	KindIndexExpr
	KindIndexListExpr
	KindSliceExpr
	KindTypeAssertExpr
	KindCallExpr
	KindStarExpr
	KindUnaryExpr
	KindBinaryExpr
	KindKeyValueExpr
	KindArrayType
	KindStructType
	KindFuncType
	KindInterfaceType
	KindMapType
	KindChanType
	KindBadStmt
	KindDeclStmt
	KindEmptyStmt
	KindLabeledStmt
	KindExprStmt
	KindSendStmt
	KindIncDecStmt
	KindAssignStmt
	KindGoStmt
	KindDeferStmt
	KindReturnStmt
	KindBranchStmt
	KindBlockStmt
	KindIfStmt
	KindCaseClause
	KindSwitchStmt
	KindTypeSwitchStmt
	KindCommClause
	KindSelectStmt
	KindForStmt
	KindRangeStmt
	KindImportSpec
	KindValueSpec
	KindTypeSpec
	KindBadDecl
	KindGenDecl
	KindFuncDecl

	// KindCount is the size of a dispatch table indexed by Kind.
	KindCount
)

var kindNames = [KindCount]string{
	KindInvalid:        "Invalid",
	KindFile:           "File",
	KindPackage:        "Package",
	KindComment:        "Comment",
	KindCommentGroup:   "CommentGroup",
	KindField:          "Field",
	KindFieldList:      "FieldList",
	KindBadExpr:        "BadExpr",
	KindIdent:          "Ident",
	KindEllipsis:       "Ellipsis",
	KindBasicLit:       "BasicLit",
	KindFuncLit:        "FuncLit",
	KindCompositeLit:   "CompositeLit",
	KindParenExpr:      "ParenExpr",
	KindSelectorExpr:   "SelectorExpr",
	KindIndexExpr:      "IndexExpr",
	KindIndexListExpr:  "IndexListExpr",
	KindSliceExpr:      "SliceExpr",
	KindTypeAssertExpr: "TypeAssertExpr",
	KindCallExpr:       "CallExpr",
	KindStarExpr:       "StarExpr",
	KindUnaryExpr:      "UnaryExpr",
	KindBinaryExpr:     "BinaryExpr",
	KindKeyValueExpr:   "KeyValueExpr",
	KindArrayType:      "ArrayType",
	KindStructType:     "StructType",
	KindFuncType:       "FuncType",
	KindInterfaceType:  "InterfaceType",
	KindMapType:        "MapType",
	KindChanType:       "ChanType",
	KindBadStmt:        "BadStmt",
	KindDeclStmt:       "DeclStmt",
	KindEmptyStmt:      "EmptyStmt",
	KindLabeledStmt:    "LabeledStmt",
	KindExprStmt:       "ExprStmt",
	KindSendStmt:       "SendStmt",
	KindIncDecStmt:     "IncDecStmt",
	KindAssignStmt:     "AssignStmt",
	KindGoStmt:         "GoStmt",
	KindDeferStmt:      "DeferStmt",
	KindReturnStmt:     "ReturnStmt",
	KindBranchStmt:     "BranchStmt",
	KindBlockStmt:      "BlockStmt",
	KindIfStmt:         "IfStmt",
	KindCaseClause:     "CaseClause",
	KindSwitchStmt:     "SwitchStmt",
	KindTypeSwitchStmt: "TypeSwitchStmt",
	KindCommClause:     "CommClause",
	KindSelectStmt:     "SelectStmt",
	KindForStmt:        "ForStmt",
	KindRangeStmt:      "RangeStmt",
	KindImportSpec:     "ImportSpec",
	KindValueSpec:      "ValueSpec",
	KindTypeSpec:       "TypeSpec",
	KindBadDecl:        "BadDecl",
	KindGenDecl:        "GenDecl",
	KindFuncDecl:       "FuncDecl",
}

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return "Invalid"
}

// Valid reports whether k names a concrete node category.
func (k Kind) Valid() bool { return k > KindInvalid && k < KindCount }

// KindOf maps a node to its category.
func KindOf(n ast.Node) Kind {
	switch n.(type) {
	case *ast.File:
		return KindFile
	case *ast.Package:
		return KindPackage
	case *ast.Comment:
		return KindComment
	case *ast.CommentGroup:
		return KindCommentGroup
	case *ast.Field:
		return KindField
	case *ast.FieldList:
		return KindFieldList
	case *ast.BadExpr:
		return KindBadExpr
	case *ast.Ident:
		return KindIdent
	case *ast.Ellipsis:
		return KindEllipsis
	case *ast.BasicLit:
		return KindBasicLit
	case *ast.FuncLit:
		return KindFuncLit
	case *ast.CompositeLit:
		return KindCompositeLit
	case *ast.ParenExpr:
		return KindParenExpr
	case *ast.SelectorExpr:
		return KindSelectorExpr
	case *ast.IndexExpr:
		return KindIndexExpr
	case *ast.IndexListExpr:
		return KindIndexListExpr
	case *ast.SliceExpr:
		return KindSliceExpr
	case *ast.TypeAssertExpr:
		return KindTypeAssertExpr
	case *ast.CallExpr:
		return KindCallExpr
	case *ast.StarExpr:
		return KindStarExpr
	case *ast.UnaryExpr:
		return KindUnaryExpr
	case *ast.BinaryExpr:
		return KindBinaryExpr
	case *ast.KeyValueExpr:
		return KindKeyValueExpr
	case *ast.ArrayType:
		return KindArrayType
	case *ast.StructType:
		return KindStructType
	case *ast.FuncType:
		return KindFuncType
	case *ast.InterfaceType:
		return KindInterfaceType
	case *ast.MapType:
		return KindMapType
	case *ast.ChanType:
		return KindChanType
	case *ast.BadStmt:
		return KindBadStmt
	case *ast.DeclStmt:
		return KindDeclStmt
	case *ast.EmptyStmt:
		return KindEmptyStmt
	case *ast.LabeledStmt:
		return KindLabeledStmt
	case *ast.ExprStmt:
		return KindExprStmt
	case *ast.SendStmt:
		return KindSendStmt
	case *ast.IncDecStmt:
		return KindIncDecStmt
	case *ast.AssignStmt:
		return KindAssignStmt
	case *ast.GoStmt:
		return KindGoStmt
	case *ast.DeferStmt:
		return KindDeferStmt
	case *ast.ReturnStmt:
		return KindReturnStmt
	case *ast.BranchStmt:
		return KindBranchStmt
	case *ast.BlockStmt:
		return KindBlockStmt
	case *ast.IfStmt:
		return KindIfStmt
	case *ast.CaseClause:
		return KindCaseClause
	case *ast.SwitchStmt:
		return KindSwitchStmt
	case *ast.TypeSwitchStmt:
		return KindTypeSwitchStmt
	case *ast.CommClause:
		return KindCommClause
	case *ast.SelectStmt:
		return KindSelectStmt
	case *ast.ForStmt:
		return KindForStmt
	case *ast.RangeStmt:
		return KindRangeStmt
	case *ast.ImportSpec:
		return KindImportSpec
	case *ast.ValueSpec:
		return KindValueSpec
	case *ast.TypeSpec:
		return KindTypeSpec
	case *ast.BadDecl:
		return KindBadDecl
	case *ast.GenDecl:
		return KindGenDecl
	case *ast.FuncDecl:
		return KindFuncDecl
	default:
		return KindInvalid
	}
}
