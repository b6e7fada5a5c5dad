package lower

import (
	"go/token"

	"weft/internal/diag"
	"weft/internal/ir"
)

func foldUnary(op token.Token, x ir.Constant, pos token.Pos) (ir.Constant, error) {
	switch {
	case op == token.ADD && x.Kind != ir.ConstBool:
		return x, nil
	case op == token.SUB && x.Kind == ir.ConstInt:
		return ir.IntConst(-x.Int), nil
	case op == token.SUB && x.Kind == ir.ConstFloat:
		return ir.FloatConst(-x.Float), nil
	case op == token.NOT && x.Kind == ir.ConstBool:
		return ir.BoolConst(!x.Bool), nil
	case op == token.XOR && x.Kind == ir.ConstInt:
		return ir.IntConst(^x.Int), nil
	}
	return ir.Constant{}, diag.Errorf(diag.UnsupportedOperator, pos, "operator %s not defined on %s", op, x)
}

func foldBinary(op token.Token, x, y ir.Constant, pos token.Pos) (ir.Constant, error) {
	bad := func() (ir.Constant, error) {
		return ir.Constant{}, diag.Errorf(diag.UnsupportedOperator, pos, "operator %s not defined on %s and %s", op, x, y)
	}
	switch {
	case x.Kind == ir.ConstBool && y.Kind == ir.ConstBool:
		switch op {
		case token.LAND:
			return ir.BoolConst(x.Bool && y.Bool), nil
		case token.LOR:
			return ir.BoolConst(x.Bool || y.Bool), nil
		case token.EQL:
			return ir.BoolConst(x.Bool == y.Bool), nil
		case token.NEQ:
			return ir.BoolConst(x.Bool != y.Bool), nil
		}
		return bad()
	case x.Kind == ir.ConstBool || y.Kind == ir.ConstBool:
		return bad()
	case x.Kind == ir.ConstInt && y.Kind == ir.ConstInt:
		return foldInt(op, x.Int, y.Int, pos, bad)
	}
	return foldFloat(op, toFloat(x), toFloat(y), pos, bad)
}

func toFloat(c ir.Constant) float64 {
	if c.Kind == ir.ConstInt {
		return float64(c.Int)
	}
	return c.Float
}

func foldInt(op token.Token, a, b int64, pos token.Pos, bad func() (ir.Constant, error)) (ir.Constant, error) {
	switch op {
	case token.ADD:
		return ir.IntConst(a + b), nil
	case token.SUB:
		return ir.IntConst(a - b), nil
	case token.MUL:
		return ir.IntConst(a * b), nil
	case token.QUO, token.REM:
		if b == 0 {
			return ir.Constant{}, diag.Errorf(diag.UnsupportedOperator, pos, "division by zero in constant expression")
		}
		if op == token.QUO {
			return ir.IntConst(a / b), nil
		}
		return ir.IntConst(a % b), nil
	case token.AND:
		return ir.IntConst(a & b), nil
	case token.OR:
		return ir.IntConst(a | b), nil
	case token.XOR:
		return ir.IntConst(a ^ b), nil
	case token.AND_NOT:
		return ir.IntConst(a &^ b), nil
	case token.SHL, token.SHR:
		if b < 0 {
			return ir.Constant{}, diag.Errorf(diag.UnsupportedOperator, pos, "negative shift count %d", b)
		}
		if op == token.SHL {
			return ir.IntConst(a << uint64(b)), nil
		}
		return ir.IntConst(a >> uint64(b)), nil
	case token.EQL:
		return ir.BoolConst(a == b), nil
	case token.NEQ:
		return ir.BoolConst(a != b), nil
	case token.LSS:
		return ir.BoolConst(a < b), nil
	case token.LEQ:
		return ir.BoolConst(a <= b), nil
	case token.GTR:
		return ir.BoolConst(a > b), nil
	case token.GEQ:
		return ir.BoolConst(a >= b), nil
	}
	return bad()
}

func foldFloat(op token.Token, a, b float64, pos token.Pos, bad func() (ir.Constant, error)) (ir.Constant, error) {
	switch op {
	case token.ADD:
		return ir.FloatConst(a + b), nil
	case token.SUB:
		return ir.FloatConst(a - b), nil
	case token.MUL:
		return ir.FloatConst(a * b), nil
	case token.QUO:
		if b == 0 {
			return ir.Constant{}, diag.Errorf(diag.UnsupportedOperator, pos, "division by zero in constant expression")
		}
		return ir.FloatConst(a / b), nil
	case token.EQL:
		return ir.BoolConst(a == b), nil
	case token.NEQ:
		return ir.BoolConst(a != b), nil
	case token.LSS:
		return ir.BoolConst(a < b), nil
	case token.LEQ:
		return ir.BoolConst(a <= b), nil
	case token.GTR:
		return ir.BoolConst(a > b), nil
	case token.GEQ:
		return ir.BoolConst(a >= b), nil
	}
	return bad()
}
