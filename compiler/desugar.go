package compiler

import "github.com/MabaKalox/animation-lang/pkg/bytecode"

// ---------------------------------------------------------------------------
// Intrinsic expansion and constant folding
// ---------------------------------------------------------------------------

func mask255(e Expr) Expr {
	return &BinaryExpr{
		PosVal: e.Pos(),
		Op:     bytecode.BinaryAnd,
		Lhs:    e,
		Rhs:    &IntLit{PosVal: e.Pos(), Value: 0xFF},
	}
}

func shl8(e Expr) Expr {
	return &UnaryExpr{PosVal: e.Pos(), Op: bytecode.UnaryShl8, Operand: e}
}

func shr8(e Expr) Expr {
	return &UnaryExpr{PosVal: e.Pos(), Op: bytecode.UnaryShr8, Operand: e}
}

func or(lhs, rhs Expr) Expr {
	return &BinaryExpr{PosVal: lhs.Pos(), Op: bytecode.BinaryOr, Lhs: lhs, Rhs: rhs}
}

// desugarChannel rewrites the pure color intrinsics into mask-and-shift
// expression trees. Clamp is not handled here: it needs branches to
// evaluate its arguments exactly once, so codegen expands it directly.
func desugarChannel(n *IntrinsicExpand) Expr {
	switch n.Kind {
	case IntrinsicRGB:
		r, g, b := n.Args[0], n.Args[1], n.Args[2]
		return or(or(mask255(r), shl8(mask255(g))), shl8(shl8(mask255(b))))
	case IntrinsicRed:
		return mask255(n.Args[0])
	case IntrinsicGreen:
		return mask255(shr8(n.Args[0]))
	case IntrinsicBlue:
		return mask255(shr8(shr8(n.Args[0])))
	}
	return n
}

// constFold evaluates a pure expression tree at compile time. It refuses
// anything with runtime inputs (constants, VM commands) or a guaranteed
// fault (division by zero).
func constFold(e Expr) (uint32, bool) {
	switch n := e.(type) {
	case *IntLit:
		return n.Value, true

	case *UnaryExpr:
		v, ok := constFold(n.Operand)
		if !ok {
			return 0, false
		}
		return n.Op.Apply(v), true

	case *BinaryExpr:
		lhs, ok := constFold(n.Lhs)
		if !ok {
			return 0, false
		}
		rhs, ok := constFold(n.Rhs)
		if !ok {
			return 0, false
		}
		v, err := n.Op.Apply(lhs, rhs)
		if err != nil {
			return 0, false
		}
		return v, true

	case *IntrinsicExpand:
		if n.Kind == IntrinsicClamp {
			v, okV := constFold(n.Args[0])
			lo, okLo := constFold(n.Args[1])
			hi, okHi := constFold(n.Args[2])
			if !okV || !okLo || !okHi {
				return 0, false
			}
			if v < lo {
				return lo, true
			}
			if v > hi {
				return hi, true
			}
			return v, true
		}
		return constFold(desugarChannel(n))
	}
	return 0, false
}
