package aml

// evalBinaryALU handles the two-operand, optional-target arithmetic and
// bitwise opcodes: Add, Subtract, Multiply, Mod, And, Or, Nand, Nor, Xor,
// ShiftLeft, ShiftRight. Each reads two Integer-convertible operands, an
// optional Target, computes the result, optionally stores it, and returns
// it (so the result can itself feed an enclosing expression).
func (p *parser) evalBinaryALU(scope *Object, op Opcode) (*Object, *Error) {
	p.consumeOpcode(op)

	lhsArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	rhsArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	lhs, aerr := p.vm.toInteger(lhsArg)
	if aerr != nil {
		return nil, aerr
	}
	rhs, aerr := p.vm.toInteger(rhsArg)
	if aerr != nil {
		return nil, aerr
	}

	var result uint64
	switch op {
	case opAdd:
		result = lhs + rhs
	case opSubtract:
		result = lhs - rhs
	case opMultiply:
		result = lhs * rhs
	case opMod:
		if rhs == 0 {
			return nil, newError(ExcDivideByZero, "Mod by zero")
		}
		result = lhs % rhs
	case opAnd:
		result = lhs & rhs
	case opOr:
		result = lhs | rhs
	case opNand:
		result = ^(lhs & rhs)
	case opNor:
		result = ^(lhs | rhs)
	case opXor:
		result = lhs ^ rhs
	case opShiftLeft:
		result = shiftLeft(lhs, rhs, p.vm.sizeOfIntInBits)
	case opShiftRight:
		result = shiftRight(lhs, rhs)
	}

	res := p.vm.newInteger(result)
	return p.evalOptionalTarget(scope, res)
}

// shiftLeft implements ACPI's ShiftLeft: a shift count equal to or greater
// than the integer width yields zero rather than undefined behavior.
func shiftLeft(v, count uint64, widthBits int) uint64 {
	if count >= uint64(widthBits) {
		return 0
	}
	return (v << count) & maskForWidth(widthBits)
}

// shiftRight implements ACPI's ShiftRight (logical, not arithmetic).
func shiftRight(v, count uint64) uint64 {
	if count >= 64 {
		return 0
	}
	return v >> count
}

// evalDivide handles DefDivide, which is unusual in taking two optional
// targets (remainder, then quotient) before returning the quotient.
func (p *parser) evalDivide(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opDivide)

	dividendArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	divisorArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	dividend, aerr := p.vm.toInteger(dividendArg)
	if aerr != nil {
		return nil, aerr
	}
	divisor, aerr := p.vm.toInteger(divisorArg)
	if aerr != nil {
		return nil, aerr
	}
	if divisor == 0 {
		return nil, newError(ExcDivideByZero, "Divide by zero")
	}

	remainder := p.vm.newInteger(dividend % divisor)
	quotient := p.vm.newInteger(dividend / divisor)

	if _, aerr := p.evalOptionalTarget(scope, remainder); aerr != nil {
		return nil, aerr
	}
	return p.evalOptionalTarget(scope, quotient)
}

// evalUnaryALU handles Not, FindSetLeftBit, FindSetRightBit: one operand,
// one optional target.
func (p *parser) evalUnaryALU(scope *Object, op Opcode) (*Object, *Error) {
	p.consumeOpcode(op)
	arg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	v, aerr := p.vm.toInteger(arg)
	if aerr != nil {
		return nil, aerr
	}

	var result uint64
	switch op {
	case opNot:
		result = ^v & maskForWidth(p.vm.sizeOfIntInBits)
	case opFindSetLeftBit:
		result = uint64(findSetLeftBit(v, p.vm.sizeOfIntInBits))
	case opFindSetRightBit:
		result = uint64(findSetRightBit(v))
	}

	res := p.vm.newInteger(result)
	return p.evalOptionalTarget(scope, res)
}

// findSetLeftBit returns the 1-based index of the most significant set bit,
// or 0 if v is zero.
func findSetLeftBit(v uint64, width int) int {
	for i := width - 1; i >= 0; i-- {
		if v&(uint64(1)<<uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

// findSetRightBit returns the 1-based index of the least significant set
// bit, or 0 if v is zero.
func findSetRightBit(v uint64) int {
	if v == 0 {
		return 0
	}
	for i := 0; i < 64; i++ {
		if v&(uint64(1)<<uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

// evalIncDec handles Increment/Decrement: a single operand that must be a
// writable Integer-holding target (Local/Arg/named Integer), modified
// in-place and returned.
func (p *parser) evalIncDec(scope *Object, op Opcode) (*Object, *Error) {
	p.consumeOpcode(op)

	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return nil, aerr
	}

	switch {
	case Opcode(b) >= opLocal0 && Opcode(b) <= opLocal7:
		idx := int(Opcode(b) - opLocal0)
		p.s.ReadByte()
		if p.ctx.locals[idx] == nil {
			return nil, newError(ExcUninitializedLocal, "Increment/Decrement of uninitialized Local")
		}
		v, aerr := p.vm.toInteger(p.ctx.locals[idx])
		if aerr != nil {
			return nil, aerr
		}
		v = applyIncDec(op, v)
		p.ctx.locals[idx] = p.vm.newInteger(v)
		return p.ctx.locals[idx], nil
	case Opcode(b) >= opArg0 && Opcode(b) <= opArg6:
		idx := int(Opcode(b) - opArg0)
		p.s.ReadByte()
		if p.ctx.args[idx] == nil {
			return nil, newError(ExcUninitializedArg, "Increment/Decrement of uninitialized Arg")
		}
		v, aerr := p.vm.toInteger(p.ctx.args[idx])
		if aerr != nil {
			return nil, aerr
		}
		v = applyIncDec(op, v)
		p.ctx.args[idx] = p.vm.newInteger(v)
		return p.ctx.args[idx], nil
	default:
		name, aerr := decodeNameString(p.s)
		if aerr != nil {
			return nil, aerr
		}
		target, aerr := p.vm.ns.Find(scope, name)
		if aerr != nil {
			return nil, aerr
		}
		v, aerr := p.vm.toInteger(target)
		if aerr != nil {
			return nil, aerr
		}
		v = applyIncDec(op, v)
		target.payload = v & maskForWidth(p.vm.sizeOfIntInBits)
		return target, nil
	}
}

func applyIncDec(op Opcode, v uint64) uint64 {
	if op == opIncrement {
		return v + 1
	}
	return v - 1
}

// evalLogicalBinary handles LAnd/LOr: two operands coerced to Integer and
// treated as booleans (zero is false, anything else true).
func (p *parser) evalLogicalBinary(scope *Object, op Opcode) (*Object, *Error) {
	p.consumeOpcode(op)
	lhsArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	rhsArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	lhs, aerr := p.vm.toInteger(lhsArg)
	if aerr != nil {
		return nil, aerr
	}
	rhs, aerr := p.vm.toInteger(rhsArg)
	if aerr != nil {
		return nil, aerr
	}

	var result bool
	if op == opLand {
		result = lhs != 0 && rhs != 0
	} else {
		result = lhs != 0 || rhs != 0
	}
	return p.vm.newInteger(boolToUint(result)), nil
}

func (p *parser) evalLnot(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opLnot)
	arg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	v, aerr := p.vm.toInteger(arg)
	if aerr != nil {
		return nil, aerr
	}
	return p.vm.newInteger(boolToUint(v == 0)), nil
}

func boolToUint(b bool) uint64 {
	if b {
		return maskForWidth(64)
	}
	return 0
}

// evalCompare handles LEqual/LGreater/LLess. Per ACPI §19.6.67ff, if both
// operands are strings or both are buffers, the comparison is lexical
// (shorter-prefix-equal compares as less); otherwise both sides are
// coerced to Integer.
func (p *parser) evalCompare(scope *Object, op Opcode) (*Object, *Error) {
	p.consumeOpcode(op)
	lhs, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	rhs, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}

	var cmp int
	switch {
	case lhs.Kind == KindString && rhs.Kind == KindString:
		cmp = compareBytes([]byte(lhs.payload.(string)), []byte(rhs.payload.(string)))
	case lhs.Kind == KindBuffer && rhs.Kind == KindBuffer:
		lb, _ := lhs.payload.(*Buffer)
		rb, _ := rhs.payload.(*Buffer)
		cmp = compareBytes(lb.Data, rb.Data)
	default:
		l, aerr := p.vm.toInteger(lhs)
		if aerr != nil {
			return nil, aerr
		}
		r, aerr := p.vm.toInteger(rhs)
		if aerr != nil {
			return nil, aerr
		}
		switch {
		case l < r:
			cmp = -1
		case l > r:
			cmp = 1
		}
	}

	var result bool
	switch op {
	case opLEqual:
		result = cmp == 0
	case opLGreater:
		result = cmp > 0
	case opLLess:
		result = cmp < 0
	}
	return p.vm.newInteger(boolToUint(result)), nil
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
