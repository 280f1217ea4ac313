package aml

// ctrlFlowType records why execBlock stopped walking a TermList early.
type ctrlFlowType uint8

const (
	ctrlFlowNext ctrlFlowType = iota
	ctrlFlowBreak
	ctrlFlowContinue
	ctrlFlowReturn
)

// execContext carries the per-invocation state the evaluator threads
// through a method body: its 8 locals and (up to 7) arguments, the
// in-flight control-flow signal, and the return value once one is set.
// The mutex stack is shared across an entire call chain (so Acquire in a
// caller and Release in a callee still observe the same stack), so it is
// created once per external entry point and passed down to nested method
// invocations rather than recreated per frame.
type execContext struct {
	vm *VM

	locals [8]*Object
	args   [7]*Object

	ctrlFlow ctrlFlowType
	retVal   *Object

	// lastValue holds the most recently evaluated bare expression-statement
	// TermArg (parseTermObj's default case), used to supply a method's
	// implicit return value when its body falls off the end without an
	// explicit Return.
	lastValue *Object

	mstack *mutexStack

	// trace records the method-call chain for diagnostics / TraceEvent.
	trace []string
}

// newExecContext builds a context for a fresh external entry point (table
// load, or a method invoked directly by host code via VM.Invoke).
func newExecContext(vm *VM, args []*Object) *execContext {
	ctx := &execContext{vm: vm, mstack: newMutexStack()}
	copy(ctx.args[:], args)
	return ctx
}

// childContext builds the context for a nested method invocation sharing
// the caller's mutex stack.
func (ctx *execContext) childContext(args []*Object) *execContext {
	child := &execContext{vm: ctx.vm, mstack: ctx.mstack}
	copy(child.args[:], args)
	return child
}

// evalTermArg evaluates a single TermArg (or, for convenience, a bare
// statement opcode encountered where a value wasn't strictly required) at
// the parser's current position, resolving names against scope.
func (p *parser) evalTermArg(scope *Object) (*Object, *Error) {
	op, aerr := p.peekOpcode()
	if aerr != nil {
		return nil, aerr
	}

	switch op {
	case opZero:
		p.consumeOpcode(op)
		return p.vm.newInteger(0), nil
	case opOne:
		p.consumeOpcode(op)
		return p.vm.newInteger(1), nil
	case opOnes:
		p.consumeOpcode(op)
		return p.vm.newInteger(maskForWidth(p.vm.sizeOfIntInBits)), nil
	case opRevision:
		p.consumeOpcode(op)
		return p.vm.newInteger(2), nil
	case opDebug:
		p.consumeOpcode(op)
		o := newObject(KindDebug)
		return o, nil
	case opBytePrefix:
		p.consumeOpcode(op)
		v, aerr := decodeNumConstant(p.s, 1)
		if aerr != nil {
			return nil, aerr
		}
		return p.vm.newInteger(v), nil
	case opWordPrefix:
		p.consumeOpcode(op)
		v, aerr := decodeNumConstant(p.s, 2)
		if aerr != nil {
			return nil, aerr
		}
		return p.vm.newInteger(v), nil
	case opDWordPrefix:
		p.consumeOpcode(op)
		v, aerr := decodeNumConstant(p.s, 4)
		if aerr != nil {
			return nil, aerr
		}
		return p.vm.newInteger(v), nil
	case opQWordPrefix:
		p.consumeOpcode(op)
		v, aerr := decodeNumConstant(p.s, 8)
		if aerr != nil {
			return nil, aerr
		}
		return p.vm.newInteger(v), nil
	case opStringPrefix:
		p.consumeOpcode(op)
		s, aerr := decodeString(p.s)
		if aerr != nil {
			return nil, aerr
		}
		return p.vm.newString(s), nil
	case opBuffer:
		return p.evalBuffer(scope)
	case opPackage:
		return p.evalPackage(scope, false)
	case opVarPackage:
		return p.evalPackage(scope, true)

	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		p.consumeOpcode(op)
		idx := int(op - opLocal0)
		if p.ctx.locals[idx] == nil {
			return nil, newError(ExcUninitializedLocal, "read of uninitialized Local")
		}
		return p.ctx.locals[idx], nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		p.consumeOpcode(op)
		idx := int(op - opArg0)
		if p.ctx.args[idx] == nil {
			return nil, newError(ExcUninitializedArg, "read of uninitialized Arg")
		}
		return p.ctx.args[idx], nil

	case opStore:
		return p.evalStore(scope)
	case opAdd, opSubtract, opMultiply, opMod, opAnd, opOr, opNand, opNor, opXor, opShiftLeft, opShiftRight:
		return p.evalBinaryALU(scope, op)
	case opDivide:
		return p.evalDivide(scope)
	case opIncrement, opDecrement:
		return p.evalIncDec(scope, op)
	case opNot:
		return p.evalUnaryALU(scope, op)
	case opFindSetLeftBit, opFindSetRightBit:
		return p.evalUnaryALU(scope, op)

	case opLand, opLor:
		return p.evalLogicalBinary(scope, op)
	case opLnot:
		return p.evalLnot(scope)
	case opLEqual, opLGreater, opLLess:
		return p.evalCompare(scope, op)

	case opIndex:
		return p.evalIndex(scope)
	case opSizeOf:
		return p.evalSizeOf(scope)
	case opRefOf:
		return p.evalRefOf(scope)
	case opCondRefOf:
		return p.evalCondRefOf(scope)
	case opDerefOf:
		return p.evalDerefOf(scope)

	case opToInteger:
		p.consumeOpcode(op)
		src, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		res, aerr := p.vm.convertTo(src, KindInteger)
		if aerr != nil {
			return nil, aerr
		}
		return p.evalOptionalTarget(scope, res)
	case opToString:
		p.consumeOpcode(op)
		src, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		res, aerr := p.vm.convertTo(src, KindString)
		if aerr != nil {
			return nil, aerr
		}
		return p.evalOptionalTarget(scope, res)
	case opToBuffer:
		p.consumeOpcode(op)
		src, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		res, aerr := p.vm.convertTo(src, KindBuffer)
		if aerr != nil {
			return nil, aerr
		}
		return p.evalOptionalTarget(scope, res)

	case opAcquire:
		return p.evalAcquire(scope)
	case opRelease:
		p.consumeOpcode(op)
		name, aerr := decodeNameString(p.s)
		if aerr != nil {
			return nil, aerr
		}
		m, aerr := p.vm.ns.Find(scope, name)
		if aerr != nil {
			return nil, aerr
		}
		if aerr := p.ctx.mstack.Release(m); aerr != nil {
			return nil, aerr
		}
		return p.vm.newInteger(0), nil

	case opIf:
		return p.vm.newInteger(0), p.execIf(scope)
	case opElse:
		// Only reachable if an If body didn't consume its trailing
		// Else, which would be a parser bug; skip it defensively.
		return p.vm.newInteger(0), p.skipElse()
	case opWhile:
		return p.vm.newInteger(0), p.execWhile(scope)
	case opReturn:
		p.consumeOpcode(op)
		v, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		p.ctx.retVal = v
		p.ctx.ctrlFlow = ctrlFlowReturn
		return v, nil
	case opBreak:
		p.consumeOpcode(op)
		p.ctx.ctrlFlow = ctrlFlowBreak
		return p.vm.newInteger(0), nil
	case opContinue:
		p.consumeOpcode(op)
		p.ctx.ctrlFlow = ctrlFlowContinue
		return p.vm.newInteger(0), nil
	case opNoop, opBreakPoint:
		p.consumeOpcode(op)
		return p.vm.newInteger(0), nil

	default:
		if isLeadNameChar(byte(op)) || op == '\\' || op == '^' {
			return p.evalNameRef(scope)
		}
		return nil, newError(ExcBadOpcode, "unsupported opcode in TermArg position")
	}
}

// evalOptionalTarget consumes a trailing optional Target (a NameString or
// NullName) common to many Type2Opcodes, storing res there if present, and
// returns res either way.
func (p *parser) evalOptionalTarget(scope *Object, res *Object) (*Object, *Error) {
	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return res, nil
	}
	if b == 0x00 {
		p.s.ReadByte()
		return res, nil
	}

	switch {
	case Opcode(b) >= opLocal0 && Opcode(b) <= opLocal7:
		p.s.ReadByte()
		idx := int(Opcode(b) - opLocal0)
		p.ctx.locals[idx] = res
		return res, nil
	case Opcode(b) >= opArg0 && Opcode(b) <= opArg6:
		p.s.ReadByte()
		idx := int(Opcode(b) - opArg0)
		if aerr := p.vm.store(p.ctx, p.ctx.args[idx], res); aerr != nil {
			return nil, aerr
		}
		return res, nil
	}

	if !isLeadNameChar(b) && b != '\\' && b != '^' {
		return res, nil
	}
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}
	if aerr := p.storeToName(scope, name, res); aerr != nil {
		return nil, aerr
	}
	return res, nil
}

// evalStore parses DefStore: StoreOp TermArg SuperName. Store evaluates its
// source TermArg, writes the result into whatever SuperName names (a Local,
// an Arg, or a named object resolved against scope), and returns the stored
// value so Store can itself be used as a TermArg.
func (p *parser) evalStore(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opStore)

	val, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}

	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return nil, aerr
	}

	switch {
	case Opcode(b) >= opLocal0 && Opcode(b) <= opLocal7:
		p.s.ReadByte()
		idx := int(Opcode(b) - opLocal0)
		p.ctx.locals[idx] = val
		return val, nil
	case Opcode(b) >= opArg0 && Opcode(b) <= opArg6:
		p.s.ReadByte()
		idx := int(Opcode(b) - opArg0)
		if aerr := p.vm.store(p.ctx, p.ctx.args[idx], val); aerr != nil {
			return nil, aerr
		}
		return val, nil
	case b == 0x00:
		p.s.ReadByte()
		return val, nil
	}

	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}
	if aerr := p.storeToName(scope, name, val); aerr != nil {
		return nil, aerr
	}
	return val, nil
}

// evalBuffer parses DefBuffer: PkgLength BufferSize ByteList.
func (p *parser) evalBuffer(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opBuffer)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return nil, aerr
	}
	sizeArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	size, aerr := p.vm.toInteger(sizeArg)
	if aerr != nil {
		return nil, aerr
	}

	data := make([]byte, size)
	i := 0
	for p.s.Offset() < end {
		b, aerr := p.s.ReadByte()
		if aerr != nil {
			return nil, aerr
		}
		if i < len(data) {
			data[i] = b
		}
		i++
	}
	return p.vm.newBuffer(data), nil
}

// evalPackage parses DefPackage/DefVarPackage: PkgLength (Num|VarNum)
// PackageElementList.
func (p *parser) evalPackage(scope *Object, variable bool) (*Object, *Error) {
	op := opPackage
	if variable {
		op = opVarPackage
	}
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return nil, aerr
	}

	var numElements uint64
	if variable {
		n, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		numElements, aerr = p.vm.toInteger(n)
		if aerr != nil {
			return nil, aerr
		}
	} else {
		b, aerr := p.s.ReadByte()
		if aerr != nil {
			return nil, aerr
		}
		numElements = uint64(b)
	}

	elems := make([]*Object, 0, numElements)
	for p.s.Offset() < end {
		el, aerr := p.evalPackageElement(scope)
		if aerr != nil {
			return nil, aerr
		}
		elems = append(elems, el)
	}
	for uint64(len(elems)) < numElements {
		elems = append(elems, p.vm.newInteger(0))
	}
	return p.vm.newPackage(elems), nil
}

// evalPackageElement evaluates one PackageElementList entry: a DataRefObject,
// or a bare NameString, which per ACPI §19.6.101's PackageElement grammar is
// never invoked even if it names a Method -- it resolves to a plain
// reference. Unlike a TermArg NameString, an unresolved one here is a
// forward reference rather than an error: a placeholder Object is recorded
// in the returned slot and patched in place once the name resolves.
func (p *parser) evalPackageElement(scope *Object) (*Object, *Error) {
	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return nil, aerr
	}
	if !isLeadNameChar(b) && b != '\\' && b != '^' {
		return p.evalTermArg(scope)
	}

	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}
	target, ferr := p.vm.ns.Find(scope, name)
	if ferr != nil {
		placeholder := newObject(KindUnresolved)
		placeholder.payload = &UnresolvedData{Target: name}
		p.vm.patchUp.Add(name, scope, func(obj *Object) {
			placeholder.Kind = obj.Kind
			placeholder.payload = obj.payload
		})
		return placeholder, nil
	}
	return p.vm.readValue(target)
}

// evalNameRef resolves a NameString TermArg: either a plain value reference
// or, if the name names a Method, a method invocation (consuming that
// method's declared argument count of following TermArgs).
func (p *parser) evalNameRef(scope *Object) (*Object, *Error) {
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}

	target, aerr := p.vm.ns.Find(scope, name)
	if aerr != nil {
		return nil, aerr
	}

	return p.evalResolvedName(scope, target)
}

// evalResolvedName reads target's value, invoking it as a Method (consuming
// its declared argument count of following TermArgs) if that's what target
// is; split out of evalNameRef so parseName can reuse the same resolution
// once it has already decoded the name itself to detect a forward reference.
func (p *parser) evalResolvedName(scope *Object, target *Object) (*Object, *Error) {
	if target.Kind != KindMethod {
		return p.vm.readValue(target)
	}

	md := target.payload.(*MethodData)
	args := make([]*Object, 0, md.ArgCount)
	for i := 0; i < md.ArgCount; i++ {
		a, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return nil, aerr
		}
		args = append(args, a)
	}

	return p.vm.invokeMethod(p.ctx, target, args)
}

// storeToName resolves target (already-declared) and stores val into it
// per the Store/CopyObject rules (store.go); used for the trailing Target
// operand many Type2Opcodes accept.
func (p *parser) storeToName(scope *Object, target NameString, val *Object) *Error {
	if target.IsNull() {
		return nil
	}
	dst, aerr := p.vm.ns.Find(scope, target)
	if aerr != nil {
		return aerr
	}
	return p.vm.store(p.ctx, dst, val)
}
