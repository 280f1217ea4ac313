package aml

// invokeMethod calls method (already resolved to a KindMethod Object) with
// args, running either its Native implementation or re-walking its
// recorded AML byte range under a fresh childContext. Every frame pushes
// a stack-trace entry so a raised Error carries the full call chain, and
// every call/return is mirrored to the VM's trace hook.
func (vm *VM) invokeMethod(ctx *execContext, method *Object, args []*Object) (*Object, *Error) {
	md, ok := method.payload.(*MethodData)
	if !ok {
		return nil, newError(ExcOperandType, "invoke target is not a Method")
	}
	if len(args) != md.ArgCount {
		return nil, newError(ExcMethodLimit, "Method argument count mismatch")
	}

	name := AbsolutePath(method)
	vm.trace(TraceEvent{Kind: "call", Method: name})

	if md.Serialized && md.syncObj != nil {
		if ok, aerr := ctx.mstack.Acquire(md.syncObj, 0xFFFF); aerr != nil {
			return nil, aerr
		} else if ok {
			defer ctx.mstack.Release(md.syncObj)
		}
	}

	if md.Native != nil {
		res, aerr := md.Native(vm, args)
		if aerr != nil {
			aerr.pushFrame(name, 0)
			vm.trace(TraceEvent{Kind: "exception", Method: name, Detail: aerr.Error()})
			return nil, aerr
		}
		vm.trace(TraceEvent{Kind: "return", Method: name})
		return res, nil
	}

	child := ctx.childContext(args)
	p := newMethodParser(vm, md.TableData, md.AMLOffset, child)
	end := md.AMLOffset + md.AMLLength

	if aerr := p.parseTermList(method, end); aerr != nil {
		aerr.pushFrame(name, p.s.Offset())
		vm.trace(TraceEvent{Kind: "exception", Method: name, Detail: aerr.Error()})
		return nil, aerr
	}

	vm.trace(TraceEvent{Kind: "return", Method: name})

	if child.ctrlFlow == ctrlFlowReturn && child.retVal != nil {
		return child.retVal, nil
	}

	// Falling off the end of a method body without an explicit Return
	// yields a copy of the value of the last bare expression statement in
	// the body (ACPI §19.6.85), or, if the body had none, an Integer 0
	// carrying FlagExceptionOnUse.
	if child.lastValue != nil {
		return cloneObject(child.lastValue), nil
	}
	implicit := vm.newInteger(0)
	implicit.flags |= FlagExceptionOnUse
	return implicit, nil
}

// cloneObject allocates a fresh Object sharing o's Kind and payload, used
// for a Method's implicit return: the caller must get its own Object rather
// than an alias into the method's locals, which are discarded on return.
func cloneObject(o *Object) *Object {
	c := newObject(o.Kind)
	c.payload = o.payload
	return c
}
