package aml

// store implements DefStore/CopyObject's target-write rules: writing to a
// Local always overwrites it outright (Locals are untyped slots); writing
// to a BufferField or FieldUnit converts val to an Integer and writes the
// addressed bits through; writing to the Debug object is a no-op observer
// point; writing to any other named object replaces its payload in place,
// implicitly converting val to the destination's existing Kind when the
// destination already holds a typed value (ACPI's "Store" conversion,
// distinct from the exact-type-preserving copy CopyObject performs).
func (vm *VM) store(ctx *execContext, dst, val *Object) *Error {
	if dst == nil {
		return nil
	}

	switch dst.Kind {
	case KindDebug:
		return nil

	case KindBufferField:
		bf := dst.payload.(*BufferFieldData)
		v, aerr := vm.toInteger(val)
		if aerr != nil {
			return aerr
		}
		srcBuf, ok := bf.Source.payload.(*Buffer)
		if !ok {
			return newError(ExcOperandType, "BufferField destination source is not a Buffer")
		}
		writeBits(srcBuf.Data, bf.BitOffset, bf.BitWidth, v)
		return nil

	case KindFieldUnit:
		fu := dst.payload.(*FieldUnitData)
		v, aerr := vm.toInteger(val)
		if aerr != nil {
			return aerr
		}
		return vm.writeFieldUnit(fu, v)

	case KindUninitialized:
		// First store to a previously untyped named object adopts val's
		// Kind and payload outright, same as a Local.
		dst.Kind = val.Kind
		dst.payload = val.payload
		return nil

	case KindInteger, KindString, KindBuffer, KindPackage:
		converted, aerr := vm.convertTo(val, dst.Kind)
		if aerr != nil {
			return aerr
		}
		dst.payload = converted.payload
		return nil

	default:
		dst.Kind = val.Kind
		dst.payload = val.payload
		return nil
	}
}

// copyObject implements DefCopyObject: unlike Store, the destination takes
// on the exact Kind and payload of the source with no implicit conversion.
func (vm *VM) copyObject(dst, src *Object) {
	dst.Kind = src.Kind
	dst.payload = src.payload
}
