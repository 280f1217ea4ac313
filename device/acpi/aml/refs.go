package aml

// evalIndex handles DefIndex: BuffPkgStrObj IndexValue Target. It returns
// (and optionally stores through Target) an ObjectReference to the
// selected element: the Package's element object directly for a Package,
// or a synthetic single-byte BufferField for a Buffer/String, matching
// ACPI's "Index returns a reference you can Store through" semantics.
func (p *parser) evalIndex(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opIndex)

	src, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	idxArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	idx, aerr := p.vm.toInteger(idxArg)
	if aerr != nil {
		return nil, aerr
	}

	var ref *Object
	switch src.Kind {
	case KindPackage:
		pd := src.payload.(*PackageData)
		if idx >= uint64(len(pd.Elements)) {
			return nil, newError(ExcInvalidIndex, "Index past end of Package")
		}
		ref = p.vm.newObjectReference(pd.Elements[idx])
	case KindBuffer:
		buf := src.payload.(*Buffer)
		if idx >= uint64(len(buf.Data)) {
			return nil, newError(ExcInvalidIndex, "Index past end of Buffer")
		}
		bf := newObject(KindBufferField)
		bf.payload = &BufferFieldData{Source: src, BitOffset: uint32(idx) * 8, BitWidth: 8}
		ref = p.vm.newObjectReference(bf)
	case KindString:
		s := src.payload.(string)
		if idx >= uint64(len(s)) {
			return nil, newError(ExcInvalidIndex, "Index past end of String")
		}
		bf := newObject(KindBufferField)
		bf.payload = &BufferFieldData{Source: p.vm.newBuffer([]byte(s)), BitOffset: uint32(idx) * 8, BitWidth: 8}
		ref = p.vm.newObjectReference(bf)
	default:
		return nil, newError(ExcOperandType, "Index requires a Buffer, Package, or String")
	}

	return p.evalOptionalTarget(scope, ref)
}

// evalSizeOf handles DefSizeOf: the element count of a Package, the byte
// length of a Buffer, or the character count of a String.
func (p *parser) evalSizeOf(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opSizeOf)
	arg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}

	var n int
	switch arg.Kind {
	case KindPackage:
		n = len(arg.payload.(*PackageData).Elements)
	case KindBuffer:
		n = len(arg.payload.(*Buffer).Data)
	case KindString:
		n = len(arg.payload.(string))
	default:
		return nil, newError(ExcOperandType, "SizeOf requires a Buffer, Package, or String")
	}
	return p.vm.newInteger(uint64(n)), nil
}

// evalRefOf handles DefRefOf: an unconditional reference to a named
// object, without dereferencing it.
func (p *parser) evalRefOf(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opRefOf)
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}
	target, aerr := p.vm.ns.Find(scope, name)
	if aerr != nil {
		return nil, aerr
	}
	return p.vm.newObjectReference(target), nil
}

// evalCondRefOf handles DefCondRefOf: like RefOf, but returns a boolean
// success flag instead of raising NameNotFound, storing the reference into
// Target only on success.
func (p *parser) evalCondRefOf(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opCondRefOf)
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}

	target, ferr := p.vm.ns.Find(scope, name)
	if ferr != nil {
		// A nil result with a real Target name would crash Store;
		// simply skip the Target bytes on failure instead.
		return p.vm.newInteger(0), p.skipOptionalTargetName()
	}

	ref := p.vm.newObjectReference(target)
	if _, aerr := p.evalOptionalTarget(scope, ref); aerr != nil {
		return nil, aerr
	}
	return p.vm.newInteger(1), nil
}

// skipOptionalTargetName consumes (without storing into) a trailing
// optional Target -- used when CondRefOf's lookup already failed.
func (p *parser) skipOptionalTargetName() *Error {
	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return nil
	}
	op := Opcode(b)
	if b == 0x00 || (op >= opLocal0 && op <= opLocal7) || (op >= opArg0 && op <= opArg6) {
		p.s.ReadByte()
		return nil
	}
	if !isLeadNameChar(b) && b != '\\' && b != '^' {
		return nil
	}
	_, aerr = decodeNameString(p.s)
	return aerr
}

// evalDerefOf handles DefDerefOf: dereferences an ObjectReference (as
// produced by RefOf or Index) to the object it points to.
func (p *parser) evalDerefOf(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opDerefOf)
	arg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return nil, aerr
	}
	if arg.Kind != KindObjectReference {
		return arg, nil
	}
	ref := arg.payload.(*ObjectReferenceData)
	return p.vm.readValue(ref.Target)
}

// evalAcquire handles DefAcquire: SyncObj Timeout, returning a boolean
// (Integer 0 on success, 1 on timeout) per ACPI's inverted Acquire
// convention.
func (p *parser) evalAcquire(scope *Object) (*Object, *Error) {
	p.consumeOpcode(opAcquire)
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return nil, aerr
	}
	timeout, aerr := decodeNumConstant(p.s, 2)
	if aerr != nil {
		return nil, aerr
	}

	m, aerr := p.vm.ns.Find(scope, name)
	if aerr != nil {
		return nil, aerr
	}

	ok, aerr := p.ctx.mstack.Acquire(m, uint16(timeout))
	if aerr != nil {
		return nil, aerr
	}
	if ok {
		return p.vm.newInteger(0), nil
	}
	return p.vm.newInteger(1), nil
}

// readValue dereferences a BufferField/FieldUnit target to its current
// scalar value, or returns non-reference objects unchanged; used by
// DerefOf and by plain NameString reads of field-like objects.
func (vm *VM) readValue(o *Object) (*Object, *Error) {
	switch o.Kind {
	case KindBufferField:
		bf := o.payload.(*BufferFieldData)
		return vm.readBufferField(bf)
	case KindFieldUnit:
		fu := o.payload.(*FieldUnitData)
		return vm.readFieldUnit(fu)
	default:
		return o, nil
	}
}

// readBufferField extracts the bit-addressed slice bf describes from its
// backing Buffer and returns it as an Integer.
func (vm *VM) readBufferField(bf *BufferFieldData) (*Object, *Error) {
	srcBuf, ok := bf.Source.payload.(*Buffer)
	if !ok {
		return nil, newError(ExcOperandType, "BufferField source is not a Buffer")
	}
	v := readBits(srcBuf.Data, bf.BitOffset, bf.BitWidth)
	return vm.newInteger(v), nil
}

func readBits(data []byte, bitOffset, bitWidth uint32) uint64 {
	var v uint64
	for i := uint32(0); i < bitWidth; i++ {
		bitPos := bitOffset + i
		byteIdx := bitPos / 8
		if int(byteIdx) >= len(data) {
			break
		}
		bit := (data[byteIdx] >> (bitPos % 8)) & 1
		v |= uint64(bit) << i
	}
	return v
}

func writeBits(data []byte, bitOffset, bitWidth uint32, value uint64) {
	for i := uint32(0); i < bitWidth; i++ {
		bitPos := bitOffset + i
		byteIdx := bitPos / 8
		if int(byteIdx) >= len(data) {
			break
		}
		bit := byte((value >> i) & 1)
		if bit != 0 {
			data[byteIdx] |= 1 << (bitPos % 8)
		} else {
			data[byteIdx] &^= 1 << (bitPos % 8)
		}
	}
}

// readFieldUnit services a Field/IndexField read through the region
// backend (or index/data register pair), applying the Global Lock rule
// when the field declared it.
func (vm *VM) readFieldUnit(fu *FieldUnitData) (*Object, *Error) {
	if fu.LockRule {
		// LockRule is recorded on the FieldUnit but not enforced: no
		// global lock is acquired around this access or around writes.
	}

	width := fieldAccessWidth(fu)

	if fu.Region != nil {
		if aerr := vm.selectBank(fu); aerr != nil {
			return nil, aerr
		}
		rd := fu.Region.payload.(*OperationRegionData)
		if rd.Backend == nil {
			return nil, newError(ExcOperandType, "OperationRegion has no backend attached")
		}
		byteOffset := rd.Offset + uint64(fu.BitOffset/8)
		v, err := rd.Backend.Read(rd.Space, byteOffset, width)
		if err != nil {
			return nil, newError(ExcRegionLimit, err.Error())
		}
		return vm.newInteger(v), nil
	}

	if fu.IndexReg != nil && fu.DataReg != nil {
		idxFU := fu.IndexReg.payload.(*FieldUnitData)
		dataFU := fu.DataReg.payload.(*FieldUnitData)
		if aerr := vm.writeFieldUnitRaw(idxFU, uint64(fu.BitOffset/8)); aerr != nil {
			return nil, aerr
		}
		return vm.readFieldUnit(dataFU)
	}

	return nil, newError(ExcOperandType, "FieldUnit has no backing Region or index/data registers")
}

func (vm *VM) writeFieldUnitRaw(fu *FieldUnitData, value uint64) *Error {
	if fu.Region == nil {
		return newError(ExcOperandType, "index register FieldUnit has no backing Region")
	}
	rd := fu.Region.payload.(*OperationRegionData)
	if rd.Backend == nil {
		return newError(ExcOperandType, "OperationRegion has no backend attached")
	}
	width := fieldAccessWidth(fu)
	byteOffset := rd.Offset + uint64(fu.BitOffset/8)
	if err := rd.Backend.Write(rd.Space, byteOffset, width, value); err != nil {
		return newError(ExcRegionLimit, err.Error())
	}
	return nil
}

// selectBank writes a BankField's bank-select value into its bank register
// before the field's own Region is accessed; a no-op for plain Field/
// IndexField FieldUnits, which have no BankReg.
func (vm *VM) selectBank(fu *FieldUnitData) *Error {
	if fu.BankReg == nil {
		return nil
	}
	bankFU, ok := fu.BankReg.payload.(*FieldUnitData)
	if !ok {
		return newError(ExcOperandType, "BankField bank register is not a FieldUnit")
	}
	return vm.writeFieldUnitRaw(bankFU, fu.BankValue)
}

// writeFieldUnit services a Field/IndexField/BankField write.
func (vm *VM) writeFieldUnit(fu *FieldUnitData, value uint64) *Error {
	if fu.Region != nil {
		if aerr := vm.selectBank(fu); aerr != nil {
			return aerr
		}
		return vm.writeFieldUnitRaw(fu, value)
	}
	if fu.IndexReg != nil && fu.DataReg != nil {
		idxFU := fu.IndexReg.payload.(*FieldUnitData)
		if aerr := vm.writeFieldUnitRaw(idxFU, uint64(fu.BitOffset/8)); aerr != nil {
			return aerr
		}
		dataFU := fu.DataReg.payload.(*FieldUnitData)
		return vm.writeFieldUnitRaw(dataFU, value)
	}
	return newError(ExcOperandType, "FieldUnit has no backing Region or index/data registers")
}

// fieldAccessWidth maps a FieldUnit's declared AccessType to a bit width
// for the backend call, defaulting to the field's own declared width
// rounded up to the next of 8, 16, 32 or 64 bits for any other AccessType.
func fieldAccessWidth(fu *FieldUnitData) int {
	switch fu.AccessType {
	case AccessByte:
		return 8
	case AccessWord:
		return 16
	case AccessDWord:
		return 32
	case AccessQWord:
		return 64
	default:
		w := fu.BitWidth
		switch {
		case w <= 8:
			return 8
		case w <= 16:
			return 16
		case w <= 32:
			return 32
		default:
			return 64
		}
	}
}
