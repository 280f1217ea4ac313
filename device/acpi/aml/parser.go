package aml

// parser performs the one-time structural pass over a table's AML bytes:
// it walks TermList/TermObj per ACPI §20.2.5, entering every named object
// (Scope/Device/Method/Mutex/OperationRegion/Field/...) into the namespace.
// Method bodies are not descended into at this stage; only their byte
// range is recorded, and the evaluator (eval.go) re-walks that range with
// this same grammar every time the method is invoked, fusing parsing and
// evaluation for the one part of the grammar that actually runs more than
// once.
type parser struct {
	vm  *VM
	s   *stream
	ctx *execContext
}

func newParser(vm *VM, data []byte) *parser {
	return &parser{vm: vm, s: newStream(data, 0), ctx: newExecContext(vm, nil)}
}

// newMethodParser builds a parser bounded to a method invocation's recorded
// byte range, sharing ctx (locals/args/control-flow state) across every
// statement the method body executes.
func newMethodParser(vm *VM, data []byte, offset uint32, ctx *execContext) *parser {
	return &parser{vm: vm, s: newStream(data, offset), ctx: ctx}
}

// parseTermList parses TermObj entries under scope until the stream
// reaches end (an absolute offset within the parser's data).
func (p *parser) parseTermList(scope *Object, end uint32) *Error {
	for p.s.Offset() < end {
		if p.ctx.ctrlFlow != ctrlFlowNext {
			break
		}
		if aerr := p.parseTermObj(scope); aerr != nil {
			return aerr
		}
	}
	return nil
}

// parseTermObj dispatches a single TermObj: either a named object
// declaration or a (rare, at structural-parse granularity) bare expression
// statement, which is evaluated for side effects using the same evaluator
// path a method body would use.
func (p *parser) parseTermObj(scope *Object) *Error {
	op, aerr := p.peekOpcode()
	if aerr != nil {
		return aerr
	}

	switch op {
	case opScope:
		return p.parseScope(scope)
	case opAlias:
		return p.parseAlias(scope)
	case opName:
		return p.parseName(scope)
	case opMethod:
		return p.parseMethod(scope)
	case opDevice:
		return p.parseDevice(scope)
	case opProcessor:
		return p.parseProcessor(scope)
	case opPowerRes:
		return p.parsePowerResource(scope)
	case opThermalZone:
		return p.parseThermalZone(scope)
	case opMutex:
		return p.parseMutex(scope)
	case opEvent:
		return p.parseEvent(scope)
	case opOpRegion:
		return p.parseOpRegion(scope)
	case opField:
		return p.parseField(scope)
	case opIndexField:
		return p.parseIndexField(scope)
	case opBankField:
		return p.parseBankField(scope)
	case opExternal:
		return p.parseExternal(scope)
	case opCreateByteField, opCreateWordField, opCreateDWordField, opCreateQWordField, opCreateField:
		return p.parseCreateField(scope, op)
	default:
		// An expression-level statement (e.g. a bare Store, a lone Local0
		// reference, or an If at the top of a table/method body, legal but
		// unusual). Evaluated now for side effects, since structural parsing
		// never revisits this byte range; its value is also the candidate
		// "last evaluated expression" a Method falling off its body without
		// an explicit Return should hand back (ACPI §19.6.85).
		v, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return aerr
		}
		p.ctx.lastValue = v
		return nil
	}
}

// peekOpcode decodes the opcode at the current offset without consuming it,
// folding a 0x5b extended prefix into the high byte.
func (p *parser) peekOpcode() (Opcode, *Error) {
	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return 0, aerr
	}
	if b != extOpPrefixByte {
		return Opcode(b), nil
	}
	p.s.ReadByte()
	b2, aerr := p.s.PeekByte()
	p.s.UnreadByte()
	if aerr != nil {
		return 0, aerr
	}
	return extOpBase | Opcode(b2), nil
}

// consumeOpcode reads past the opcode peekOpcode just inspected.
func (p *parser) consumeOpcode(op Opcode) *Error {
	if op&extOpBase != 0 && op != Opcode(extOpPrefixByte) {
		if _, aerr := p.s.ReadByte(); aerr != nil {
			return aerr
		}
	}
	_, aerr := p.s.ReadByte()
	return aerr
}

// --- Namespace modifier objects ---

func (p *parser) parseScope(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)

	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	name, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}

	target, aerr := p.vm.ns.Find(scope, name)
	if aerr != nil {
		return aerr
	}

	return p.parseTermList(target, end)
}

func (p *parser) parseAlias(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)

	srcName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	aliasSeg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}

	alias := p.vm.ns.Add(scope, aliasSeg, KindAlias)
	target, err := p.vm.ns.Find(scope, srcName)
	if err != nil {
		p.vm.patchUp.Add(srcName, scope, func(obj *Object) {
			alias.payload = &AliasData{Target: obj}
		})
		return nil
	}
	alias.payload = &AliasData{Target: target}
	return nil
}

// parseName handles DefName: NameOp NameSeg DataRefObject. A DataRefObject
// that is itself a bare NameString may reference a name not yet declared
// (ACPI §4.2 allows a DSDT/SSDT to forward-reference a later Name); such a
// reference is recorded with the same patch-up mechanism parseAlias uses,
// rather than erroring immediately.
func (p *parser) parseName(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)

	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}

	b, aerr := p.s.PeekByte()
	if aerr != nil {
		return aerr
	}
	if isLeadNameChar(b) || b == '\\' || b == '^' {
		refName, aerr := decodeNameString(p.s)
		if aerr != nil {
			return aerr
		}
		target, ferr := p.vm.ns.Find(scope, refName)
		if ferr != nil {
			named := p.vm.ns.Add(scope, seg, KindUnresolved)
			named.payload = &UnresolvedData{Target: refName}
			p.vm.patchUp.Add(refName, scope, func(obj *Object) {
				named.Kind = obj.Kind
				named.payload = obj.payload
			})
			return nil
		}
		val, rerr := p.evalResolvedName(scope, target)
		if rerr != nil {
			return rerr
		}
		named := p.vm.ns.Add(scope, seg, val.Kind)
		named.payload = val.payload
		return nil
	}

	val, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}

	named := p.vm.ns.Add(scope, seg, val.Kind)
	named.payload = val.payload
	return nil
}

func (p *parser) parseExternal(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	if _, aerr := decodeNameString(p.s); aerr != nil {
		return aerr
	}
	if _, aerr := p.s.ReadByte(); aerr != nil {
		return aerr
	}
	if _, aerr := p.s.ReadByte(); aerr != nil {
		return aerr
	}
	return nil
}

// --- Named objects with a PkgLength-bounded body ---

func (p *parser) parseMethod(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)

	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	flags, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	serialized := flags&0x08 != 0
	syncLevel := (flags >> 4) & 0x0f

	m := p.vm.ns.Add(scope, seg, KindMethod)
	md := &MethodData{
		ArgCount:   int(flags & 0x07),
		Serialized: serialized,
		SyncLevel:  syncLevel,
		AMLOffset:  p.s.Offset(),
		AMLLength:  end - p.s.Offset(),
		TableData:  p.s.Bytes(),
	}
	if serialized {
		sm := newObject(KindMutex)
		sm.payload = &MutexData{SyncLevel: syncLevel}
		md.syncObj = sm
	}
	m.payload = md

	p.s.SetOffset(end)
	return nil
}

func (p *parser) parseDevice(scope *Object) *Error {
	return p.parseNamedScope(scope, KindDevice)
}

func (p *parser) parseProcessor(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	procID, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}
	pblkAddr, aerr := decodeNumConstant(p.s, 4)
	if aerr != nil {
		return aerr
	}
	pblkLen, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	o, reused, aerr := p.vm.ns.AddOrReuse(scope, seg, KindProcessor)
	if aerr != nil {
		return aerr
	}
	if !reused {
		o.payload = &Processor{ProcID: procID, PblkAddr: uint32(pblkAddr), PblkLen: pblkLen}
	}

	return p.parseTermList(o, end)
}

func (p *parser) parsePowerResource(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	level, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}
	order, aerr := decodeNumConstant(p.s, 2)
	if aerr != nil {
		return aerr
	}

	o, reused, aerr := p.vm.ns.AddOrReuse(scope, seg, KindPowerResource)
	if aerr != nil {
		return aerr
	}
	if !reused {
		o.payload = &PowerResourceData{SystemLevel: level, ResourceOrder: uint16(order)}
	}

	return p.parseTermList(o, end)
}

func (p *parser) parseThermalZone(scope *Object) *Error {
	return p.parseNamedScope(scope, KindThermalZone)
}

// parseNamedScope handles the common "opcode, PkgLength, NameSeg, TermList"
// shape shared by DefDevice and DefThermalZone, reusing an existing
// same-name/same-kind object rather than overwriting it so an SSDT can
// reopen a scope a DSDT already declared.
func (p *parser) parseNamedScope(scope *Object, kind Kind) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}

	o, reused, aerr := p.vm.ns.AddOrReuse(scope, seg, kind)
	if aerr != nil {
		return aerr
	}
	if !reused && kind == KindThermalZone {
		o.payload = &ThermalZoneData{}
	}
	return p.parseTermList(o, end)
}

func (p *parser) parseMutex(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	flags, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}
	o := p.vm.ns.Add(scope, seg, KindMutex)
	o.payload = &MutexData{SyncLevel: flags & 0x0f}
	return nil
}

func (p *parser) parseEvent(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	o := p.vm.ns.Add(scope, seg, KindEvent)
	o.payload = &EventData{}
	return nil
}

func (p *parser) parseOpRegion(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}
	spaceByte, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	offArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}
	lenArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}
	off, aerr := p.vm.toInteger(offArg)
	if aerr != nil {
		return aerr
	}
	length, aerr := p.vm.toInteger(lenArg)
	if aerr != nil {
		return aerr
	}

	o := p.vm.ns.Add(scope, seg, KindOperationRegion)
	o.payload = &OperationRegionData{
		Space:   RegionSpace(spaceByte),
		Offset:  off,
		Length:  length,
		Backend: p.vm.regionBackend,
	}
	return nil
}

// fieldElementSpec captures one decoded FieldList entry (ACPI §20.2.5.10.1).
type fieldElementSpec struct {
	reserved bool
	name     Name
	bitWidth uint32
}

func (p *parser) parseFieldElements(end uint32) ([]fieldElementSpec, *Error) {
	var specs []fieldElementSpec
	for p.s.Offset() < end {
		b, aerr := p.s.PeekByte()
		if aerr != nil {
			return nil, aerr
		}
		switch b {
		case 0x00: // ReservedField
			p.s.ReadByte()
			_, _, aerr := decodePkgLength(p.s)
			if aerr != nil {
				return nil, aerr
			}
			specs = append(specs, fieldElementSpec{reserved: true})
		case 0x01: // AccessField
			p.s.ReadByte()
			p.s.ReadByte()
			p.s.ReadByte()
		case 0x02: // ConnectField
			// Either a NameString or a small BufferData; stop decoding
			// further fields rather than risk misparsing the stream,
			// since resolving which alternative was used requires
			// lookahead this pass does not need for Region-backed
			// fields (the common case).
			return specs, nil
		default:
			seg, aerr := decodeNameSeg(p.s)
			if aerr != nil {
				return nil, aerr
			}
			width, _, aerr := decodePkgLength(p.s)
			if aerr != nil {
				return nil, aerr
			}
			specs = append(specs, fieldElementSpec{name: seg, bitWidth: width})
		}
	}
	return specs, nil
}

func (p *parser) parseField(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	regionName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	flags, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	region, rerr := p.vm.ns.Find(scope, regionName)
	if rerr != nil {
		region = nil
	}

	specs, aerr := p.parseFieldElements(end)
	if aerr != nil {
		return aerr
	}

	var bitOffset uint32
	for _, spec := range specs {
		if spec.reserved {
			bitOffset += spec.bitWidth
			continue
		}
		fu := p.vm.ns.Add(scope, spec.name, KindFieldUnit)
		fu.payload = &FieldUnitData{
			Region:     region,
			BitOffset:  bitOffset,
			BitWidth:   spec.bitWidth,
			AccessType: FieldAccessType(flags & 0x0f),
			LockRule:   flags&0x10 != 0,
			UpdateRule: FieldUpdateRule((flags >> 5) & 0x03),
		}
		bitOffset += spec.bitWidth
	}

	p.s.SetOffset(end)
	return nil
}

func (p *parser) parseIndexField(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	idxName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	dataName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	flags, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	idxReg, _ := p.vm.ns.Find(scope, idxName)
	dataReg, _ := p.vm.ns.Find(scope, dataName)

	specs, aerr := p.parseFieldElements(end)
	if aerr != nil {
		return aerr
	}

	var bitOffset uint32
	for _, spec := range specs {
		if spec.reserved {
			bitOffset += spec.bitWidth
			continue
		}
		fu := p.vm.ns.Add(scope, spec.name, KindFieldUnit)
		fu.payload = &FieldUnitData{
			IndexReg:   idxReg,
			DataReg:    dataReg,
			BitOffset:  bitOffset,
			BitWidth:   spec.bitWidth,
			AccessType: FieldAccessType(flags & 0x0f),
			LockRule:   flags&0x10 != 0,
			UpdateRule: FieldUpdateRule((flags >> 5) & 0x03),
		}
		bitOffset += spec.bitWidth
	}

	p.s.SetOffset(end)
	return nil
}

// parseBankField handles DefBankField: RegionName BankName BankValue select
// a bank within RegionName's OperationRegion by writing BankValue to
// BankName (itself a previously-declared FieldUnit) before every access to
// a field declared here, per ACPI §19.6.10.
func (p *parser) parseBankField(scope *Object) *Error {
	op, _ := p.peekOpcode()
	p.consumeOpcode(op)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	regionName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	bankName, aerr := decodeNameString(p.s)
	if aerr != nil {
		return aerr
	}
	bankValArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}
	bankVal, aerr := p.vm.toInteger(bankValArg)
	if aerr != nil {
		return aerr
	}
	flags, aerr := p.s.ReadByte()
	if aerr != nil {
		return aerr
	}

	region, _ := p.vm.ns.Find(scope, regionName)
	bankReg, _ := p.vm.ns.Find(scope, bankName)

	specs, aerr := p.parseFieldElements(end)
	if aerr != nil {
		return aerr
	}

	var bitOffset uint32
	for _, spec := range specs {
		if spec.reserved {
			bitOffset += spec.bitWidth
			continue
		}
		fu := p.vm.ns.Add(scope, spec.name, KindFieldUnit)
		fu.payload = &FieldUnitData{
			Region:     region,
			BankReg:    bankReg,
			BankValue:  bankVal,
			BitOffset:  bitOffset,
			BitWidth:   spec.bitWidth,
			AccessType: FieldAccessType(flags & 0x0f),
			LockRule:   flags&0x10 != 0,
			UpdateRule: FieldUpdateRule((flags >> 5) & 0x03),
		}
		bitOffset += spec.bitWidth
	}

	p.s.SetOffset(end)
	return nil
}

func (p *parser) parseCreateField(scope *Object, op Opcode) *Error {
	p.consumeOpcode(op)

	srcArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}

	var bitOffset, bitWidth uint64
	switch op {
	case opCreateField:
		offArg, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return aerr
		}
		widthArg, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return aerr
		}
		bitOffset, _ = p.vm.toInteger(offArg)
		bitWidth, _ = p.vm.toInteger(widthArg)
	default:
		offArg, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return aerr
		}
		byteOffset, _ := p.vm.toInteger(offArg)
		bitOffset = byteOffset * 8
		switch op {
		case opCreateByteField:
			bitWidth = 8
		case opCreateWordField:
			bitWidth = 16
		case opCreateDWordField:
			bitWidth = 32
		case opCreateQWordField:
			bitWidth = 64
		}
	}

	seg, aerr := decodeNameSeg(p.s)
	if aerr != nil {
		return aerr
	}

	bf := p.vm.ns.Add(scope, seg, KindBufferField)
	bf.payload = &BufferFieldData{Source: srcArg, BitOffset: uint32(bitOffset), BitWidth: uint32(bitWidth)}
	return nil
}
