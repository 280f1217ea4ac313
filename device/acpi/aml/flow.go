package aml

// execIf parses and runs DefIfElse: PkgLength Predicate TermList, optionally
// followed immediately by DefElse (its own PkgLength TermList). Only one of
// the two branches' bytes is ever walked by parseTermList; the other is
// skipped over by jumping the stream to its recorded end offset.
func (p *parser) execIf(scope *Object) *Error {
	p.consumeOpcode(opIf)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}

	predArg, aerr := p.evalTermArg(scope)
	if aerr != nil {
		return aerr
	}
	pred, aerr := p.vm.toInteger(predArg)
	if aerr != nil {
		return aerr
	}

	if pred != 0 {
		if aerr := p.parseTermList(scope, end); aerr != nil {
			return aerr
		}
		p.s.SetOffset(end)
		return p.maybeSkipElse()
	}

	p.s.SetOffset(end)
	return p.maybeExecElse(scope)
}

// maybeSkipElse is called after a taken If branch: if an Else immediately
// follows, its bytes are skipped without evaluation.
func (p *parser) maybeSkipElse() *Error {
	b, aerr := p.s.PeekByte()
	if aerr != nil || b != byte(opElse) {
		return nil
	}
	return p.skipElse()
}

// skipElse consumes and discards a DefElse block's bytes entirely.
func (p *parser) skipElse() *Error {
	p.consumeOpcode(opElse)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	p.s.SetOffset(end)
	return nil
}

// maybeExecElse is called after a not-taken If branch: if an Else
// immediately follows, it is executed.
func (p *parser) maybeExecElse(scope *Object) *Error {
	b, aerr := p.s.PeekByte()
	if aerr != nil || b != byte(opElse) {
		return nil
	}
	p.consumeOpcode(opElse)
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	if aerr := p.parseTermList(scope, end); aerr != nil {
		return aerr
	}
	p.s.SetOffset(end)
	return nil
}

// execWhile parses and runs DefWhile: PkgLength Predicate TermList,
// re-evaluating Predicate before each iteration. Break stops the loop;
// Continue re-evaluates Predicate immediately (rather than finishing the
// remaining body statements), matching ACPI's loop semantics.
func (p *parser) execWhile(scope *Object) *Error {
	p.consumeOpcode(opWhile)
	predOffset := p.s.Offset()
	_, end, aerr := decodePkgLength(p.s)
	if aerr != nil {
		return aerr
	}
	bodyStart := p.s.Offset()
	_ = predOffset

	// predOffset pointed at the PkgLength byte, not the Predicate; rewind
	// parsing state by re-reading the predicate's own start, which is
	// bodyStart since Predicate immediately follows PkgLength.
	for {
		p.s.SetOffset(bodyStart)
		predArg, aerr := p.evalTermArg(scope)
		if aerr != nil {
			return aerr
		}
		pred, aerr := p.vm.toInteger(predArg)
		if aerr != nil {
			return aerr
		}
		if pred == 0 {
			break
		}

		loopBodyStart := p.s.Offset()
		if aerr := p.parseTermList(scope, end); aerr != nil {
			return aerr
		}
		_ = loopBodyStart

		switch p.ctx.ctrlFlow {
		case ctrlFlowBreak:
			p.ctx.ctrlFlow = ctrlFlowNext
			p.s.SetOffset(end)
			return nil
		case ctrlFlowReturn:
			p.s.SetOffset(end)
			return nil
		case ctrlFlowContinue:
			p.ctx.ctrlFlow = ctrlFlowNext
		}
	}

	p.s.SetOffset(end)
	return nil
}
