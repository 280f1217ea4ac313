package aml

// stream provides a cursor over an in-memory AML byte slice. Unlike the
// freestanding-kernel stream reader it replaces, it holds a plain []byte
// instead of an unsafe.Pointer + reflect.SliceHeader overlay, since this
// module runs hosted (under the Go allocator) rather than inside early boot
// code where the table bytes live at a fixed physical address.
type stream struct {
	data   []byte
	offset uint32

	// pkgEnd, when non-zero, bounds ReadByte to the current PkgLength scope.
	pkgEnd uint32
}

// newStream wraps data starting at initialOffset.
func newStream(data []byte, initialOffset uint32) *stream {
	return &stream{data: data, offset: initialOffset, pkgEnd: uint32(len(data))}
}

// EOF reports whether the stream has reached the end of its bounded region.
func (s *stream) EOF() bool {
	limit := uint32(len(s.data))
	if s.pkgEnd != 0 && s.pkgEnd < limit {
		limit = s.pkgEnd
	}
	return s.offset >= limit
}

// SetPkgEnd bounds subsequent reads to end at the given absolute offset.
// Passing 0 restores the full data length as the bound.
func (s *stream) SetPkgEnd(end uint32) *Error {
	if end > uint32(len(s.data)) {
		return newError(ExcAlignment, "stream: invalid package end offset")
	}
	s.pkgEnd = end
	return nil
}

// PkgEnd returns the current bound set by SetPkgEnd.
func (s *stream) PkgEnd() uint32 {
	return s.pkgEnd
}

// ReadByte consumes and returns the next byte, honoring the current PkgEnd
// bound.
func (s *stream) ReadByte() (byte, *Error) {
	if s.pkgEnd != 0 && s.offset >= s.pkgEnd {
		return 0, newError(ExcParse, "read past current package end")
	}
	if s.offset >= uint32(len(s.data)) {
		return 0, newError(ExcParse, "read past current package end")
	}
	b := s.data[s.offset]
	s.offset++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (s *stream) PeekByte() (byte, *Error) {
	b, aerr := s.ReadByte()
	if aerr != nil {
		return 0, aerr
	}
	s.offset--
	return b, nil
}

// LastByte returns the most recently consumed byte.
func (s *stream) LastByte() byte {
	if s.offset == 0 {
		return 0
	}
	return s.data[s.offset-1]
}

// UnreadByte rewinds the cursor by one byte.
func (s *stream) UnreadByte() *Error {
	if s.offset == 0 {
		return newError(ExcInternal, "invalid call to UnreadByte")
	}
	s.offset--
	return nil
}

// Offset returns the current absolute stream offset.
func (s *stream) Offset() uint32 { return s.offset }

// SetOffset repositions the cursor to an absolute offset.
func (s *stream) SetOffset(off uint32) { s.offset = off }

// Len returns the full backing data length.
func (s *stream) Len() uint32 { return uint32(len(s.data)) }

// Bytes returns the backing slice (used to record a method body's byte
// range at parse time so it can be re-walked at invocation time).
func (s *stream) Bytes() []byte { return s.data }
