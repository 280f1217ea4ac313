package aml

// decodePkgLength reads an AML PkgLength (ACPI §20.2.4). It returns the
// decoded length (which includes the bytes of the PkgLength encoding
// itself, per the spec) and the absolute stream offset at which the scope
// described by this PkgLength ends.
func decodePkgLength(s *stream) (length uint32, end uint32, aerr *Error) {
	lead, aerr := s.ReadByte()
	if aerr != nil {
		return 0, 0, aerr
	}

	followingBytes := int(lead >> 6)
	start := s.Offset() - 1

	if followingBytes == 0 {
		length = uint32(lead & 0x3f)
	} else {
		length = uint32(lead & 0x0f)
		for i := 0; i < followingBytes; i++ {
			b, aerr := s.ReadByte()
			if aerr != nil {
				return 0, 0, aerr
			}
			length |= uint32(b) << (4 + 8*uint(i))
		}
	}

	// The single-byte form accepts any value 0-63. A multi-byte PkgLength
	// that claims to end before its own header is invalid.
	if followingBytes > 0 && length < uint32(1+followingBytes) {
		return 0, 0, newError(ExcParse, "invalid PkgLength encoding")
	}

	end = start + length
	return length, end, nil
}

// decodeNameSeg reads exactly 4 bytes and validates the NameSeg grammar:
// LeadNameChar NameChar NameChar NameChar.
func decodeNameSeg(s *stream) (Name, *Error) {
	var n Name
	for i := 0; i < nameLen; i++ {
		b, aerr := s.ReadByte()
		if aerr != nil {
			return n, aerr
		}
		if i == 0 {
			if !isLeadNameChar(b) {
				return n, newError(ExcBadName, "invalid NameSeg")
			}
		} else if !isNameChar(b) {
			return n, newError(ExcBadName, "invalid NameSeg")
		}
		n[i] = b
	}
	return n, nil
}

// decodeNameString reads a full NameString: PrefixPath (^*) then either
// '\' NamePath, NullName, or a bare NamePath (DualNamePrefix / MultiNamePrefix
// / single NameSeg).
func decodeNameString(s *stream) (NameString, *Error) {
	var ns NameString

	b, aerr := s.PeekByte()
	if aerr != nil {
		return ns, aerr
	}
	if b == '\\' {
		s.ReadByte()
		ns.Absolute = true
	} else {
		for {
			b, aerr = s.PeekByte()
			if aerr != nil {
				return ns, aerr
			}
			if b != '^' {
				break
			}
			s.ReadByte()
			ns.ParentLevels++
		}
	}

	b, aerr = s.PeekByte()
	if aerr != nil {
		return ns, aerr
	}

	switch b {
	case 0x00: // NullName
		s.ReadByte()
		return ns, nil
	case 0x2e: // DualNamePrefix
		s.ReadByte()
		for i := 0; i < 2; i++ {
			seg, aerr := decodeNameSeg(s)
			if aerr != nil {
				return ns, aerr
			}
			ns.Segments = append(ns.Segments, seg)
		}
		return ns, nil
	case 0x2f: // MultiNamePrefix
		s.ReadByte()
		count, aerr := s.ReadByte()
		if aerr != nil {
			return ns, aerr
		}
		for i := 0; i < int(count); i++ {
			seg, aerr := decodeNameSeg(s)
			if aerr != nil {
				return ns, aerr
			}
			ns.Segments = append(ns.Segments, seg)
		}
		return ns, nil
	default:
		if !isLeadNameChar(b) {
			// A bare '\' or a bare run of '^' is legal on its own.
			if ns.Absolute || ns.ParentLevels > 0 {
				return ns, nil
			}
			return ns, newError(ExcBadName, "invalid NameString")
		}
		seg, aerr := decodeNameSeg(s)
		if aerr != nil {
			return ns, aerr
		}
		ns.Segments = append(ns.Segments, seg)
		return ns, nil
	}
}

// decodeString reads a null-terminated ASCII string (ACPI §20.2.6 String).
func decodeString(s *stream) (string, *Error) {
	var buf []byte
	for {
		b, aerr := s.ReadByte()
		if aerr != nil {
			return "", aerr
		}
		if b == 0x00 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// decodeNumConstant reads a fixed-width little-endian numeric constant
// (ByteConst/WordConst/DWordConst/QWordConst) of the given byte width.
func decodeNumConstant(s *stream, width int) (uint64, *Error) {
	var v uint64
	for i := 0; i < width; i++ {
		b, aerr := s.ReadByte()
		if aerr != nil {
			return 0, aerr
		}
		v |= uint64(b) << (8 * uint(i))
	}
	return v, nil
}
