package aml

import "strconv"

// Describe renders o as a short human-readable string, mainly for the
// amldump CLI's `call` subcommand and for test failure messages: an
// Integer prints in hex, a String verbatim, a Buffer as a hex byte list, a
// Package recursively, and anything else as its Kind name.
func Describe(o *Object) string {
	if o == nil {
		return "<nil>"
	}
	switch o.Kind {
	case KindInteger:
		v, _ := o.payload.(uint64)
		return "0x" + strconv.FormatUint(v, 16)
	case KindString:
		s, _ := o.payload.(string)
		return strconv.Quote(s)
	case KindBuffer:
		buf, _ := o.payload.(*Buffer)
		if buf == nil {
			return "Buffer{}"
		}
		s := "Buffer{"
		for i, b := range buf.Data {
			if i > 0 {
				s += " "
			}
			s += strconv.FormatUint(uint64(b), 16)
		}
		return s + "}"
	case KindPackage:
		pkg, _ := o.payload.(*PackageData)
		if pkg == nil {
			return "Package{}"
		}
		s := "Package{"
		for i, el := range pkg.Elements {
			if i > 0 {
				s += ", "
			}
			s += Describe(el)
		}
		return s + "}"
	default:
		return o.Kind.String()
	}
}
