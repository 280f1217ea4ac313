package aml

import "testing"

func TestDecodePkgLength(t *testing.T) {
	specs := []struct {
		data   []byte
		expLen uint32
		expErr bool
	}{
		// single-byte form: top two bits are 0, length in low 6 bits.
		{[]byte{0x05}, 5, false},
		{[]byte{0x00}, 0, false},
		// two-byte form.
		{[]byte{0x41, 0x02}, 0x21, false},
		// PkgLength claiming to end before its own header is invalid.
		{[]byte{0x41, 0x00}, 0, true},
	}

	for specIndex, spec := range specs {
		s := newStream(spec.data, 0)
		length, _, aerr := decodePkgLength(s)
		if spec.expErr {
			if aerr == nil {
				t.Errorf("[spec %d] expected an error, got none", specIndex)
			}
			continue
		}
		if aerr != nil {
			t.Errorf("[spec %d] unexpected error: %s", specIndex, aerr.Error())
			continue
		}
		if length != spec.expLen {
			t.Errorf("[spec %d] expected length %d; got %d", specIndex, spec.expLen, length)
		}
	}
}

func TestDecodeNameSeg(t *testing.T) {
	s := newStream([]byte("_SB_"), 0)
	n, aerr := decodeNameSeg(s)
	if aerr != nil {
		t.Fatalf("unexpected error: %s", aerr.Error())
	}
	if got := n.String(); got != "_SB" {
		t.Fatalf("expected _SB; got %s", got)
	}

	if _, aerr := decodeNameSeg(newStream([]byte("0ABC"), 0)); aerr == nil {
		t.Fatal("expected an error for a NameSeg with a leading digit")
	}
}

func TestDecodeNameString(t *testing.T) {
	specs := []struct {
		data         string
		expAbsolute  bool
		expParentLvl int
		expSegs      int
	}{
		{"\\_SB_\x00", true, 0, 1},
		{"^^_SB_\x00", false, 2, 1},
		{string([]byte{0x2e, '_', 'S', 'B', '_', 'P', 'C', 'I', '0'}) + "\x00", false, 0, 2},
		{"\x00", false, 0, 0},
	}

	for specIndex, spec := range specs {
		s := newStream([]byte(spec.data), 0)
		ns, aerr := decodeNameString(s)
		if aerr != nil {
			t.Errorf("[spec %d] unexpected error: %s", specIndex, aerr.Error())
			continue
		}
		if ns.Absolute != spec.expAbsolute {
			t.Errorf("[spec %d] expected Absolute=%v; got %v", specIndex, spec.expAbsolute, ns.Absolute)
		}
		if ns.ParentLevels != spec.expParentLvl {
			t.Errorf("[spec %d] expected ParentLevels=%d; got %d", specIndex, spec.expParentLvl, ns.ParentLevels)
		}
		if len(ns.Segments) != spec.expSegs {
			t.Errorf("[spec %d] expected %d segments; got %d", specIndex, spec.expSegs, len(ns.Segments))
		}
	}
}

func TestDecodeString(t *testing.T) {
	s := newStream([]byte("hello\x00trailing"), 0)
	got, aerr := decodeString(s)
	if aerr != nil {
		t.Fatalf("unexpected error: %s", aerr.Error())
	}
	if got != "hello" {
		t.Fatalf("expected %q; got %q", "hello", got)
	}
	if s.Offset() != 6 {
		t.Fatalf("expected cursor at offset 6; got %d", s.Offset())
	}
}

func TestDecodeNumConstant(t *testing.T) {
	s := newStream([]byte{0xef, 0xbe, 0xad, 0xde}, 0)
	v, aerr := decodeNumConstant(s, 4)
	if aerr != nil {
		t.Fatalf("unexpected error: %s", aerr.Error())
	}
	if v != 0xdeadbeef {
		t.Fatalf("expected 0xdeadbeef; got 0x%x", v)
	}
}
