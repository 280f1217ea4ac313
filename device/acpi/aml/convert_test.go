package aml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToIntegerConversions(t *testing.T) {
	vm := NewVM(nil)

	cases := []struct {
		name string
		obj  *Object
		want uint64
	}{
		{"integer passthrough", vm.newInteger(42), 42},
		{"hex string", vm.newString("1A"), 0x1a},
		{"hex string with trailing garbage stops at first non-hex", vm.newString("2Gxyz"), 0x2},
		{"buffer little-endian", vm.newBuffer([]byte{0x01, 0x02}), 0x0201},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, aerr := vm.toInteger(tc.obj)
			require.Nil(t, aerr, "unexpected error converting %s", tc.name)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestToIntegerRejectsEmptyString(t *testing.T) {
	vm := NewVM(nil)
	_, aerr := vm.toInteger(vm.newString(""))
	require.NotNil(t, aerr)
	require.Equal(t, ExcOperandValue, aerr.Exception)
}

func TestToIntegerRejectsNonNumericString(t *testing.T) {
	vm := NewVM(nil)
	_, aerr := vm.toInteger(vm.newString("zzz"))
	require.NotNil(t, aerr)
	require.Equal(t, ExcOperandValue, aerr.Exception)
}

func TestToIntegerMasksToIntegerWidth(t *testing.T) {
	vm := NewVM(nil)
	vm.sizeOfIntInBits = 32
	got, aerr := vm.toInteger(vm.newInteger(0xFFFFFFFF00000001))
	require.Nil(t, aerr)
	require.Equal(t, uint64(1), got)
}

func TestToStringObjConversions(t *testing.T) {
	vm := NewVM(nil)

	s, aerr := vm.toStringObj(vm.newInteger(0xabcd))
	require.Nil(t, aerr)
	require.Equal(t, KindString, s.Kind)
	require.Contains(t, s.payload.(string), "abcd")

	buf, aerr := vm.toStringObj(vm.newBuffer([]byte{0xde, 0xad}))
	require.Nil(t, aerr)
	require.Equal(t, "de ad", buf.payload.(string))
}

func TestToBufferObjConversions(t *testing.T) {
	vm := NewVM(nil)

	b, aerr := vm.toBufferObj(vm.newString("hi"))
	require.Nil(t, aerr)
	data, _ := b.payload.(*Buffer)
	require.Equal(t, []byte{'h', 'i', 0x00}, data.Data)
}

func TestConvertToUnsupportedKind(t *testing.T) {
	vm := NewVM(nil)
	_, aerr := vm.convertTo(vm.newInteger(1), KindMethod)
	require.NotNil(t, aerr)
	require.Equal(t, ExcOperandType, aerr.Exception)
}

func TestMaskForWidth(t *testing.T) {
	require.Equal(t, uint64(0xff), maskForWidth(8))
	require.Equal(t, ^uint64(0), maskForWidth(64))
}

func TestIsHexDigit(t *testing.T) {
	require.True(t, isHexDigit('a'))
	require.True(t, isHexDigit('F'))
	require.True(t, isHexDigit('0'))
	require.False(t, isHexDigit('g'))
}

func TestByteHex(t *testing.T) {
	require.Equal(t, "0a", byteHex(0x0a))
	require.Equal(t, "ff", byteHex(0xff))
}
