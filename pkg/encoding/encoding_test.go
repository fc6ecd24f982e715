package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleRecord struct {
	A uint8 `supla:"uint8"`
	B int16 `supla:"int16"`
	C int32 `supla:"int32"`
}

type boolRecord struct {
	On bool `supla:"uint8"`
}

type color int32

const (
	colorRed   color = 1
	colorGreen color = 2
)

func (c color) Valid() bool {
	return c == colorRed || c == colorGreen
}

type enumRecord struct {
	C color `supla:"int32"`
}

type fixedBytesRecord struct {
	ID []byte `supla:"bytes,size=4"`
}

type varBytesRecord struct {
	Data []byte `supla:"bytes,sizeof=uint16,max=8"`
}

type fixedStringRecord struct {
	Name string `supla:"string,size=8"`
}

type varStringRecord struct {
	Caption string `supla:"string,sizeof=int32,max=16"`
}

type point struct {
	X int16 `supla:"int16"`
	Y int16 `supla:"int16"`
}

type nestedRecord struct {
	Header uint8 `supla:"uint8"`
	P      point `supla:"struct"`
}

type arrayRecord struct {
	Items []point `supla:"array,sizeof=uint8,max=4"`
}

type offsetArrayRecord struct {
	Total int32   `supla:"int32"`
	Items []point `supla:"array,sizeof=int16,max=4,offset=-1"`
}

type largerRecord struct {
	A    uint8  `supla:"uint8"`
	B    int16  `supla:"int16"`
	C    int32  `supla:"int32"`
	D    []byte `supla:"bytes,size=2"`
	E    []byte `supla:"bytes,sizeof=uint16,max=8"`
	Tail uint8  `supla:"uint8"`
}

func TestMarshalSimple(t *testing.T) {
	data, err := Marshal(simpleRecord{A: 1, B: -2, C: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xFE, 0xFF, 0x03, 0x00, 0x00, 0x00}, data)
}

func TestUnmarshalSimple(t *testing.T) {
	var r simpleRecord
	err := Unmarshal([]byte{0x01, 0xFE, 0xFF, 0x03, 0x00, 0x00, 0x00}, &r)
	require.NoError(t, err)
	assert.Equal(t, simpleRecord{A: 1, B: -2, C: 3}, r)
}

func TestUnmarshalShortBuffer(t *testing.T) {
	var r simpleRecord
	err := Unmarshal([]byte{0x01, 0xFE}, &r)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestUnmarshalTrailingData(t *testing.T) {
	var r boolRecord
	err := Unmarshal([]byte{0x01, 0x02}, &r)
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestBoolRoundTrip(t *testing.T) {
	data, err := Marshal(boolRecord{On: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, data)

	var r boolRecord
	require.NoError(t, Unmarshal([]byte{0x00}, &r))
	assert.False(t, r.On)
	require.NoError(t, Unmarshal([]byte{0x02}, &r))
	assert.True(t, r.On)
}

func TestEnumValidation(t *testing.T) {
	data, err := Marshal(enumRecord{C: colorGreen})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0x00, 0x00}, data)

	var r enumRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, colorGreen, r.C)

	err = Unmarshal([]byte{0x03, 0x00, 0x00, 0x00}, &r)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFixedBytes(t *testing.T) {
	data, err := Marshal(fixedBytesRecord{ID: []byte{0xAA, 0xBB}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0x00, 0x00}, data)

	var r fixedBytesRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, []byte{0xAA, 0xBB, 0x00, 0x00}, r.ID)

	_, err = Marshal(fixedBytesRecord{ID: []byte{1, 2, 3, 4, 5}})
	assert.ErrorIs(t, err, ErrSizeExceeded)
}

func TestVarBytes(t *testing.T) {
	data, err := Marshal(varBytesRecord{Data: []byte{0xAA, 0xBB}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0xAA, 0xBB}, data)

	var r varBytesRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, []byte{0xAA, 0xBB}, r.Data)

	_, err = Marshal(varBytesRecord{Data: make([]byte, 9)})
	assert.ErrorIs(t, err, ErrSizeExceeded)

	// declared size larger than max
	err = Unmarshal([]byte{0x09, 0x00, 1, 2, 3, 4, 5, 6, 7, 8, 9}, &r)
	assert.ErrorIs(t, err, ErrSizeExceeded)
}

func TestFixedString(t *testing.T) {
	data, err := Marshal(fixedStringRecord{Name: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, data)

	// garbage after the terminator is tolerated
	var r fixedStringRecord
	require.NoError(t, Unmarshal([]byte{'a', 'b', 'c', 0, 'x', 'y', 'z', 'w'}, &r))
	assert.Equal(t, "abc", r.Name)

	err = Unmarshal([]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}, &r)
	assert.ErrorIs(t, err, ErrMissingTerminator)

	_, err = Marshal(fixedStringRecord{Name: "eight ch"})
	assert.ErrorIs(t, err, ErrSizeExceeded)
}

func TestVarString(t *testing.T) {
	// the count includes the NUL terminator
	data, err := Marshal(varStringRecord{Caption: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 'h', 'i', 0x00}, data)

	var r varStringRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, "hi", r.Caption)

	err = Unmarshal([]byte{0x02, 0x00, 0x00, 0x00, 'h', 'i'}, &r)
	assert.ErrorIs(t, err, ErrMissingTerminator)
}

func TestNestedStruct(t *testing.T) {
	data, err := Marshal(nestedRecord{Header: 7, P: point{X: 1, Y: -1}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07, 0x01, 0x00, 0xFF, 0xFF}, data)

	var r nestedRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, nestedRecord{Header: 7, P: point{X: 1, Y: -1}}, r)
}

func TestPackedArray(t *testing.T) {
	data, err := Marshal(arrayRecord{Items: []point{{X: 1, Y: 2}, {X: 3, Y: 4}}})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x02,
		0x01, 0x00, 0x02, 0x00,
		0x03, 0x00, 0x04, 0x00,
	}, data)

	var r arrayRecord
	require.NoError(t, Unmarshal(data, &r))
	require.Len(t, r.Items, 2)
	assert.Equal(t, point{X: 3, Y: 4}, r.Items[1])

	_, err = Marshal(arrayRecord{Items: make([]point, 5)})
	assert.ErrorIs(t, err, ErrSizeExceeded)
}

func TestPackedArrayEmpty(t *testing.T) {
	data, err := Marshal(arrayRecord{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, data)

	var r arrayRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Len(t, r.Items, 0)
}

func TestPackedArrayWithOffset(t *testing.T) {
	// offset=-1 places the element count before the preceding field
	data, err := Marshal(offsetArrayRecord{Total: 42, Items: []point{{X: 5, Y: 6}}})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x00,
		0x2A, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x06, 0x00,
	}, data)

	var r offsetArrayRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, int32(42), r.Total)
	require.Len(t, r.Items, 1)
	assert.Equal(t, point{X: 5, Y: 6}, r.Items[0])
}

func TestUnmarshalPartial(t *testing.T) {
	full := largerRecord{
		A:    1,
		B:    2,
		C:    3,
		D:    []byte{0xAA, 0xBB},
		E:    []byte{0xCC, 0xDD, 0xEE},
		Tail: 9,
	}
	data, err := Marshal(full)
	require.NoError(t, err)

	// implicit size fields count as wire fields
	values, off, err := UnmarshalPartial(data, &largerRecord{}, 5)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, uint8(1), values[0])
	assert.Equal(t, int16(2), values[1])
	assert.Equal(t, int32(3), values[2])
	assert.Equal(t, []byte{0xAA, 0xBB}, values[3])
	assert.Equal(t, 3, values[4]) // size of E
	assert.Equal(t, 1+2+4+2+2, off)

	// decoding past the end of the record is rejected
	_, _, err = UnmarshalPartial(data, &largerRecord{}, 8)
	assert.Error(t, err)
}

func TestRoundTripLarger(t *testing.T) {
	full := largerRecord{
		A: 255,
		B: -32768,
		C: 2147483647,
		D: []byte{1, 2},
		E: []byte{},
	}
	data, err := Marshal(full)
	require.NoError(t, err)

	var r largerRecord
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, full.B, r.B)
	assert.Equal(t, full.C, r.C)
	assert.Len(t, r.E, 0)
}
