// Package encoding implements the fixed-layout binary codec used by the
// SUPLA wire protocol.
//
// Record layouts are declared with `supla` struct tags instead of
// hand-written marshal functions. All integers are little-endian. Supported
// field shapes:
//
//	supla:"int8|uint8|int16|uint16|int32|uint32|int64|uint64"
//	    integer, bool (0/1) or enum field with the given wire width
//	supla:"bytes,size=N"
//	    fixed-width byte block, zero padded
//	supla:"bytes,sizeof=<int kind>,max=N"
//	    variable byte block preceded by its byte count
//	supla:"string,size=N"
//	    fixed-width NUL-terminated string, garbage after NUL tolerated
//	supla:"string,sizeof=<int kind>,max=N"
//	    variable NUL-terminated string; the count includes the terminator
//	supla:"struct"
//	    nested record, encoded inline
//	supla:"array,sizeof=<int kind>,max=N[,offset=K]"
//	    packed array of records preceded by its element count; offset
//	    shifts the count field K positions relative to the array
//
// The size field of a variable shape is implicit: it does not appear as a
// struct field but occupies wire space and counts as a field for
// UnmarshalPartial.
package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrShortBuffer       = errors.New("short buffer")
	ErrSizeExceeded      = errors.New("size exceeds maximum")
	ErrInvalidValue      = errors.New("invalid value")
	ErrMissingTerminator = errors.New("missing string terminator")
	ErrTrailingData      = errors.New("trailing data")
)

// Enum is implemented by protocol enums that restrict their wire values.
// Decoding rejects values for which Valid reports false.
type Enum interface {
	Valid() bool
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

type fieldKind int

const (
	kindInt fieldKind = iota
	kindBytesFixed
	kindBytesVar
	kindStringFixed
	kindStringVar
	kindStruct
	kindArray
)

type intKind struct {
	width  int
	signed bool
}

var intKinds = map[string]intKind{
	"int8":   {1, true},
	"uint8":  {1, false},
	"int16":  {2, true},
	"uint16": {2, false},
	"int32":  {4, true},
	"uint32": {4, false},
	"int64":  {8, true},
	"uint64": {8, false},
}

type field struct {
	name    string
	index   int
	kind    fieldKind
	intk    intKind // integer width for kindInt
	size    int     // fixed width for size= shapes
	max     int     // maximum for sizeof= shapes
	sizek   intKind // width of the implicit size field
	hasSize bool
	offset  int // size field placement relative to this field
	isEnum  bool
	elem    *structInfo // array element or nested record
}

// wireEntry is one position in the encoded layout: either an implicit size
// field or a declared record field.
type wireEntry struct {
	sizeFor *field // non-nil for implicit size entries
	field   *field
}

type structInfo struct {
	typ     reflect.Type
	fields  []*field
	entries []wireEntry
}

var structCache sync.Map // reflect.Type -> *structInfo

func infoFor(t reflect.Type) (*structInfo, error) {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("encoding: %s is not a struct", t)
	}

	info := &structInfo{typ: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("supla")
		if tag == "" || tag == "-" {
			continue
		}
		f, err := parseField(sf, i, tag)
		if err != nil {
			return nil, fmt.Errorf("encoding: %s.%s: %w", t.Name(), sf.Name, err)
		}
		info.fields = append(info.fields, f)
	}

	// Lay out the wire order. Implicit size entries default to the slot
	// right before their field; a negative offset moves them earlier.
	for i, f := range info.fields {
		for j, g := range info.fields {
			if g.hasSize && j+g.offset == i {
				info.entries = append(info.entries, wireEntry{sizeFor: g})
			}
		}
		info.entries = append(info.entries, wireEntry{field: f})
	}

	structCache.Store(t, info)
	return info, nil
}

func parseField(sf reflect.StructField, index int, tag string) (*field, error) {
	parts := strings.Split(tag, ",")
	f := &field{name: sf.Name, index: index}

	if ik, ok := intKinds[parts[0]]; ok {
		f.kind = kindInt
		f.intk = ik
		f.isEnum = sf.Type.Implements(enumType)
		return f, nil
	}

	opts := map[string]string{}
	for _, p := range parts[1:] {
		k, v, found := strings.Cut(p, "=")
		if !found {
			return nil, fmt.Errorf("malformed tag option %q", p)
		}
		opts[k] = v
	}

	if s, ok := opts["size"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad size %q", s)
		}
		f.size = n
	}
	if s, ok := opts["max"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad max %q", s)
		}
		f.max = n
	}
	if s, ok := opts["sizeof"]; ok {
		ik, found := intKinds[s]
		if !found {
			return nil, fmt.Errorf("bad sizeof kind %q", s)
		}
		f.sizek = ik
		f.hasSize = true
	}
	if s, ok := opts["offset"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad offset %q", s)
		}
		f.offset = n
	}

	switch parts[0] {
	case "bytes":
		if f.hasSize {
			f.kind = kindBytesVar
			if f.max == 0 {
				return nil, errors.New("variable bytes require max")
			}
		} else {
			f.kind = kindBytesFixed
			if f.size == 0 {
				return nil, errors.New("fixed bytes require size")
			}
		}
	case "string":
		if f.hasSize {
			f.kind = kindStringVar
			if f.max == 0 {
				return nil, errors.New("variable string requires max")
			}
		} else {
			f.kind = kindStringFixed
			if f.size == 0 {
				return nil, errors.New("fixed string requires size")
			}
		}
	case "struct":
		f.kind = kindStruct
		elem, err := infoFor(sf.Type)
		if err != nil {
			return nil, err
		}
		f.elem = elem
	case "array":
		f.kind = kindArray
		if !f.hasSize || f.max == 0 {
			return nil, errors.New("array requires sizeof and max")
		}
		if sf.Type.Kind() != reflect.Slice {
			return nil, errors.New("array field must be a slice")
		}
		elem, err := infoFor(sf.Type.Elem())
		if err != nil {
			return nil, err
		}
		f.elem = elem
	default:
		return nil, fmt.Errorf("unknown field shape %q", parts[0])
	}

	return f, nil
}

// Marshal encodes v (a struct or pointer to struct) into its wire form.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	info, err := infoFor(rv.Type())
	if err != nil {
		return nil, err
	}
	return appendStruct(nil, info, rv)
}

func appendStruct(buf []byte, info *structInfo, rv reflect.Value) ([]byte, error) {
	// Variable fields need their size emitted before (sometimes well
	// before) their payload, so encode payloads first.
	payloads := make(map[*field][]byte)
	counts := make(map[*field]int)

	for _, f := range info.fields {
		fv := rv.Field(f.index)
		switch f.kind {
		case kindBytesVar:
			b := fv.Bytes()
			if len(b) > f.max {
				return nil, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrSizeExceeded)
			}
			payloads[f] = b
			counts[f] = len(b)
		case kindStringVar:
			s := fv.String()
			if len(s)+1 > f.max {
				return nil, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrSizeExceeded)
			}
			b := append([]byte(s), 0)
			payloads[f] = b
			counts[f] = len(b)
		case kindArray:
			if fv.Len() > f.max {
				return nil, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrSizeExceeded)
			}
			var items []byte
			for i := 0; i < fv.Len(); i++ {
				var err error
				items, err = appendStruct(items, f.elem, fv.Index(i))
				if err != nil {
					return nil, err
				}
			}
			payloads[f] = items
			counts[f] = fv.Len()
		}
	}

	var err error
	for _, e := range info.entries {
		if e.sizeFor != nil {
			buf = appendInt(buf, e.sizeFor.sizek, uint64(counts[e.sizeFor]))
			continue
		}
		f := e.field
		fv := rv.Field(f.index)
		switch f.kind {
		case kindInt:
			buf = appendInt(buf, f.intk, intBits(fv))
		case kindBytesFixed:
			b := fv.Bytes()
			if len(b) > f.size {
				return nil, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrSizeExceeded)
			}
			buf = append(buf, b...)
			for i := len(b); i < f.size; i++ {
				buf = append(buf, 0)
			}
		case kindStringFixed:
			s := fv.String()
			if len(s)+1 > f.size {
				return nil, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrSizeExceeded)
			}
			buf = append(buf, s...)
			for i := len(s); i < f.size; i++ {
				buf = append(buf, 0)
			}
		case kindBytesVar, kindStringVar, kindArray:
			buf = append(buf, payloads[f]...)
		case kindStruct:
			buf, err = appendStruct(buf, f.elem, fv)
			if err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

func intBits(fv reflect.Value) uint64 {
	switch fv.Kind() {
	case reflect.Bool:
		if fv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(fv.Int())
	default:
		return fv.Uint()
	}
}

func appendInt(buf []byte, ik intKind, bits uint64) []byte {
	switch ik.width {
	case 1:
		return append(buf, byte(bits))
	case 2:
		return binary.LittleEndian.AppendUint16(buf, uint16(bits))
	case 4:
		return binary.LittleEndian.AppendUint32(buf, uint32(bits))
	default:
		return binary.LittleEndian.AppendUint64(buf, bits)
	}
}

// Unmarshal decodes data into v (a pointer to struct). The whole buffer
// must be consumed.
func Unmarshal(data []byte, v any) error {
	n, err := UnmarshalFrom(data, v)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("encoding: %w: %d bytes left", ErrTrailingData, len(data)-n)
	}
	return nil
}

// UnmarshalFrom decodes a record from the front of data and returns the
// number of bytes consumed.
func UnmarshalFrom(data []byte, v any) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, errors.New("encoding: target must be a non-nil pointer")
	}
	rv = rv.Elem()
	info, err := infoFor(rv.Type())
	if err != nil {
		return 0, err
	}
	return decodeStruct(data, info, rv, len(info.entries), nil)
}

// UnmarshalPartial decodes the first numFields wire fields of the record
// type of v (implicit size fields count as fields). It returns the decoded
// values in wire order and the byte offset reached.
func UnmarshalPartial(data []byte, v any, numFields int) ([]any, int, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, 0, errors.New("encoding: target must be a non-nil pointer")
		}
		rv = rv.Elem()
	}
	info, err := infoFor(rv.Type())
	if err != nil {
		return nil, 0, err
	}
	if numFields > len(info.entries) {
		return nil, 0, fmt.Errorf("encoding: %s has only %d wire fields", info.typ.Name(), len(info.entries))
	}
	values := make([]any, 0, numFields)
	tmp := reflect.New(info.typ).Elem()
	n, err := decodeStruct(data, info, tmp, numFields, &values)
	if err != nil {
		return nil, 0, err
	}
	return values, n, nil
}

func decodeStruct(data []byte, info *structInfo, rv reflect.Value, numEntries int, values *[]any) (int, error) {
	off := 0
	sizes := make(map[*field]int)

	for i, e := range info.entries {
		if i >= numEntries {
			break
		}
		if e.sizeFor != nil {
			bits, n, err := readInt(data[off:], e.sizeFor.sizek)
			if err != nil {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), e.sizeFor.name, err)
			}
			off += n
			size := int(int64(bits))
			if e.sizeFor.sizek.signed {
				size = int(signed(bits, e.sizeFor.sizek.width))
			}
			if size < 0 || size > e.sizeFor.max {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), e.sizeFor.name, ErrSizeExceeded)
			}
			sizes[e.sizeFor] = size
			if values != nil {
				*values = append(*values, size)
			}
			continue
		}

		f := e.field
		fv := rv.Field(f.index)
		switch f.kind {
		case kindInt:
			bits, n, err := readInt(data[off:], f.intk)
			if err != nil {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, err)
			}
			off += n
			if err := setInt(fv, f, bits); err != nil {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, err)
			}
		case kindBytesFixed:
			if off+f.size > len(data) {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrShortBuffer)
			}
			b := make([]byte, f.size)
			copy(b, data[off:off+f.size])
			fv.SetBytes(b)
			off += f.size
		case kindBytesVar:
			size := sizes[f]
			if off+size > len(data) {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrShortBuffer)
			}
			b := make([]byte, size)
			copy(b, data[off:off+size])
			fv.SetBytes(b)
			off += size
		case kindStringFixed:
			if off+f.size > len(data) {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrShortBuffer)
			}
			block := data[off : off+f.size]
			nul := indexByte(block, 0)
			if nul < 0 {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrMissingTerminator)
			}
			fv.SetString(string(block[:nul]))
			off += f.size
		case kindStringVar:
			size := sizes[f]
			if off+size > len(data) {
				return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrShortBuffer)
			}
			if size == 0 {
				fv.SetString("")
			} else {
				if data[off+size-1] != 0 {
					return 0, fmt.Errorf("%s.%s: %w", info.typ.Name(), f.name, ErrMissingTerminator)
				}
				fv.SetString(string(data[off : off+size-1]))
			}
			off += size
		case kindStruct:
			n, err := decodeStruct(data[off:], f.elem, fv, len(f.elem.entries), nil)
			if err != nil {
				return 0, err
			}
			off += n
		case kindArray:
			count := sizes[f]
			slice := reflect.MakeSlice(rv.Field(f.index).Type(), count, count)
			for i := 0; i < count; i++ {
				n, err := decodeStruct(data[off:], f.elem, slice.Index(i), len(f.elem.entries), nil)
				if err != nil {
					return 0, err
				}
				off += n
			}
			fv.Set(slice)
		}
		if values != nil {
			*values = append(*values, fv.Interface())
		}
	}
	return off, nil
}

func readInt(data []byte, ik intKind) (uint64, int, error) {
	if len(data) < ik.width {
		return 0, 0, ErrShortBuffer
	}
	switch ik.width {
	case 1:
		return uint64(data[0]), 1, nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(data)), 2, nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), 4, nil
	default:
		return binary.LittleEndian.Uint64(data), 8, nil
	}
}

func signed(bits uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(bits<<shift) >> shift
}

func setInt(fv reflect.Value, f *field, bits uint64) error {
	switch fv.Kind() {
	case reflect.Bool:
		fv.SetBool(bits != 0)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(signed(bits, f.intk.width))
	default:
		fv.SetUint(bits)
	}
	if f.isEnum {
		if e, ok := fv.Interface().(Enum); ok && !e.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidValue, fv.Interface())
		}
	}
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
