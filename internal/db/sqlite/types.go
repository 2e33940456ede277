package sqlite

import (
	"fmt"
	"strings"
)

// Kind tags how a column value is interpreted.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindInt64
	KindInt32
	KindFloat32
	KindFloat64
)

var kindNames = map[Kind]string{
	KindText:    "text",
	KindInt64:   "int64",
	KindInt32:   "int32",
	KindFloat32: "float32",
	KindFloat64: "float64",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every registered kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindText, KindInt64, KindInt32, KindFloat32, KindFloat64}
}

// ParseKind maps a name such as "text" or "int64" to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Accessor reads one column of the cursor's current row as T.
type Accessor[T any] func(c *Cursor, column int) (T, error)

// Type binds a Kind to its Go type and accessor. The only usable values are
// the ones declared below; a zero Type is rejected with ErrUnsupportedType.
type Type[T any] struct {
	kind Kind
	get  Accessor[T]
}

func (t Type[T]) Kind() Kind { return t.kind }

var (
	Text    = Type[string]{kind: KindText, get: (*Cursor).String}
	Int64   = Type[int64]{kind: KindInt64, get: (*Cursor).Int64}
	Int32   = Type[int32]{kind: KindInt32, get: (*Cursor).Int32}
	Float32 = Type[float32]{kind: KindFloat32, get: (*Cursor).Float32}
	Float64 = Type[float64]{kind: KindFloat64, get: (*Cursor).Float64}
)
