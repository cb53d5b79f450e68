package schema

// SymbolCap is the byte size of a Symbol, including the NUL terminator.
const SymbolCap = 16

// Symbol is a fixed-size, NUL-terminated instrument identifier.
// Names longer than SymbolCap-1 bytes are truncated.
type Symbol [SymbolCap]byte

func NewSymbol(s string) Symbol {
	var sym Symbol
	n := len(s)
	if n > SymbolCap-1 {
		n = SymbolCap - 1
	}
	copy(sym[:n], s)
	return sym
}

func (s Symbol) Len() int {
	for i, c := range s {
		if c == 0 {
			return i
		}
	}
	return SymbolCap
}

func (s Symbol) IsZero() bool {
	return s[0] == 0
}

func (s Symbol) String() string {
	return string(s[:s.Len()])
}

// Str64 is a fixed-size text buffer for messages carried inside plain records.
type Str64 [64]byte

func NewStr64(s string) Str64 {
	var k Str64
	n := len(s)
	if n > len(k)-1 {
		n = len(k) - 1
	}
	copy(k[:n], s)
	return k
}

func (bs Str64) AppendBytes(buf []byte) []byte {
	for i := range bs {
		if bs[i] == 0 {
			break
		}
		buf = append(buf, bs[i])
	}
	return buf
}

func (bs Str64) String() string {
	return string(bs.AppendBytes(make([]byte, 0, len(bs))))
}
