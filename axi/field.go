package axi

import "fmt"

// Field is a payload field whose width comes from the interface
// configuration. A field of width zero is absent: it always reads as zero,
// ignores writes and never causes a mismatch.
type Field struct {
	width int
	val   uint64
}

// NewField creates a field of the given width holding v, masked to the width.
func NewField(width int, v uint64) Field {
	f := Field{width: width}
	f.Set(v)

	return f
}

// Width returns the width of the field in bits.
func (f Field) Width() int {
	return f.width
}

// Present tells if the field is part of the interface.
func (f Field) Present() bool {
	return f.width > 0
}

// Get returns the value of the field.
func (f Field) Get() uint64 {
	return f.val
}

// Set writes the field. Bits beyond the width are dropped.
func (f *Field) Set(v uint64) {
	if f.width <= 0 {
		f.val = 0
		return
	}

	f.val = v & mask(f.width)
}

// Equal compares the values of two fields.
func (f Field) Equal(o Field) bool {
	return f.val == o.val
}

func (f Field) String() string {
	if !f.Present() {
		return "-"
	}

	return fmt.Sprintf("%x", f.val)
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}
