package logic

import (
	"log"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Vector is a fixed-width bus of 4-state bits. The zero value is not usable;
// construct vectors with NewVector, Fill, FromUint64, or FromString.
//
// Bits are stored in two packed planes following the VPI aval/bval
// convention. The value plane carries the defined value, the unknown plane
// marks X (value bit set) and Z (value bit clear). Vectors are immutable:
// every operation returns a fresh vector, so stored old and new values never
// alias.
type Vector struct {
	width int
	val   []uint64
	unk   []uint64
}

// NewVector creates a vector of the given width with every bit X, the state
// of an uninitialized variable.
func NewVector(width int) Vector {
	v := makeVector(width)
	for i := range v.val {
		v.val[i] = ^uint64(0)
		v.unk[i] = ^uint64(0)
	}
	v.maskTop()

	return v
}

// Fill creates a vector of the given width with every bit set to b.
func Fill(width int, b Bit) Vector {
	v := makeVector(width)

	var valWord, unkWord uint64
	switch b {
	case H:
		valWord = ^uint64(0)
	case X:
		valWord = ^uint64(0)
		unkWord = ^uint64(0)
	case Z:
		unkWord = ^uint64(0)
	}

	for i := range v.val {
		v.val[i] = valWord
		v.unk[i] = unkWord
	}
	v.maskTop()

	return v
}

// FromUint64 creates a fully-defined vector holding the low width bits of u.
func FromUint64(width int, u uint64) Vector {
	v := makeVector(width)
	v.val[0] = u
	v.maskTop()

	return v
}

// FromString parses a literal such as "10xz" or "1010_0110", most
// significant bit first. Underscores separate digit groups and carry no
// value.
func FromString(s string) (Vector, error) {
	digits := strings.ReplaceAll(s, "_", "")
	if digits == "" {
		return Vector{}, errors.New("empty logic literal")
	}

	v := makeVector(len(digits))
	for i := 0; i < len(digits); i++ {
		b, err := ParseBit(digits[i])
		if err != nil {
			return Vector{}, errors.Wrapf(err, "parsing literal %q", s)
		}
		v.setBitInPlace(len(digits)-1-i, b)
	}

	return v, nil
}

// MustFromString is FromString for literals known to be valid at compile
// time. It panics on a malformed literal.
func MustFromString(s string) Vector {
	v, err := FromString(s)
	if err != nil {
		log.Panic(err)
	}

	return v
}

func makeVector(width int) Vector {
	if width <= 0 {
		log.Panicf("vector width must be positive, got %d", width)
	}

	nw := (width + 63) / 64

	return Vector{
		width: width,
		val:   make([]uint64, nw),
		unk:   make([]uint64, nw),
	}
}

func (v Vector) clone() Vector {
	c := makeVector(v.width)
	copy(c.val, v.val)
	copy(c.unk, v.unk)

	return c
}

func (v Vector) maskTop() {
	top := uint(v.width & 63)
	if top == 0 {
		return
	}

	mask := ^uint64(0) >> (64 - top)
	v.val[len(v.val)-1] &= mask
	v.unk[len(v.unk)-1] &= mask
}

// Width returns the number of bits in the vector.
func (v Vector) Width() int {
	return v.width
}

// Bit returns the bit at LSB-based index i.
func (v Vector) Bit(i int) Bit {
	v.checkIndex(i)

	valBit := v.val[i/64]>>(uint(i)&63)&1 == 1
	unkBit := v.unk[i/64]>>(uint(i)&63)&1 == 1

	switch {
	case unkBit && valBit:
		return X
	case unkBit:
		return Z
	case valBit:
		return H
	}

	return L
}

// Lsb returns bit 0.
func (v Vector) Lsb() Bit {
	return v.Bit(0)
}

// SetBit returns a copy of the vector with bit i set to b.
func (v Vector) SetBit(i int, b Bit) Vector {
	v.checkIndex(i)

	c := v.clone()
	c.setBitInPlace(i, b)

	return c
}

func (v Vector) setBitInPlace(i int, b Bit) {
	word := i / 64
	mask := uint64(1) << (uint(i) & 63)

	v.val[word] &^= mask
	v.unk[word] &^= mask

	switch b {
	case H:
		v.val[word] |= mask
	case X:
		v.val[word] |= mask
		v.unk[word] |= mask
	case Z:
		v.unk[word] |= mask
	}
}

func (v Vector) checkIndex(i int) {
	if i < 0 || i >= v.width {
		log.Panicf("bit index %d out of range for width %d", i, v.width)
	}
}

func (v Vector) checkSameWidth(o Vector) {
	if v.width != o.width {
		log.Panicf("width mismatch: %d vs %d", v.width, o.width)
	}
}

// IsFullyDefined returns true when no bit is X or Z.
func (v Vector) IsFullyDefined() bool {
	for _, w := range v.unk {
		if w != 0 {
			return false
		}
	}

	return true
}

// Eq is case equality over all four states: widths and every bit, including
// X and Z positions, must match exactly.
func (v Vector) Eq(o Vector) bool {
	if v.width != o.width {
		return false
	}

	for i := range v.val {
		if v.val[i] != o.val[i] || v.unk[i] != o.unk[i] {
			return false
		}
	}

	return true
}

// Uint64 returns the defined low bits of the vector as an integer. Unknown
// bits read as 0; callers that care should check IsFullyDefined first.
func (v Vector) Uint64() uint64 {
	return v.val[0] &^ v.unk[0]
}

// String renders the vector most significant bit first, e.g. "10xz".
func (v Vector) String() string {
	var sb strings.Builder
	for i := v.width - 1; i >= 0; i-- {
		sb.WriteString(v.Bit(i).String())
	}

	return sb.String()
}

// Resize returns the vector truncated or zero-extended to the given width.
func (v Vector) Resize(width int) Vector {
	c := makeVector(width)

	n := len(c.val)
	if len(v.val) < n {
		n = len(v.val)
	}
	copy(c.val[:n], v.val[:n])
	copy(c.unk[:n], v.unk[:n])
	c.maskTop()

	return c
}

// And returns the bitwise 4-state AND of two equal-width vectors.
func (v Vector) And(o Vector) Vector {
	v.checkSameWidth(o)

	c := makeVector(v.width)
	for i := range c.val {
		zero := (^v.val[i] & ^v.unk[i]) | (^o.val[i] & ^o.unk[i])
		one := (v.val[i] & ^v.unk[i]) & (o.val[i] & ^o.unk[i])
		unk := ^(zero | one)
		c.val[i] = one | unk
		c.unk[i] = unk
	}
	c.maskTop()

	return c
}

// Or returns the bitwise 4-state OR of two equal-width vectors.
func (v Vector) Or(o Vector) Vector {
	v.checkSameWidth(o)

	c := makeVector(v.width)
	for i := range c.val {
		one := (v.val[i] & ^v.unk[i]) | (o.val[i] & ^o.unk[i])
		zero := (^v.val[i] & ^v.unk[i]) & (^o.val[i] & ^o.unk[i])
		unk := ^(one | zero)
		c.val[i] = one | unk
		c.unk[i] = unk
	}
	c.maskTop()

	return c
}

// Xor returns the bitwise 4-state XOR of two equal-width vectors. Any
// unknown input bit makes the corresponding output bit X.
func (v Vector) Xor(o Vector) Vector {
	v.checkSameWidth(o)

	c := makeVector(v.width)
	for i := range c.val {
		unk := v.unk[i] | o.unk[i]
		c.val[i] = ((v.val[i] ^ o.val[i]) &^ unk) | unk
		c.unk[i] = unk
	}
	c.maskTop()

	return c
}

// Not returns the bitwise 4-state inversion. X and Z bits invert to X.
func (v Vector) Not() Vector {
	c := makeVector(v.width)
	for i := range c.val {
		c.val[i] = (^v.val[i] &^ v.unk[i]) | v.unk[i]
		c.unk[i] = v.unk[i]
	}
	c.maskTop()

	return c
}

// ReduceAnd ANDs all bits together. A defined 0 anywhere dominates any
// unknown.
func (v Vector) ReduceAnd() Bit {
	anyUnknown := false
	for i, w := range v.val {
		definedZero := ^w & ^v.unk[i] & v.wordMask(i)
		if definedZero != 0 {
			return L
		}
		if v.unk[i] != 0 {
			anyUnknown = true
		}
	}

	if anyUnknown {
		return X
	}

	return H
}

// ReduceOr ORs all bits together. A defined 1 anywhere dominates any
// unknown.
func (v Vector) ReduceOr() Bit {
	anyUnknown := false
	for i, w := range v.val {
		definedOne := w & ^v.unk[i]
		if definedOne != 0 {
			return H
		}
		if v.unk[i] != 0 {
			anyUnknown = true
		}
	}

	if anyUnknown {
		return X
	}

	return L
}

// ReduceXor returns the parity of the vector, or X if any bit is unknown.
func (v Vector) ReduceXor() Bit {
	parity := 0
	for i, w := range v.val {
		if v.unk[i] != 0 {
			return X
		}
		parity ^= bits.OnesCount64(w) & 1
	}

	if parity == 1 {
		return H
	}

	return L
}

func (v Vector) wordMask(i int) uint64 {
	if i < len(v.val)-1 {
		return ^uint64(0)
	}

	top := uint(v.width & 63)
	if top == 0 {
		return ^uint64(0)
	}

	return ^uint64(0) >> (64 - top)
}

// Add returns v+o modulo 2^width. Any unknown bit in either operand poisons
// the whole result to X.
func (v Vector) Add(o Vector) Vector {
	v.checkSameWidth(o)
	if !v.IsFullyDefined() || !o.IsFullyDefined() {
		return Fill(v.width, X)
	}

	c := makeVector(v.width)
	var carry uint64
	for i := range c.val {
		c.val[i], carry = bits.Add64(v.val[i], o.val[i], carry)
	}
	c.maskTop()

	return c
}

// Sub returns v-o modulo 2^width. Any unknown bit in either operand poisons
// the whole result to X.
func (v Vector) Sub(o Vector) Vector {
	v.checkSameWidth(o)
	if !v.IsFullyDefined() || !o.IsFullyDefined() {
		return Fill(v.width, X)
	}

	c := makeVector(v.width)
	var borrow uint64
	for i := range c.val {
		c.val[i], borrow = bits.Sub64(v.val[i], o.val[i], borrow)
	}
	c.maskTop()

	return c
}

// Mul returns v*o modulo 2^width. Any unknown bit in either operand poisons
// the whole result to X.
func (v Vector) Mul(o Vector) Vector {
	v.checkSameWidth(o)
	if !v.IsFullyDefined() || !o.IsFullyDefined() {
		return Fill(v.width, X)
	}

	c := makeVector(v.width)
	nw := len(c.val)
	for i := 0; i < nw; i++ {
		var carry uint64
		for j := 0; i+j < nw; j++ {
			hi, lo := bits.Mul64(v.val[i], o.val[j])

			var cr uint64
			c.val[i+j], cr = bits.Add64(c.val[i+j], lo, 0)
			hi += cr

			c.val[i+j], cr = bits.Add64(c.val[i+j], carry, 0)
			carry = hi + cr
		}
	}
	c.maskTop()

	return c
}
