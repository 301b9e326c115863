// Package logic provides 4-state scalar and vector values for hardware
// simulation. A bit is 0, 1, unknown (X), or high-impedance (Z), and all
// operators follow the usual HDL propagation rules: a controlling input
// decides the output regardless of unknowns, everything else degrades to X.
package logic

import (
	"github.com/pkg/errors"
)

// Bit is a single 4-state logic value.
type Bit byte

// The four scalar states. L and H are the defined values.
const (
	L Bit = iota
	H
	X
	Z
)

// ParseBit converts a character to a Bit. It accepts 0, 1, x, z in either
// case.
func ParseBit(c byte) (Bit, error) {
	switch c {
	case '0':
		return L, nil
	case '1':
		return H, nil
	case 'x', 'X':
		return X, nil
	case 'z', 'Z':
		return Z, nil
	}

	return X, errors.Errorf("invalid logic character %q", c)
}

func (b Bit) String() string {
	switch b {
	case L:
		return "0"
	case H:
		return "1"
	case Z:
		return "z"
	}

	return "x"
}

// IsUnknown returns true for X and Z.
func (b Bit) IsUnknown() bool {
	return b == X || b == Z
}

// And implements the 4-state AND table. A 0 on either input forces 0.
func (b Bit) And(o Bit) Bit {
	if b == L || o == L {
		return L
	}

	if b == H && o == H {
		return H
	}

	return X
}

// Or implements the 4-state OR table. A 1 on either input forces 1.
func (b Bit) Or(o Bit) Bit {
	if b == H || o == H {
		return H
	}

	if b == L && o == L {
		return L
	}

	return X
}

// Xor implements the 4-state XOR table. Any unknown input yields X.
func (b Bit) Xor(o Bit) Bit {
	if b.IsUnknown() || o.IsUnknown() {
		return X
	}

	if b == o {
		return L
	}

	return H
}

// Not inverts a defined bit and maps X and Z to X.
func (b Bit) Not() Bit {
	switch b {
	case L:
		return H
	case H:
		return L
	}

	return X
}
