package fixed

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Q32.32 layout
const (
	Shift = 32
	Scale = 1 << Shift
	Mask  = Scale - 1
)

// Num is a signed Q32.32 fixed-point value.
// Every weight, ratio and step on the evaluation path is a Num so that two
// independent instances fed the same inputs produce bit-identical results.
type Num int64

const (
	Zero    Num = 0
	One     Num = Scale
	Half    Num = Scale / 2
	NegOne  Num = -Scale
	Epsilon Num = 1
	Max     Num = math.MaxInt64
	Min     Num = math.MinInt64
)

// --- Conversion ---

func FromInt(i int) Num { return Num(int64(i) << Shift) }

// Int truncates toward negative infinity.
func (n Num) Int() int { return int(int64(n) >> Shift) }

// FromRatio returns num/den. A zero denominator yields Zero.
func FromRatio(num, den int) Num {
	return Div(FromInt(num), FromInt(den))
}

// FromFloat is meant for tooling and tests only; nothing on the evaluation
// path converts from floating point.
func FromFloat(f float64) Num { return Num(f * Scale) }

// Float is lossy and only used for display.
func (n Num) Float() float64 { return float64(n) / Scale }

// --- Arithmetic ---

func Mul(a, b Num) Num {
	if a == 0 || b == 0 {
		return 0
	}
	negative := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}

	hi, lo := bits.Mul64(ua, ub)
	// Q32.32 * Q32.32 = Q64.64, shift right 32 for Q32.32
	result := Num((hi << 32) | (lo >> 32))

	if negative {
		return -result
	}
	return result
}

// Div saturates on overflow and returns Zero for a zero divisor.
func Div(a, b Num) Num {
	if b == 0 {
		return 0
	}
	negative := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}

	// a << 32 as 128-bit: hi = a >> 32, lo = a << 32
	hi := ua >> 32
	lo := ua << 32

	// quotient would not fit in 64 bits
	if hi >= ub {
		if negative {
			return Min
		}
		return Max
	}

	quo, _ := bits.Div64(hi, lo, ub)
	if quo > math.MaxInt64 {
		if negative {
			return Min
		}
		return Max
	}

	if negative {
		return -Num(quo)
	}
	return Num(quo)
}

// Sqrt returns the Q32.32 square root, floor-rounded. Non-positive input yields Zero.
func Sqrt(n Num) Num {
	if n <= 0 {
		return 0
	}
	// sqrt(x / 2^32) * 2^32 == isqrt(x << 32)
	x := uint64(n)
	hi, lo := x>>32, x<<32

	l := bits.Len64(lo)
	if hi > 0 {
		l = 64 + bits.Len64(hi)
	}
	r := uint64(1) << ((l + 1) / 2)
	for {
		q, _ := bits.Div64(hi, lo, r)
		next := (r + q) >> 1
		if next >= r {
			break
		}
		r = next
	}
	return Num(r)
}

func (n Num) Abs() Num {
	if n < 0 {
		return -n
	}
	return n
}

// Sign returns -1, 0 or 1.
func (n Num) Sign() int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func (n Num) Clamp(lo, hi Num) Num {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Unit clamps to [0,1].
func (n Num) Unit() Num { return n.Clamp(Zero, One) }

// Signed clamps to [-1,1].
func (n Num) Signed() Num { return n.Clamp(NegOne, One) }

// Lerp returns a + (b-a)*t. t == 0 yields a and t == One yields b exactly.
func Lerp(a, b, t Num) Num {
	return a + Mul(b-a, t)
}

// --- Text ---

// Parse reads a plain decimal literal such as "-0.25" or "12". Exponents are
// rejected; digits beyond the 18th fractional place are ignored.
func Parse(s string) (Num, error) {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0, fmt.Errorf("fixed: empty number")
	}

	neg := false
	switch str[0] {
	case '-':
		neg = true
		str = str[1:]
	case '+':
		str = str[1:]
	}

	intPart, fracPart, _ := strings.Cut(str, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("fixed: invalid number %q", s)
	}

	var ip uint64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("fixed: invalid number %q", s)
		}
		ip = ip*10 + uint64(c-'0')
		if ip > math.MaxInt32 {
			return 0, fmt.Errorf("fixed: %q out of range", s)
		}
	}

	num, den := uint64(0), uint64(1)
	for i, c := range fracPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("fixed: invalid number %q", s)
		}
		if i >= 18 {
			continue
		}
		num = num*10 + uint64(c-'0')
		den *= 10
	}

	// num * 2^32 / den, rounded to nearest
	q, r := bits.Div64(num>>32, num<<32, den)
	if r*2 >= den {
		q++
	}

	v := Num(ip<<Shift) + Num(q)
	if neg {
		v = -v
	}
	return v, nil
}

// MustParse panics on malformed input; intended for constants and tests.
func MustParse(s string) Num {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String prints ten fractional digits at most, which is enough for Parse to
// recover the exact value.
func (n Num) String() string {
	v := int64(n)
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	ip := u >> Shift
	fp := u & Mask

	const digits = 10_000_000_000
	hi, lo := bits.Mul64(fp, digits)
	lo, carry := bits.Add64(lo, 1<<31, 0)
	hi += carry
	frac := hi<<32 | lo>>32
	if frac >= digits {
		ip++
		frac -= digits
	}

	s := strconv.FormatUint(ip, 10)
	if frac != 0 {
		fs := strings.TrimRight(fmt.Sprintf("%010d", frac), "0")
		s += "." + fs
	}
	if neg && (ip != 0 || frac != 0) {
		s = "-" + s
	}
	return s
}

func (n Num) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Num) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// MarshalJSON emits a bare JSON number.
func (n Num) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and strings without going through float64.
func (n *Num) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" {
		return nil
	}
	return n.UnmarshalText([]byte(s))
}
