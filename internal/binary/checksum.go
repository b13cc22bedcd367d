package binary

import "math/bits"

// Lookup3Checksum is Bob Jenkins' hashlittle with an initial value of 0,
// the checksum HDF5 stores after v2+ superblocks, object headers and
// chunk index structures.
func Lookup3Checksum(data []byte) uint32 {
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	word := func(p []byte) uint32 {
		var v uint32
		for i := len(p) - 1; i >= 0; i-- {
			v = v<<8 | uint32(p[i])
		}
		return v
	}

	// The last block, even a full one, goes through final rather than mix.
	for len(data) > 12 {
		a += word(data[0:4])
		b += word(data[4:8])
		c += word(data[8:12])
		a, b, c = lookup3Mix(a, b, c)
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	var tail [12]byte
	copy(tail[:], data)
	a += word(tail[0:4])
	b += word(tail[4:8])
	c += word(tail[8:12])
	_, _, c = lookup3Final(a, b, c)
	return c
}

func lookup3Mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= c
	a ^= bits.RotateLeft32(c, 4)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 6)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 8)
	b += a
	a -= c
	a ^= bits.RotateLeft32(c, 16)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 19)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 4)
	b += a
	return a, b, c
}

func lookup3Final(a, b, c uint32) (uint32, uint32, uint32) {
	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return a, b, c
}

// Fletcher32 is the checksum used by the HDF5 fletcher32 filter. Bytes are
// paired big-endian into 16-bit words; an odd trailing byte is the high
// half of a final word. Sums are folded every 360 words as in libhdf5.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	fold := func(v uint32) uint32 { return (v & 0xffff) + (v >> 16) }

	words := len(data) / 2
	for words > 0 {
		n := words
		if n > 360 {
			n = 360
		}
		words -= n
		for ; n > 0; n-- {
			sum1 += uint32(data[0])<<8 | uint32(data[1])
			sum2 += sum1
			data = data[2:]
		}
		sum1 = fold(sum1)
		sum2 = fold(sum2)
	}
	if len(data) == 1 {
		sum1 += uint32(data[0]) << 8
		sum2 += sum1
		sum1 = fold(sum1)
		sum2 = fold(sum2)
	}
	sum1 = fold(sum1)
	sum2 = fold(sum2)
	return sum2<<16 | sum1
}
