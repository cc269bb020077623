// Package codec converts a classified grid into its identifier string.
//
// The 45 non-corner cells are read row by row, left to right. The first 42
// bits form six 7-bit characters, most significant bit first. The last
// three bits are spare and never decoded.
package codec

import (
	"fmt"
	"strings"

	"pattern-reader/internal/grid"
)

const (
	// BitCount is the number of data cells (every cell except the four corners).
	BitCount = grid.Size*grid.Size - 4
	// ChunkBits is the width of one character.
	ChunkBits = 7
	// ChunkCount is the number of characters in an identifier.
	ChunkCount = 6
)

// Chunk is one 7-bit character of the identifier.
type Chunk struct {
	Index int    // 0-based chunk position
	Bits  string // e.g. "1000001"
	Value int
}

// Printable returns the chunk as a printable ASCII character, or '?'.
func (c Chunk) Printable() rune {
	if c.Value >= 32 && c.Value < 127 {
		return rune(c.Value)
	}
	return '?'
}

func (c Chunk) String() string {
	first := c.Index*ChunkBits + 1
	return fmt.Sprintf("bits %d-%d: %s -> %3d -> '%c'", first, first+ChunkBits-1, c.Bits, c.Value, c.Printable())
}

func isCorner(r, c int) bool {
	last := grid.Size - 1
	return (r == 0 || r == last) && (c == 0 || c == last)
}

// Bits reads the data cells of g in row-major order.
func Bits(g grid.BoolGrid) []bool {
	bits := make([]bool, 0, BitCount)
	for r, row := range g {
		for c, v := range row {
			if !isCorner(r, c) {
				bits = append(bits, v)
			}
		}
	}
	return bits
}

// BitString renders bits as '0'/'1' characters.
func BitString(bits []bool) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	for _, b := range bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Chunks splits the first ChunkCount*ChunkBits bits into characters. Short
// input is padded with zero bits.
func Chunks(bits []bool) []Chunk {
	chunks := make([]Chunk, ChunkCount)
	for i := range chunks {
		var v int
		var sb strings.Builder
		for j := 0; j < ChunkBits; j++ {
			v <<= 1
			k := i*ChunkBits + j
			if k < len(bits) && bits[k] {
				v |= 1
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		chunks[i] = Chunk{Index: i, Bits: sb.String(), Value: v}
	}
	return chunks
}

// Spare returns the bits that follow the encoded characters.
func Spare(bits []bool) []bool {
	if len(bits) <= ChunkCount*ChunkBits {
		return nil
	}
	return bits[ChunkCount*ChunkBits:]
}

// DecodeID returns the identifier encoded in g. Chunks whose value is zero
// are dropped, so the result may be shorter than ChunkCount characters.
func DecodeID(g grid.BoolGrid) string {
	var sb strings.Builder
	for _, c := range Chunks(Bits(g)) {
		if c.Value > 0 {
			sb.WriteRune(rune(c.Value))
		}
	}
	return sb.String()
}
