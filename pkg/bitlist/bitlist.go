// Package bitlist decodes the aggregation bitlists served by the beacon API.
//
// A bitlist is a little-endian bit sequence whose highest set bit in the last
// byte is a length marker, not a data bit:
//
//	0x0d = 0b00001101 -> marker at position 3, data bits [1 0 1]
package bitlist

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// EncodingError is returned when the hex input of a bitlist is malformed.
type EncodingError struct {
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("malformed bitlist %q: %v", e.Input, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// BitList holds the raw bytes of a decoded bitlist, length marker included.
type BitList []byte

// Decode parses a hex string, with or without the 0x prefix.
func Decode(input string) (BitList, error) {
	if input == "" {
		return BitList{}, nil
	}
	prefixed := input
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		prefixed = "0x" + input
	}
	raw, err := hexutil.Decode(prefixed)
	if err != nil {
		return nil, &EncodingError{Input: input, Err: err}
	}
	return BitList(raw), nil
}

// BitLen returns the position of the length marker counted from 1, that is
// the number of data bits plus the marker itself. An empty input or a last
// byte without any set bit yields 0.
func BitLen(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	msb := bits.Len8(b[len(b)-1])
	if msb == 0 {
		return 0
	}
	return uint64(8*(len(b)-1) + msb)
}

// Len returns the number of usable data bits, BitLen - 1.
func Len(b []byte) uint64 {
	n := BitLen(b)
	if n == 0 {
		return 0
	}
	return n - 1
}

// BitAt reports whether data bit idx is set. Out of range indexes, the
// length marker included, read as false.
func BitAt(b []byte, idx uint64) bool {
	if idx >= Len(b) {
		return false
	}
	return b[idx/8]&(1<<(idx%8)) != 0
}

func (b BitList) BitLen() uint64        { return BitLen(b) }
func (b BitList) Len() uint64           { return Len(b) }
func (b BitList) BitAt(idx uint64) bool { return BitAt(b, idx) }

// Encode is the inverse of Decode: it renders a participation pattern as a
// 0x prefixed bitlist with its length marker.
func Encode(participation []bool) string {
	bl := bitfield.NewBitlist(uint64(len(participation)))
	for i, set := range participation {
		if set {
			bl.SetBitAt(uint64(i), true)
		}
	}
	return hexutil.Encode([]byte(bl))
}

// Participants returns the committee members whose bit is set. The list must
// carry exactly one data bit per committee member.
func (b BitList) Participants(committee []phase0.ValidatorIndex) ([]phase0.ValidatorIndex, error) {
	if b.Len() != uint64(len(committee)) {
		return nil, errors.Errorf("bitlist carries %d bits for a committee of %d", b.Len(), len(committee))
	}
	out := make([]phase0.ValidatorIndex, 0, len(committee))
	for i, valIdx := range committee {
		if b.BitAt(uint64(i)) {
			out = append(out, valIdx)
		}
	}
	return out, nil
}
