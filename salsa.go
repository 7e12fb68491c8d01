package main

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/salsa20/salsa"
)

// KeePass inner random stream nonce.
var salsaNonce = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

// SalsaStream is the keystream protecting in-memory values.
// Values must be unpacked in document order.
type SalsaStream struct {
	key     [32]byte
	counter [16]byte // nonce || little endian block counter
	block   []byte   // unused keystream of the current block
}

func NewSalsaStream(key []byte) *SalsaStream {
	s := &SalsaStream{key: sha256.Sum256(key)}
	copy(s.counter[:8], salsaNonce[:])
	return s
}

func (s *SalsaStream) Unpack(payload string) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("salsa b64decode: %w", err)
	}
	s.XOR(data)
	return data, nil
}

// XOR applies the next len(data) keystream bytes in place.
func (s *SalsaStream) XOR(data []byte) {
	for i := range data {
		if len(s.block) == 0 {
			s.next()
		}
		data[i] ^= s.block[0]
		s.block = s.block[1:]
	}
}

func (s *SalsaStream) next() {
	var zero [64]byte
	blk := make([]byte, 64)
	salsa.XORKeyStream(blk, zero[:], &s.counter, &s.key)
	n := binary.LittleEndian.Uint64(s.counter[8:])
	binary.LittleEndian.PutUint64(s.counter[8:], n+1)
	s.block = blk
}
