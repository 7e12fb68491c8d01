package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	SigLen    = 8
	VerLen    = 4
	GoodSig   = "\x03\xD9\xA2\x9A\x67\xFB\x4B\xB5"
	GoodAES   = "\x31\xC1\xF2\xE6\xBF\x71\x43\x50\xBE\x58\x05\x21\x6A\xFC\x5A\xFF"
	GoodSalsa = "\x02\x00\x00\x00"
	MetaLen   = 3
	GoodMajor = 3
)

// header field ids
const (
	hdrEnd = iota
	hdrComment
	hdrCipher
	hdrCompression
	hdrMasterSeed
	hdrTransformSeed
	hdrRounds
	hdrIV
	hdrStreamKey
	hdrStartBytes
	hdrStreamID
)

type header struct {
	masterSeed    []byte
	transformSeed []byte
	iv            []byte
	startBytes    []byte
	streamKey     []byte
	compressed    bool
	rounds        uint64
}

func isKDBX(data []byte) bool {
	return bytes.HasPrefix(data, []byte(GoodSig))
}

func readHeader(r io.Reader) (*header, error) {
	sig := make([]byte, SigLen)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read header sig: %w", err)
	}
	if string(sig) != GoodSig {
		return nil, errors.New("header unsupported")
	}

	ver := make([]byte, VerLen)
	if _, err := io.ReadFull(r, ver); err != nil {
		return nil, fmt.Errorf("read header ver: %w", err)
	}
	if major := binary.LittleEndian.Uint16(ver[2:]); major != GoodMajor {
		return nil, fmt.Errorf("kdbx version %d unsupported", major)
	}

	hdr, err := readHeaderFields(r)
	if err != nil {
		return nil, err
	}
	return hdr, hdr.check()
}

func readHeaderFields(r io.Reader) (*header, error) {
	var ret header
	meta := make([]byte, MetaLen) // id uint8 + len uint16

	for i := 99; i != 0; i-- {
		if _, err := io.ReadFull(r, meta); err != nil {
			return nil, fmt.Errorf("read header item: %w", err)
		}
		size := int(binary.LittleEndian.Uint16(meta[1:]))
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("read header[%d]: %w", meta[0], err)
		}

		switch meta[0] {
		case hdrEnd:
			return &ret, nil
		case hdrCipher:
			if string(data) != GoodAES {
				return nil, errors.New("cipher not AES")
			}
		case hdrStreamID:
			if string(data) != GoodSalsa {
				return nil, errors.New("stream cipher not Salsa20")
			}
		case hdrRounds:
			if size != 8 {
				return nil, errors.New("header bad 'rounds'")
			}
			ret.rounds = binary.LittleEndian.Uint64(data)
		case hdrTransformSeed:
			if size != 32 {
				return nil, errors.New("header bad transform seed")
			}
			ret.transformSeed = data
		case hdrMasterSeed:
			ret.masterSeed = data
		case hdrIV:
			if size != 16 {
				return nil, errors.New("header bad AES IV")
			}
			ret.iv = data
		case hdrStartBytes:
			ret.startBytes = data
		case hdrCompression:
			if size != 4 {
				return nil, errors.New("header bad 'compressed'")
			}
			ret.compressed = binary.LittleEndian.Uint32(data) != 0
		case hdrStreamKey:
			ret.streamKey = data
		}
	}
	return nil, errors.New("bad header")
}

func (h *header) check() error {
	switch {
	case h.masterSeed == nil:
		return errors.New("header missing master seed")
	case h.transformSeed == nil:
		return errors.New("header missing transform seed")
	case h.iv == nil:
		return errors.New("header missing AES IV")
	case h.streamKey == nil:
		return errors.New("header missing stream key")
	}
	return nil
}
