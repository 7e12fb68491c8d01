package main

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	IndexLen = 4
	CheckLen = 32
	SizeLen  = 4
)

// bodyToXML joins the hashed blocks of a decrypted body and inflates them.
// Block layout: 4B index, 32B sha256, 4B size, `size`B data; a zero size
// block with an all-zero hash ends the stream.
func bodyToXML(body []byte, compressed bool) ([]byte, error) {
	var out bytes.Buffer
	idx := 0

	for want := uint32(0); ; want++ {
		end := idx + IndexLen + CheckLen + SizeLen
		if end > len(body) {
			return nil, errors.New("2XML block header overflow")
		}
		if got := binary.LittleEndian.Uint32(body[idx:]); got != want {
			return nil, fmt.Errorf("2XML block index expect %d got %d", want, got)
		}
		check := body[idx+IndexLen : idx+IndexLen+CheckLen]
		size := int(binary.LittleEndian.Uint32(body[end-SizeLen:]))

		if size == 0 {
			if !bytes.Equal(check, make([]byte, CheckLen)) {
				return nil, errors.New("2XML final block corrupted")
			}
			break
		}

		dataEnd := end + size
		if dataEnd > len(body) || dataEnd < end {
			return nil, errors.New("2XML block data overflow")
		}
		data := body[end:dataEnd]
		if sum := sha256.Sum256(data); !bytes.Equal(sum[:], check) {
			return nil, errors.New("2XML body corrupted")
		}
		out.Write(data)
		idx = dataEnd
	}

	if !compressed {
		return out.Bytes(), nil
	}
	zr, err := gzip.NewReader(&out)
	if err != nil {
		return nil, fmt.Errorf("2XML gunzip: %w", err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("2XML gunzip: %w", err)
	}
	return plain, nil
}
