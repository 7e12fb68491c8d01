package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

type KeyFile struct {
	XMLName xml.Name `xml:"KeyFile"`
	Meta    struct {
		Version string `xml:"Version"`
	} `xml:"Meta"`
	Key struct {
		Data KeyData `xml:"Data"`
	} `xml:"Key"`
}

type KeyData struct {
	Hash  string `xml:"Hash,attr"`
	Value string `xml:",chardata"`
}

// keyFileKey returns the key file component of the composite key.
// Accepted: KeePass XML key files (1.0 base64, 2.0 hex with hash),
// 32 raw bytes, 64 hex digits; anything else is hashed.
func keyFileKey(data []byte) ([]byte, error) {
	var kf KeyFile
	if err := xml.Unmarshal(data, &kf); err == nil && strings.TrimSpace(kf.Key.Data.Value) != "" {
		return kf.key()
	}

	switch len(data) {
	case 32:
		return data, nil
	case 64:
		if key, err := hex.DecodeString(string(data)); err == nil {
			return key, nil
		}
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func (kf *KeyFile) key() ([]byte, error) {
	raw := strings.TrimSpace(kf.Key.Data.Value)
	if !strings.HasPrefix(strings.TrimSpace(kf.Meta.Version), "2.") {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("key data: %w", err)
		}
		return key, nil
	}

	key, err := hex.DecodeString(strings.Join(strings.Fields(raw), ""))
	if err != nil {
		return nil, fmt.Errorf("key data: %w", err)
	}
	if want := kf.Key.Data.Hash; want != "" {
		sum := sha256.Sum256(key)
		got, err := hex.DecodeString(want)
		if err != nil || !bytes.Equal(got, sum[:4]) {
			return nil, errors.New("key data hash mismatch")
		}
	}
	return key, nil
}
