package main

import (
	"bufio"
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordFunc supplies the master password of a database.
type passwordFunc func() ([]byte, error)

// promptPassword reads without echo from a terminal, else one line of in.
func promptPassword(in io.Reader, prompt io.Writer) passwordFunc {
	return func() ([]byte, error) {
		fmt.Fprint(prompt, "Password: ")
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			password, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(prompt)
			if err != nil {
				return nil, fmt.Errorf("getpass: %w", err)
			}
			return password, nil
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		fmt.Fprintln(prompt)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("getpass: %w", err)
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
}

// decBody decrypts the payload following the header and strips the
// stream start bytes. A mismatch there means a wrong key.
func decBody(hdr *header, r io.Reader, userKey []byte) ([]byte, error) {
	key, err := roll(userKey, hdr.rounds, hdr.transformSeed, hdr.masterSeed)
	if err != nil {
		return nil, err
	}
	cip, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES by user key: %w", err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read kdb: %w", err)
	}
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("kdb body len %d not a multiple of %d", len(body), aes.BlockSize)
	}
	cipher.NewCBCDecrypter(cip, hdr.iv).CryptBlocks(body, body)

	if n := len(hdr.startBytes); n != 0 {
		if len(body) < n || !bytes.Equal(body[:n], hdr.startBytes) {
			return nil, errors.New("cannot verify start bytes: wrong password or key file")
		}
		body = body[n:]
	}
	return unpad(body)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("kdb body empty")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("kdb body bad padding")
	}
	return b[:len(b)-n], nil
}

// compKey composes the user key from password and key file.
func compKey(password []byte, keyFile string) ([]byte, error) {
	h := sha256.New()

	if len(password) != 0 { // empty = no password
		addressable := sha256.Sum256(password)
		h.Write(addressable[:])
	}

	if len(keyFile) != 0 {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", keyFile, err)
		}
		key, err := keyFileKey(data)
		if err != nil {
			return nil, fmt.Errorf("key file %s: %w", keyFile, err)
		}
		h.Write(key)
	}

	if len(password) == 0 && len(keyFile) == 0 {
		return nil, errors.New("neither password nor key file given")
	}
	return h.Sum(nil), nil
}

// roll runs the AES-KDF transform and derives the master key.
func roll(key []byte, rounds uint64, rollKey []byte, seed []byte) ([]byte, error) {
	cip, err := aes.NewCipher(rollKey)
	if err != nil {
		return nil, fmt.Errorf("AES roll: %w", err)
	}

	key = bytes.Clone(key)
	keyTail := key[16:32]
	for ; rounds != 0; rounds-- {
		cip.Encrypt(keyTail, keyTail)
		cip.Encrypt(key, key)
	}

	h := sha256.New()
	h.Write(seed)
	addressable := sha256.Sum256(key)
	h.Write(addressable[:])
	return h.Sum(nil), nil
}
