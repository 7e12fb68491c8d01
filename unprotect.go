package main

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"log/slog"
	"regexp"
)

var protectedPattern = regexp.MustCompile(`<(Value|Binary)([^>]*?) Protected="True"([^>/]*)>([^<]*)</(?:Value|Binary)>`)

// unprotect decrypts protected elements in document order, leaving them
// the way a KeePass XML export writes them.
func unprotect(doc []byte, s *SalsaStream, log *slog.Logger) ([]byte, error) {
	var ferr error
	n := 0
	out := protectedPattern.ReplaceAllFunc(doc, func(el []byte) []byte {
		if ferr != nil {
			return el
		}
		m := protectedPattern.FindSubmatch(el)
		name, pre, post := m[1], m[2], m[3]

		plain, err := s.Unpack(string(m[4]))
		if err != nil {
			ferr = fmt.Errorf("protected %s #%d: %w", name, n, err)
			return el
		}
		n++

		var b bytes.Buffer
		b.WriteByte('<')
		b.Write(name)
		b.Write(pre)
		if string(name) == "Value" {
			b.WriteString(` ProtectedInMemory="True"`)
			b.Write(post)
			b.WriteByte('>')
			_ = xml.EscapeText(&b, plain)
		} else {
			b.Write(post)
			b.WriteByte('>')
			b.WriteString(base64.StdEncoding.EncodeToString(plain))
		}
		b.WriteString("</")
		b.Write(name)
		b.WriteByte('>')
		return b.Bytes()
	})
	if ferr != nil {
		return nil, ferr
	}
	log.Debug("unprotected", "elements", n)
	return out, nil
}

// openKDBX decrypts a KDBX 3.1 database into plain XML.
func openKDBX(data []byte, keyFile string, password passwordFunc, log *slog.Logger) ([]byte, error) {
	r := bytes.NewReader(data)
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	log.Debug("kdbx header", "rounds", hdr.rounds, "compressed", hdr.compressed)

	pw, err := password()
	if err != nil {
		return nil, err
	}
	userKey, err := compKey(pw, keyFile)
	if err != nil {
		return nil, err
	}

	body, err := decBody(hdr, r, userKey)
	if err != nil {
		return nil, err
	}
	doc, err := bodyToXML(body, hdr.compressed)
	if err != nil {
		return nil, err
	}
	return unprotect(doc, NewSalsaStream(hdr.streamKey), log)
}
