package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	uuidPattern  = regexp.MustCompile(`<UUID>([^<]+)</UUID>`)
	refPattern   = regexp.MustCompile(`(?i)\{REF:(P|U)@I:([0-9A-F]+)\}`)
	valuePattern = regexp.MustCompile(`<Value[^>]*>([^<]+)</Value>`)
)

const (
	userNameKey = "<Key>UserName</Key>"
	passwordKey = "<Key>Password</Key>"
)

type replaceMode string

const (
	replaceAll   replaceMode = "all"
	replaceFirst replaceMode = "first"
)

// tokens returns the submatch indices of the reference tokens of line
// that the mode acts on.
func (m replaceMode) tokens(line string) [][]int {
	n := -1
	if m == replaceFirst {
		n = 1
	}
	return refPattern.FindAllStringSubmatchIndex(line, n)
}

// ident is an entry UUID in both of its encodings.
// Hex is upper case; Base64 is what <UUID> declarations carry.
type ident struct {
	Hex    string
	Base64 string
	raw    []byte
}

func parseIdent(hexID string) (ident, error) {
	h := strings.ToUpper(strings.TrimSpace(hexID))
	raw, err := hex.DecodeString(h)
	if err != nil {
		return ident{}, fmt.Errorf("%w: %q: %v", ErrBadHex, hexID, err)
	}
	return ident{
		Hex:    h,
		Base64: strings.TrimSpace(base64.StdEncoding.EncodeToString(raw)),
		raw:    raw,
	}, nil
}

// UUID is the canonical dashed form, or "-" for ids that are not 16 bytes.
func (id ident) UUID() string {
	u, err := uuid.FromBytes(id.raw)
	if err != nil {
		return "-"
	}
	return u.String()
}

// refTable holds every identifier referenced in one file.
type refTable struct {
	byBase64 map[string]ident
	uses     map[string]int // by Hex
	order    []string       // Hex, first seen first
}

func newRefTable() *refTable {
	return &refTable{
		byBase64: make(map[string]ident),
		uses:     make(map[string]int),
	}
}

func (t *refTable) add(id ident) {
	if _, ok := t.byBase64[id.Base64]; !ok {
		t.byBase64[id.Base64] = id
		t.order = append(t.order, id.Hex)
	}
	t.uses[id.Hex]++
}

// wanted reports whether a declared base64 UUID is referenced somewhere.
func (t *refTable) wanted(b64 string) (ident, bool) {
	id, ok := t.byBase64[b64]
	return id, ok
}

func (t *refTable) Len() int { return len(t.byBase64) }

// collectRefs scans lines for reference tokens.
func collectRefs(lines []string, mode replaceMode, log *slog.Logger) (*refTable, error) {
	refs := newRefTable()
	for i, line := range lines {
		for _, m := range mode.tokens(line) {
			id, err := parseIdent(line[m[4]:m[5]])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			refs.add(id)
			log.Debug("reference", "line", i+1, "tag", line[m[2]:m[3]], "hex", id.Hex, "base64", id.Base64)
		}
	}
	return refs, nil
}
