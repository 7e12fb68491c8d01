package main

import (
	"log/slog"
	"strings"
)

type credential struct {
	UserName string
	Password string
}

type scanState int

const (
	idle scanState = iota
	tracking
)

// resolver walks the lines once, tracking at most one wanted entry.
// The first record of an entry wins; later ones are history.
type resolver struct {
	lines []string
	refs  *refTable
	log   *slog.Logger

	state    scanState
	current  ident
	userName *string
	password *string

	creds map[string]credential // by Hex
}

func resolveCredentials(lines []string, refs *refTable, log *slog.Logger) (map[string]credential, error) {
	r := &resolver{
		lines: lines,
		refs:  refs,
		log:   log,
		creds: make(map[string]credential, refs.Len()),
	}
	for i, line := range lines {
		if err := r.step(i, line); err != nil {
			return nil, err
		}
	}
	return r.creds, nil
}

func (r *resolver) step(i int, line string) error {
	if r.state == idle {
		r.declaration(line)
		return nil
	}

	if strings.Contains(line, userNameKey) {
		v, err := r.nextValue(i, "username")
		if err != nil {
			return err
		}
		if refPattern.MatchString(v) {
			r.abandon("username is a reference")
			return nil
		}
		r.userName = &v
	}

	if strings.Contains(line, passwordKey) {
		v, err := r.nextValue(i, "password")
		if err != nil {
			return err
		}
		if refPattern.MatchString(v) {
			r.abandon("password is a reference")
			return nil
		}
		r.password = &v
	}

	if r.userName != nil && r.password != nil {
		r.creds[r.current.Hex] = credential{UserName: *r.userName, Password: *r.password}
		r.log.Debug("resolved", "hex", r.current.Hex, "line", i+1)
		r.reset()
	}
	return nil
}

func (r *resolver) declaration(line string) {
	m := uuidPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	id, ok := r.refs.wanted(m[1])
	if !ok {
		return
	}
	if _, done := r.creds[id.Hex]; done {
		return
	}
	r.state = tracking
	r.current = id
	r.userName, r.password = nil, nil
	r.log.Debug("tracking", "base64", id.Base64, "hex", id.Hex)
}

// nextValue reads the <Value> on the line after a key marker.
func (r *resolver) nextValue(i int, field string) (string, error) {
	if i+1 < len(r.lines) {
		if m := valuePattern.FindStringSubmatch(r.lines[i+1]); m != nil {
			return m[1], nil
		}
	}
	return "", &ExtractError{Field: field, ID: r.current, Line: i + 2}
}

func (r *resolver) abandon(why string) {
	r.log.Debug("skipping record", "hex", r.current.Hex, "reason", why)
	r.reset()
}

func (r *resolver) reset() {
	r.state = idle
	r.current = ident{}
	r.userName, r.password = nil, nil
}

func checkCount(creds map[string]credential, refs *refTable) error {
	if len(creds) != refs.Len() {
		return &CountError{Credentials: len(creds), References: refs.Len()}
	}
	return nil
}
