package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"
)

// session is one run over one input file.
type session struct {
	cfg      *Config
	log      *slog.Logger
	rep      *reporter
	password passwordFunc
}

// solveFile writes <path><suffix> once every stage succeeded;
// a failed run leaves no output behind.
func (s *session) solveFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not find file <%s>: %w", path, err)
	}
	if data, err = s.decode(data); err != nil {
		return err
	}

	out, err := s.solve(splitLines(data))
	if err != nil {
		return err
	}

	dest := path + s.cfg.Suffix
	if err := atomic.WriteFile(dest, bytes.NewReader(joinLines(out))); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	s.rep.done(dest)
	return nil
}

func (s *session) decode(data []byte) ([]byte, error) {
	switch s.cfg.Format {
	case formatXML:
		return data, nil
	case formatAuto:
		if !isKDBX(data) {
			return data, nil
		}
	}
	doc, err := openKDBX(data, s.cfg.KeyFile, s.password, s.log)
	if err != nil {
		return nil, fmt.Errorf("kdbx: %w", err)
	}
	return doc, nil
}

// solve runs collector, resolver and writer over the lines.
func (s *session) solve(lines []string) ([]string, error) {
	mode := s.cfg.mode()

	refs, err := collectRefs(lines, mode, s.log)
	if err != nil {
		return nil, err
	}
	creds, err := resolveCredentials(lines, refs, s.log)
	if err != nil {
		return nil, err
	}

	s.rep.found(refs.Len())
	if s.cfg.Summary {
		s.rep.summary(refs, creds)
	}
	if err := checkCount(creds, refs); err != nil {
		return nil, err
	}

	out, n, err := substitute(lines, creds, mode)
	if err != nil {
		return nil, err
	}
	s.rep.replaced(n)
	return out, nil
}
