package main

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadHex     = errors.New("reference id is not hex")
	ErrExtract    = errors.New("could not extract value")
	ErrCount      = errors.New("number of found credentials does not match number of found references")
	ErrUnresolved = errors.New("reference to replace does not exist in found credentials")
)

// ExtractError reports a key marker whose next line carries no value.
type ExtractError struct {
	Field string
	ID    ident
	Line  int // 1-based line expected to hold the value
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("could not extract %s for UUID <%s> at line %d", e.Field, e.ID.Base64, e.Line)
}

func (e *ExtractError) Unwrap() error { return ErrExtract }

// CountError reports references left without a credential.
type CountError struct {
	Credentials int
	References  int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%v (%d credentials, %d references)", ErrCount, e.Credentials, e.References)
}

func (e *CountError) Unwrap() error { return ErrCount }

func (e *CountError) details() []string {
	return []string{
		fmt.Sprintf("# found credentials: %d", e.Credentials),
		fmt.Sprintf("# found references:  %d", e.References),
	}
}

// UnresolvedError reports a token met by the writer without a credential.
type UnresolvedError struct {
	Line string
	ID   ident
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnresolved, e.ID.Hex)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

func (e *UnresolvedError) details() []string {
	return []string{
		"Line:             " + strings.TrimSpace(e.Line),
		"Reference HEX:    " + e.ID.Hex,
		"Reference Base64: " + e.ID.Base64,
	}
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// detailer is implemented by errors carrying extra report lines.
type detailer interface {
	details() []string
}
