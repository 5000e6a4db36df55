package view

import (
	"fmt"

	"pkt.systems/tabshell/schema"
)

// SurfaceErrorKind classifies surface failures.
type SurfaceErrorKind string

const (
	// SurfaceErrorCreate indicates the host could not build a surface.
	SurfaceErrorCreate SurfaceErrorKind = "create"
	// SurfaceErrorLoad indicates the surface rejected a source.
	SurfaceErrorLoad SurfaceErrorKind = "load"
	// SurfaceErrorReload indicates a reload request failed.
	SurfaceErrorReload SurfaceErrorKind = "reload"
	// SurfaceErrorDisplay indicates a visibility or focus request failed.
	SurfaceErrorDisplay SurfaceErrorKind = "display"
)

// SurfaceError wraps surface failures with the tier they happened at.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Tier schema.Tier
	Op   string
	Err  error
}

func newSurfaceError(kind SurfaceErrorKind, tier schema.Tier, op string, err error) *SurfaceError {
	return &SurfaceError{Kind: kind, Tier: tier, Op: op, Err: err}
}

func (e *SurfaceError) Error() string {
	if e == nil {
		return "surface error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s surface %s: %v", e.Tier, e.Op, e.Err)
	}
	return fmt.Sprintf("%s surface %s failed", e.Tier, e.Op)
}

func (e *SurfaceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
