package territory

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind groups rejections by how a caller should react to them.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindPrecondition  Kind = "precondition"
	KindResource      Kind = "resource"
	KindConflict      Kind = "conflict"
)

var (
	ErrNotInWar     = errors.New("player is not fighting in this war")
	ErrWarNotActive = errors.New("war is not active")

	ErrPOINotInWar                   = errors.New("point of interest is not part of this war")
	ErrNotPresent                    = errors.New("player is not present at the point of interest")
	ErrAlreadyCapturingThisFaction   = errors.New("your faction is already capturing this point")
	ErrEnemyCapturingMustBeContested = errors.New("an enemy capture is in progress and must be contested first")
	ErrAlreadyControlled             = errors.New("your faction already controls this point")
	ErrCaptureContested              = errors.New("capture is contested")
	ErrNothingToContest              = errors.New("there is no enemy capture to contest")
	ErrAlreadyContested              = errors.New("capture is already contested")
	ErrNotYourPOI                    = errors.New("your faction does not control this point")
	ErrNothingToDefend               = errors.New("there is no attack to defend against")

	ErrInsufficientResource = errors.New("insufficient resources")

	ErrStateChanged = errors.New("point state changed, re-evaluate and retry")
)

type classification struct {
	kind Kind
	code string
}

var classifications = []struct {
	err error
	classification
}{
	{ErrNotInWar, classification{KindAuthorization, "NotInWar"}},
	{ErrWarNotActive, classification{KindAuthorization, "WarNotActive"}},
	{ErrPOINotInWar, classification{KindPrecondition, "PoiNotInWar"}},
	{ErrNotPresent, classification{KindPrecondition, "NotPresent"}},
	{ErrAlreadyCapturingThisFaction, classification{KindPrecondition, "AlreadyCapturingThisFaction"}},
	{ErrEnemyCapturingMustBeContested, classification{KindPrecondition, "EnemyCapturingMustBeContested"}},
	{ErrAlreadyControlled, classification{KindPrecondition, "AlreadyControlled"}},
	{ErrCaptureContested, classification{KindPrecondition, "CaptureContested"}},
	{ErrNothingToContest, classification{KindPrecondition, "NothingToContest"}},
	{ErrAlreadyContested, classification{KindPrecondition, "AlreadyContested"}},
	{ErrNotYourPOI, classification{KindPrecondition, "NotYourPoi"}},
	{ErrNothingToDefend, classification{KindPrecondition, "NothingToDefend"}},
	{ErrInsufficientResource, classification{KindResource, "InsufficientResource"}},
	{ErrStateChanged, classification{KindConflict, "StateChanged"}},
}

func classify(err error) (classification, bool) {
	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c.classification, true
		}
	}
	return classification{}, false
}

// ActionError is a rejected player action. It wraps one of the sentinels above,
// so errors.Is keeps matching, and carries enough context for client display.
type ActionError struct {
	Kind          Kind
	Code          string
	POIName       string
	RequiredState State
	cause         error
}

func (e *ActionError) Error() string {
	msg := e.cause.Error()
	if e.POIName != "" {
		msg = fmt.Sprintf("%s: %s", e.POIName, msg)
	}
	if e.RequiredState != "" {
		msg = fmt.Sprintf("%s (requires %s)", msg, e.RequiredState)
	}
	return msg
}

func (e *ActionError) Unwrap() error { return e.cause }

// Reject wraps a sentinel into an ActionError. Errors outside the taxonomy are
// returned unchanged.
func Reject(cause error, required State) error {
	c, ok := classify(cause)
	if !ok {
		return cause
	}
	return &ActionError{
		Kind:          c.kind,
		Code:          c.code,
		RequiredState: required,
		cause:         errors.WithStack(cause),
	}
}

// WithPOIName attaches the display name of the point to an ActionError found in
// the chain. Bare sentinels are promoted first.
func WithPOIName(err error, name string) error {
	if err == nil {
		return nil
	}
	var action *ActionError
	if !errors.As(err, &action) {
		promoted := Reject(err, "")
		if !errors.As(promoted, &action) {
			return err
		}
		err = promoted
	}
	copied := *action
	copied.POIName = name
	return &copied
}

// KindOf classifies err. ok is false for infrastructure failures.
func KindOf(err error) (Kind, bool) {
	var action *ActionError
	if errors.As(err, &action) {
		return action.Kind, true
	}
	c, ok := classify(err)
	return c.kind, ok
}

// CodeOf returns the stable client-facing code for err, or "" when err is not
// part of the taxonomy.
func CodeOf(err error) string {
	var action *ActionError
	if errors.As(err, &action) {
		return action.Code
	}
	c, _ := classify(err)
	return c.code
}
