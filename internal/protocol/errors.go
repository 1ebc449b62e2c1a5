package protocol

import (
	"errors"

	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Planner layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrLimit         = "E_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrLimit:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps a planner error to its wire code. nil maps to "".
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, grid.ErrIndexOutOfRange):
		return ErrInvalidTarget
	case errors.Is(err, plan.ErrColumnLimit),
		errors.Is(err, plan.ErrRowLimit),
		errors.Is(err, plan.ErrMinimumSize):
		return ErrLimit
	case errors.Is(err, plan.ErrUnknownAction),
		errors.Is(err, plan.ErrNegativeBonus),
		errors.Is(err, rates.ErrUnknownKind),
		errors.Is(err, rates.ErrUnknownQuality),
		errors.Is(err, grid.ErrEmpty),
		errors.Is(err, grid.ErrNonRectangular):
		return ErrBadRequest
	case errors.Is(err, rates.ErrInvalidRate),
		errors.Is(err, chain.ErrNegativeInput),
		errors.Is(err, chain.ErrOverflow):
		return ErrBadRequest
	}
	return ErrInternal
}
