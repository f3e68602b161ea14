package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrBadRequest      = "E_BAD_REQUEST"

	// Browser state.
	ErrClosed             = "E_CLOSED"
	ErrNoCandidates       = "E_NO_CANDIDATES"
	ErrIndexOutOfRange    = "E_INDEX_OUT_OF_RANGE"
	ErrNoInventory        = "E_NO_INVENTORY"
	ErrInfeasible         = "E_INFEASIBLE"
	ErrGridTooSmall       = "E_GRID_TOO_SMALL"
	ErrInvalidGridSide    = "E_INVALID_GRID_SIDE"
	ErrUnknownPlan        = "E_UNKNOWN_PLAN"
	ErrCatalogUnavailable = "E_CATALOG_UNAVAILABLE"
	ErrInternal           = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrBadRequest:         {},
	ErrClosed:             {},
	ErrNoCandidates:       {},
	ErrIndexOutOfRange:    {},
	ErrNoInventory:        {},
	ErrInfeasible:         {},
	ErrGridTooSmall:       {},
	ErrInvalidGridSide:    {},
	ErrUnknownPlan:        {},
	ErrCatalogUnavailable: {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
