/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

// ErrorCode classifies why an engine operation failed, per the error
// taxonomy the gateway reports back to the caller via an ack.
type ErrorCode string

const (
	ErrInput      ErrorCode = "input"
	ErrPermission ErrorCode = "permission"
	ErrState      ErrorCode = "state"
	ErrUpstream   ErrorCode = "upstream"
	ErrAuth       ErrorCode = "auth"
)

// EngineError is the tagged result every fallible engine operation returns
// instead of a bare error, so the gateway can map it directly onto an ack
// failure without inspecting error strings.
type EngineError struct {
	Code    ErrorCode
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

func newErr(code ErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

var (
	errNotHost       = newErr(ErrPermission, "only the host may perform this action")
	errNoActiveRound = newErr(ErrState, "no active round")
	errRoundSolved   = newErr(ErrState, "round is already solved")
	errWrongGameType = newErr(ErrState, "operation not valid for this room's game type")
	errNoSuchMember  = newErr(ErrInput, "no such member")
	errNoTracks      = newErr(ErrInput, "at least one track is required")
)
