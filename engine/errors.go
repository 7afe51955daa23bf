package engine

// EngineError reports a violated machine invariant (spec §7). Unlike
// ParseError, which rejects bad input before simulation starts, an
// EngineError means the state machine itself reached a configuration
// the model does not allow; Step returns the unmodified prior state
// alongside it so the caller can inspect what led there.
// SetRegisterValue also returns an EngineError when it is called after
// the first cycle has run.
type EngineError struct {
	Msg string
}

func (e *EngineError) Error() string {
	return "engine: " + e.Msg
}
