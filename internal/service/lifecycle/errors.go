package lifecycle

import "errors"

// Sentinel errors for the lifecycle engine and its repositories.
var (
	ErrRuleNotFound      = errors.New("automation not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrUnknownChildTable = errors.New("unknown child table")
)
