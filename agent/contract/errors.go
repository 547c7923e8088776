package contract

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrToolNotFound  = errors.New("tool not found")
	ErrDiscovery     = errors.New("tool discovery failed")
	ErrToolCollision = errors.New("tool name collision")
)
