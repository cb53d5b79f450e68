package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigInvalid     = errors.New("config: invalid value")
	ErrConfigUnsupported = errors.New("config: unsupported format")
)
