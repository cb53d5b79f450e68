package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderNotFound          = errors.New("order: not found")
	ErrOrderInvalidTransition = errors.New("order: invalid state transition")
	ErrOrderInvalidFill       = errors.New("order: invalid fill quantity")
	ErrOrderNotInitialized    = errors.New("order: engine not initialized")
)
