package exception

import "github.com/yanun0323/errors"

var (
	ErrJournalNoWriter    = errors.New("journal: no writer configured")
	ErrJournalUnsupported = errors.New("journal: unsupported driver")
)
