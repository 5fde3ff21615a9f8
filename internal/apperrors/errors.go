package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the reconciliation core. Handlers map these to HTTP
// status codes with errors.Is; services wrap them with %w to add context.
var (
	ErrUnsupportedFormat   = errors.New("unsupported statement format")
	ErrUnreadableFile      = errors.New("statement file could not be read")
	ErrEmptyStatement      = errors.New("no valid transactions found in statement")
	ErrAmountOverflow      = errors.New("statement totals exceed storage precision")
	ErrRecordNotFound      = errors.New("reconciliation record not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// UnsupportedFormat builds an ErrUnsupportedFormat naming the offending
// extension and the supported set.
func UnsupportedFormat(ext string, supported []string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(supported, ", "))
}
