package templates

import (
	"fmt"

	"golang.org/x/text/message"
)

// Localizer formats catalog messages for one language. *message.Printer
// satisfies it.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// T formats key through loc. A nil localizer uses the key itself as the
// format string.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil {
		if len(args) == 0 {
			return key
		}
		return fmt.Sprintf(key, args...)
	}
	return loc.Sprintf(key, args...)
}
