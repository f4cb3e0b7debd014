package envelope

import (
	"fmt"
	"strings"
)

// MissingRecipientsError aborts a send when one or more recipients have no
// public key on file. The whole send is refused; partial fan-out is not a
// valid state. Emails lists the recipients the user must remove or invite.
type MissingRecipientsError struct {
	Emails []string
}

func (e *MissingRecipientsError) Error() string {
	return fmt.Sprintf("recipients without keys: %s", strings.Join(e.Emails, ", "))
}
