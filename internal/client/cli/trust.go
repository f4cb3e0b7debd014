package cli

import (
	"context"
	"fmt"
)

// trust forgets the pinned key for an address. The next lookup pins whatever
// key the server then serves, so this must only be run after confirming the
// key change with the recipient out of band.
func (a *App) trust(ctx context.Context, args []string) error {

	if len(args) != 1 {
		return fmt.Errorf("usage: trust <address>")
	}

	if err := a.pins.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Pin for %s removed; the next send will pin the current key.\n", args[0])
	return nil
}
