package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/client/repositories/pins"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
)

// ErrRecipientKeyChanged means a recipient's public key no longer matches
// the one pinned on first contact. The server is not trusted with key
// distribution, so this has to be surfaced to the user instead of silently
// accepting the new key.
var ErrRecipientKeyChanged = errors.New("recipient public key changed")

// pinnedDirectory wraps a Directory with trust-on-first-use pinning: the
// first key seen for an address is stored locally, and any later mismatch
// fails the lookup.
type pinnedDirectory struct {
	next envelope.Directory
	pins pins.Repository
	log  logging.Logger
}

func (d *pinnedDirectory) LookupPublicKeys(ctx context.Context, addresses []string) ([]envelope.RecipientKey, error) {

	found, err := d.next.LookupPublicKeys(ctx, addresses)
	if err != nil {
		return nil, err
	}

	for _, rk := range found {
		if rk.PublicKey == "" {
			continue
		}

		stored, err := d.pins.Get(ctx, rk.Email)
		if errors.Is(err, common.ErrorNotFound) {
			if err := d.pins.Put(ctx, rk.Email, rk.PublicKey); err != nil {
				return nil, err
			}
			d.log.Debug(ctx, "pinned new key", "address", rk.Email)
			continue
		}
		if err != nil {
			return nil, err
		}

		if stored != rk.PublicKey {
			return nil, fmt.Errorf("%w: %s", ErrRecipientKeyChanged, rk.Email)
		}
	}

	return found, nil
}
