package models

import (
	"time"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

// Filedrop is a slug-addressed inbox with its own key pair. Anyone who knows
// the slug can send into it; only the owner holds the master password that
// unwraps its private key.
type Filedrop struct {
	ID          string
	Slug        string
	OwnerID     string
	DisplayName string
	CreatedAt   time.Time

	KeyRecord
}

// Address returns the directory address of the drop.
func (f *Filedrop) Address() string {
	return common.DropAddressPrefix + f.Slug
}
