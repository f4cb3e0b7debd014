package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

func (a *App) drop(ctx context.Context, args []string) error {

	if len(args) == 0 {
		return fmt.Errorf("usage: drop <create|list> ...")
	}

	switch args[0] {
	case "create":
		return a.dropCreate(ctx, args[1:])
	case "list":
		return a.dropList(ctx)
	default:
		return fmt.Errorf("unknown drop command: %s", args[0])
	}
}

func (a *App) dropCreate(ctx context.Context, args []string) error {

	if len(args) == 0 {
		return fmt.Errorf("usage: drop create <name>")
	}
	displayName := strings.Join(args, " ")

	fmt.Fprintln(a.out, "A filedrop has its own password, separate from your account password.")
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	drop, err := a.keyService.CreateDrop(ctx, displayName, pw)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Filedrop created. Share this address with senders: %s%s\n", common.DropAddressPrefix, drop.Slug)
	return nil
}

func (a *App) dropList(ctx context.Context) error {

	drops, err := a.keyService.ListDrops(ctx)
	if err != nil {
		return err
	}

	if len(drops) == 0 {
		fmt.Fprintln(a.out, "No filedrops.")
		return nil
	}

	for _, drop := range drops {
		fmt.Fprintf(a.out, "%s%s  %s\n", common.DropAddressPrefix, drop.Slug, drop.DisplayName)
	}
	return nil
}
