package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

func (a *App) setup(ctx context.Context) error {

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.keyService.Setup(ctx, pw); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Keys generated and registered. Keep your password safe: it cannot be recovered.")
	return nil
}

func (a *App) reset(ctx context.Context) error {

	answer, err := GetSimpleText(a.reader,
		"Resetting keys makes every file you previously received permanently unreadable.\nType 'yes' to continue", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Aborted.")
		return nil
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.keyService.Reset(ctx, pw); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Keys replaced.")
	return nil
}
