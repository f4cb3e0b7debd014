package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/client/services"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
)

func (a *App) send(ctx context.Context, args []string) error {

	if len(args) < 2 {
		return fmt.Errorf("usage: send <file> <recipient>...")
	}

	path, recipients := args[0], args[1:]

	slug, err := a.transferService.Send(ctx, path, recipients)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Sent. File slug: %s\n", slug)
	return nil
}

// stageText maps pipeline stages to one-line progress messages.
var stageText = map[envelope.Stage]string{
	envelope.StageFetchingKeys:          "fetching keys",
	envelope.StageDecryptingPrivateKey:  "unlocking private key",
	envelope.StageDecryptingSharedKey:   "recovering file key",
	envelope.StageDownloadingCiphertext: "downloading",
	envelope.StageDecryptingFile:        "decrypting",
	envelope.StageDone:                  "done",
	envelope.StageFailed:                "failed: wrong password",
}

func (a *App) receive(ctx context.Context, args []string) error {

	fs := flag.NewFlagSet("receive", flag.ContinueOnError)
	dropSlug := fs.String("d", "", "filedrop slug (owner only)")
	outDir := fs.String("o", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: receive [-d dropslug] [-o dir] <slug>")
	}

	// a wrong password ends the attempt, not the command
	for {
		pw, err := GetPassword(a.out, "Enter password")
		if err != nil {
			return err
		}
		if len(pw) == 0 {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}

		path, err := a.transferService.Receive(ctx, &services.ReceiveInput{
			Slug:      fs.Arg(0),
			Password:  pw,
			OutputDir: *outDir,
			DropSlug:  *dropSlug,
			OnStage: func(stage envelope.Stage) {
				if text, ok := stageText[stage]; ok {
					fmt.Fprintf(a.out, "... %s\n", text)
				}
			},
		})
		common.WipeByteArray(pw)

		if errors.Is(err, cryptox.ErrIncorrectPassword) {
			fmt.Fprintln(a.out, "Incorrect password. Try again, or press Enter to abort.")
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(a.out, "Saved to %s\n", path)
		return nil
	}
}

func (a *App) list(ctx context.Context, args []string) error {

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	direction := fs.String("d", "", "direction filter: sent or received")
	cursor := fs.String("cursor", "", "page cursor")
	limit := fs.Int("n", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	items, next, err := a.transferService.List(ctx, *direction, *cursor, *limit, pw)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No files.")
		return nil
	}

	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "(name unavailable)"
		}
		fmt.Fprintf(a.out, "%s  %-8s  %s  %s\n",
			item.CreatedAt.Format("2006-01-02 15:04"), item.Direction, item.Slug, name)
	}
	if next != "" {
		fmt.Fprintf(a.out, "More files available, next cursor: %s\n", next)
	}
	return nil
}
