package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/portalsend/internal/client/api"
	"github.com/dmitrijs2005/portalsend/internal/client/config"
	"github.com/dmitrijs2005/portalsend/internal/client/repositories/pins"
	"github.com/dmitrijs2005/portalsend/internal/client/services"
	"github.com/dmitrijs2005/portalsend/internal/logging"
	"github.com/dmitrijs2005/portalsend/internal/netx"
)

// globalFlags are consumed by the config layer; the dispatcher skips them
// and their values when locating the subcommand.
var globalFlags = map[string]struct{}{
	"-a": {}, "-e": {}, "-k": {}, "-t": {},
	"-c": {}, "-config": {},
}

type App struct {
	config          *config.Config
	keyService      *services.KeyService
	transferService *services.TransferService
	pins            pins.Repository
	db              *sql.DB
	reader          *bufio.Reader
	out             io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := initDatabase(ctx, c.LocalDBPath)
	if err != nil {
		return nil, err
	}
	pinStore := pins.NewSQLiteRepository(db)

	apiClient := api.NewClient(c.ServerEndpointAddr, c.AccessToken, c.RequestTimeout)
	uploader := netx.NewUploader(nil)

	return &App{
		config:          c,
		keyService:      services.NewKeyService(apiClient, logger),
		transferService: services.NewTransferService(apiClient, uploader, c.Email, pinStore, logger),
		pins:            pinStore,
		db:              db,
		reader:          bufio.NewReader(os.Stdin),
		out:             os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// stripGlobalFlags drops the connection flags and their values so the
// remainder starts with the subcommand.
func stripGlobalFlags(args []string) []string {
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, found := strings.Cut(arg, "="); found {
			if _, ok := globalFlags[name]; ok {
				continue
			}
		}
		if _, ok := globalFlags[arg]; ok {
			i++ // skip the flag value too
			continue
		}
		rest = append(rest, arg)
	}
	return rest
}

func (a *App) Run(ctx context.Context, args []string) error {

	args = stripGlobalFlags(args)
	if len(args) == 0 {
		a.usage()
		return nil
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "setup":
		return a.setup(ctx)
	case "reset":
		return a.reset(ctx)
	case "send":
		return a.send(ctx, rest)
	case "receive":
		return a.receive(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "drop":
		return a.drop(ctx, rest)
	case "trust":
		return a.trust(ctx, rest)
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `Usage: portalsend [-a addr] [-e email] [-k token] <command>

Commands:
  setup                              generate and register key material
  reset                              replace key material (old files become unreadable)
  send <file> <recipient>...         encrypt and send a file
  receive [-d dropslug] [-o dir] <slug>   download and decrypt a file
  list [-d direction] [-cursor c] [-n limit]   list sent and received files
  drop create <name>                 create a filedrop inbox
  drop list                          list owned filedrops
  trust <address>                    forget a pinned key after a legitimate key reset`)
}
