// Package httpapi exposes the server services as a JSON HTTP API. Every
// payload carrying key material, IVs, salts or ciphertext is a base64 string;
// the transport never sees plaintext or passwords.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
	"github.com/dmitrijs2005/portalsend/internal/server/auth"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

// KeyService is the key-material surface the API serves.
type KeyService interface {
	GetKeys(ctx context.Context, userID string) (*models.KeyRecord, error)
	SetupKeys(ctx context.Context, userID string, keys models.KeyRecord) error
	ResetKeys(ctx context.Context, userID string, keys models.KeyRecord) error
	LookupPublicKeys(ctx context.Context, addresses []string) ([]models.PublicKeyLookup, error)
	CreateFiledrop(ctx context.Context, ownerID, displayName string, keys models.KeyRecord) (*models.Filedrop, error)
	GetFiledrop(ctx context.Context, slug string) (*models.Filedrop, error)
	ListFiledrops(ctx context.Context, ownerID string) ([]*models.Filedrop, error)
}

// TransferService is the fan-out and download surface the API serves.
type TransferService interface {
	CreateFanout(ctx context.Context, sender *auth.Identity, req *envelope.FanoutRequest) (*envelope.FanoutTicket, error)
	MarkUploaded(ctx context.Context, sender *auth.Identity, slug string) error
	GetTransfer(ctx context.Context, caller *auth.Identity, slug, as string) (*envelope.Transfer, error)
	PresignDownload(ctx context.Context, caller *auth.Identity, slug, as string) (string, error)
	List(ctx context.Context, caller *auth.Identity, direction, cursor string, limit int) ([]models.FileListItem, string, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	keys      KeyService
	transfers TransferService
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, keys KeyService, transfers TransferService, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		keys:      keys,
		transfers: transfers,
		jwtSecret: []byte(secretKey),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/keys", s.withAuth(s.handleSetupKeys))
	mux.HandleFunc("GET /api/keys", s.withAuth(s.handleGetKeys))
	mux.HandleFunc("POST /api/keys/reset", s.withAuth(s.handleResetKeys))
	mux.HandleFunc("POST /api/keys/lookup", s.withAuth(s.handleLookupKeys))

	mux.HandleFunc("POST /api/transfers", s.withAuth(s.handleCreateFanout))
	mux.HandleFunc("GET /api/transfers", s.withAuth(s.handleListTransfers))
	mux.HandleFunc("POST /api/transfers/{slug}/uploaded", s.withAuth(s.handleMarkUploaded))
	mux.HandleFunc("GET /api/transfers/{slug}", s.withAuth(s.handleGetTransfer))
	mux.HandleFunc("GET /api/transfers/{slug}/download", s.withAuth(s.handlePresignDownload))

	mux.HandleFunc("POST /api/filedrops", s.withAuth(s.handleCreateFiledrop))
	mux.HandleFunc("GET /api/filedrops", s.withAuth(s.handleListFiledrops))
	mux.HandleFunc("GET /api/filedrops/{slug}", s.withAuth(s.handleGetFiledrop))

	return mux
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
