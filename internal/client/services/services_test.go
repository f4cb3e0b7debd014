package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrijs2005/portalsend/internal/client/api"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeAPI satisfies KeysAPI and TransfersAPI in memory.
type fakeAPI struct {
	mu sync.Mutex

	keys    *envelope.KeyMaterial
	keysErr error

	setupKeys *envelope.KeyMaterial
	resetKeys *envelope.KeyMaterial

	lookups map[string]string

	fanout *envelope.FanoutRequest
	ticket *envelope.FanoutTicket
	marked []string

	transfer        *envelope.Transfer
	transfersByAddr map[string]*envelope.Transfer
	openedAs        []string
	signed          string
	page            *api.TransferPage

	drops       map[string]*api.Filedrop
	createdDrop *api.Filedrop
}

func (f *fakeAPI) GetKeys(ctx context.Context) (*envelope.KeyMaterial, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.keys, nil
}

func (f *fakeAPI) SetupKeys(ctx context.Context, keys *envelope.KeyMaterial) error {
	f.setupKeys = keys
	return nil
}

func (f *fakeAPI) ResetKeys(ctx context.Context, keys *envelope.KeyMaterial) error {
	f.resetKeys = keys
	return nil
}

func (f *fakeAPI) LookupPublicKeys(ctx context.Context, addresses []string) ([]envelope.RecipientKey, error) {
	result := make([]envelope.RecipientKey, len(addresses))
	for i, addr := range addresses {
		result[i] = envelope.RecipientKey{Email: addr, PublicKey: f.lookups[addr]}
	}
	return result, nil
}

func (f *fakeAPI) CreateFanout(ctx context.Context, req *envelope.FanoutRequest) (*envelope.FanoutTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fanout = req
	return f.ticket, nil
}

func (f *fakeAPI) MarkUploaded(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, slug)
	return nil
}

func (f *fakeAPI) GetTransfer(ctx context.Context, slug, as string) (*envelope.Transfer, error) {
	f.mu.Lock()
	f.openedAs = append(f.openedAs, as)
	f.mu.Unlock()
	if f.transfersByAddr != nil {
		transfer, ok := f.transfersByAddr[as]
		if !ok {
			return nil, common.ErrorNotFound
		}
		return transfer, nil
	}
	if f.transfer == nil {
		return nil, common.ErrorNotFound
	}
	return f.transfer, nil
}

func (f *fakeAPI) PresignDownload(ctx context.Context, slug, as string) (string, error) {
	return f.signed, nil
}

func (f *fakeAPI) ListTransfers(ctx context.Context, direction, cursor string, limit int) (*api.TransferPage, error) {
	return f.page, nil
}

func (f *fakeAPI) CreateFiledrop(ctx context.Context, displayName string, keys *envelope.KeyMaterial) (*api.Filedrop, error) {
	f.createdDrop = &api.Filedrop{Slug: "drop1", DisplayName: displayName, PublicKey: keys.PublicKey, Keys: keys}
	return f.createdDrop, nil
}

func (f *fakeAPI) GetFiledrop(ctx context.Context, slug string) (*api.Filedrop, error) {
	drop, ok := f.drops[slug]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return drop, nil
}

func (f *fakeAPI) ListFiledrops(ctx context.Context) ([]api.Filedrop, error) {
	result := make([]api.Filedrop, 0, len(f.drops))
	for _, d := range f.drops {
		result = append(result, *d)
	}
	return result, nil
}
