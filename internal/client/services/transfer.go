package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/client/api"
	"github.com/dmitrijs2005/portalsend/internal/client/repositories/pins"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
	"github.com/dmitrijs2005/portalsend/internal/netx"
)

// TransfersAPI is the slice of the server API the transfer service needs.
// *api.Client satisfies it.
type TransfersAPI interface {
	envelope.Directory
	envelope.TransferStore
	GetKeys(ctx context.Context) (*envelope.KeyMaterial, error)
	GetFiledrop(ctx context.Context, slug string) (*api.Filedrop, error)
	ListTransfers(ctx context.Context, direction, cursor string, limit int) (*api.TransferPage, error)
}

// TransferService drives sends and receives end to end. Plaintext and
// unwrapped keys never leave this process; the server and object storage
// only ever see ciphertext.
type TransferService struct {
	api       TransfersAPI
	directory envelope.Directory
	blobs     envelope.BlobStore
	email     string
	log       logging.Logger
}

// NewTransferService wires the send/receive pipelines. When pinStore is
// non-nil, recipient lookups go through trust-on-first-use key pinning.
func NewTransferService(apiClient TransfersAPI, uploader *netx.Uploader, email string, pinStore pins.Repository, log logging.Logger) *TransferService {

	log = log.With("module", "transfer_service")

	var directory envelope.Directory = apiClient
	if pinStore != nil {
		directory = &pinnedDirectory{next: apiClient, pins: pinStore, log: log}
	}

	return &TransferService{
		api:       apiClient,
		directory: directory,
		blobs:     &blobStore{uploader: uploader},
		email:     email,
		log:       log,
	}
}

// Send encrypts and ships one file to the given recipient addresses (emails
// or drop:slug). Returns the slug under which the file is now reachable.
func (s *TransferService) Send(ctx context.Context, path string, recipients []string) (string, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	keys, err := s.api.GetKeys(ctx)
	if err != nil {
		return "", err
	}

	sender := envelope.NewSender(s.directory, s.api, s.blobs, s.log)
	result, err := sender.Send(ctx, &envelope.SendInput{
		SenderEmail:     s.email,
		SenderPublicKey: keys.PublicKey,
		Recipients:      recipients,
		FileName:        filepath.Base(path),
		Data:            data,
	})
	if err != nil {
		return "", err
	}

	return result.Slug, nil
}

// ReceiveInput identifies one file to download and decrypt. When DropSlug is
// set, the file was addressed to that filedrop and the drop's key material
// is used instead of the account's; only the drop owner can do this.
type ReceiveInput struct {
	Slug      string
	Password  []byte
	OutputDir string
	DropSlug  string
	OnStage   envelope.StageFunc
}

// Receive downloads, decrypts and writes one file into the output
// directory, returning the written path. The stored file name is reduced to
// its base before writing, so a crafted name cannot escape the directory.
func (s *TransferService) Receive(ctx context.Context, in *ReceiveInput) (string, error) {

	keys, err := s.keysFor(ctx, in.DropSlug)
	if err != nil {
		return "", err
	}

	// The file may carry wrapped key copies for several of our addresses.
	// Naming the one we open as guarantees the server hands back the copy
	// matching the private key we are about to unwrap.
	address := s.email
	if in.DropSlug != "" {
		address = common.DropAddressPrefix + in.DropSlug
	}

	receiver := envelope.NewReceiver(s.api, s.blobs, s.log, in.OnStage)
	result, err := receiver.Open(ctx, &envelope.OpenInput{
		Slug:     in.Slug,
		Address:  address,
		Password: in.Password,
		Keys:     keys,
	})
	if err != nil {
		return "", err
	}

	name := filepath.Base(result.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("%w: unusable file name", common.ErrorValidation)
	}

	outPath := filepath.Join(in.OutputDir, name)
	if err := os.WriteFile(outPath, result.Data, 0o600); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return outPath, nil
}

func (s *TransferService) keysFor(ctx context.Context, dropSlug string) (*envelope.KeyMaterial, error) {
	if dropSlug == "" {
		return s.api.GetKeys(ctx)
	}

	drop, err := s.api.GetFiledrop(ctx, dropSlug)
	if err != nil {
		return nil, err
	}
	if drop.Keys == nil {
		return nil, fmt.Errorf("%w: not the owner of filedrop %s", common.ErrorUnauthorized, dropSlug)
	}
	return drop.Keys, nil
}

// TransferOverview is one listed file with its name already decrypted.
type TransferOverview struct {
	Slug      string
	Direction string
	Name      string
	CreatedAt time.Time
}

// List fetches one page of the caller's files and decrypts the names
// locally. A name that fails to decrypt (for example a file addressed to a
// drop whose keys differ from the account's) is listed with an empty name
// rather than failing the whole page.
func (s *TransferService) List(ctx context.Context, direction, cursor string, limit int, password []byte) ([]TransferOverview, string, error) {

	keys, err := s.api.GetKeys(ctx)
	if err != nil {
		return nil, "", err
	}

	priv, err := unwrapPrivateKey(keys, password)
	if err != nil {
		return nil, "", err
	}

	page, err := s.api.ListTransfers(ctx, direction, cursor, limit)
	if err != nil {
		return nil, "", err
	}

	result := make([]TransferOverview, 0, len(page.Files))
	for _, item := range page.Files {
		overview := TransferOverview{
			Slug:      item.Slug,
			Direction: item.Direction,
			CreatedAt: item.CreatedAt,
		}

		name, err := decryptName(priv, item.EncryptedSharedKey, item.FileIV, item.EncryptedName)
		if err != nil {
			s.log.Warn(ctx, "undecryptable file name", "slug", item.Slug, "error", err.Error())
		} else {
			overview.Name = name
		}

		result = append(result, overview)
	}

	return result, page.NextCursor, nil
}

func unwrapPrivateKey(keys *envelope.KeyMaterial, password []byte) (cryptox.PrivateKey, error) {

	wrapped, err := base64.StdEncoding.DecodeString(keys.EncryptedPrivateKey)
	if err != nil {
		return cryptox.PrivateKey{}, fmt.Errorf("decoding wrapped private key: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(keys.EncryptedPrivateKeyIV)
	if err != nil {
		return cryptox.PrivateKey{}, fmt.Errorf("decoding vault iv: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(keys.EncryptedPrivateKeySalt)
	if err != nil {
		return cryptox.PrivateKey{}, fmt.Errorf("decoding salt: %w", err)
	}

	return cryptox.UnwrapPrivateKey(wrapped, password, salt, iv)
}

func decryptName(priv cryptox.PrivateKey, encryptedSharedKey, fileIV, encryptedName string) (string, error) {

	wrappedKey, err := base64.StdEncoding.DecodeString(encryptedSharedKey)
	if err != nil {
		return "", err
	}
	serializedKey, err := priv.Decrypt(wrappedKey)
	if err != nil {
		return "", err
	}
	fileKey, err := cryptox.ImportSymmetricKey(string(serializedKey))
	if err != nil {
		return "", err
	}
	defer fileKey.Wipe()
	common.WipeByteArray(serializedKey)

	iv, err := base64.StdEncoding.DecodeString(fileIV)
	if err != nil {
		return "", err
	}
	name, err := base64.StdEncoding.DecodeString(encryptedName)
	if err != nil {
		return "", err
	}

	return cryptox.DecryptName(name, fileKey, iv)
}
