package envelope

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
	"github.com/dmitrijs2005/portalsend/internal/logging"
)

// Receiver runs the unwrap/decrypt pipeline for received files, reporting
// progress through an optional StageFunc.
type Receiver struct {
	transfers TransferStore
	blobs     BlobStore
	log       logging.Logger
	onStage   StageFunc
}

func NewReceiver(transfers TransferStore, blobs BlobStore, log logging.Logger, onStage StageFunc) *Receiver {
	return &Receiver{
		transfers: transfers,
		blobs:     blobs,
		log:       log.With("module", "envelope_receiver"),
		onStage:   onStage,
	}
}

// OpenInput identifies one file and carries what this recipient needs to
// unlock it: the master password and their stored key record. Address is the
// directory address the file was wrapped for; empty means the caller's
// primary address. Keys must belong to that address or the shared-key unwrap
// fails.
type OpenInput struct {
	Slug     string
	Address  string
	Password []byte
	Keys     *KeyMaterial
}

// OpenResult is the recovered plaintext. It stays on the client; nothing in
// the pipeline re-uploads it.
type OpenResult struct {
	Name string
	Data []byte
}

// Open runs the receive pipeline: fetch this recipient's wrapped key and the
// file metadata, unwrap the private key (halting on a wrong password before
// any ciphertext is fetched), recover the file key, download and decrypt.
func (r *Receiver) Open(ctx context.Context, in *OpenInput) (*OpenResult, error) {
	if in.Slug == "" {
		return nil, fmt.Errorf("%w: no file slug", common.ErrorValidation)
	}
	if len(in.Password) == 0 {
		return nil, fmt.Errorf("%w: no password", common.ErrorValidation)
	}
	if !in.Keys.Complete() {
		return nil, common.ErrorKeysNotSetUp
	}

	r.setStage(StageFetchingKeys)
	transfer, err := r.transfers.GetTransfer(ctx, in.Slug, in.Address)
	if err != nil {
		return nil, fmt.Errorf("fetching file keys: %w", err)
	}

	wrappedPriv, err := base64.StdEncoding.DecodeString(in.Keys.EncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decoding wrapped private key: %w", err)
	}
	vaultIV, err := base64.StdEncoding.DecodeString(in.Keys.EncryptedPrivateKeyIV)
	if err != nil {
		return nil, fmt.Errorf("decoding vault iv: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(in.Keys.EncryptedPrivateKeySalt)
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}

	r.setStage(StageDecryptingPrivateKey)
	priv, err := cryptox.UnwrapPrivateKey(wrappedPriv, in.Password, salt, vaultIV)
	if err != nil {
		if errors.Is(err, cryptox.ErrIncorrectPassword) {
			// Terminal for this attempt. The ciphertext is never
			// fetched on a failed unlock.
			r.setStage(StageFailed)
		}
		return nil, err
	}

	r.setStage(StageDecryptingSharedKey)
	wrappedFileKey, err := base64.StdEncoding.DecodeString(transfer.EncryptedKeyForMe)
	if err != nil {
		return nil, fmt.Errorf("decoding shared key: %w", err)
	}
	serializedFileKey, err := priv.Decrypt(wrappedFileKey)
	if err != nil {
		return nil, fmt.Errorf("unwrapping shared key: %w", err)
	}
	fileKey, err := cryptox.ImportSymmetricKey(string(serializedFileKey))
	if err != nil {
		return nil, fmt.Errorf("importing shared key: %w", err)
	}
	defer fileKey.Wipe()
	common.WipeByteArray(serializedFileKey)

	fileIV, err := base64.StdEncoding.DecodeString(transfer.FileIV)
	if err != nil {
		return nil, fmt.Errorf("decoding file iv: %w", err)
	}
	encryptedName, err := base64.StdEncoding.DecodeString(transfer.EncryptedName)
	if err != nil {
		return nil, fmt.Errorf("decoding file name: %w", err)
	}

	r.setStage(StageDownloadingCiphertext)
	url, err := r.transfers.PresignDownload(ctx, in.Slug, in.Address)
	if err != nil {
		return nil, fmt.Errorf("requesting download url: %w", err)
	}
	ciphertext, err := r.blobs.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("downloading ciphertext: %w", err)
	}

	r.setStage(StageDecryptingFile)
	data, err := cryptox.DecryptBytes(ciphertext, fileKey, fileIV)
	if err != nil {
		return nil, fmt.Errorf("decrypting file: %w", err)
	}
	name, err := cryptox.DecryptName(encryptedName, fileKey, fileIV)
	if err != nil {
		return nil, fmt.Errorf("decrypting file name: %w", err)
	}

	r.setStage(StageDone)
	r.log.Info(ctx, "file opened", "slug", in.Slug, "size", len(data))
	return &OpenResult{Name: name, Data: data}, nil
}

func (r *Receiver) setStage(stage Stage) {
	if r.onStage != nil {
		r.onStage(stage)
	}
}
