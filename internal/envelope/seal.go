package envelope

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
	"github.com/dmitrijs2005/portalsend/internal/logging"
)

// Sender seals files: one fresh symmetric key per file, wrapped once per
// recipient under that recipient's public key, plus the sender's own copy.
type Sender struct {
	directory Directory
	transfers TransferStore
	blobs     BlobStore
	log       logging.Logger
}

func NewSender(directory Directory, transfers TransferStore, blobs BlobStore, log logging.Logger) *Sender {
	return &Sender{
		directory: directory,
		transfers: transfers,
		blobs:     blobs,
		log:       log.With("module", "envelope_sender"),
	}
}

// SendInput is everything a send needs. SenderPublicKey is the sender's own
// public key in interchange form; the sender is always an implicit recipient.
type SendInput struct {
	SenderEmail     string
	SenderPublicKey string
	Recipients      []string
	FileName        string
	Data            []byte
}

type SendResult struct {
	Slug string
}

// Send runs the fan-out protocol end to end: validate, resolve recipient
// keys (aborting on any missing one), wrap the fresh file key for everyone,
// encrypt content and name, persist the fan-out atomically, upload the
// ciphertext and finalize.
//
// No plaintext bytes, file name or unwrapped file key leave this function.
func (s *Sender) Send(ctx context.Context, in *SendInput) (*SendResult, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: no file content", common.ErrorValidation)
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("%w: no file name", common.ErrorValidation)
	}
	if len(in.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", common.ErrorValidation)
	}
	if in.SenderPublicKey == "" {
		return nil, common.ErrorKeysNotSetUp
	}

	recipients := dedupe(in.Recipients, in.SenderEmail)
	if len(recipients) == 0 {
		// Every entry was the sender's own address. Refuse before any
		// key lookup or ciphertext is produced; the sender's copy only
		// ever rides along with a real fan-out.
		return nil, fmt.Errorf("%w: no recipients besides the sender", common.ErrorValidation)
	}

	found, err := s.directory.LookupPublicKeys(ctx, recipients)
	if err != nil {
		return nil, fmt.Errorf("looking up recipient keys: %w", err)
	}

	var missing []string
	byEmail := make(map[string]string, len(found))
	for _, rk := range found {
		if rk.PublicKey == "" {
			missing = append(missing, rk.Email)
			continue
		}
		byEmail[rk.Email] = rk.PublicKey
	}
	for _, email := range recipients {
		if _, ok := byEmail[email]; !ok && !contains(missing, email) {
			missing = append(missing, email)
		}
	}
	if len(missing) > 0 {
		// Abort before any ciphertext is produced.
		return nil, &MissingRecipientsError{Emails: missing}
	}

	fileKey := cryptox.NewSymmetricKey()
	defer fileKey.Wipe()

	serializedKey, err := cryptox.ExportSymmetricKey(fileKey)
	if err != nil {
		return nil, err
	}

	// Per-recipient wraps are independent; run them concurrently and
	// gather all results before moving on.
	wrapped := make([]WrappedKey, len(recipients))
	var selfWrapped string

	g, gctx := errgroup.WithContext(ctx)
	for i, email := range recipients {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ct, err := wrapForPublicKey(byEmail[email], serializedKey)
			if err != nil {
				return fmt.Errorf("wrapping key for %s: %w", email, err)
			}
			wrapped[i] = WrappedKey{Email: email, EncryptedSharedKey: ct}
			return nil
		})
	}
	g.Go(func() error {
		ct, err := wrapForPublicKey(in.SenderPublicKey, serializedKey)
		if err != nil {
			return fmt.Errorf("wrapping key for sender: %w", err)
		}
		selfWrapped = ct
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	iv := cryptox.NewFileIV()
	encryptedName, err := cryptox.EncryptName(in.FileName, fileKey, iv)
	if err != nil {
		return nil, err
	}
	ciphertext, err := cryptox.EncryptBytes(in.Data, fileKey, iv)
	if err != nil {
		return nil, err
	}

	ticket, err := s.transfers.CreateFanout(ctx, &FanoutRequest{
		EncryptedKeyForSelf: selfWrapped,
		RecipientKeys:       wrapped,
		EncryptedName:       base64.StdEncoding.EncodeToString(encryptedName),
		FileIV:              base64.StdEncoding.EncodeToString(iv),
	})
	if err != nil {
		return nil, fmt.Errorf("creating fan-out: %w", err)
	}
	if ticket.MaxUploadBytes > 0 && int64(len(ciphertext)) > ticket.MaxUploadBytes {
		return nil, fmt.Errorf("%w: encrypted file exceeds %d bytes", common.ErrorValidation, ticket.MaxUploadBytes)
	}

	if err := s.blobs.Upload(ctx, ticket.UploadURL, ciphertext); err != nil {
		// The pending file row stays invisible and sweepable.
		return nil, fmt.Errorf("uploading ciphertext: %w", err)
	}
	if err := s.transfers.MarkUploaded(ctx, ticket.Slug); err != nil {
		return nil, fmt.Errorf("finalizing upload: %w", err)
	}

	s.log.Info(ctx, "file sealed and sent", "slug", ticket.Slug, "recipients", len(recipients))
	return &SendResult{Slug: ticket.Slug}, nil
}

func wrapForPublicKey(serializedPublicKey, serializedFileKey string) (string, error) {
	pub, err := cryptox.ImportPublicKey(serializedPublicKey)
	if err != nil {
		return "", err
	}
	ct, err := pub.Encrypt([]byte(serializedFileKey))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// dedupe drops repeated recipients and the sender's own address (the sender
// gets their copy through EncryptedKeyForSelf).
func dedupe(recipients []string, senderEmail string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r == senderEmail {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
