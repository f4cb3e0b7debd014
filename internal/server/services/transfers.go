package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/dbx"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
	"github.com/dmitrijs2005/portalsend/internal/server/auth"
	sc "github.com/dmitrijs2005/portalsend/internal/server/config"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/transfers"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ciphertextAllowance covers the CBC padding and encoding overhead on top of
// the configured max plaintext size.
const ciphertextAllowance = 1 << 20

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type TransferService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
}

func NewTransferService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, log logging.Logger) *TransferService {
	return &TransferService{
		db:          db,
		repomanager: rm,
		config:      config,
		log:         log.With("module", "transfer_service"),
	}
}

func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *TransferService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *TransferService) getPresignedPutURL(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	// Presigned PUT
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *TransferService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	// Presigned GET
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// CreateFanout persists a whole fan-out in a single transaction: the shared
// key set, the file row, one wrapped key copy per accessor and the access
// rows granting each accessor their copy. The sender holds the single OWNER
// access; every recipient is a VIEWER. The file is born pending: recipients
// cannot see it until the sender confirms the upload.
func (s *TransferService) CreateFanout(ctx context.Context, sender *auth.Identity, req *envelope.FanoutRequest) (*envelope.FanoutTicket, error) {
	if req.EncryptedKeyForSelf == "" {
		return nil, fmt.Errorf("%w: no wrapped key for sender", common.ErrorValidation)
	}
	if len(req.RecipientKeys) == 0 {
		return nil, fmt.Errorf("%w: no recipient keys", common.ErrorValidation)
	}
	if req.EncryptedName == "" || req.FileIV == "" {
		return nil, fmt.Errorf("%w: missing encrypted file metadata", common.ErrorValidation)
	}
	seen := map[string]bool{sender.Email: true}
	for _, wk := range req.RecipientKeys {
		if wk.Email == "" || wk.EncryptedSharedKey == "" {
			return nil, fmt.Errorf("%w: incomplete recipient key", common.ErrorValidation)
		}
		if seen[wk.Email] {
			return nil, fmt.Errorf("%w: duplicate recipient %s", common.ErrorValidation, wk.Email)
		}
		seen[wk.Email] = true
	}

	storageKey, uploadURL, err := s.getPresignedPutURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("presigning upload: %w", err)
	}

	file := &models.File{
		Slug:          uuid.New().String(),
		SenderID:      sender.UserID,
		StorageKey:    storageKey,
		EncryptedName: req.EncryptedName,
		FileIV:        req.FileIV,
		UploadStatus:  models.UploadStatusPending,
	}

	type accessor struct {
		recipient      string
		encryptedKey   string
		permission     string
		originalSender bool
	}
	accessors := make([]accessor, 0, len(req.RecipientKeys)+1)
	accessors = append(accessors, accessor{
		recipient:      sender.Email,
		encryptedKey:   req.EncryptedKeyForSelf,
		permission:     models.PermissionOwner,
		originalSender: true,
	})
	for _, wk := range req.RecipientKeys {
		accessors = append(accessors, accessor{
			recipient:    wk.Email,
			encryptedKey: wk.EncryptedSharedKey,
			permission:   models.PermissionViewer,
		})
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transfers(tx)

		set, err := repo.CreateSharedKeySet(ctx)
		if err != nil {
			return err
		}
		file.SharedKeySetID = set.ID

		if _, err := repo.CreateFile(ctx, file); err != nil {
			return err
		}

		for _, a := range accessors {
			key := &models.SharedKey{
				SharedKeySetID:     set.ID,
				EncryptedSharedKey: a.encryptedKey,
			}
			if err := repo.CreateSharedKey(ctx, key); err != nil {
				return err
			}
			access := &models.FileAccess{
				FileID:         file.ID,
				SharedKeyID:    key.ID,
				Recipient:      a.recipient,
				Permission:     a.permission,
				OriginalSender: a.originalSender,
			}
			if err := repo.CreateFileAccess(ctx, access); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error creating fanout: %w", err)
	}

	s.log.Info(ctx, "fanout created", "slug", file.Slug, "recipients", len(req.RecipientKeys))

	return &envelope.FanoutTicket{
		Slug:           file.Slug,
		UploadURL:      uploadURL,
		MaxUploadBytes: s.config.MaxFileSizeBytes + ciphertextAllowance,
	}, nil
}

// MarkUploaded finalizes a pending upload. Only the sender may confirm.
func (s *TransferService) MarkUploaded(ctx context.Context, sender *auth.Identity, slug string) error {
	if err := s.repomanager.Transfers(s.db).MarkUploaded(ctx, slug, sender.UserID); err != nil {
		return err
	}

	s.log.Info(ctx, "upload confirmed", "slug", slug)
	return nil
}

// addressesFor lists every directory address the caller can receive under:
// their email plus each of their drops.
func (s *TransferService) addressesFor(ctx context.Context, caller *auth.Identity) ([]string, error) {
	addresses := []string{caller.Email}

	drops, err := s.repomanager.Filedrops(s.db).ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	for _, drop := range drops {
		addresses = append(addresses, drop.Address())
	}

	return addresses, nil
}

// resolveAddress checks that the caller may open files under the requested
// address. Empty means their email; a drop address must belong to a drop the
// caller owns. Claiming someone else's address reads the same as a missing
// file.
func (s *TransferService) resolveAddress(ctx context.Context, caller *auth.Identity, as string) (string, error) {
	if as == "" || as == caller.Email {
		return caller.Email, nil
	}

	addresses, err := s.addressesFor(ctx, caller)
	if err != nil {
		return "", err
	}
	for _, addr := range addresses {
		if addr == as {
			return as, nil
		}
	}

	return "", common.ErrorNotFound
}

// GetTransfer returns the caller's view of one file: the wrapped key copy
// for the address they open it as, the file IV and the encrypted name. A
// file can carry copies for several of the caller's addresses; the address
// pins down which one, so the copy always matches the private key the
// client will unwrap with. Callers without an access under that address get
// not found, indistinguishable from a file that does not exist.
func (s *TransferService) GetTransfer(ctx context.Context, caller *auth.Identity, slug, as string) (*envelope.Transfer, error) {
	address, err := s.resolveAddress(ctx, caller, as)
	if err != nil {
		return nil, err
	}

	view, err := s.repomanager.Transfers(s.db).GetForRecipient(ctx, slug, address)
	if err != nil {
		return nil, err
	}

	return &envelope.Transfer{
		Slug:              view.Slug,
		EncryptedKeyForMe: view.EncryptedSharedKey,
		FileIV:            view.FileIV,
		EncryptedName:     view.EncryptedName,
	}, nil
}

// PresignDownload returns a short-lived URL for the ciphertext, with the same
// access rule as GetTransfer.
func (s *TransferService) PresignDownload(ctx context.Context, caller *auth.Identity, slug, as string) (string, error) {
	address, err := s.resolveAddress(ctx, caller, as)
	if err != nil {
		return "", err
	}

	view, err := s.repomanager.Transfers(s.db).GetForRecipient(ctx, slug, address)
	if err != nil {
		return "", err
	}

	return s.getPresignedGetURL(ctx, view.StorageKey)
}

// List returns one page of the caller's files, newest first, with an opaque
// cursor for the next page. Direction filters to sent or received files;
// anything else means both.
func (s *TransferService) List(ctx context.Context, caller *auth.Identity, direction, cursor string, limit int) ([]models.FileListItem, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	filter := transfersFilter(direction, limit)
	if cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad cursor", common.ErrorValidation)
		}
		filter.BeforeCreatedAt = createdAt
		filter.BeforeID = id
	}

	addresses, err := s.addressesFor(ctx, caller)
	if err != nil {
		return nil, "", err
	}

	items, err := s.repomanager.Transfers(s.db).List(ctx, caller.UserID, addresses, filter)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) == limit {
		last := items[len(items)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}

	return items, next, nil
}

// SweepAbandoned removes pending files older than the configured TTL. Their
// presigned PUT URLs expired long ago; the rows are dead weight.
func (s *TransferService) SweepAbandoned(ctx context.Context) (int64, error) {
	olderThan := time.Now().Add(-s.config.PendingUploadTTL)

	swept, err := s.repomanager.Transfers(s.db).SweepAbandoned(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		s.log.Info(ctx, "abandoned uploads swept", "count", swept)
	}
	return swept, nil
}

func transfersFilter(direction string, limit int) (f transfers.ListFilter) {
	switch direction {
	case models.ListSent, models.ListReceived:
		f.Direction = direction
	default:
		f.Direction = models.ListAll
	}
	f.Limit = limit
	return f
}

func encodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}

	createdAtStr, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return time.Time{}, "", err
	}

	return createdAt, id, nil
}
