package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/dbx"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/filedrops"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/transfers"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/users"
)

// In-memory repositories. The manager hands out the same instances whatever
// handle it is given, so transactional and plain paths hit the same state.
type fakeRepoManager struct {
	users     *fakeUsersRepo
	drops     *fakeDropsRepo
	transfers *fakeTransfersRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:     &fakeUsersRepo{byID: make(map[string]*models.User)},
		drops:     &fakeDropsRepo{},
		transfers: &fakeTransfersRepo{},
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return m.users }
func (m *fakeRepoManager) Filedrops(db dbx.DBTX) filedrops.Repository { return m.drops }
func (m *fakeRepoManager) Transfers(db dbx.DBTX) transfers.Repository { return m.transfers }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeUsersRepo struct {
	byID map[string]*models.User
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) Create(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{ID: "u-" + email, Email: email, CreatedAt: time.Now()}
	r.byID[user.ID] = user
	return user, nil
}

func (r *fakeUsersRepo) SetKeys(ctx context.Context, id string, keys models.KeyRecord) error {
	user, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	user.KeyRecord = keys
	return nil
}

func (r *fakeUsersRepo) LookupPublicKeys(ctx context.Context, emails []string) ([]models.PublicKeyLookup, error) {
	result := make([]models.PublicKeyLookup, len(emails))
	for i, email := range emails {
		result[i] = models.PublicKeyLookup{Address: email}
		for _, user := range r.byID {
			if user.Email == email {
				result[i].PublicKey = user.PublicKey
			}
		}
	}
	return result, nil
}

type fakeDropsRepo struct {
	drops []*models.Filedrop
}

func (r *fakeDropsRepo) Create(ctx context.Context, drop *models.Filedrop) (*models.Filedrop, error) {
	drop.ID = "d-" + drop.Slug
	drop.CreatedAt = time.Now()
	r.drops = append(r.drops, drop)
	return drop, nil
}

func (r *fakeDropsRepo) GetBySlug(ctx context.Context, slug string) (*models.Filedrop, error) {
	for _, drop := range r.drops {
		if drop.Slug == slug {
			return drop, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeDropsRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Filedrop, error) {
	var out []*models.Filedrop
	for _, drop := range r.drops {
		if drop.OwnerID == ownerID {
			out = append(out, drop)
		}
	}
	return out, nil
}

func (r *fakeDropsRepo) LookupPublicKeys(ctx context.Context, slugs []string) ([]models.PublicKeyLookup, error) {
	result := make([]models.PublicKeyLookup, len(slugs))
	for i, slug := range slugs {
		result[i] = models.PublicKeyLookup{Address: common.DropAddressPrefix + slug}
		for _, drop := range r.drops {
			if drop.Slug == slug {
				result[i].PublicKey = drop.PublicKey
			}
		}
	}
	return result, nil
}

type fakeTransfersRepo struct {
	sets       []*models.SharedKeySet
	files      []*models.File
	sharedKeys []*models.SharedKey
	accesses   []*models.FileAccess

	markedSlug   string
	markedSender string
	sweptBefore  time.Time

	listItems  []models.FileListItem
	listFilter transfers.ListFilter
	listAddrs  []string

	failCreateSharedKey bool
}

func (r *fakeTransfersRepo) CreateSharedKeySet(ctx context.Context) (*models.SharedKeySet, error) {
	set := &models.SharedKeySet{
		ID:        fmt.Sprintf("set-%d", len(r.sets)+1),
		CreatedAt: time.Now(),
	}
	r.sets = append(r.sets, set)
	return set, nil
}

func (r *fakeTransfersRepo) CreateFile(ctx context.Context, file *models.File) (*models.File, error) {
	file.ID = "f-" + file.Slug
	file.CreatedAt = time.Now()
	r.files = append(r.files, file)
	return file, nil
}

func (r *fakeTransfersRepo) CreateSharedKey(ctx context.Context, key *models.SharedKey) error {
	if r.failCreateSharedKey {
		return common.ErrorInternal
	}
	key.ID = fmt.Sprintf("sk-%d", len(r.sharedKeys)+1)
	r.sharedKeys = append(r.sharedKeys, key)
	return nil
}

func (r *fakeTransfersRepo) CreateFileAccess(ctx context.Context, access *models.FileAccess) error {
	access.ID = fmt.Sprintf("fa-%d", len(r.accesses)+1)
	r.accesses = append(r.accesses, access)
	return nil
}

func (r *fakeTransfersRepo) MarkUploaded(ctx context.Context, slug, senderID string) error {
	r.markedSlug = slug
	r.markedSender = senderID
	for _, file := range r.files {
		if file.Slug == slug && file.SenderID == senderID {
			file.UploadStatus = models.UploadStatusUploaded
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r *fakeTransfersRepo) GetForRecipient(ctx context.Context, slug, address string) (*models.TransferView, error) {
	for _, file := range r.files {
		if file.Slug != slug || file.UploadStatus != models.UploadStatusUploaded {
			continue
		}
		for _, access := range r.accesses {
			if access.FileID != file.ID || access.Recipient != address {
				continue
			}
			for _, key := range r.sharedKeys {
				if key.ID != access.SharedKeyID {
					continue
				}
				return &models.TransferView{
					Slug:               file.Slug,
					SenderID:           file.SenderID,
					StorageKey:         file.StorageKey,
					EncryptedSharedKey: key.EncryptedSharedKey,
					FileIV:             file.FileIV,
					EncryptedName:      file.EncryptedName,
					UploadStatus:       file.UploadStatus,
				}, nil
			}
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTransfersRepo) List(ctx context.Context, callerID string, addresses []string, filter transfers.ListFilter) ([]models.FileListItem, error) {
	r.listFilter = filter
	r.listAddrs = addresses
	return r.listItems, nil
}

func (r *fakeTransfersRepo) SweepAbandoned(ctx context.Context, olderThan time.Time) (int64, error) {
	r.sweptBefore = olderThan
	return 2, nil
}
