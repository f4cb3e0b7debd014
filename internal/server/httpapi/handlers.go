package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/server/auth"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

// maxRequestBody bounds JSON request bodies. Wrapped keys and encrypted
// names are small; ciphertext goes straight to object storage, never here.
const maxRequestBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	return nil
}

type keyMaterialPayload struct {
	PublicKey               string `json:"public_key"`
	EncryptedPrivateKey     string `json:"encrypted_private_key"`
	EncryptedPrivateKeyIV   string `json:"encrypted_private_key_iv"`
	EncryptedPrivateKeySalt string `json:"encrypted_private_key_salt"`
}

func (p keyMaterialPayload) toRecord() models.KeyRecord {
	return models.KeyRecord{
		PublicKey:               p.PublicKey,
		EncryptedPrivateKey:     p.EncryptedPrivateKey,
		EncryptedPrivateKeyIV:   p.EncryptedPrivateKeyIV,
		EncryptedPrivateKeySalt: p.EncryptedPrivateKeySalt,
	}
}

func keyMaterialFromRecord(keys models.KeyRecord) keyMaterialPayload {
	return keyMaterialPayload{
		PublicKey:               keys.PublicKey,
		EncryptedPrivateKey:     keys.EncryptedPrivateKey,
		EncryptedPrivateKeyIV:   keys.EncryptedPrivateKeyIV,
		EncryptedPrivateKeySalt: keys.EncryptedPrivateKeySalt,
	}
}

func (s *Server) handleSetupKeys(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var payload keyMaterialPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	if err := s.keys.SetupKeys(r.Context(), caller.UserID, payload.toRecord()); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetKeys(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	keys, err := s.keys.GetKeys(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, keyMaterialFromRecord(*keys))
}

func (s *Server) handleResetKeys(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var payload keyMaterialPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	if err := s.keys.ResetKeys(r.Context(), caller.UserID, payload.toRecord()); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type lookupRequest struct {
	Addresses []string `json:"addresses"`
}

type lookupEntry struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key,omitempty"`
}

type lookupResponse struct {
	Keys []lookupEntry `json:"keys"`
}

func (s *Server) handleLookupKeys(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var req lookupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, r, s.logger, fmt.Errorf("%w: no addresses", common.ErrorValidation))
		return
	}

	rows, err := s.keys.LookupPublicKeys(r.Context(), req.Addresses)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	resp := lookupResponse{Keys: make([]lookupEntry, len(rows))}
	for i, row := range rows {
		resp.Keys[i] = lookupEntry{Address: row.Address, PublicKey: row.PublicKey}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFanout(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var req envelope.FanoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	ticket, err := s.transfers.CreateFanout(r.Context(), caller, &req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleMarkUploaded(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	if err := s.transfers.MarkUploaded(r.Context(), caller, r.PathValue("slug")); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	transfer, err := s.transfers.GetTransfer(r.Context(), caller, r.PathValue("slug"), r.URL.Query().Get("as"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, transfer)
}

type downloadResponse struct {
	SignedURL string `json:"signed_url"`
}

func (s *Server) handlePresignDownload(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	url, err := s.transfers.PresignDownload(r.Context(), caller, r.PathValue("slug"), r.URL.Query().Get("as"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{SignedURL: url})
}

type listItemPayload struct {
	Slug               string    `json:"slug"`
	Direction          string    `json:"direction"`
	EncryptedName      string    `json:"encrypted_filename"`
	FileIV             string    `json:"iv"`
	EncryptedSharedKey string    `json:"shared_key_encrypted_for_me"`
	CreatedAt          time.Time `json:"created_at"`
}

type listResponse struct {
	Files      []listItemPayload `json:"files"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, s.logger, fmt.Errorf("%w: bad limit", common.ErrorValidation))
			return
		}
		limit = parsed
	}

	items, next, err := s.transfers.List(r.Context(), caller, q.Get("direction"), q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	resp := listResponse{Files: make([]listItemPayload, len(items)), NextCursor: next}
	for i, item := range items {
		resp.Files[i] = listItemPayload{
			Slug:               item.Slug,
			Direction:          item.Direction,
			EncryptedName:      item.EncryptedName,
			FileIV:             item.FileIV,
			EncryptedSharedKey: item.EncryptedSharedKey,
			CreatedAt:          item.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type createFiledropRequest struct {
	DisplayName string             `json:"display_name"`
	Keys        keyMaterialPayload `json:"keys"`
}

type filedropPayload struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	PublicKey   string `json:"public_key"`

	// Keys is present only when the caller owns the drop; it carries the
	// wrapped private key the owner needs to open received files.
	Keys *keyMaterialPayload `json:"keys,omitempty"`
}

func (s *Server) handleCreateFiledrop(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	var req createFiledropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	drop, err := s.keys.CreateFiledrop(r.Context(), caller.UserID, req.DisplayName, req.Keys.toRecord())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, filedropPayload{
		Slug:        drop.Slug,
		DisplayName: drop.DisplayName,
		PublicKey:   drop.PublicKey,
	})
}

func (s *Server) handleGetFiledrop(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	drop, err := s.keys.GetFiledrop(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	payload := filedropPayload{
		Slug:        drop.Slug,
		DisplayName: drop.DisplayName,
		PublicKey:   drop.PublicKey,
	}
	if drop.OwnerID == caller.UserID {
		keys := keyMaterialFromRecord(drop.KeyRecord)
		payload.Keys = &keys
	}

	writeJSON(w, http.StatusOK, payload)
}

type listFiledropsResponse struct {
	Filedrops []filedropPayload `json:"filedrops"`
}

func (s *Server) handleListFiledrops(w http.ResponseWriter, r *http.Request, caller *auth.Identity) {
	drops, err := s.keys.ListFiledrops(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	resp := listFiledropsResponse{Filedrops: make([]filedropPayload, len(drops))}
	for i, drop := range drops {
		resp.Filedrops[i] = filedropPayload{
			Slug:        drop.Slug,
			DisplayName: drop.DisplayName,
			PublicKey:   drop.PublicKey,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
