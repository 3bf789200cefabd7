package handlers

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/teamshare/backend/internal/apperror"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/middleware"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/internal/services"
	"github.com/teamshare/backend/internal/storage"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
)

type FilesHandler struct {
	Files           docstore.Files
	Blobs           storage.BlobStore
	Panels          *PanelRegistry
	SignedURLExpiry time.Duration
}

func NewFilesHandler(files docstore.Files, blobs storage.BlobStore, panels *PanelRegistry, signedURLExpiry time.Duration) *FilesHandler {
	return &FilesHandler{Files: files, Blobs: blobs, Panels: panels, SignedURLExpiry: signedURLExpiry}
}

// panel returns the caller's panel for the team in the path. The current
// identity is pushed through the user's session first.
func (h *FilesHandler) panel(c *fiber.Ctx) (*services.FilePanel, string, error) {
	teamID := strings.TrimSpace(fiberutils.CopyString(c.Params("teamId")))
	if teamID == "" || strings.Contains(teamID, "/") {
		return nil, "", utils.Error(c, fiber.StatusBadRequest, "invalid team id")
	}

	current := middleware.GetCurrentIdentity(c)
	h.Panels.Session(current.ID).Set(current)
	return h.Panels.Panel(current.ID, teamID), current.ID, nil
}

func (h *FilesHandler) List(c *fiber.Ctx) error {
	panel, _, err := h.panel(c)
	if panel == nil {
		return err
	}

	records, err := panel.RefreshList(c.Context())
	if err != nil {
		// The last good list is still returned so clients keep showing it.
		return utils.ErrorWithData(c, statusForError(err), apperror.Message(err, "failed listing files"), panel.State().Files)
	}

	return utils.Success(c, fiber.StatusOK, records)
}

func (h *FilesHandler) Status(c *fiber.Ctx) error {
	panel, _, err := h.panel(c)
	if panel == nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, panel.State())
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	panel, userID, err := h.panel(c)
	if panel == nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}

	record, err := panel.UploadFile(c.Context(), services.UploadSource{
		Name:        filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Reader:      stream,
	})
	if err != nil {
		logger.WarnWithUser(userID, "file_upload_rejected", map[string]interface{}{
			"team_id":   panel.TeamID(),
			"file_name": filename,
			"error":     err.Error(),
		})
		return respondError(c, err, "failed uploading file")
	}

	return utils.Success(c, fiber.StatusCreated, record)
}

func (h *FilesHandler) CancelUpload(c *fiber.Ctx) error {
	panel, _, err := h.panel(c)
	if panel == nil {
		return err
	}
	if !panel.CancelUpload() {
		return utils.Error(c, fiber.StatusConflict, "no upload in progress")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"cancelled": true})
}

func (h *FilesHandler) loadFile(c *fiber.Ctx, teamID string, fileID uuid.UUID) (*models.FileRecord, error) {
	const op = "files.get"
	record, err := h.Files.Get(c.Context(), teamID, fileID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return nil, apperror.NotFound(op, "file", err)
	case err != nil:
		return nil, apperror.Store(op, "failed loading file", err)
	}
	return record, nil
}

// Download redirects to a freshly signed URL. The URL stored on the record may
// have expired by now.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	teamID := c.Params("teamId")
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	record, err := h.loadFile(c, teamID, fileID)
	if err != nil {
		return respondError(c, err, "failed loading file")
	}

	signedURL, err := h.Blobs.SignedURL(c.Context(), record.StoragePath, h.SignedURLExpiry)
	if err != nil {
		return utils.Error(c, fiber.StatusBadGateway, "failed generating download url")
	}

	if c.QueryBool("redirect", true) {
		return c.Redirect(signedURL, fiber.StatusFound)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": signedURL})
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	panel, userID, err := h.panel(c)
	if panel == nil {
		return err
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	record, err := h.loadFile(c, panel.TeamID(), fileID)
	if err != nil {
		return respondError(c, err, "failed loading file")
	}

	// Clients confirm by repeating the request with confirm=true.
	confirm := services.ConfirmFunc(func(context.Context, string) bool {
		return c.QueryBool("confirm")
	})
	result, err := panel.DeleteFile(c.Context(), fileID, record.StoragePath, confirm)
	if errors.Is(err, apperror.ErrNotConfirmed) {
		return utils.Error(c, fiber.StatusPreconditionRequired, services.DeletePrompt)
	}
	data := fiber.Map{
		"id":      fileID,
		"outcome": result.Outcome,
	}
	if result.BlobErr != nil {
		data["blobError"] = result.BlobErr.Error()
	}
	if result.MetadataErr != nil {
		data["metadataError"] = result.MetadataErr.Error()
	}

	if err != nil {
		logger.WarnWithUser(userID, "file_delete_incomplete", map[string]interface{}{
			"team_id": panel.TeamID(),
			"file_id": fileID.String(),
			"outcome": result.Outcome,
		})
		status := fiber.StatusMultiStatus
		if result.Outcome == services.DeleteUnchanged {
			status = fiber.StatusBadGateway
		}
		return utils.ErrorWithData(c, status, err.Error(), data)
	}

	logger.InfoWithUser(userID, "file_deleted", map[string]interface{}{
		"team_id": panel.TeamID(),
		"file_id": fileID.String(),
	})
	return utils.Success(c, fiber.StatusOK, data)
}
