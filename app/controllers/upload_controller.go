package controllers

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/storage"
	"github.com/ManuelReschke/StreamFox/internal/pkg/upload"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

const (
	sniffLen      = 512
	uploadTimeout = 10 * time.Minute
)

// UploadController stores admin media uploads
type UploadController struct {
	store storage.Store
	now   func() time.Time
}

func NewUploadController(store storage.Store) *UploadController {
	return &UploadController{store: store, now: time.Now}
}

// HandleUpload accepts a multipart "file" and an optional "kind"
// (video|thumbnail) and returns the public URL of the stored object.
func (uc *UploadController) HandleUpload(c *fiber.Ctx) error {
	kind, ok := upload.ParseKind(c.FormValue("kind"))
	if !ok {
		return apperror.Respond(c, apperror.Validation("kind must be video or thumbnail"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperror.Respond(c, apperror.Validation("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to read upload", err))
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to read upload", err))
	}
	head = head[:n]

	contentType, err := upload.ValidateBySniff(kind, file.Filename, head)
	if err != nil {
		return apperror.Respond(c, apperror.Validation(err.Error()))
	}

	name := upload.StoredName(file.Filename, uc.now())
	body := io.MultiReader(bytes.NewReader(head), src)
	size := file.Size

	if kind == upload.KindThumbnail {
		resized, err := upload.ResizeThumbnail(body)
		if err != nil {
			return apperror.Respond(c, apperror.Validation("thumbnail could not be decoded"))
		}
		name = upload.JPEGName(name)
		contentType = "image/jpeg"
		body = bytes.NewReader(resized)
		size = int64(len(resized))
	}

	key, err := storage.ObjectKey(kind.Folder(), name)
	if err != nil {
		return apperror.Respond(c, apperror.Validation("invalid file name"))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), uploadTimeout)
	defer cancel()

	url, err := uc.store.Put(ctx, key, contentType, body, size)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to store upload", err))
	}

	log.Info().
		Uint("user_id", usercontext.GetUserID(c)).
		Str("key", key).
		Int64("size", size).
		Msg("admin upload stored")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
