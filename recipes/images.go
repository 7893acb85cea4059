package recipes

import (
	"context"
	"fmt"
	"log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// MaxImageBytes caps an uploaded recipe image.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// sniffImage detects the content type from the magic bytes, ignoring whatever
// the client claimed, and returns the matching file extension.
func sniffImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", apperror.NewValidationError("image is empty", nil)
	}
	if len(data) > MaxImageBytes {
		return "", "", apperror.NewValidationError("image must be at most 5 MiB", nil)
	}
	contentType = mimetype.Detect(data).String()
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", apperror.NewValidationError(fmt.Sprintf("unsupported image type %s (use jpeg, png or webp)", contentType), nil)
	}
	return contentType, ext, nil
}

func imageKey(recipeID int, ext string) string {
	return fmt.Sprintf("recipes/%d/%s.%s", recipeID, uuid.NewString(), ext)
}

// SetImage uploads a new image for the recipe and removes the previous one.
// Only the author may do this.
func (s *RecipeService) SetImage(ctx context.Context, userID, recipeID int, data []byte, _ string) (*ImageResponse, error) {
	if s.Images == nil {
		return nil, apperror.NewUnavailableError("image storage is not configured")
	}
	if err := requireOwner(ctx, s.db, userID, recipeID); err != nil {
		return nil, err
	}
	contentType, ext, err := sniffImage(data)
	if err != nil {
		return nil, err
	}

	key := imageKey(recipeID, ext)
	if err := s.Images.Upload(ctx, key, data, contentType); err != nil {
		return nil, apperror.NewExternalServiceError("failed to upload image", err)
	}

	var previous *string
	err = s.db.QueryRow(ctx, `
		UPDATE recipes r SET image_key = $1, updated_at = NOW()
		FROM (SELECT image_key FROM recipes WHERE id = $2) old
		WHERE r.id = $2
		RETURNING old.image_key`, key, recipeID).Scan(&previous)
	if err != nil {
		s.removeImage(ctx, &key)
		return nil, apperror.NewDatabaseError("failed to store image key", err)
	}
	s.removeImage(ctx, previous)

	return &ImageResponse{ImageURL: s.Images.URL(key)}, nil
}

// removeImage deletes a stored object, best effort. Absolute URLs are not ours.
func (s *RecipeService) removeImage(ctx context.Context, key *string) {
	if s.Images == nil || key == nil || *key == "" || isExternal(*key) {
		return
	}
	if err := s.Images.Remove(ctx, *key); err != nil {
		log.Printf("Warning: failed to remove image %s: %v", *key, err)
	}
}
