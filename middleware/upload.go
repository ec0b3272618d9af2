package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/blogpub/utils"
)

const uploadedFileKey = "uploaded_file"

// ImageExtensions lists the file extensions accepted for publication images.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// UploadedFile is a file stored by Uploader for the current request.
type UploadedFile struct {
	Name string // stored filename, <uuid><ext>
	Path string
}

// Uploader stores one multipart file per request under dir.
type Uploader struct {
	dir        string
	maxBytes   int64
	extensions map[string]struct{}
}

// NewUploader accepts files up to maxMB megabytes with one of the given
// extensions.
func NewUploader(dir string, maxMB int, extensions []string) *Uploader {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Uploader{dir: dir, maxBytes: int64(max(maxMB, 1)) << 20, extensions: exts}
}

// Single stores the file sent in field. A request without the file, or one
// that is not multipart, passes through untouched so later validation can
// report the missing field.
func (u *Uploader) Single(field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// leave headroom for the other form fields
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxBytes+1<<20)

		header, err := c.FormFile(field)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
				c.Next()
			case errors.As(err, &tooLarge):
				utils.Error(c, http.StatusBadRequest, u.tooLargeMessage(field))
				c.Abort()
			default:
				utils.Error(c, http.StatusBadRequest, "invalid multipart body")
				c.Abort()
			}
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if _, ok := u.extensions[ext]; !ok {
			utils.Error(c, http.StatusBadRequest, fmt.Sprintf("%s must be one of: %s", field, strings.Join(ImageExtensions, ", ")))
			c.Abort()
			return
		}
		if header.Size > u.maxBytes {
			utils.Error(c, http.StatusBadRequest, u.tooLargeMessage(field))
			c.Abort()
			return
		}

		name := uuid.NewString() + ext
		dst := filepath.Join(u.dir, name)
		if err := os.MkdirAll(u.dir, 0o755); err != nil {
			utils.ServerError(c, "error storing upload", err)
			c.Abort()
			return
		}
		if err := c.SaveUploadedFile(header, dst); err != nil {
			utils.ServerError(c, "error storing upload", err)
			c.Abort()
			return
		}

		c.Set(uploadedFileKey, UploadedFile{Name: name, Path: dst})
		c.Next()
	}
}

func (u *Uploader) tooLargeMessage(field string) string {
	return fmt.Sprintf("%s must be at most %d MB", field, u.maxBytes>>20)
}

// UploadedFileFrom returns the file stored for this request, if any.
func UploadedFileFrom(c *gin.Context) (UploadedFile, bool) {
	v, ok := c.Get(uploadedFileKey)
	if !ok {
		return UploadedFile{}, false
	}
	f, ok := v.(UploadedFile)
	return f, ok
}

// RemoveUploadedFile deletes the file stored for this request. It is a no-op
// when nothing was stored.
func RemoveUploadedFile(c *gin.Context) {
	f, ok := UploadedFileFrom(c)
	if !ok {
		return
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		utils.Sugar.Warnf("failed to remove upload %s: %v", f.Path, err)
	}
	c.Set(uploadedFileKey, nil)
}
