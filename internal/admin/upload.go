package admin

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SpiceKart/pkg/kit"
)

const DefaultMaxUploadBytes = 2 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Uploader stores product images under Dir and answers with the public URL.
// Only jpeg and png are accepted, judged by content rather than the
// client-declared type.
type Uploader struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
	Log       *zap.Logger
	Now       func() time.Time
}

func (u *Uploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	max := u.MaxBytes
	if max <= 0 {
		max = DefaultMaxUploadBytes
	}

	// Headroom for multipart boundaries and the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, max+64<<10)
	if err := r.ParseMultipartForm(max); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "file too large", map[string]any{"max_bytes": max})
			return
		}
		kit.WriteError(w, r, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	defer file.Close()

	if header.Size > max {
		kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "file too large", map[string]any{"max_bytes": max})
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		kit.WriteError(w, r, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	ext, ok := imageExt[http.DetectContentType(head[:n])]
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "Only jpg/png images allowed", nil)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		u.fail(w, r, err)
		return
	}

	name := fmt.Sprintf("%d-%s%s", u.now().UnixMilli(), uuid.NewString(), ext)
	if err := u.save(name, file); err != nil {
		u.fail(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     strings.TrimRight(u.URLPrefix, "/") + "/" + name,
	})
}

func (u *Uploader) save(name string, src io.Reader) error {
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(u.Dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func (u *Uploader) fail(w http.ResponseWriter, r *http.Request, err error) {
	if u.Log != nil {
		u.Log.Error("image upload failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "upload failed", nil)
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}
