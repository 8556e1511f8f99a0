package main

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 5 * 1024 * 1024
const thumbWidth = 320

func isSupportedImageExt(name string) bool {
	// skip generated thumbnails so they are never reprocessed
	if strings.Contains(name, ".thumb.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// saveProductPhoto stores an uploaded image under UPLOAD_BASE/products with a
// timestamped name and renders a thumbnail next to it. Returns the stored
// file name.
func saveProductPhoto(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > maxPhotoSize {
		return "", fmt.Errorf("file too large (max 5MB)")
	}
	if !isSupportedImageExt(file.Filename) {
		return "", fmt.Errorf("unsupported image type")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	dir := filepath.Join(uploadBaseDir(), "products")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	full := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, full); err != nil {
		return "", err
	}
	// Thumbnail failures are non-fatal; the photo watcher picks the file up later.
	if err := writeThumbnail(full); err != nil {
		log.Printf("thumbnail failed for %s: %v", name, err)
	}
	return name, nil
}

// writeThumbnail renders a width-bounded copy next to the source image
// (name.thumb.ext).
func writeThumbnail(srcPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return err
	}
	if img.Bounds().Dx() > thumbWidth {
		img = imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	}
	return imaging.Save(img, thumbPath(srcPath))
}

func thumbPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + ".thumb" + ext
}
