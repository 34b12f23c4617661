package asset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/httpx"
	"github.com/vectorforge/canvas/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler stores uploaded bitmaps as PNG files and serves them back. The
// response is a document.Asset the client adds to its document before placing
// a bitmap layer that references it.
type Handler struct {
	dir    string
	logger *zap.Logger
}

func NewHandler(dir string, logger *zap.Logger) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Handler{dir: dir, logger: logger}, nil
}

// Upload handles POST /assets/upload (multipart form with a "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	// Sniff the decoder rather than trusting the part's Content-Type.
	img, format, err := image.Decode(file)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "only PNG and JPEG images are supported")
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	path := filepath.Join(h.dir, filename)

	if err := writePNG(path, img); err != nil {
		h.logger.Error("store asset", zap.Error(err), zap.String("asset", assetID))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	bounds := img.Bounds()
	h.logger.Info("asset uploaded",
		zap.String("asset", assetID),
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()))

	httpx.WriteJSON(w, http.StatusCreated, document.Asset{
		ID:     assetID,
		Type:   "png",
		Name:   header.Filename,
		URL:    "/assets/" + filename,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	})
}

// Serve returns a handler for stored files. Asset ids are unique, so responses
// are cached as immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}
