package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/google/uuid"

	_ "golang.org/x/image/webp"
)

// Limit uploads to 10 MiB. Plenty for a food photo.
const maxImageBytes = 10 << 20

// Processor validates uploaded images, derives their blurhash placeholder,
// and stores them under a random filename.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Result describes a stored image.
type Result struct {
	Filename string
	BlurHash string
}

// Process decodes the uploaded bytes, computes a blurhash, and saves the
// original data under a random UUID filename. JPEG, PNG, and WebP are
// accepted; anything else fails to decode.
func (p *Processor) Process(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxImageBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, img)
	if err != nil {
		return nil, fmt.Errorf("compute blurhash: %w", err)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	filename := fmt.Sprintf("%s.%s", uuid.New().String(), ext)

	if err := p.storage.Save(filename, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	p.logger.Debug("stored recipe image",
		"filename", filename,
		"format", format,
		"size", len(data),
	)

	return &Result{Filename: filename, BlurHash: hash}, nil
}

// ContentType maps a stored filename to its MIME type.
func ContentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
