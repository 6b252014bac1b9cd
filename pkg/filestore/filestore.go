package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Category names an independent storage namespace.
type Category string

// Known attachment categories.
const (
	CategoryActivities Category = "activities"
	CategoryOrders     Category = "orders"
)

var (
	// ErrExtensionNotAllowed indicates the original file name has no allowed extension.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrTooLarge indicates the payload exceeded the configured limit.
	ErrTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrNotFound indicates the stored file does not exist.
	ErrNotFound = errors.New("attachment not found")
	// ErrUnknownCategory indicates the category is not configured.
	ErrUnknownCategory = errors.New("unknown attachment category")
)

// allowedExtensions maps every accepted extension to the type it is served as.
var allowedExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"txt":  "text/plain",
}

// ContentTypeUnverified is served when the stored bytes do not match the file extension.
const ContentTypeUnverified = "application/octet-stream"

// Config describes where attachments are written.
type Config struct {
	Root       string
	MaxBytes   int64
	Categories []Category
}

// Attachment is an opened stored file.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Inline reports whether browsers may display the attachment in place.
func (a *Attachment) Inline() bool {
	for _, prefix := range []string{"image/", "application/pdf", "text/plain"} {
		if strings.HasPrefix(a.ContentType, prefix) {
			return true
		}
	}
	return false
}

// Store keeps uploaded files on the local filesystem, one directory per category.
type Store struct {
	root       string
	maxBytes   int64
	categories map[Category]string
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// New prepares the category directories and returns a ready store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("upload root must not be empty")
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []Category{CategoryActivities, CategoryOrders}
	}

	store := &Store{
		root:       cfg.Root,
		maxBytes:   cfg.MaxBytes,
		categories: make(map[Category]string, len(categories)),
		logger:     logger.With().Str("component", "filestore").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/engtrack/pkg/filestore"),
	}
	for _, category := range categories {
		dir := filepath.Join(cfg.Root, string(category))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
		store.categories[category] = dir
	}

	return store, nil
}

// Allowed reports whether the original file name carries an allowed extension.
func Allowed(filename string) bool {
	_, ok := allowedExtensions[extension(filename)]
	return ok
}

// Fits reports whether a payload of size bytes is within the configured limit.
func (s *Store) Fits(size int64) bool {
	return s.maxBytes <= 0 || size <= s.maxBytes
}

// Store writes the payload under a newly generated name "<prefix>_<uuid>.<ext>" and returns it.
func (s *Store) Store(ctx context.Context, category Category, prefix, originalName string, reader io.Reader) (string, error) {
	_, span := s.tracer.Start(ctx, "filestore.store")
	defer span.End()
	span.SetAttributes(
		attribute.String("filestore.category", string(category)),
		attribute.String("filestore.original_name", originalName),
	)

	dir, ok := s.categories[category]
	if !ok {
		span.RecordError(ErrUnknownCategory)
		span.SetStatus(codes.Error, "unknown category")
		return "", ErrUnknownCategory
	}
	if !Allowed(originalName) {
		span.RecordError(ErrExtensionNotAllowed)
		span.SetStatus(codes.Error, "extension not allowed")
		return "", ErrExtensionNotAllowed
	}

	name := fmt.Sprintf("%s_%s.%s", prefix, uuid.NewString(), extension(originalName))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return "", fmt.Errorf("failed to create attachment: %w", err)
	}

	source := reader
	if s.maxBytes > 0 {
		source = io.LimitReader(reader, s.maxBytes+1)
	}
	written, copyErr := io.Copy(file, source)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		span.RecordError(copyErr)
		span.SetStatus(codes.Error, "write failed")
		return "", fmt.Errorf("failed to write attachment: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		span.RecordError(closeErr)
		span.SetStatus(codes.Error, "close failed")
		return "", fmt.Errorf("failed to write attachment: %w", closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		_ = os.Remove(path)
		span.RecordError(ErrTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return "", ErrTooLarge
	}

	span.SetAttributes(attribute.String("filestore.stored_name", name), attribute.Int64("filestore.size_bytes", written))
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Str("category", string(category)).Str("stored_name", name).Int64("size_bytes", written).Msg("attachment stored")

	return name, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, category Category, name string) error {
	_, span := s.tracer.Start(ctx, "filestore.delete")
	defer span.End()
	span.SetAttributes(attribute.String("filestore.category", string(category)), attribute.String("filestore.stored_name", name))

	path, err := s.resolve(category, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove failed")
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	s.logger.Info().Str("category", string(category)).Str("stored_name", name).Msg("attachment deleted")
	return nil
}

// Open returns the stored file. Its content type follows the extension and is kept only
// when the sniffed bytes agree; otherwise ContentTypeUnverified is reported. The caller closes Body.
func (s *Store) Open(ctx context.Context, category Category, name string) (*Attachment, error) {
	_, span := s.tracer.Start(ctx, "filestore.open")
	defer span.End()

	path, err := s.resolve(category, name)
	if err != nil {
		return nil, err
	}
	declared, ok := allowedExtensions[extension(name)]
	if !ok {
		return nil, ErrNotFound
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, ErrNotFound
	}

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to detect attachment type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to rewind attachment: %w", err)
	}

	contentType := detected.String()
	if !detected.Is(declared) {
		s.logger.Warn().Str("category", string(category)).Str("stored_name", name).Str("detected", detected.String()).Str("expected", declared).Msg("attachment content does not match its extension")
		contentType = ContentTypeUnverified
	}

	span.SetAttributes(attribute.String("filestore.content_type", contentType))
	return &Attachment{
		Name:        name,
		ContentType: contentType,
		Size:        info.Size(),
		Body:        file,
	}, nil
}

// resolve maps a stored name to its path, refusing names that leave the category directory.
func (s *Store) resolve(category Category, name string) (string, error) {
	dir, ok := s.categories[category]
	if !ok {
		return "", ErrNotFound
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrNotFound
	}
	return filepath.Join(dir, name), nil
}

func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
