// Package asset manages the single-slot admin uploads (resume and profile
// image). Each kind holds at most one retrievable record; a new upload
// replaces the previous one.
package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/Saikiran-Avusula/portfolio/internal/blob"
	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

const manifestName = "current.json"

// File is an incoming upload. Size and ContentType are what the client
// declared; both are checked before the body is read.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Record is the metadata of the stored asset.
type Record struct {
	Kind        string    `json:"kind"`
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"url"`
	DownloadURL string    `json:"downloadUrl"`
	UploadedAt  time.Time `json:"uploadDate"`
	Pages       int       `json:"pages,omitempty"`
}

type Service struct {
	kind      Kind
	store     blob.Store
	log       logger.ILogger
	routeBase string
	now       func() time.Time
	newID     func() string
}

// NewService serves one kind. routeBase is the path prefix under which the
// server streams asset content, e.g. "/assets".
func NewService(kind Kind, store blob.Store, log logger.ILogger, routeBase string) *Service {
	return &Service{
		kind:      kind,
		store:     store,
		log:       log,
		routeBase: strings.TrimSuffix(routeBase, "/"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

func (s *Service) Kind() Kind {
	return s.kind
}

// Upload validates f and makes it the current record. The new content is
// written under a fresh key, the manifest write commits it, and only then is
// the previous content removed. A failed removal of the old content is logged
// and ignored.
func (s *Service) Upload(ctx context.Context, f File) (*Record, error) {
	data, contentType, err := s.validate(f)
	if err != nil {
		return nil, err
	}

	prev, err := s.readManifest(ctx)
	if err != nil {
		s.log.Warn("asset", "could not read current manifest, previous content will not be cleaned up", map[string]interface{}{
			"kind":  s.kind.Slot,
			"error": err.Error(),
		})
		prev = nil
	}

	key := fmt.Sprintf("%s/%s%s", s.kind.Slot, s.newID(), extensionFor(contentType, f.Name))
	if _, err := s.store.Put(ctx, key, contentType, data); err != nil {
		s.log.Error("asset", "failed to store asset content", map[string]interface{}{"kind": s.kind.Slot, "error": err})
		return nil, &TransportError{Op: "upload", Err: err}
	}

	rec := &Record{
		Kind:        s.kind.Slot,
		Key:         key,
		FileName:    f.Name,
		FileSize:    int64(len(data)),
		ContentType: contentType,
		UploadedAt:  s.now().UTC(),
	}
	if s.kind.CountPages {
		rec.Pages = countPDFPages(data)
	}

	if err := s.writeManifest(ctx, rec); err != nil {
		s.log.Error("asset", "failed to commit asset manifest", map[string]interface{}{"kind": s.kind.Slot, "error": err})
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("asset", "failed to remove uncommitted content", map[string]interface{}{"key": key, "error": delErr.Error()})
		}
		return nil, &TransportError{Op: "upload", Err: err}
	}

	if prev != nil && prev.Key != key {
		if err := s.store.Delete(ctx, prev.Key); err != nil {
			s.log.Warn("asset", "failed to delete previous content", map[string]interface{}{"key": prev.Key, "error": err.Error()})
		}
	}

	s.log.Info("asset", "asset replaced", map[string]interface{}{
		"kind": s.kind.Slot,
		"key":  key,
		"size": rec.FileSize,
	})
	s.decorate(rec)
	return rec, nil
}

// Get returns the current record, or nil when nothing has been uploaded.
func (s *Service) Get(ctx context.Context) (*Record, error) {
	rec, err := s.readManifest(ctx)
	if err != nil {
		return nil, &TransportError{Op: "get", Err: err}
	}
	if rec != nil {
		s.decorate(rec)
	}
	return rec, nil
}

// Open returns the current record with its content. A manifest that points at
// missing content is reported as absent.
func (s *Service) Open(ctx context.Context) (*Record, []byte, error) {
	rec, err := s.Get(ctx)
	if err != nil || rec == nil {
		return nil, nil, err
	}
	_, data, err := s.store.Get(ctx, rec.Key)
	if errors.Is(err, blob.ErrNotFound) {
		s.log.Warn("asset", "manifest points at missing content", map[string]interface{}{"key": rec.Key})
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &TransportError{Op: "open", Err: err}
	}
	return rec, data, nil
}

// Delete removes the current record. Deleting an empty slot is not an error.
func (s *Service) Delete(ctx context.Context) error {
	rec, err := s.readManifest(ctx)
	if err != nil {
		return &TransportError{Op: "delete", Err: err}
	}
	if rec == nil {
		return nil
	}

	if err := s.store.Delete(ctx, s.manifestKey()); err != nil {
		return &TransportError{Op: "delete", Err: err}
	}
	if err := s.store.Delete(ctx, rec.Key); err != nil {
		s.log.Warn("asset", "failed to delete content after manifest removal", map[string]interface{}{"key": rec.Key, "error": err.Error()})
	}

	s.log.Info("asset", "asset deleted", map[string]interface{}{"kind": s.kind.Slot, "key": rec.Key})
	return nil
}

// DeleteIfCurrent deletes the current record only when ref names it, by key,
// by URL or by its local route. Any other ref is a successful no-op and
// reports false.
func (s *Service) DeleteIfCurrent(ctx context.Context, ref string) (bool, error) {
	rec, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	if rec == nil || !s.refersTo(rec, ref) {
		return false, nil
	}
	if err := s.Delete(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) refersTo(rec *Record, ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if ref == rec.Key || ref == rec.URL || ref == rec.DownloadURL {
		return true
	}
	if u, err := url.Parse(ref); err == nil {
		return u.Path == s.routeBase+"/"+s.kind.Slot || strings.TrimPrefix(u.Path, "/") == rec.Key
	}
	return false
}

// Sweep deletes content objects in the slot that the manifest no longer
// references, left behind by failed cleanups or interrupted uploads.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	rec, err := s.readManifest(ctx)
	if err != nil {
		return 0, &TransportError{Op: "sweep", Err: err}
	}
	objects, err := s.store.List(ctx, s.kind.Slot+"/")
	if err != nil {
		return 0, &TransportError{Op: "sweep", Err: err}
	}

	removed := 0
	for _, obj := range objects {
		if obj.Key == s.manifestKey() || (rec != nil && obj.Key == rec.Key) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.log.Warn("asset", "failed to sweep orphaned content", map[string]interface{}{"key": obj.Key, "error": err.Error()})
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) validate(f File) ([]byte, string, error) {
	if f.Content == nil {
		return nil, "", &ValidationError{Field: "file", Message: "No file provided"}
	}

	contentType := normalizeContentType(f.ContentType)
	sniff := needsSniffing(contentType)
	if !sniff && !s.kind.Allows(contentType) {
		return nil, "", &ValidationError{Field: "type", Message: s.kind.TypeMessage}
	}
	if f.Size > s.kind.MaxSize {
		return nil, "", &ValidationError{Field: "size", Message: s.kind.SizeMessage}
	}

	data, err := io.ReadAll(io.LimitReader(f.Content, s.kind.MaxSize+1))
	if err != nil {
		return nil, "", &ValidationError{Field: "file", Message: "Could not read uploaded file"}
	}
	if int64(len(data)) > s.kind.MaxSize {
		return nil, "", &ValidationError{Field: "size", Message: s.kind.SizeMessage}
	}
	if len(data) == 0 {
		return nil, "", &ValidationError{Field: "file", Message: "File is empty"}
	}

	if sniff {
		contentType = normalizeContentType(mimetype.Detect(data).String())
		if !s.kind.Allows(contentType) {
			return nil, "", &ValidationError{Field: "type", Message: s.kind.TypeMessage}
		}
	}
	return data, contentType, nil
}

func (s *Service) manifestKey() string {
	return s.kind.Slot + "/" + manifestName
}

// readManifest returns nil, nil when the slot is empty.
func (s *Service) readManifest(ctx context.Context) (*Record, error) {
	_, data, err := s.store.Get(ctx, s.manifestKey())
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &rec, nil
}

func (s *Service) writeManifest(ctx context.Context, rec *Record) error {
	stored := *rec
	stored.URL, stored.DownloadURL = "", ""
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	_, err = s.store.Put(ctx, s.manifestKey(), "application/json", data)
	return err
}

// decorate fills the URLs, which depend on deployment rather than on what
// was stored.
func (s *Service) decorate(rec *Record) {
	local := s.routeBase + "/" + s.kind.Slot
	rec.URL = local
	if p, ok := s.store.(blob.PublicURLer); ok {
		if u, ok := p.PublicURL(rec.Key); ok {
			rec.URL = u
		}
	}
	rec.DownloadURL = local + "?download=1"
}

func extensionFor(contentType, fileName string) string {
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return strings.ToLower(filepath.Ext(fileName))
}

// countPDFPages returns 0 when the document cannot be parsed. The pdf
// reader panics on some malformed inputs.
func countPDFPages(data []byte) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
