package service

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"mediashare/internal/biz"
	"mediashare/internal/pkg/coalesce"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

//go:embed html/viewer.html
var viewerFS embed.FS

var viewerTmpl = template.Must(template.ParseFS(viewerFS, "html/viewer.html"))

const (
	// fileField is the multipart form field carrying the uploads.
	fileField = "file"
	// maxFormMemory bounds how much of the form stays in memory before
	// spilling to disk.
	maxFormMemory = 32 << 20
)

// uploadResponse is the JSON envelope every upload request receives.
type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UploadService exposes the upload and fetch HTTP endpoints.
type UploadService struct {
	uc        *biz.UploadUsecase
	coalescer *coalesce.Coalescer
	log       *log.Helper
}

// NewUploadService creates a new UploadService.
func NewUploadService(uc *biz.UploadUsecase, coalescer *coalesce.Coalescer, logger log.Logger) *UploadService {
	return &UploadService{
		uc:        uc,
		coalescer: coalescer,
		log:       log.NewHelper(logger),
	}
}

// HandleUpload accepts a multipart upload, coalescing retries that
// share a request identifier onto one execution.
func (s *UploadService) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.Header.Get("Cf-Request-Id")
	if requestID == "" {
		requestID = r.Header.Get("X-Request-Id")
	}
	logID := requestID
	if logID == "" {
		logID = uuid.NewString()
	}

	host := r.Host
	outcome := s.coalescer.Do(r.Context(), requestID, func(ctx context.Context) coalesce.Outcome {
		return s.upload(ctx, logID, host, r)
	})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(outcome.Code)
	w.Write(outcome.Body)
}

func (s *UploadService) upload(ctx context.Context, logID, host string, r *http.Request) coalesce.Outcome {
	items, err := readItems(r)
	if err != nil {
		s.log.Warnf("request %s: unreadable form: %v", logID, err)
		return errorOutcome(biz.ErrMalformedForm)
	}

	codes, err := s.uc.Upload(ctx, items)
	if err != nil {
		s.log.Warnf("request %s: upload failed: %v", logID, err)
		return errorOutcome(err)
	}

	url := "https://" + host + "/" + strings.Join(codes, ",")
	s.log.Infof("request %s: stored %d files at %s", logID, len(codes), url)

	body, _ := json.Marshal(uploadResponse{Success: true, URL: url})
	return coalesce.Outcome{Code: http.StatusOK, Body: body}
}

// readItems collects every file under the upload form field.
func readItems(r *http.Request) ([]*biz.MediaItem, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, err
	}
	var items []*biz.MediaItem
	for _, header := range r.MultipartForm.File[fileField] {
		item, err := readItem(header)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func readItem(header *multipart.FileHeader) (*biz.MediaItem, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return &biz.MediaItem{
		Name: header.Filename,
		MIME: mime,
		Size: int64(len(data)),
		Data: data,
	}, nil
}

func errorOutcome(err error) coalesce.Outcome {
	se := kerrors.FromError(err)
	body, _ := json.Marshal(uploadResponse{Success: false, Error: se.Message})
	return coalesce.Outcome{Code: int(se.Code), Body: body}
}

// viewerEntry is one media element on the viewer page.
type viewerEntry struct {
	Code    string
	IsVideo bool
	Src     string
}

// HandleFetch serves stored media. The path holds one or more
// comma-separated codes; ?raw=1 streams the first code's bytes,
// otherwise an HTML page embeds every code.
func (s *UploadService) HandleFetch(w http.ResponseWriter, r *http.Request) {
	codes := splitCodes(strings.TrimPrefix(r.URL.Path, "/"))
	if len(codes) == 0 {
		http.NotFound(w, r)
		return
	}

	if r.URL.Query().Get("raw") == "1" {
		s.serveRaw(w, r, codes[0])
		return
	}

	entries := make([]viewerEntry, 0, len(codes))
	for _, code := range codes {
		obj, err := s.uc.Fetch(r.Context(), code)
		if err != nil {
			s.log.Errorf("fetch %s failed: %v", code, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if obj == nil {
			http.NotFound(w, r)
			return
		}
		entries = append(entries, viewerEntry{
			Code:    code,
			IsVideo: strings.HasPrefix(obj.ContentType, "video/"),
			Src:     "/" + code + "?raw=1",
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewerTmpl.Execute(w, entries); err != nil {
		s.log.Errorf("viewer render failed: %v", err)
	}
}

func (s *UploadService) serveRaw(w http.ResponseWriter, r *http.Request, code string) {
	obj, err := s.uc.Fetch(r.Context(), code)
	if err != nil {
		s.log.Errorf("fetch %s failed: %v", code, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if obj == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(obj.Data)
}

func splitCodes(path string) []string {
	var codes []string
	for _, code := range strings.Split(path, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
