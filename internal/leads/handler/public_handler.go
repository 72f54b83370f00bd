package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/internal/leads/service"
	"movecrm_backend/internal/leads/transport"
	"movecrm_backend/platform/httpkit"
	"movecrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	mediaField      = "media"
	maxIntakePhotos = 10
	uploadWorkers   = 4
)

// PublicHandler serves the unauthenticated assessment form.
type PublicHandler struct {
	svc   *service.Service
	media ports.MediaStore
	val   *validator.Validator
}

func NewPublicHandler(svc *service.Service, media ports.MediaStore, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, media: media, val: val}
}

func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assessments", h.CreateAssessment)
}

// CreateAssessment accepts the multipart intake form with up to ten photos.
func (h *PublicHandler) CreateAssessment(c *gin.Context) {
	var req transport.ProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	profile, err := req.ToProfile()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File[mediaField]
	}
	if len(files) > maxIntakePhotos {
		httpkit.Error(c, http.StatusBadRequest, fmt.Sprintf("at most %d photos are allowed", maxIntakePhotos), nil)
		return
	}

	photos, err := h.readPhotos(files)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.storePhotos(c.Request.Context(), photos); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	lead, err := h.svc.CreateFromAssessment(c.Request.Context(), service.CreateAssessmentInput{
		Profile: profile,
		Photos:  photos,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CreatedResponse{Message: msgLeadCreated, LeadID: lead.ID})
}

func (h *PublicHandler) readPhotos(files []*multipart.FileHeader) ([]ports.Photo, error) {
	photos := make([]ports.Photo, 0, len(files))
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if h.media != nil {
			if err := h.media.ValidateContentType(contentType); err != nil {
				return nil, fmt.Errorf("%s: file type not allowed", fh.Filename)
			}
			if err := h.media.ValidateFileSize(fh.Size); err != nil {
				return nil, fmt.Errorf("%s: %w", fh.Filename, err)
			}
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: unreadable upload", fh.Filename)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: unreadable upload", fh.Filename)
		}

		photos = append(photos, ports.Photo{FileName: fh.Filename, ContentType: contentType, Data: data})
	}
	return photos, nil
}

// storePhotos uploads the photos concurrently and fills in their keys.
func (h *PublicHandler) storePhotos(ctx context.Context, photos []ports.Photo) error {
	if h.media == nil || len(photos) == 0 {
		return nil
	}

	folder := "intake/" + time.Now().UTC().Format("2006-01")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadWorkers)
	for i := range photos {
		p := &photos[i]
		g.Go(func() error {
			key, err := h.media.Upload(gctx, folder, p.FileName, p.ContentType, bytes.NewReader(p.Data), int64(len(p.Data)))
			if err != nil {
				return fmt.Errorf("upload %s: %w", p.FileName, err)
			}
			p.FileKey = key
			return nil
		})
	}
	return g.Wait()
}
