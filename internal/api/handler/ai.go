package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/ai"
	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

const (
	// MaxImageBytes bounds a single uploaded image.
	MaxImageBytes = 20 << 20

	multipartMemory = 8 << 20
	sniffLen        = 512
)

// AIHandler handles the farming assistant endpoints
type AIHandler struct {
	aiService *service.AIService
	fail      api.ErrorWriter
	log       *zap.Logger
}

// NewAIHandler creates a new assistant handler
func NewAIHandler(aiService *service.AIService, fail api.ErrorWriter, log *zap.Logger) *AIHandler {
	return &AIHandler{aiService: aiService, fail: fail, log: log}
}

// CropDiseaseDetection diagnoses an uploaded crop photo
func (h *AIHandler) CropDiseaseDetection(w http.ResponseWriter, r *http.Request) {
	image, mimeType, err := h.readImage(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, h.aiService.DetectCropDisease(r.Context(), image, mimeType))
}

// PriceForecast estimates a market price from a photo of the produce
func (h *AIHandler) PriceForecast(w http.ResponseWriter, r *http.Request) {
	image, mimeType, err := h.readImage(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, h.aiService.ForecastPrice(r.Context(), image, mimeType))
}

// TrendingCrops returns the crops in demand for a region
func (h *AIHandler) TrendingCrops(w http.ResponseWriter, r *http.Request) {
	var req ai.TrendingRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.aiService.TrendingCrops(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, resp)
}

// DiversificationOptions suggests crops to grow alongside the current ones
func (h *AIHandler) DiversificationOptions(w http.ResponseWriter, r *http.Request) {
	var req ai.DiversificationRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.aiService.DiversificationOptions(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, resp)
}

// readImage pulls the "image" part out of a multipart upload, checks its
// size and sniffed type, and returns it ready for the model.
func (h *AIHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", apperr.ErrImageTooLarge
		}
		return nil, "", apperr.ErrImageRequired
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.log.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", apperr.ErrImageRequired
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		return nil, "", apperr.ErrImageTooLarge
	}

	if err := sniffImage(file); err != nil {
		return nil, "", err
	}

	image, mimeType, err := ai.PrepareImage(file)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.CodeInvalidArgument, apperr.MessageOf(apperr.ErrNotAnImage), err)
	}
	return image, mimeType, nil
}

// sniffImage checks the leading bytes and rewinds the file.
func sniffImage(file multipart.File) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apperr.ErrImageRequired
	}
	if n == 0 {
		return apperr.ErrImageRequired
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return apperr.ErrNotAnImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return apperr.Internal("Failed to read upload", err)
	}
	return nil
}
