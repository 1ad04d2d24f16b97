package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpez "car-classifieds/internal/transport/http/ez"
	"car-classifieds/internal/upload"
)

type UploadHandler struct {
	up      upload.Uploader
	maxFile int64
	log     *zap.Logger
}

func NewUploadHandler(up upload.Uploader, maxFileBytes int64, l *zap.Logger) *UploadHandler {
	return &UploadHandler{up: up, maxFile: maxFileBytes, log: l}
}

func (h *UploadHandler) Priority() int { return 20 }

type uploadedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type uploadOut struct {
	Files []uploadedFile `json:"files"`
}

// readImage 读取文件并按内容嗅探类型，只接受 image/*
func (h *UploadHandler) readImage(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxFile > 0 && fh.Size > h.maxFile {
		return nil, httpez.BadRequest(fmt.Sprintf("%s: file too large", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, httpez.BadRequest(fmt.Sprintf("%s: %v", fh.Filename, err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, httpez.BadRequest(fmt.Sprintf("%s: %v", fh.Filename, err))
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, httpez.UnsupportedMedia(fmt.Sprintf("%s: %s is not an image", fh.Filename, mt.String()))
	}
	return data, nil
}

func (h *UploadHandler) MountAPI(api *gin.RouterGroup) {
	httpez.POSTFILES(httpez.New(api), "/uploads", "files", func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		blobs := make([][]byte, len(files))
		for i, fh := range files {
			data, err := h.readImage(fh)
			if err != nil {
				return nil, err
			}
			blobs[i] = data
		}

		// 多张照片并发上传，结果保持提交顺序
		out := make([]uploadedFile, len(files))
		g, ctx := errgroup.WithContext(c.Request.Context())
		for i, fh := range files {
			i, fh := i, fh
			g.Go(func() error {
				res, err := h.up.Upload(ctx, blobs[i], fh.Filename)
				if err != nil {
					return err
				}
				out[i] = uploadedFile{Name: fh.Filename, URL: res.URL}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			h.log.Warn("photo upload failed", zap.Int("files", len(files)), zap.Error(err))
			if errors.Is(err, upload.ErrUpload) {
				return nil, httpez.Internal(err.Error(), err)
			}
			return nil, httpez.Internal("upload failed", err)
		}
		h.log.Info("photos uploaded", zap.Int("files", len(files)))
		return uploadOut{Files: out}, nil
	})
}
