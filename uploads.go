package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/config"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
	"github.com/sirupsen/logrus"
)

type uploadSignRequest struct {
	FileName      string                       `json:"file_name" binding:"required"`
	MimeType      string                       `json:"mime_type" binding:"required"`
	Size          int64                        `json:"size" binding:"required,gt=0"`
	ReferenceType models.DocumentReferenceType `json:"reference_type" binding:"required"`
	ReferenceId   int                          `json:"reference_id" binding:"required,gt=0"`
}

type uploadCompleteRequest struct {
	ObjectKey     string                       `json:"object_key" binding:"required"`
	FileName      string                       `json:"file_name"`
	ReferenceType models.DocumentReferenceType `json:"reference_type" binding:"required"`
	ReferenceId   int                          `json:"reference_id" binding:"required,gt=0"`
}

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

const thumbnailWidth = 200

func registerUploadRoutes(g *gin.RouterGroup) {
	uploads := g.Group("/uploads")
	uploads.POST("/sign", signUploadHandler())
	uploads.POST("/complete", completeUploadHandler())
	uploads.GET("/object", uploadObjectHandler())
}

func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())

		var req uploadSignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		if !utils.IsAllowedDocumentType(req.MimeType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}
		if !utils.StorageEnabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not configured"})
			return
		}

		objectKey := utils.DocumentObjectKey(businessId, string(req.ReferenceType), req.ReferenceId, req.FileName)
		signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.MimeType, 15*time.Minute)
		if err != nil {
			logUploadError(logger, err, requestIDFromHeaders(c))
			message := "failed to sign upload"
			if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
				message = fmt.Sprintf("failed to sign upload: %v", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": message})
			return
		}

		logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"mime_type":   req.MimeType,
			"size":        req.Size,
			"object_key":  objectKey,
		}).Info("[upload.sign]")
		c.JSON(http.StatusOK, signed)
	}
}

// completeUploadHandler records the document once the browser has PUT the object.
// Images also get a thumbnail; a failed thumbnail does not fail the upload.
func completeUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()
		businessId, _ := utils.GetBusinessIdFromContext(ctx)

		var req uploadCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !ownsObjectKey(businessId, req.ObjectKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object key"})
			return
		}

		data, contentType, err := utils.DownloadBytesFromGCS(ctx, req.ObjectKey, maxUploadSizeBytes+1)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}
		if int64(len(data)) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		if contentType == "" {
			contentType = utils.DetectDocumentContentType(req.ObjectKey, data)
		}

		input := models.NewDocument{
			ReferenceType: req.ReferenceType,
			ReferenceId:   req.ReferenceId,
			ObjectKey:     req.ObjectKey,
			FileName:      req.FileName,
		}
		if utils.IsImageContentType(contentType) {
			thumbKey, err := createThumbnail(ctx, req.ObjectKey, data)
			if err != nil {
				logUploadError(logger, err, requestIDFromHeaders(c))
			} else {
				input.ThumbnailObjectKey = thumbKey
			}
		}

		doc, err := models.CreateDocument(ctx, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"object_key":  req.ObjectKey,
			"document_id": doc.ID,
		}).Info("[upload.complete]")
		c.JSON(http.StatusCreated, doc)
	}
}

// uploadObjectHandler redirects to a short-lived signed download url.
func uploadObjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
		objectKey := strings.TrimSpace(c.Query("key"))
		if !ownsObjectKey(businessId, objectKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
			return
		}
		url, err := utils.SignDownload(c.Request.Context(), objectKey, 10*time.Minute)
		if err != nil {
			logUploadError(config.GetLogger(), err, requestIDFromHeaders(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign download"})
			return
		}
		c.Redirect(http.StatusFound, url)
	}
}

func createThumbnail(ctx context.Context, objectKey string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}
	thumbKey := utils.ThumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbKey, nil
}

// ownsObjectKey rejects keys outside the caller's business prefix.
func ownsObjectKey(businessId, objectKey string) bool {
	if businessId == "" || objectKey == "" {
		return false
	}
	if strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
		return false
	}
	return strings.HasPrefix(objectKey, businessId+"/")
}

func logUploadError(logger *logrus.Logger, err error, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}
