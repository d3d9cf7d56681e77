package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/errors"
	"github.com/AgentDance/yt-subs/models"
	"github.com/AgentDance/yt-subs/services/acquisition"
	"github.com/AgentDance/yt-subs/storage"
	"github.com/AgentDance/yt-subs/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Acquirer resolves subtitle artifacts for a validated request.
type Acquirer interface {
	Acquire(ctx context.Context, videoID string, format models.Format, req *models.SubtitleRequest) (*acquisition.Result, error)
}

type SubtitleHandler struct {
	service   Acquirer
	validator *validation.Validator
	publisher storage.Publisher
	logger    *logrus.Logger
}

func NewSubtitleHandler(
	service Acquirer,
	validator *validation.Validator,
	publisher storage.Publisher,
) *SubtitleHandler {
	return &SubtitleHandler{
		service:   service,
		validator: validator,
		publisher: publisher,
		logger:    logrus.StandardLogger(),
	}
}

func (h *SubtitleHandler) Fetch(c *fiber.Ctx) error {
	var req models.SubtitleRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput("SubtitleHandler.Fetch", err, "invalid request body")
	}

	format, err := h.validator.ValidateRequest(&req)
	if err != nil {
		return err
	}

	videoID := validation.NormalizeVideoID(req.Identifier())
	c.Locals("video_id", videoID)

	h.logger.WithFields(logrus.Fields{
		"video_id":   videoID,
		"langs":      req.Langs,
		"format":     format,
		"request_id": c.Get("X-Request-ID"),
	}).Info("Subtitle request received")

	result, err := h.service.Acquire(c.Context(), videoID, format, &req)
	if err != nil {
		return err
	}

	files := make([]models.FilePayload, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		file := models.FilePayload{
			Lang:     artifact.Lang,
			Filename: fmt.Sprintf("%s.%s.%s", videoID, artifact.Lang, artifact.Format),
			Content:  artifact.Content,
		}
		h.publish(c, videoID, artifact, req.TTL(), &file)
		files = append(files, file)
	}

	return c.JSON(models.SubtitleResponse{
		OK:                true,
		VideoID:           videoID,
		Format:            string(format),
		Files:             files,
		LanguagesDetected: result.Languages,
	})
}

// publish uploads and signs one artifact. Publishing failures degrade the
// response (inline content is still returned) rather than failing it.
func (h *SubtitleHandler) publish(c *fiber.Ctx, videoID string, artifact models.Artifact, ttl time.Duration, file *models.FilePayload) {
	if h.publisher == nil {
		return
	}

	uri, err := h.publisher.Upload(c.Context(), videoID, artifact)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"video_id": videoID,
			"lang":     artifact.Lang,
		}).Warn("Failed to publish subtitle file")
		return
	}
	file.StorageURI = uri

	signed, err := h.publisher.Sign(c.Context(), videoID, artifact, ttl)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"video_id": videoID,
			"lang":     artifact.Lang,
		}).Warn("Failed to sign download link")
		return
	}
	file.SignedURL = signed
}

type HealthHandler struct {
	cookies config.CookiesConfig
	version string
}

func NewHealthHandler(cookiesCfg config.CookiesConfig, version string) *HealthHandler {
	return &HealthHandler{cookies: cookiesCfg, version: version}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	_, err := os.Stat(h.cookies.Path)
	return c.JSON(fiber.Map{
		"status":       "ok",
		"version":      h.version,
		"cookies_file": err == nil,
		"cookies_path": h.cookies.Path,
	})
}

// ErrorHandler is the app-level fiber error handler. It maps classified
// errors to their status and shields internal detail from the response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var appErr *errors.AppError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else if stderrors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	logrus.WithFields(logrus.Fields{
		"request_id": c.Get("X-Request-ID"),
		"path":       c.Path(),
		"method":     c.Method(),
		"status":     code,
	}).WithError(err).Error("Request error")

	videoID, _ := c.Locals("video_id").(string)
	return c.Status(code).JSON(models.ErrorResponse{
		OK:      false,
		VideoID: videoID,
		Error:   message,
	})
}
