package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"photo-architect/internal/config"
	"photo-architect/internal/constants"
	"photo-architect/internal/i18n"
	"photo-architect/internal/logging"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/upstream"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type handler struct {
	cfg  *config.Config
	deps Dependencies
}

func (h *handler) maxUpload() int64 {
	if h.cfg.Server.MaxUploadBytes > 0 {
		return h.cfg.Server.MaxUploadBytes
	}
	return constants.MaxUploadBytes
}

func (h *handler) presets(c *gin.Context) {
	loc := mw.RequestLocale(c)
	if q := c.Query("locale"); q != "" {
		if l, ok := i18n.Parse(q); ok {
			loc = l
		}
	}
	c.JSON(http.StatusOK, gin.H{"locale": loc, "presets": i18n.Presets(loc)})
}

func (h *handler) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, controllerFrom(c).Snapshot())
}

// upload accepts a multipart "file" field or a JSON body {"image": dataURL}.
func (h *handler) upload(c *gin.Context) {
	ctrl := controllerFrom(c)
	limit := h.maxUpload()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+64<<10)
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "missing_file", "multipart field \"file\" is required")
			return
		}
		if fh.Size > limit {
			h.tooLarge(c, limit)
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "missing_file", err.Error())
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		if err != nil {
			badRequest(c, "read_failed", err.Error())
			return
		}
		if int64(len(data)) > limit {
			h.tooLarge(c, limit)
			return
		}
		if err := ctrl.Upload(data, fh.Header.Get("Content-Type")); err != nil {
			logging.WithReq(c, log.Fields{"filename": fh.Filename}).WithError(err).Info("upload rejected")
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ctrl.Snapshot())
		return
	}

	// base64 grows the payload by a third
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit*4/3+64<<10)
	var body struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.tooLarge(c, limit)
			return
		}
		badRequest(c, "invalid_json", err.Error())
		return
	}
	if err := ctrl.UploadDataURL(body.Image); err != nil {
		logging.WithReq(c, nil).WithError(err).Info("upload rejected")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) tooLarge(c *gin.Context, limit int64) {
	mw.RecordUpload(false)
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": gin.H{
		"message": fmt.Sprintf("file exceeds %d MB", limit>>20),
		"type":    "invalid_request_error",
		"code":    "file_too_large",
	}})
}

func (h *handler) setPrompt(c *gin.Context) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid_json", err.Error())
		return
	}
	ctrl := controllerFrom(c)
	if err := ctrl.SetPrompt(body.Prompt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// submit starts an edit; the result arrives over the event stream.
func (h *handler) submit(c *gin.Context) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && err != io.EOF {
			badRequest(c, "invalid_json", err.Error())
			return
		}
	}
	ctrl := controllerFrom(c)
	ctx := upstream.WithRequestID(c.Request.Context(), c.GetString("request_id"))
	if err := ctrl.Submit(ctx, body.Prompt); err != nil {
		writeError(c, err)
		return
	}
	logging.WithReq(c, log.Fields{"custom_prompt": body.Prompt != ""}).Info("edit submitted")
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

func (h *handler) reset(c *gin.Context) {
	ctrl := controllerFrom(c)
	ctrl.Reset()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) revert(c *gin.Context) {
	ctrl := controllerFrom(c)
	if err := ctrl.RevertToOriginal(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) selectHistory(c *gin.Context) {
	ctrl := controllerFrom(c)
	if err := ctrl.SelectHistory(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) dismissError(c *gin.Context) {
	ctrl := controllerFrom(c)
	ctrl.DismissError()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) setLocale(c *gin.Context) {
	var body struct {
		Locale string `json:"locale"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid_json", err.Error())
		return
	}
	loc, ok := i18n.Parse(body.Locale)
	if !ok {
		badRequest(c, "unsupported_locale", fmt.Sprintf("unsupported locale %q", body.Locale))
		return
	}
	ctrl := controllerFrom(c)
	ctrl.SetLocale(loc)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *handler) download(c *gin.Context) {
	d, err := controllerFrom(c).Download()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	c.Data(http.StatusOK, d.MIMEType, d.Data)
}
