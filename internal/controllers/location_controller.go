package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"locamark/internal/i18n"
	"locamark/internal/middleware"
	"locamark/internal/models"
	"locamark/internal/service"
)

const maxUploadBytes = 10 << 20

var errUploadTooLarge = errors.New("upload too large")

// LocationController serves the timeline, sharing and backup endpoints.
type LocationController struct {
	svc *service.LocationService
}

func NewLocationController(svc *service.LocationService) *LocationController {
	return &LocationController{svc: svc}
}

// Categories lists the conventional categories.
func (lc *LocationController) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories()})
}

// List runs a fresh query with the q and category parameters.
func (lc *LocationController) List(c *gin.Context) {
	records, err := lc.svc.FetchLocations(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": records})
}

// Mark saves the device's current position.
func (lc *LocationController) Mark(c *gin.Context) {
	record, err := lc.svc.MarkCurrentLocation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": record})
}

type updateLocationInput struct {
	CustomName *string `json:"custom_name"`
	Category   string  `json:"category"`
}

// Update sets the custom name and category. Omitted or empty values clear
// the custom name and reset the category to "other".
func (lc *LocationController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input updateLocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := lc.svc.UpdateLocation(ctx, id, input.CustomName, input.Category); err != nil {
		respondError(c, err)
		return
	}

	record, err := lc.svc.Location(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": record})
}

// Delete waits for the background delete to commit before answering.
func (lc *LocationController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	type result struct {
		deleted bool
		err     error
	}
	done := make(chan result, 1)
	lc.svc.DeleteLocation(c.Request.Context(), id, func(deleted bool, err error) {
		done <- result{deleted, err}
	})

	var r result
	select {
	case r = <-done:
	case <-c.Request.Context().Done():
		return
	}

	lang := middleware.LanguageFrom(c)
	switch {
	case r.err != nil:
		respondError(c, r.err)
	case !r.deleted:
		c.JSON(http.StatusNotFound, gin.H{"error": i18n.T(lang, i18n.MsgLocationNotFound)})
	default:
		c.JSON(http.StatusOK, gin.H{"message": i18n.T(lang, i18n.MsgDeleted)})
	}
}

// Share returns the share block, the share sheet message and a maps link.
func (lc *LocationController) Share(c *gin.Context) {
	record, ok := lc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payload":  lc.svc.GenerateShareableEncoding(record),
		"message":  lc.svc.ShareMessage(record),
		"maps_url": lc.svc.MapsURL(record),
	})
}

// QRCode renders the share block as a PNG.
func (lc *LocationController) QRCode(c *gin.Context) {
	record, ok := lc.load(c)
	if !ok {
		return
	}
	png, err := lc.svc.GenerateQRCode(record)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ImportQR accepts either a multipart image in the "file" field or the share
// block as a text body.
func (lc *LocationController) ImportQR(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		record models.LocationRecord
		err    error
	)
	if isMultipart(c) {
		body, openErr := formFile(c)
		if openErr != nil {
			uploadError(c, openErr)
			return
		}
		defer body.Close()
		record, err = lc.svc.ImportQRImage(ctx, body)
	} else {
		text, readErr := readBody(c)
		if readErr != nil {
			uploadError(c, readErr)
			return
		}
		record, err = lc.svc.ImportSharePayload(ctx, string(text))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": record})
}

// ExportCSV streams the CSV backup as an attachment.
func (lc *LocationController) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := lc.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportCSV accepts a multipart "file" field or the CSV as the raw body.
func (lc *LocationController) ImportCSV(c *gin.Context) {
	var body io.Reader
	if isMultipart(c) {
		f, err := formFile(c)
		if err != nil {
			uploadError(c, err)
			return
		}
		defer f.Close()
		body = f
	} else {
		data, err := readBody(c)
		if err != nil {
			uploadError(c, err)
			return
		}
		body = bytes.NewReader(data)
	}

	n, err := lc.svc.ImportCSV(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imported": n,
		"message":  i18n.T(middleware.LanguageFrom(c), i18n.MsgImported, n),
	})
}

// ExportGeoJSON returns every record as a FeatureCollection.
func (lc *LocationController) ExportGeoJSON(c *gin.Context) {
	data, err := lc.svc.ExportGeoJSON(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("geojson"))
	c.Data(http.StatusOK, "application/geo+json", data)
}

func (lc *LocationController) load(c *gin.Context) (models.LocationRecord, bool) {
	id, ok := parseID(c)
	if !ok {
		return models.LocationRecord{}, false
	}
	record, err := lc.svc.Location(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return models.LocationRecord{}, false
	}
	return record, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

func formFile(c *gin.Context) (io.ReadCloser, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", errUploadTooLarge, header.Size)
	}
	return header.Open()
}

// readBody reads the raw request body. Bodies over maxUploadBytes fail with
// errUploadTooLarge.
func readBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func uploadError(c *gin.Context, err error) {
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": i18n.T(middleware.LanguageFrom(c), i18n.MsgUploadTooLarge)})
		return
	}
	badRequest(c, err)
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="locations_%s.%s"`, time.Now().Format("20060102_150405"), ext)
}
