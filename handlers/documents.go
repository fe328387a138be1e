package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/conversion"
	"github.com/abodd44/hashdocker-document-hub/internal/document"
	docservice "github.com/abodd44/hashdocker-document-hub/internal/document/service"
	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/validation"
	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

// multipartOverhead is the slack allowed on top of the file limit for the
// other form fields and part headers.
const multipartOverhead = 1 << 20

// JobSource returns the latest conversion job of a document.
type JobSource interface {
	Latest(ctx context.Context, docID string) (*conversion.Job, error)
}

// DocumentsHandler serves submission, review and download endpoints.
type DocumentsHandler struct {
	svc      *docservice.Service
	jobs     JobSource
	maxBytes int64
}

func NewDocumentsHandler(svc *docservice.Service, jobs JobSource, maxBytes int64) *DocumentsHandler {
	validation.Default()
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &DocumentsHandler{svc: svc, jobs: jobs, maxBytes: maxBytes}
}

// Register adds the document routes to an authenticated group.
func (h *DocumentsHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/documents")
	d.POST("", h.Upload)
	d.GET("", h.List)
	d.GET("/drafts", h.Drafts)
	d.GET("/search", h.Search)
	d.GET("/stats", h.Stats)
	d.GET("/pending", middleware.RequireRole("admin"), h.Pending)

	d.GET("/:id", h.Get)
	d.PATCH("/:id", h.Update)
	d.DELETE("/:id", h.Delete)
	d.POST("/:id/submit", h.Submit)
	d.GET("/:id/file", h.File)
	d.GET("/:id/preview", h.Preview)
	d.GET("/:id/conversion", h.Conversion)

	review := d.Group("/:id", middleware.RequireRole("admin"))
	review.POST("/approve", h.Approve)
	review.POST("/reject", h.Reject)
	review.POST("/review", h.Review)
}

// respond writes document errors, localizing the size limit message.
func (h *DocumentsHandler) respond(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.Is(err, docservice.ErrFileTooLarge) || errors.As(err, &mbe) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": i18n.Tf(middleware.Language(c), "errorFileTooLarge", h.maxBytes>>20),
		})
		return
	}
	respondError(c, err)
}

type uploadForm struct {
	Title    string `form:"title" binding:"required,min=3"`
	Type     string `form:"type" binding:"required,doctype"`
	CourseID string `form:"courseId"`
	Draft    bool   `form:"draft"`
}

// Upload accepts a multipart submission or draft.
func (h *DocumentsHandler) Upload(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.respond(c, err)
			return
		}
		respondBindError(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	in, closeFn, err := openFile(fh)
	if err != nil {
		h.respond(c, err)
		return
	}
	defer closeFn()

	d, err := h.svc.Upload(c.Request.Context(), a, docservice.UploadInput{
		Title:    form.Title,
		Type:     document.Type(form.Type),
		CourseID: form.CourseID,
		Draft:    form.Draft,
		File:     in,
	})
	if err != nil {
		h.respond(c, err)
		return
	}
	key := "uploadSuccess"
	if d.IsDraft {
		key = "draftSaved"
	}
	c.JSON(http.StatusCreated, gin.H{"document": d, "message": message(c, key)})
}

func openFile(fh *multipart.FileHeader) (docservice.FileInput, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return docservice.FileInput{}, func() {}, fmt.Errorf("open upload: %w", err)
	}
	return docservice.FileInput{Name: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, nil
}

// List returns the caller's submissions, optionally filtered by ?status=.
func (h *DocumentsHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	st, err := docservice.ParseStatusFilter(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.svc.MyDocuments(c.Request.Context(), a, st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentsHandler) Drafts(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	docs, err := h.svc.MyDrafts(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentsHandler) Pending(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	docs, err := h.svc.Pending(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Search matches ?q= against title, submitter and file name.
func (h *DocumentsHandler) Search(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	st, err := docservice.ParseStatusFilter(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.svc.Search(c.Request.Context(), a, c.Query("q"), st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Stats returns the dashboard counters for the caller's role.
func (h *DocumentsHandler) Stats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var (
		stats interface{}
		err   error
	)
	if a.IsAdmin() {
		stats, err = h.svc.AdminStats(c.Request.Context(), a)
	} else {
		stats, err = h.svc.StudentStats(c.Request.Context(), a)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Update applies the multipart fields that are present; a "file" part
// replaces the stored file.
func (h *DocumentsHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	var in docservice.UpdateInput
	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("type"); ok {
		t := document.Type(v)
		in.Type = &t
	}
	if v, ok := c.GetPostForm("courseId"); ok {
		in.CourseID = &v
	}
	if fh, err := c.FormFile("file"); err == nil {
		f, closeFn, err := openFile(fh)
		if err != nil {
			h.respond(c, err)
			return
		}
		defer closeFn()
		in.File = &f
	} else {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.respond(c, err)
			return
		}
	}
	d, err := h.svc.Update(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": d, "message": message(c, "documentUpdated")})
}

func (h *DocumentsHandler) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.svc.SubmitDraft(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": d, "message": message(c, "draftSubmitted")})
}

func (h *DocumentsHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message(c, "documentDeleted")})
}

type commentsRequest struct {
	Comments string `json:"comments" binding:"max=2000"`
}

type reviewRequest struct {
	Decision string `json:"decision" binding:"required,decision"`
	Comments string `json:"comments" binding:"max=2000"`
}

// bindOptionalJSON binds a JSON body when one was sent.
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}

func (h *DocumentsHandler) Approve(c *gin.Context) {
	h.decide(c, document.StatusApproved)
}

func (h *DocumentsHandler) Reject(c *gin.Context) {
	h.decide(c, document.StatusRejected)
}

func (h *DocumentsHandler) decide(c *gin.Context, decision document.Status) {
	var req commentsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	h.review(c, decision, req.Comments)
}

// Review takes the decision from the body.
func (h *DocumentsHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.review(c, document.Status(req.Decision), req.Comments)
}

func (h *DocumentsHandler) review(c *gin.Context, decision document.Status, comments string) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.svc.Review(c.Request.Context(), a, c.Param("id"), decision, comments)
	if err != nil {
		respondError(c, err)
		return
	}
	key := "documentApproved"
	if d.Status == document.StatusRejected {
		key = "documentRejected"
	}
	c.JSON(http.StatusOK, gin.H{"document": d, "message": message(c, key)})
}

func (h *DocumentsHandler) File(c *gin.Context) {
	h.serve(c, false)
}

func (h *DocumentsHandler) Preview(c *gin.Context) {
	h.serve(c, true)
}

// serve redirects to a presigned URL or streams the blob.
func (h *DocumentsHandler) serve(c *gin.Context, preview bool) {
	a, ok := actor(c)
	if !ok {
		return
	}
	dl, err := h.svc.Open(c.Request.Context(), a, c.Param("id"), preview)
	if err != nil {
		respondError(c, err)
		return
	}
	if dl.URL != "" {
		c.Redirect(http.StatusFound, dl.URL)
		return
	}
	defer dl.Body.Close()
	disposition := "attachment"
	if preview && conversion.Previewable(dl.ContentType) {
		disposition = "inline"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%s", disposition, strconv.Quote(dl.FileName)),
	}
	if dl.Size >= 0 {
		c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, headers)
		return
	}
	for k, v := range headers {
		c.Header(k, v)
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", dl.ContentType)
	_, _ = io.Copy(c.Writer, dl.Body)
}

// Conversion returns the latest preview conversion job of a visible document.
func (h *DocumentsHandler) Conversion(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if h.jobs == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no conversion job"})
		return
	}
	job, err := h.jobs.Latest(c.Request.Context(), d.ID)
	if errors.Is(err, conversion.ErrJobNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no conversion job"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
