package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
)

type FeedbackHandler struct {
	svc *feedback.Service
}

func NewFeedbackHandler(svc *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

func (h *FeedbackHandler) Register(rg *gin.RouterGroup) {
	f := rg.Group("/feedback")
	f.GET("", h.Inbox)
	f.GET("/unread", h.Unread)
	f.POST("", h.Send)
	f.POST("/:id/read", h.MarkRead)
	f.POST("/:id/reply", h.Reply)
}

type sendFeedbackRequest struct {
	ReceiverID string `json:"receiverId"`
	Subject    string `json:"subject" binding:"required,min=3,max=200"`
	Message    string `json:"message" binding:"required,min=10,max=5000"`
}

type replyRequest struct {
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

// Inbox returns received and sent feedback, newest first.
func (h *FeedbackHandler) Inbox(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	inbox, err := h.svc.Inbox(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inbox)
}

func (h *FeedbackHandler) Unread(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.svc.Unread(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items, "count": len(items)})
}

// Send delivers a message; students may omit the receiver to reach every admin.
func (h *FeedbackHandler) Send(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req sendFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	items, err := h.svc.Send(c.Request.Context(), a, feedback.SendInput{
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Message:    req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": items, "message": message(c, "feedbackSent")})
}

func (h *FeedbackHandler) MarkRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f, err := h.svc.MarkRead(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FeedbackHandler) Reply(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	f, err := h.svc.Reply(c.Request.Context(), a, c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": f, "message": message(c, "replySent")})
}
