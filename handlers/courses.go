package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/courses"
)

type CoursesHandler struct {
	svc *courses.Service
}

func NewCoursesHandler(svc *courses.Service) *CoursesHandler {
	return &CoursesHandler{svc: svc}
}

func (h *CoursesHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/courses")
	g.GET("", h.List)
	g.GET("/mine", h.Mine)
	g.GET("/:id", h.Get)
}

func (h *CoursesHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

// Mine lists the courses the caller is enrolled in.
func (h *CoursesHandler) Mine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.svc.StudentCourses(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

func (h *CoursesHandler) Get(c *gin.Context) {
	course, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}
