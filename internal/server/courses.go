package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/learnlyhq/learnly/internal/catalog/domain"
)

func (s *Server) HandleGetCourse(c *gin.Context) {
	course, err := s.catalogSvc.GetByID(c.Request.Context(), catalogdomain.GetCourseRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}
