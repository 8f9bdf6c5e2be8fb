package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
)

func (s *Server) HandleListEventLogs(c *gin.Context) {
	resp, err := s.paymentLogs.ListLogs(c.Request.Context(), paymentdomain.ListLogsRequest{
		Provider:        strings.TrimSpace(c.Param("provider")),
		ProviderEventID: strings.TrimSpace(c.Param("event_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
