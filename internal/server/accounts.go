package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/learnlyhq/learnly/internal/account/domain"
	referraldomain "github.com/learnlyhq/learnly/internal/referral/domain"
)

func (s *Server) HandleGetAccount(c *gin.Context) {
	account, err := s.accountSvc.GetByID(c.Request.Context(), accountdomain.GetAccountRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (s *Server) HandleListReferralCommissions(c *gin.Context) {
	resp, err := s.referralSvc.ListByReferrer(c.Request.Context(), referraldomain.ListCommissionsRequest{
		ReferrerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
