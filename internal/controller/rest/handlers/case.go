package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arbitron/internal/controller/apperror"
	"arbitron/internal/domain/arbitration"
)

type CaseHandler struct {
	service *arbitration.Service
}

func NewCaseHandler(s *arbitration.Service) CaseHandler {
	return CaseHandler{service: s}
}

func (h *CaseHandler) FileComplaint(c *gin.Context) {
	var cmd arbitration.FileComplaintCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, err := h.service.FileComplaint(c, cmd)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *CaseHandler) Respond(c *gin.Context) {
	var cmd arbitration.RespondCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.RespondToCase(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CaseHandler) JoinAsJuror(c *gin.Context) {
	var cmd arbitration.JoinRoundCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.RespondAsJuror(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CaseHandler) UploadEvidence(c *gin.Context) {
	var cmd arbitration.EvidenceCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.UploadEvidence(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

func (h *CaseHandler) UploadVote(c *gin.Context) {
	var cmd arbitration.VoteCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.UploadVote(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

func (h *CaseHandler) Reappeal(c *gin.Context) {
	var cmd arbitration.ReappealCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.Reappeal(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CaseHandler) ReRespond(c *gin.Context) {
	var cmd arbitration.ReRespondCmd
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	cmd.CaseID = c.Param("case_id")

	if err := h.service.ReRespond(c, cmd); err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CaseHandler) Get(c *gin.Context) {
	caseID := c.Param("case_id")

	result, rounds, err := h.service.GetCase(c, caseID)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": result, "rounds": rounds})
}

func (h *CaseHandler) Filter(c *gin.Context) {
	var query arbitration.CasesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cases, err := h.service.ListCases(c, query)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cases)
}

func (h *CaseHandler) GetEvents(c *gin.Context) {
	var query arbitration.CaseEventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	page, err := h.service.CaseEvents(c, query)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}
