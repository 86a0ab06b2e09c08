package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arbitron/internal/controller/apperror"
	"arbitron/internal/domain/juror"
)

type JurorHandler struct {
	service *juror.Service
}

func NewJurorHandler(s *juror.Service) JurorHandler {
	return JurorHandler{service: s}
}

func (h *JurorHandler) Register(c *gin.Context) {
	var reg juror.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, err := h.service.Register(c, reg)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *JurorHandler) Get(c *gin.Context) {
	account := c.Param("account")

	j, err := h.service.GetJuror(c, account)
	if err != nil {
		c.JSON(apperror.HTTPStatus(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, j)
}
