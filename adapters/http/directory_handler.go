package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/skilldeck/internal/application/usecase/directory"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type DirectoryHandler struct {
	directoryUseCase *directory.DirectoryUseCase
	logger           logger.Logger
}

func NewDirectoryHandler(uc *directory.DirectoryUseCase, log logger.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directoryUseCase: uc,
		logger:           log,
	}
}

func (h *DirectoryHandler) ListProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(directory.DefaultLimit)))

	out, err := h.directoryUseCase.List(c.Request.Context(), directory.ListInput{
		Query: c.Query("q"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(200, ToDirectoryDTO(out.Profiles, out.Page, out.Limit))
}

func (h *DirectoryHandler) GenerateRSS(c *gin.Context) {
	feed, err := h.directoryUseCase.Feed(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")

	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write RSS feed to response", err)
	}
}
