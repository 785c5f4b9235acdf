package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mediaUC "github.com/khoahotran/skilldeck/internal/application/usecase/media"
	profileUC "github.com/khoahotran/skilldeck/internal/application/usecase/profile"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	uploadAvatarUC *mediaUC.UploadAvatarUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, uploadUC *mediaUC.UploadAvatarUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		uploadAvatarUC: uploadUC,
		logger:         log,
	}
}

func ownerOrError(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("ownerID not found in context"))
	}
	return ownerID, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	d, err := h.profileUseCase.GetOwnProfile(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDetailsDTO(d, &ownerID))
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("full_name, headline and bio are required", err))
		return
	}

	input := profileUC.CreateProfileInput{
		OwnerID:  ownerID,
		Email:    GetIdentityFromGinContext(c).Email,
		FullName: req.FullName,
		Headline: req.Headline,
		Bio:      req.Bio,
		Username: req.Username,
		IsPublic: req.IsPublic,
		PhotoURL: req.PhotoURL,
	}
	if req.SocialLinks != nil {
		input.SocialLinks = req.SocialLinks.toDomain()
	}

	p, err := h.profileUseCase.CreateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToProfileDetailsDTO(&profile.Details{
		Profile: p,
		Skills:  []profile.Skill{},
		Proofs:  []profile.ProofOfWork{},
	}, &ownerID))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for profile update", err))
		return
	}

	d, err := h.profileUseCase.UpdateProfile(c.Request.Context(), ownerID, req.toDomain())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDetailsDTO(d, &ownerID))
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	out, err := h.uploadAvatarUC.Execute(c.Request.Context(), mediaUC.UploadAvatarInput{
		OwnerID:  ownerID,
		File:     file,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"photo_url": out.PhotoURL,
		"profile":   ToProfileDetailsDTO(out.Profile, &ownerID),
	})
}

// GetPublicProfile serves /u/:username. The owner sees their own profile
// even while it is private.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	viewer := GetIdentityFromGinContext(c).Viewer()

	d, err := h.profileUseCase.GetPublicProfile(c.Request.Context(), c.Param("username"), viewer)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDetailsDTO(d, viewer))
}

func (h *ProfileHandler) ListSkills(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}
	skills, err := h.profileUseCase.ListSkills(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSkillDTOs(skills))
}

func (h *ProfileHandler) AddSkill(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	var req AddSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("'name' is required", err))
		return
	}

	id, err := h.profileUseCase.AddSkill(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ProfileHandler) RemoveSkill(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}
	skillID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.profileUseCase.RemoveSkill(c.Request.Context(), ownerID, skillID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) ListProofs(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}
	proofs, err := h.profileUseCase.ListProofs(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProofDTOs(proofs))
}

// AddProof accepts an empty body and creates a blank entry.
func (h *ProfileHandler) AddProof(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}

	var req ProofRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.NewInvalidInput("invalid JSON body for proof", err))
			return
		}
	}

	fields := profile.ProofFields{}
	if req.Title != nil {
		fields.Title = *req.Title
	}
	if req.URL != nil {
		fields.URL = *req.URL
	}

	id, err := h.profileUseCase.AddProof(c.Request.Context(), ownerID, fields)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ProfileHandler) UpdateProof(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}
	proofID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req ProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for proof", err))
		return
	}

	err := h.profileUseCase.UpdateProof(c.Request.Context(), ownerID, proofID, profile.ProofUpdate{Title: req.Title, URL: req.URL})
	if err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) RemoveProof(c *gin.Context) {
	ownerID, ok := ownerOrError(c)
	if !ok {
		return
	}
	proofID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.profileUseCase.RemoveProof(c.Request.Context(), ownerID, proofID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
