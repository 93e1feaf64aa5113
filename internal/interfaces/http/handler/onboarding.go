package handler

import (
	"github.com/gin-gonic/gin"
	onboardingapp "github.com/remotive/saleshub/internal/application/onboarding"
)

// OnboardingHandler handles rep onboarding checklists
type OnboardingHandler struct {
	BaseHandler
	checklistService *onboardingapp.ChecklistService
}

// NewOnboardingHandler creates a new OnboardingHandler
func NewOnboardingHandler(checklistService *onboardingapp.ChecklistService) *OnboardingHandler {
	return &OnboardingHandler{checklistService: checklistService}
}

// Mine godoc
// @ID           getMyChecklist
// @Summary      My onboarding checklist
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[onboardingapp.ChecklistResponse]
// @Security     BearerAuth
// @Router       /onboarding/me [get]
func (h *OnboardingHandler) Mine(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	checklist, err := h.checklistService.Mine(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checklist)
}

// CompleteStep godoc
// @ID           completeOnboardingStep
// @Summary      Complete a checklist step
// @Tags         onboarding
// @Produce      json
// @Param        step path string true "Step" Enums(profile, password, crm_tour, first_lead, first_message, first_quote)
// @Success      200 {object} APIResponse[onboardingapp.ChecklistResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /onboarding/me/steps/{step} [post]
func (h *OnboardingHandler) CompleteStep(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	checklist, err := h.checklistService.CompleteStep(c.Request.Context(), caller, c.Param("step"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checklist)
}

// TeamProgress godoc
// @ID           getTeamOnboarding
// @Summary      Team onboarding progress
// @Description  Managers see their team; administrators see every active user
// @Tags         onboarding
// @Produce      json
// @Success      200 {object} APIResponse[[]onboardingapp.MemberProgress]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /onboarding/team [get]
func (h *OnboardingHandler) TeamProgress(c *gin.Context) {
	caller, ok := h.Caller(c)
	if !ok {
		return
	}
	progress, err := h.checklistService.TeamProgress(c.Request.Context(), caller)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, progress)
}
