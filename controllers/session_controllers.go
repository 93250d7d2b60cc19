package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dineboard/table-order-app/services"
	"github.com/dineboard/table-order-app/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// GetOrCreateSession -> the table-side polling endpoint: returns the active
// session for the table, or opens one and occupies the table.
func (sc *SessionController) GetOrCreateSession(c *gin.Context) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}

	session, created, err := sc.Sessions.GetOrCreateSession(c.Request.Context(), tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if created {
		utils.RespondJSON(c, http.StatusCreated, "Session opened", session)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active session", session)
}

// OpenCounterSession -> takeaway session without a table.
func (sc *SessionController) OpenCounterSession(c *gin.Context) {
	session, err := sc.Sessions.OpenCounterSession(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Counter session opened", session)
}

// CloseSession -> staff closes the visit; the table goes to cleaning.
func (sc *SessionController) CloseSession(c *gin.Context) {
	sessionID, ok := paramUint(c, "session_id")
	if !ok {
		return
	}

	session, err := sc.Sessions.CloseSession(c.Request.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", session)
}

// MergeWithCustomer -> link a registered customer to a running session.
func (sc *SessionController) MergeWithCustomer(c *gin.Context) {
	sessionID, ok := paramUint(c, "session_id")
	if !ok {
		return
	}

	var body struct {
		CustomerID uint `json:"customer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.MergeWithCustomer(c.Request.Context(), sessionID, body.CustomerID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer linked to session", session)
}
