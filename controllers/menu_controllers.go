package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/utils"
)

// MenuController exposes the catalog surface the ordering flow needs: a
// listing for guests and a price/availability edit for staff. Edits publish
// menu_changed so the read-through cache drops the stale entry; existing
// order lines keep their snapshots.
type MenuController struct {
	DB     *gorm.DB
	Events *events.Dispatcher
}

func NewMenuController(db *gorm.DB, dispatcher *events.Dispatcher) *MenuController {
	return &MenuController{DB: db, Events: dispatcher}
}

func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var menus []models.Menu
	if err := mc.DB.Preload("Category").Where("is_available = ?", true).Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	menuID, ok := paramUint(c, "menu_id")
	if !ok {
		return
	}

	var req struct {
		Name        *string          `json:"name"`
		Price       *decimal.Decimal `json:"price"`
		Discount    *decimal.Decimal `json:"discount"`
		IsAvailable *bool            `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.First(&menu, menuID).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundf("menu %d not found", menuID))
		return
	}

	if req.Name != nil {
		menu.Name = *req.Name
	}
	if req.Price != nil {
		menu.Price = *req.Price
	}
	if req.Discount != nil {
		menu.Discount = *req.Discount
	}
	if req.IsAvailable != nil {
		menu.IsAvailable = *req.IsAvailable
	}

	if menu.Price.IsNegative() {
		utils.RespondAppError(c, utils.Invalidf("price", "must not be negative"))
		return
	}
	if menu.Discount.IsNegative() || menu.Discount.GreaterThan(menu.Price) {
		utils.RespondAppError(c, utils.Invalidf("discount", "must be between 0 and the price"))
		return
	}

	if err := mc.DB.Save(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if mc.Events != nil {
		mc.Events.Dispatch(events.Event{Name: events.EventMenuChanged, Payload: menu.ID})
	}

	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}
