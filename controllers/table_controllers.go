package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/services"
	"github.com/dineboard/table-order-app/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// CreateTable -> register a new physical table.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number int    `json:"number" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.NewTable(req.Number, req.Code)
	if err := tc.DB.Create(table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("table %s created (number=%d)", table.Code, table.Number)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetAllTables -> list every table with its occupancy state.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundf("table %d not found", tableID))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// MarkAvailable -> cleaner returns a table to service. Refused while the
// table is occupied.
func (tc *TableController) MarkAvailable(c *gin.Context) {
	tc.mutateTable(c, "Table marked available", func(t *models.Table) error {
		return t.MarkAvailable()
	})
}

func (tc *TableController) ActivateTable(c *gin.Context) {
	tc.mutateTable(c, "Table activated", func(t *models.Table) error {
		t.Activate()
		return nil
	})
}

func (tc *TableController) DeactivateTable(c *gin.Context) {
	tc.mutateTable(c, "Table deactivated", func(t *models.Table) error {
		return t.Deactivate()
	})
}

// mutateTable loads, mutates and version-saves one table.
func (tc *TableController) mutateTable(c *gin.Context, message string, mutate func(*models.Table) error) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundf("table %d not found", tableID))
		return
	}

	if err := mutate(&table); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	prev := table.LockVersion
	table.LockVersion++
	if err := services.SaveVersioned(tc.DB, &table, table.ID, prev); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("table %s -> %s (active=%v)", table.Code, table.Status, table.IsActive)
	utils.RespondJSON(c, http.StatusOK, message, table)
}

// DeleteTable -> remove a table. Occupied tables keep their sessions; the
// session close path tolerates the missing table.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, ok := paramUint(c, "table_id")
	if !ok {
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondAppError(c, utils.NotFoundf("table %d not found", tableID))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("table %s deleted", table.Code)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
