package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/controllers"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/utils"
)

func setupTableRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	tableCtrl := controllers.NewTableController(db)
	router.POST("/tables", tableCtrl.CreateTable)
	router.GET("/tables", tableCtrl.GetAllTables)
	router.GET("/tables/:table_id", tableCtrl.GetTableByID)
	router.PATCH("/tables/:table_id/clean", tableCtrl.MarkAvailable)
	router.PATCH("/tables/:table_id/deactivate", tableCtrl.DeactivateTable)
	router.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	return router
}

func TestCreateAndListTables(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB()
	router := setupTableRouter(db)

	payload, err := json.Marshal(map[string]interface{}{"number": 7, "code": "TBL-007"})
	assert.NoError(t, err)
	req, err := http.NewRequest("POST", "/tables", bytes.NewBuffer(payload))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Table created", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "available", data["status"])
	assert.Equal(t, true, data["is_active"])

	req, err = http.NewRequest("GET", "/tables", nil)
	assert.NoError(t, err)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "List of tables", response["message"])
	assert.Len(t, response["data"].([]interface{}), 1)
}

func TestMarkTableAvailable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB()
	table := seedTestTable(db, 8)
	table.Status = models.TableCleaning
	assert.NoError(t, db.Save(table).Error)
	router := setupTableRouter(db)

	req, err := http.NewRequest("PATCH", fmt.Sprintf("/tables/%d/clean", table.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Table marked available", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "available", data["status"])
}

func TestMarkOccupiedTableAvailableConflicts(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB()
	table := seedTestTable(db, 9)

	session := models.NewGuestSession(table.ID)
	assert.NoError(t, db.Create(session).Error)
	assert.NoError(t, table.OpenSession(session.ID))
	assert.NoError(t, db.Save(table).Error)

	router := setupTableRouter(db)
	req, err := http.NewRequest("PATCH", fmt.Sprintf("/tables/%d/clean", table.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeactivateTableEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB()
	table := seedTestTable(db, 10)
	router := setupTableRouter(db)

	req, err := http.NewRequest("PATCH", fmt.Sprintf("/tables/%d/deactivate", table.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_active"])
}

func TestDeleteTableEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDB()
	table := seedTestTable(db, 11)
	router := setupTableRouter(db)

	req, err := http.NewRequest("DELETE", fmt.Sprintf("/tables/%d", table.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, err = http.NewRequest("GET", fmt.Sprintf("/tables/%d", table.ID), nil)
	assert.NoError(t, err)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
