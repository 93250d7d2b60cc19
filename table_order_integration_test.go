package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dineboard/table-order-app/events"
	"github.com/dineboard/table-order-app/models"
	"github.com/dineboard/table-order-app/router"
	"github.com/dineboard/table-order-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestTableLifecycleIntegration walks one visit end to end:
// 1. Guest scans the table -> session opened, table occupied
// 2. Guest places an order -> pending, unpaid
// 3. Staff takes payment and moves the kitchen status to completed
// 4. Staff closes the session -> table goes to cleaning
// 5. Cleaner marks the table available again
func TestTableLifecycleIntegration(t *testing.T) {
	db := setupIntegrationDB()
	r := router.SetupRouter(db, events.NewDispatcher())

	token := loginTest(t, r)

	var table models.Table
	assert.NoError(t, db.Where("code = ?", "TBL-001").First(&table).Error)

	sessionID := openSessionTest(t, r, table.ID)

	assert.NoError(t, db.First(&table, table.ID).Error)
	assert.Equal(t, models.TableOccupied, table.Status)

	var menu models.Menu
	assert.NoError(t, db.Where("name = ?", "Es Kopi Susu").First(&menu).Error)
	orderID := placeOrderTest(t, r, sessionID, menu.ID)

	payOrderTest(t, r, orderID, token)
	progressOrderTest(t, r, orderID, token)

	closeSessionTest(t, r, sessionID, token)
	assert.NoError(t, db.First(&table, table.ID).Error)
	assert.Equal(t, models.TableCleaning, table.Status)
	assert.Nil(t, table.ActiveSessionID)

	cleanTableTest(t, r, table.ID, token)
	assert.NoError(t, db.First(&table, table.ID).Error)
	assert.Equal(t, models.TableAvailable, table.Status)
}

func setupIntegrationDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Table{},
		&models.MenuCategory{},
		&models.Menu{},
		&models.GuestSession{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Test Staff",
		Email:    "staff@example.com",
		Password: string(hashedPassword),
		Role:     "staff",
	})

	db.Create(models.NewTable(1, "TBL-001"))

	category := models.MenuCategory{Name: "Coffee"}
	db.Create(&category)
	db.Create(&models.Menu{
		CategoryID:  category.ID,
		Name:        "Es Kopi Susu",
		Price:       decimal.RequireFromString("18.00"),
		IsAvailable: true,
	})

	return db
}

func loginTest(t *testing.T, r *gin.Engine) string {
	payload, _ := json.Marshal(map[string]string{
		"email":    "staff@example.com",
		"password": "secret123",
	})
	req, _ := http.NewRequest("POST", "/login", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response["data"].(map[string]interface{})["token"].(string)
}

func openSessionTest(t *testing.T, r *gin.Engine, tableID uint) uint {
	req, _ := http.NewRequest("POST", fmt.Sprintf("/tables/%d/session", tableID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "active", data["status"])
	return uint(data["id"].(float64))
}

func placeOrderTest(t *testing.T, r *gin.Engine, sessionID, menuID uint) uint {
	payload, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": menuID, "quantity": 2, "sugar_level": "normal"},
		},
	})
	req, _ := http.NewRequest("POST", fmt.Sprintf("/sessions/%d/orders", sessionID), bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "unpaid", data["payment_status"])
	orderID := uint(data["id"].(float64))

	// Detail shows the derived total: 2 x 18.00.
	req, _ = http.NewRequest("GET", fmt.Sprintf("/orders/%d", orderID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	detail := response["data"].(map[string]interface{})
	total := decimal.RequireFromString(fmt.Sprintf("%v", detail["total_amount"]))
	assert.True(t, total.Equal(decimal.RequireFromString("36.00")))

	return orderID
}

func payOrderTest(t *testing.T, r *gin.Engine, orderID uint, token string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"payment_status":  "paid",
		"payment_method":  "cash",
		"amount_received": "40.00",
		"tip_amount":      "0",
	})
	req, _ := http.NewRequest("PATCH", fmt.Sprintf("/orders/%d/payment", orderID), bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "paid", data["payment_status"])
}

func progressOrderTest(t *testing.T, r *gin.Engine, orderID uint, token string) {
	for _, status := range []string{"processing", "completed"} {
		payload, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest("PATCH", fmt.Sprintf("/orders/%d/status", orderID), bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, status, data["status"])
	}
}

func closeSessionTest(t *testing.T, r *gin.Engine, sessionID uint, token string) {
	req, _ := http.NewRequest("PATCH", fmt.Sprintf("/sessions/%d/close", sessionID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "closed", data["status"])
}

func cleanTableTest(t *testing.T, r *gin.Engine, tableID uint, token string) {
	req, _ := http.NewRequest("PATCH", fmt.Sprintf("/tables/%d/clean", tableID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "available", data["status"])
}
