package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dineboard/table-order-app/services"
	"github.com/dineboard/table-order-app/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// PlaceOrder -> create an order against a session.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	sessionID, ok := paramUint(c, "session_id")
	if !ok {
		return
	}

	var body struct {
		DeviceToken *string              `json:"device_token"`
		Items       []services.PlaceItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.PlaceOrder(c.Request.Context(), sessionID, body.DeviceToken, body.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// GetOrderByID -> order detail with lines and derived total.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", gin.H{
		"order":        order,
		"total_amount": order.TotalAmount(),
	})
}

// ListSessionOrders -> all orders of one session.
func (oc *OrderController) ListSessionOrders(c *gin.Context) {
	sessionID, ok := paramUint(c, "session_id")
	if !ok {
		return
	}

	orders, err := oc.Orders.ListSessionOrders(c.Request.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}

// MergeOrders -> fold the secondaries into the order in the path.
func (oc *OrderController) MergeOrders(c *gin.Context) {
	primaryID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		SecondaryIDs []uint `json:"secondary_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.MergeOrders(c.Request.Context(), primaryID, body.SecondaryIDs)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders merged", order)
}

// SplitOrder -> move quantities out of the source order into a new one.
func (oc *OrderController) SplitOrder(c *gin.Context) {
	orderID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		Items []services.SplitItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	split, err := oc.Orders.SplitOrder(c.Request.Context(), orderID, body.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order split", split)
}

// UpdateOrderItem -> set a line quantity; zero removes the line. The
// optional session_id is the anonymous guest's ownership proof.
func (oc *OrderController) UpdateOrderItem(c *gin.Context) {
	orderID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		ProductID uint  `json:"product_id" binding:"required"`
		Quantity  *int  `json:"quantity" binding:"required"`
		SessionID *uint `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrderItem(c.Request.Context(), orderID, body.ProductID, *body.Quantity, body.SessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order item updated", order)
}

// UpdateOrderStatus -> guarded status transition.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrderStatus(c.Request.Context(), orderID, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// UpdatePayment -> record settlement evidence on an order.
func (oc *OrderController) UpdatePayment(c *gin.Context) {
	orderID, ok := paramUint(c, "order_id")
	if !ok {
		return
	}

	var body struct {
		PaymentStatus  string           `json:"payment_status" binding:"required"`
		PaymentMethod  string           `json:"payment_method"`
		AmountReceived *decimal.Decimal `json:"amount_received"`
		TipAmount      decimal.Decimal  `json:"tip_amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdatePayment(c.Request.Context(), orderID,
		body.PaymentStatus, body.PaymentMethod, body.AmountReceived, body.TipAmount)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment updated", order)
}
