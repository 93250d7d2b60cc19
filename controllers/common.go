package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dineboard/table-order-app/utils"
)

// paramUint reads a numeric path parameter; a garbled id responds 400 and
// returns false.
func paramUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.RespondAppError(c, utils.Invalidf(name, "must be a numeric id"))
		return 0, false
	}
	return uint(id), true
}
