package paymentValidator

import (
	"strconv"
	"strings"

	"learnly/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// VerifyTransactionRequest is the user-submitted transaction identifier pair
type VerifyTransactionRequest struct {
	TransactionID    string `json:"transactionId" validate:"required,min=4"`
	UPITransactionID string `json:"upiTransactionId" validate:"omitempty,min=4"`
}

func VerifyTransaction() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Enrollment ID is required!", nil)
		}

		enrollmentID, err := strconv.Atoi(idStr)
		if err != nil || enrollmentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		reqData := new(VerifyTransactionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "TransactionID":
					errors["transactionId"] = "Transaction ID is required (min 4 characters)!"
				case "UPITransactionID":
					errors["upiTransactionId"] = "UPI transaction ID must be at least 4 characters!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("enrollmentID", enrollmentID)
		c.Locals("validatedVerifyRequest", reqData)
		return c.Next()
	}
}
