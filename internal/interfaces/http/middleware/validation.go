package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/datapadi/web/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type customTag struct {
	fn      validator.Func
	message string
}

// customTags are the VTU specific binding tags
var customTags = map[string]customTag{
	"ng_phone": {
		fn:      func(fl validator.FieldLevel) bool { return purchase.ValidatePhone(fl.Field().String()) == nil },
		message: "Must be a phone number of 10 to 14 digits",
	},
	"network": {
		fn:      func(fl validator.FieldLevel) bool { return vtuapi.NormalizeNetworkKey(fl.Field().String()).IsValid() },
		message: "Must be one of: MTN, AIRTEL, GLO, 9MOBILE",
	},
	"pin_value": {
		fn: func(fl validator.FieldLevel) bool {
			return fl.Field().CanInt() && vtuapi.IsPinValue(fl.Field().Int())
		},
		message: "Must be one of: 100, 200, 500",
	},
}

// SetupValidator installs the custom tags on gin's binding validator
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterValidators(v)
}

// RegisterValidators adds the custom tags to v and makes field errors
// report the json (or form) name of the field.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)
	for tag, ct := range customTags {
		if err := v.RegisterValidation(tag, ct.fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// FormatValidationErrors turns a bind error into the error envelope.
// Anything that is not a field validation failure is a malformed body.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size", requestID)
		}
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed request body", requestID)
	}

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", details, requestID)
}

// HandleValidationError answers a failed ShouldBind call
func HandleValidationError(c *gin.Context, err error) {
	resp := FormatValidationErrors(err, GetRequestID(c))
	c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
}

func fieldMessage(fe validator.FieldError) string {
	if ct, ok := customTags[fe.Tag()]; ok {
		return ct.message
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "len":
		return "Must be exactly " + fe.Param() + unit
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "Invalid email format"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "numeric":
		return "Must be numeric"
	case "dive":
		return "Invalid list entry"
	}
	return "Invalid value"
}
