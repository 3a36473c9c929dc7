package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ChatRequest is the body of POST /api/chatbot/chat.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=2000"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// ResetRequest is the optional body of POST /api/chatbot/reset.
type ResetRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// BatchUpdateRequest is the body of POST /api/budget/update.
type BatchUpdateRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// CategoryUpdateRequest is the body of POST /api/budget/update-category.
type CategoryUpdateRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Amount   *int64 `json:"amount" validate:"required,gte=0,lte=1000000000000"`
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// decodeJSON reads the body into dst, sanitizes its string fields through
// dst's normalize method, then validates the struct tags. An empty body is
// accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst normalizer, allowEmpty bool) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if !allowEmpty {
			return errors.New("No data provided")
		}
	} else if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("%s must be a valid %s", typeErr.Field, typeName(typeErr.Type.Kind()))
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	dst.normalize()
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

type normalizer interface {
	normalize()
}

func (c *ChatRequest) normalize() {
	c.Message = sanitizeInput(c.Message)
	c.SessionID = sanitizeInput(c.SessionID)
}

func (c *ResetRequest) normalize() { c.SessionID = sanitizeInput(c.SessionID) }

func (c *BatchUpdateRequest) normalize() { c.Text = sanitizeInput(c.Text) }

func (c *CategoryUpdateRequest) normalize() { c.Category = sanitizeInput(c.Category) }

// validationMessage flattens validator errors into one readable error.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func typeName(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int64:
		return "whole number"
	case reflect.String:
		return "string"
	default:
		return k.String()
	}
}
