package validation_test

import (
	"net/http"
	"testing"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/validation"
	"github.com/stretchr/testify/assert"
)

type TestRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Title    string `json:"title" validate:"required,max=255"`
	Price    string `json:"price" validate:"required,price"`
}

func validRequest() TestRequest {
	return TestRequest{
		Email:    "test@example.com",
		Password: "password123",
		Title:    "Avocado Toast",
		Price:    "4.25",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(validRequest())
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		mutate     func(*TestRequest)
		wantErrMsg string
	}{
		{
			name:       "missing required field",
			mutate:     func(r *TestRequest) { r.Title = "" },
			wantErrMsg: "title",
		},
		{
			name:       "invalid email",
			mutate:     func(r *TestRequest) { r.Email = "not-an-email" },
			wantErrMsg: "email",
		},
		{
			name:       "password too short",
			mutate:     func(r *TestRequest) { r.Password = "short" },
			wantErrMsg: "password",
		},
		{
			name:       "negative price",
			mutate:     func(r *TestRequest) { r.Price = "-1.00" },
			wantErrMsg: "price",
		},
		{
			name:       "price with too many decimals",
			mutate:     func(r *TestRequest) { r.Price = "1.999" },
			wantErrMsg: "price",
		},
		{
			name:       "price with too many digits",
			mutate:     func(r *TestRequest) { r.Price = "123456" },
			wantErrMsg: "price",
		},
		{
			name:       "price not a number",
			mutate:     func(r *TestRequest) { r.Price = "cheap" },
			wantErrMsg: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, domainerrors.As(err, &domainErr)) {
				assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
				assert.Contains(t, domainErr.Details, tt.wantErrMsg)
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := validRequest()
	req.Email = ""

	err := v.Validate(req)
	assert.Error(t, err)

	// Should use JSON tag name "email", not struct field name "Email"
	var domainErr *domainerrors.Error
	if assert.True(t, domainerrors.As(err, &domainErr)) {
		assert.Contains(t, domainErr.Details, "email")
		assert.NotContains(t, domainErr.Details, "Email")
	}
}

func TestValidPrice(t *testing.T) {
	valid := []string{"0", "5", "4.25", "12.5", "999.99", "12345"}
	for _, s := range valid {
		assert.True(t, validation.ValidPrice(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "-1", "1.999", "123456", "1234.56", "5,00", "abc", "1."}
	for _, s := range invalid {
		assert.False(t, validation.ValidPrice(s), "expected %q to be invalid", s)
	}
}
