package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outermost code", func(t *testing.T) {
		err := New(CodeLandRecordClosed, "land record is closed")
		assert.True(t, HasCode(err, CodeLandRecordClosed))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches wrapped code through fmt.Errorf", func(t *testing.T) {
		inner := New(CodeIllegalTransition, "illegal")
		err := fmt.Errorf("execute command: %w", inner)
		assert.True(t, HasCode(err, CodeIllegalTransition))
	})

	t.Run("matches inner code through Wrap", func(t *testing.T) {
		inner := New(CodeInvalidAntecedentType, "bad antecedent")
		err := Wrap(inner, CodeValidation, "registration rejected")
		assert.True(t, HasCode(err, CodeValidation))
		assert.True(t, HasCode(err, CodeInvalidAntecedentType))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestDetails(t *testing.T) {
	err := New(CodeInvalidBookEntryPresentationTime, "presentation time outside book window").
		WithDetail("valid_from", "2024-01-01").
		WithDetail("valid_to", "2024-12-31")

	details := Details(fmt.Errorf("allocate: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, "2024-01-01", details["valid_from"])
	assert.Equal(t, "2024-12-31", details["valid_to"])
	assert.Nil(t, Details(errors.New("plain")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:                   http.StatusBadRequest,
		CodeUndefinedNextStatus:          http.StatusBadRequest,
		CodeNotFound:                     http.StatusNotFound,
		CodeNotAssignedToUser:            http.StatusForbidden,
		CodeLandRecordClosed:             http.StatusConflict,
		CodeBookEntryNumberAlreadyExists: http.StatusConflict,
		CodeIllegalTransition:            http.StatusUnprocessableEntity,
		CodeAntecedentNotFound:           http.StatusUnprocessableEntity,
		CodeInvariantViolation:           http.StatusInternalServerError,
		CodeInternal:                     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
