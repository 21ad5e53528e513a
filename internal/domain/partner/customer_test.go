package partner

import (
	"testing"

	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer with optional fields", func(t *testing.T) {
		c, err := NewCustomer(" דני כהן ", "הרצל 1, תל אביב", "050-1234567", "")
		require.NoError(t, err)
		assert.Equal(t, "דני כהן", c.Name)
		assert.Equal(t, "050-1234567", c.Phone)
		assert.Empty(t, c.Email)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := NewCustomer("", "", "", "")
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewCustomer("Dana", "", "", "not-an-email")
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}
