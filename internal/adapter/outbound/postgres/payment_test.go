package postgres

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func TestMapError(t *testing.T) {
	t.Run("record not found", func(t *testing.T) {
		assert.ErrorIs(t, mapError("op", gorm.ErrRecordNotFound), outbound.ErrNotFound)
	})

	t.Run("duplicated key", func(t *testing.T) {
		assert.ErrorIs(t, mapError("op", gorm.ErrDuplicatedKey), outbound.ErrDuplicate)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := mapError("save payment", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "save payment")
	})
}

func TestPaymentSchema_UniqueIndexes(t *testing.T) {
	s, err := schema.Parse(&model.Payment{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	unique := map[string][]string{}
	for _, idx := range s.ParseIndexes() {
		if idx.Class != "UNIQUE" {
			continue
		}
		var cols []string
		for _, f := range idx.Fields {
			cols = append(cols, f.DBName)
		}
		unique[idx.Name] = cols
	}

	assert.Contains(t, unique, "idx_payments_order_id")
	assert.Equal(t, []string{"order_id"}, unique["idx_payments_order_id"])
	assert.Equal(t, []string{"provider_transaction_id"}, unique["idx_payments_provider_transaction_id"])
}
