package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"", OrderLexical, false},
		{"lexical", OrderLexical, false},
		{" Numeric ", OrderNumeric, false},
		{"random", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrder(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrder_SortNumeric(t *testing.T) {
	ids := []string{"2.1.1", "1.10.1", "1.2.10", "1.2.2", "10.1.1"}
	OrderNumeric.Sort(ids)
	assert.Equal(t, []string{"1.2.2", "1.2.10", "1.10.1", "2.1.1", "10.1.1"}, ids)
}
