package filter_test

import (
	"testing"

	"einvoice/internal/filter"

	"github.com/stretchr/testify/assert"
)

func TestMergeExternal(t *testing.T) {
	local := filter.Filter{
		filter.FieldCustomerName: filter.StringValue("ACME"),
		filter.FieldStatus:       filter.StringValue("PENDING"),
	}

	tests := []struct {
		name  string
		patch filter.Patch
		want  filter.Filter
	}{
		{
			name:  "nil patch keeps local",
			patch: nil,
			want:  local,
		},
		{
			name:  "patch overrides its fields only",
			patch: filter.Patch{filter.FieldStatus: filter.StringValue("ERROR")},
			want: filter.Filter{
				filter.FieldCustomerName: filter.StringValue("ACME"),
				filter.FieldStatus:       filter.StringValue("ERROR"),
			},
		},
		{
			name:  "absent clears",
			patch: filter.Patch{filter.FieldStatus: filter.Absent()},
			want:  filter.Filter{filter.FieldCustomerName: filter.StringValue("ACME")},
		},
		{
			name:  "patch values are normalised",
			patch: filter.Patch{filter.FieldStatus: filter.StringValue("redNote")},
			want: filter.Filter{
				filter.FieldCustomerName: filter.StringValue("ACME"),
				filter.FieldStatus:       filter.StringValue("RED_NOTE"),
			},
		},
		{
			name:  "unknown fields ignored",
			patch: filter.Patch{filter.Field("warehouse"): filter.StringValue("W1")},
			want:  local,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.MergeExternal(local, tt.patch)
			assert.Truef(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	assert.Equal(t, "PENDING", local.Get(filter.FieldStatus).Text(), "input filter is not mutated")
}
