package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	r := NewStatic("0xowner", []string{"0xadmin", ""})
	ctx := context.Background()

	tests := []struct {
		name         string
		identity     string
		wantOwner    bool
		wantAdminish bool
	}{
		{name: "owner", identity: "0xowner", wantOwner: true, wantAdminish: true},
		{name: "admin", identity: "0xadmin", wantOwner: false, wantAdminish: true},
		{name: "stranger", identity: "0xstranger", wantOwner: false, wantAdminish: false},
		{name: "empty identity", identity: "", wantOwner: false, wantAdminish: false},
		{name: "case sensitive", identity: "0xOWNER", wantOwner: false, wantAdminish: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOwner, r.IsOwner(ctx, tt.identity))
			assert.Equal(t, tt.wantAdminish, r.IsAdminOrOwner(ctx, tt.identity))
		})
	}
}

func TestStatic_EmptyOwner(t *testing.T) {
	r := NewStatic("", nil)
	assert.False(t, r.IsOwner(context.Background(), ""))
	assert.False(t, r.IsAdminOrOwner(context.Background(), ""))
}
