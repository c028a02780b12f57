package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisCache_KeyNamespacing(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"roomdesk", "roomdesk:rooms:active"},
		{"roomdesk:", "roomdesk:rooms:active"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			c := NewRedisCache(nil, tt.prefix, time.Minute)
			assert.Equal(t, tt.want, c.key("rooms:active"))
		})
	}
}
