package simplemedia_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

func TestMediaKindPolicy(t *testing.T) {
	tests := []struct {
		kind      simplemedia.MediaKind
		width     int
		height    int
		fixedSlot bool
	}{
		{kind: simplemedia.KindMedia, width: 1280, height: 960, fixedSlot: false},
		{kind: simplemedia.KindAvatar, width: 400, height: 400, fixedSlot: true},
		{kind: simplemedia.KindBanner, width: 900, height: 300, fixedSlot: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			policy := tt.kind.Policy()
			assert.Equal(t, tt.width, policy.Width)
			assert.Equal(t, tt.height, policy.Height)
			assert.Equal(t, tt.fixedSlot, tt.kind.FixedSlot())
			assert.Equal(t, tt.fixedSlot, policy.ExactFit)
			assert.True(t, tt.kind.Valid())
		})
	}
}

func TestMediaKindValid(t *testing.T) {
	assert.False(t, simplemedia.MediaKind("poster").Valid())
	assert.False(t, simplemedia.MediaKind("").Valid())
}
