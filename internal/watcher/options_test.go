package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_SetDefaults(t *testing.T) {
	var zero Options
	zero.setDefaults()
	assert.True(t, zero.IgnoreHidden)
	assert.Equal(t, 500*time.Millisecond, zero.SettleDelay)
	assert.Subset(t, zero.IgnorePatterns, []string{".DS_Store", "Thumbs.db", "*.part"})

	custom := Options{SettleDelay: 2 * time.Second, IgnorePatterns: []string{"*.xmp"}}
	custom.setDefaults()
	assert.False(t, custom.IgnoreHidden, "explicit patterns leave hidden files alone")
	assert.Equal(t, 2*time.Second, custom.SettleDelay)
	assert.Equal(t, []string{"*.xmp"}, custom.IgnorePatterns)
}

func TestOptions_Filtering(t *testing.T) {
	inbox := Options{Extensions: []string{".PNG", ".jpg"}}
	inbox.setDefaults()

	tests := []struct {
		path   string
		ignore bool
		wanted bool
	}{
		{"/inbox/beach.png", false, true},
		{"/inbox/IMG_0001.JPG", false, true},
		{"/inbox/scan.gif", false, false},
		{"/inbox/README", false, false},
		{"/inbox/.hidden.png", true, true},
		{"/inbox/.sync/a.png", true, true},
		{"/inbox/.DS_Store", true, false},
		{"/inbox/upload.png.part", true, false},
		{"/inbox/Thumbs.db", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignore, inbox.shouldIgnore(tt.path), "ignore")
			assert.Equal(t, tt.wanted, inbox.wants(tt.path), "wants")
		})
	}
}

func TestOptions_HiddenAllowed(t *testing.T) {
	opts := Options{IgnorePatterns: []string{}}
	opts.setDefaults()

	assert.False(t, opts.shouldIgnore("/inbox/.hidden.png"))
	assert.True(t, opts.wants("/inbox/anything.gif"), "no extensions means every file")
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "settled", OpSettled.String())
	assert.Equal(t, "removed", OpRemoved.String())
	assert.Equal(t, "unknown", Op(0).String())
	assert.Equal(t, "unknown", Op(9).String())
}
