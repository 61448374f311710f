package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderPlainText(t *testing.T) {
	styles := NoColorStyles()

	for name, style := range map[string]interface{ Render(...string) string }{
		"header":   styles.Header,
		"selected": styles.Selected,
		"folder":   styles.Folder,
		"app":      styles.App,
		"path":     styles.Path,
	} {
		assert.Equal(t, "Reports", style.Render("Reports"), name)
	}
}

func TestGetStyles(t *testing.T) {
	// When: asking for colored and plain styles
	colored := GetStyles(false)
	plain := GetStyles(true)

	// Then: both keep the text
	assert.Contains(t, colored.Success.Render("ready"), "ready")
	assert.Equal(t, "ready", plain.Success.Render("ready"))
}
