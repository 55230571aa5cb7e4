package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageHelpers(t *testing.T) {
	tests := []struct {
		name        string
		supported   bool
		contentType string
		alt         string
	}{
		{name: "fachada.JPG", supported: true, contentType: "image/jpeg", alt: "fachada"},
		{name: "area-externa_2.png", supported: true, contentType: "image/png", alt: "area externa 2"},
		{name: "mesa.webp", supported: true, contentType: "image/webp", alt: "mesa"},
		{name: "notes.txt", supported: false, contentType: "application/octet-stream", alt: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.supported, IsSupportedImage(tt.name))
			assert.Equal(t, tt.contentType, ImageContentType(tt.name))
			assert.Equal(t, tt.alt, AltFromName(tt.name))
		})
	}
}
