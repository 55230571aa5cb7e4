package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/floracafe/cafesite/slideshow"
	"github.com/floracafe/cafesite/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestGalleryGrid(t *testing.T) {
	state := slideshow.State{
		Displayed: []slideshow.Photo{
			{ID: "1", URL: "/media/a.jpg", Alt: `Bolo "da casa" & café`},
			{ID: "2", URL: "javascript:alert(1)", Alt: ""},
		},
		FadingSlot: slideshow.NoSlot,
	}

	html := render(t, GalleryGrid(state, 500))

	assert.Contains(t, html, `style="--fade-ms: 500ms"`)
	assert.Contains(t, html, `data-slot="0"`)
	assert.Contains(t, html, `data-slot="1"`)
	assert.Contains(t, html, `alt="Bolo &#34;da casa&#34; &amp; café"`)
	assert.NotContains(t, html, "javascript:")
	assert.Equal(t, 1, strings.Count(html, "<figcaption>"))
}

func TestGalleryGridEmpty(t *testing.T) {
	html := render(t, GalleryGrid(slideshow.State{FadingSlot: slideshow.NoSlot}, 500))
	assert.Contains(t, html, "Nenhuma foto ainda.")
}

func TestMenuListGroupsByCategory(t *testing.T) {
	items := []store.MenuItem{
		{Name: "Brigadeiro", Price: 3.5, Category: store.CategorySweets},
		{Name: "Espresso", Price: 5, Category: store.CategoryCoffee},
		{Name: "<script>", Price: 1, Category: store.CategoryCoffee},
		{Name: "Sem categoria", Price: 1, Category: "Outros"},
	}

	html := render(t, MenuList(items))

	assert.Less(t, strings.Index(html, store.CategoryCoffee), strings.Index(html, store.CategorySweets))
	assert.Contains(t, html, "R$ 3,50")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "Sem categoria")
	assert.NotContains(t, html, store.CategoryDrinks)
}

func TestAdminGalleryList(t *testing.T) {
	html := render(t, AdminGalleryList([]store.GalleryPhoto{
		{ID: "abc", URL: "/local/a.jpg", Alt: "a", Source: store.SourceLocal},
	}))

	assert.Contains(t, html, `hx-delete="/admin/gallery/abc"`)
	assert.Contains(t, html, `<span class="photo-source">local</span>`)
}
