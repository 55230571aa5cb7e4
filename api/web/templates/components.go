// Package templates renders the HTML fragments swapped in by htmx.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/floracafe/cafesite/slideshow"
	"github.com/floracafe/cafesite/store"
)

func esc(s string) string {
	return templ.EscapeString(s)
}

// safeURL drops urls with schemes templ does not consider safe.
func safeURL(u string) string {
	return esc(string(templ.URL(u)))
}

func deleteURL(photo store.GalleryPhoto) string {
	return "/admin/gallery/" + photo.ID
}

func formatPrice(price float64) string {
	return "R$ " + strings.Replace(fmt.Sprintf("%.2f", price), ".", ",", 1)
}

// GalleryGrid renders the visible window. Slots are keyed by position so the
// client can fade a single slot when a swap event arrives.
func GalleryGrid(state slideshow.State, fadeMillis int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<div class=\"gallery-grid\" id=\"gallery-grid\" style=\"--fade-ms: %dms\">\n", fadeMillis)
		for slot, photo := range state.Displayed {
			fmt.Fprintf(&b, "  <figure class=\"gallery-slot\" data-slot=\"%d\">\n", slot)
			fmt.Fprintf(&b, "    <img src=\"%s\" alt=\"%s\" class=\"gallery-photo\" loading=\"lazy\" />\n",
				safeURL(photo.URL), esc(photo.Alt))
			if photo.Alt != "" {
				fmt.Fprintf(&b, "    <figcaption>%s</figcaption>\n", esc(photo.Alt))
			}
			b.WriteString("  </figure>\n")
		}
		if len(state.Displayed) == 0 {
			b.WriteString("  <p class=\"gallery-empty\">Nenhuma foto ainda.</p>\n")
		}
		b.WriteString("</div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// MenuList renders the menu grouped by category in the canonical order.
func MenuList(items []store.MenuItem) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		byCategory := make(map[string][]store.MenuItem)
		for _, item := range items {
			byCategory[item.Category] = append(byCategory[item.Category], item)
		}

		var b strings.Builder
		b.WriteString("<div class=\"menu\">\n")
		for _, category := range store.MenuCategories {
			group := byCategory[category]
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  <section class=\"menu-category\">\n    <h3>%s</h3>\n", esc(category))
			for _, item := range group {
				b.WriteString("    <article class=\"menu-item\">\n")
				if item.ImageURL != "" {
					fmt.Fprintf(&b, "      <img src=\"%s\" alt=\"%s\" class=\"menu-thumbnail\" loading=\"lazy\" />\n",
						safeURL(item.ImageURL), esc(item.Name))
				}
				fmt.Fprintf(&b, "      <div class=\"menu-text\">\n        <h4>%s</h4>\n        <p>%s</p>\n      </div>\n",
					esc(item.Name), esc(item.Description))
				fmt.Fprintf(&b, "      <span class=\"menu-price\">%s</span>\n", esc(formatPrice(item.Price)))
				b.WriteString("    </article>\n")
			}
			b.WriteString("  </section>\n")
		}
		if len(items) == 0 {
			b.WriteString("  <p class=\"menu-empty\">Cardápio em breve.</p>\n")
		}
		b.WriteString("</div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// AdminGalleryList renders the admin thumbnails with delete buttons.
func AdminGalleryList(photos []store.GalleryPhoto) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div class=\"photo-row\">\n")
		for _, photo := range photos {
			b.WriteString("  <div class=\"photo-item\">\n")
			fmt.Fprintf(&b, "    <img src=\"%s\" alt=\"%s\" class=\"photo-thumbnail\" />\n",
				safeURL(photo.URL), esc(photo.Alt))
			fmt.Fprintf(&b, "    <span class=\"photo-source\">%s</span>\n", esc(photo.Source))
			fmt.Fprintf(&b,
				"    <button class=\"photo-delete-btn\" "+
					"title=\"Excluir foto\" "+
					"hx-delete=\"%s\" "+
					"hx-swap=\"none\" "+
					"hx-confirm=\"Excluir esta foto?\">"+
					"&times;"+
					"</button>\n",
				esc(deleteURL(photo)),
			)
			b.WriteString("  </div>\n")
		}
		b.WriteString("</div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
