// Package ui renders the browse page and its datastar fragments. Elements
// carry stable ids so fragment responses replace them in place.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

func BrowsePage(title string, items []domain.Item, categories []domain.Category, sel domain.Selection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		fmt.Fprintf(&b, "<title>%s</title>", templ.EscapeString(title))
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script></head><body>", datastarScript)
		fmt.Fprintf(&b, "<main data-signals=\"%s\">", templ.EscapeString(fmt.Sprintf("{search: %q, category: %q}", sel.Search, defaultCategory(sel.CategoryID))))
		fmt.Fprintf(&b, "<h1>%s</h1>", templ.EscapeString(title))
		b.WriteString("<input type=\"search\" placeholder=\"Search\" data-bind:search data-on:input__debounce.300ms=\"@post('/browse/search')\">")
		b.WriteString("<select data-bind:category data-on:change=\"@post('/browse/search')\">")
		fmt.Fprintf(&b, "<option value=\"%s\">All Categories</option>", domain.AllCategories)
		for _, c := range categories {
			selected := ""
			if c.ID == sel.CategoryID {
				selected = " selected"
			}
			fmt.Fprintf(&b, "<option value=\"%s\"%s>%s (%d)</option>", templ.EscapeString(c.ID), selected, templ.EscapeString(c.Name), c.ItemCount)
		}
		b.WriteString("</select><div id=\"flash\"></div>")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := ItemList(items).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>")
		return err
	})
}

func ItemList(items []domain.Item) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<section id=\"item-list\">")
		if len(items) == 0 {
			b.WriteString("<p class=\"empty\">No items match your search.</p>")
		}
		for _, item := range items {
			class := "item"
			if item.Featured {
				class += " featured"
			}
			fmt.Fprintf(&b, "<article id=\"item-%s\" class=\"%s\">", templ.EscapeString(item.ID), class)
			fmt.Fprintf(&b, "<h2>%s</h2><p>%s</p>", templ.EscapeString(item.Name), templ.EscapeString(item.Description))
			fmt.Fprintf(&b, "<ul class=\"stats\"><li>%.1f&#9733;</li><li>%d likes</li><li>%d downloads</li></ul>", item.Rating, item.Likes, item.Downloads)
			if len(item.Tags) > 0 {
				b.WriteString("<ul class=\"tags\">")
				for _, tag := range item.Tags {
					fmt.Fprintf(&b, "<li>%s</li>", templ.EscapeString(tag))
				}
				b.WriteString("</ul>")
			}
			fmt.Fprintf(&b, "<button data-on:click=\"@post('/browse/items/%s/like')\">Like</button>", templ.EscapeString(item.ID))
			b.WriteString("</article>")
		}
		b.WriteString("</section>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func StatsPanel(stats domain.AdminStats) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<section id=\"stats\"><dl>")
		for _, kv := range [][2]string{
			{"Items", fmt.Sprint(stats.TotalItems)},
			{"Downloads", fmt.Sprint(stats.TotalDownloads)},
			{"Likes", fmt.Sprint(stats.TotalLikes)},
			{"Reviews", fmt.Sprint(stats.TotalReviews)},
			{"Pending", fmt.Sprint(stats.PendingReviews)},
			{"Average rating", fmt.Sprintf("%.1f", stats.AverageRating)},
		} {
			fmt.Fprintf(&b, "<dt>%s</dt><dd>%s</dd>", kv[0], kv[1])
		}
		b.WriteString("</dl><ol class=\"activity\">")
		for _, a := range stats.RecentActivity {
			fmt.Fprintf(&b, "<li data-kind=\"%s\">%s <time>%s</time></li>", a.Kind, templ.EscapeString(a.Description), a.Timestamp.Format("2006-01-02"))
		}
		b.WriteString("</ol></section>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func Flash(message, level string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<div id=\"flash\" class=\"flash flash-%s\">%s</div>", templ.EscapeString(level), templ.EscapeString(message))
		return err
	})
}

func defaultCategory(id string) string {
	if id == "" {
		return domain.AllCategories
	}
	return id
}
