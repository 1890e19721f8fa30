// Package sitefixture renders pages laid out like the catalog site, so the
// default selector configuration can be exercised without the real site.
package sitefixture

import (
	"fmt"
	"html"
	"strings"
)

// Product is the content of one fixture product page.
// An empty ImageSrc or Description leaves that element out; name and price are always rendered.
type Product struct {
	ID          string
	Name        string
	Price       string
	Description string
	ImageSrc    string
	ImageAlt    string
}

// LoginPage renders the login form
func LoginPage() string {
	return `<!DOCTYPE html>
<html><head><title>Login</title></head><body>
<div><div><div>
  <div class="nav">The Blueprisms</div>
  <div><div><div>
    <div class="logo"></div>
    <div><div><form method="post" action="/login">
      <div><h2>Sign in</h2></div>
      <div>
        <div><input name="username" type="text"></div>
        <div><div><input name="password" type="password"></div></div>
        <div><button type="submit">Login</button></div>
      </div>
    </form></div></div>
  </div></div></div>
</div></div></div>
</body></html>`
}

// HomePage renders the page shown after a successful login
func HomePage() string {
	return `<!DOCTYPE html>
<html><head><title>Catalog</title></head><body>
<div><div><div><div class="nav">The Blueprisms</div><div><p>Welcome back</p></div></div></div></div>
</body></html>`
}

// ProductPage renders a product detail page
func ProductPage(p Product) string {
	var image, desc string
	if p.ImageSrc != "" {
		image = fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(p.ImageSrc), html.EscapeString(p.ImageAlt))
	}
	name := fmt.Sprintf("<div>\n          %s\n        </div>", html.EscapeString(p.Name))
	price := fmt.Sprintf("<div> %s </div>", html.EscapeString(p.Price))
	if p.Description != "" {
		desc = fmt.Sprintf("<div><div>Description</div><div><p>%s</p></div></div>", html.EscapeString(p.Description))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Product %s</title></head><body>
<div><div><div>
  <div class="nav">The Blueprisms</div>
  <div><div>
    <div class="crumbs">Catalog / %s</div>
    <div>
      <div><div>%s</div></div>
      <div>
        %s
        %s
        %s
      </div>
    </div>
  </div></div>
</div></div></div>
</body></html>`, html.EscapeString(p.ID), html.EscapeString(p.ID), image, name, price, desc)
	return b.String()
}
