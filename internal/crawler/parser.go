package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"catalogscout/internal/model"
)

const (
	productScopeSelector = ".product_main"
	titleSelector        = "h1"
	priceSelector        = "p.price_color"
	availabilitySelector = "p.instock.availability"
	ratingSelector       = "p.star-rating"
)

// Extract reads one detail page into a RawRecord. Lookups are scoped to the
// product container when the page has one, otherwise to the whole document.
// Absent elements leave the field nil.
func Extract(doc *goquery.Document) model.RawRecord {
	scope := doc.Selection
	if main := doc.Find(productScopeSelector).First(); main.Length() > 0 {
		scope = main
	}

	var rec model.RawRecord
	if s := scope.Find(titleSelector).First(); s.Length() > 0 {
		rec.Title = model.Str(strings.TrimSpace(s.Text()))
	} else if s := doc.Find(titleSelector).First(); s.Length() > 0 {
		rec.Title = model.Str(strings.TrimSpace(s.Text()))
	}
	if s := scope.Find(priceSelector).First(); s.Length() > 0 {
		rec.Price = model.Str(strings.TrimSpace(s.Text()))
	}
	if s := scope.Find(availabilitySelector).First(); s.Length() > 0 {
		rec.Availability = model.Str(collapseSpace(s.Text()))
	}
	if s := scope.Find(ratingSelector).First(); s.Length() > 0 {
		// class="star-rating Three": the word after the marker is the rating.
		classes := strings.Fields(s.AttrOr("class", ""))
		if len(classes) > 1 {
			rec.Rating = model.Str(classes[1])
		}
	}
	return rec
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
