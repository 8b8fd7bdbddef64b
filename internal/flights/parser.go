package flights

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"traveld/internal/scrape"
)

// ErrNoResults is returned when a fetched page has no recognizable
// itinerary list, usually a consent interstitial or layout change.
var ErrNoResults = errors.New("no flight results found in page")

// Class names observed on Google Flights result pages. These are the
// obfuscated-but-stable hooks the page has shipped with for years; a
// layout change surfaces as ErrNoResults rather than bad data.
const (
	classResultList  = "Rk10dc" // ul holding itinerary items
	classResultItem  = "pIav2d" // li per itinerary
	classAirline     = "sSHqwe" // airline / operator span
	classTimes       = "mv1WYe" // departure + arrival span (aria-label)
	classDuration    = "gvkrdb" // total duration div
	classStops       = "EfT7Ae" // stops summary div
	classPrice       = "YMlIz"  // price span
	classAhead       = "bOzv6"  // "+1" arrival-day span
	classDelay       = "GsCCve" // delay note span
	classPriceLevel  = "gOatQ"  // route price-level banner
	attrBestSection  = "IWWDBc" // jsname of the "best flights" section
	attrOtherSection = "YdtKid" // jsname of the remaining flights section
)

// ParsePage extracts flight results from a rendered or server-side page.
func ParsePage(doc string) (*Result, error) {
	root, err := scrape.Parse(doc)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	best := scrape.FindFirst(root, byJSName(attrBestSection))
	other := scrape.FindFirst(root, byJSName(attrOtherSection))
	if best == nil && other == nil {
		return nil, ErrNoResults
	}

	if best != nil {
		res.Flights = append(res.Flights, parseSection(best, true)...)
	}
	if other != nil {
		res.Flights = append(res.Flights, parseSection(other, false)...)
	}
	if len(res.Flights) == 0 {
		return nil, ErrNoResults
	}

	if level := scrape.FindFirst(root, scrape.ByClass(classPriceLevel)); level != nil {
		if text := strings.ToLower(scrape.Text(level)); text != "" {
			for _, hint := range []string{"low", "typical", "high"} {
				if strings.Contains(text, hint) {
					h := hint
					res.CurrentPrice = &h
					break
				}
			}
		}
	}

	return res, nil
}

func byJSName(name string) func(*html.Node) bool {
	return func(n *html.Node) bool { return scrape.Attr(n, "jsname") == name }
}

func parseSection(section *html.Node, isBest bool) []Flight {
	var out []Flight
	for _, item := range scrape.FindAll(section, scrape.ByClass(classResultItem)) {
		f := parseItem(item)
		if f == nil {
			continue
		}
		b := isBest
		f.IsBest = &b
		out = append(out, *f)
	}
	return out
}

func parseItem(item *html.Node) *Flight {
	name := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classAirline)))
	if name == "" {
		return nil
	}

	f := &Flight{Name: name}

	// Departure and arrival ride in aria-labels on the times span:
	// "Departure time: 10:20 AM." / "Arrival time: 1:45 PM."
	if times := scrape.FindFirst(item, scrape.ByClass(classTimes)); times != nil {
		for _, span := range scrape.FindAll(times, scrape.ByTag("span")) {
			label := scrape.Attr(span, "aria-label")
			switch {
			case strings.HasPrefix(label, "Departure time:"):
				f.Departure = cleanTimeLabel(label, "Departure time:")
			case strings.HasPrefix(label, "Arrival time:"):
				f.Arrival = cleanTimeLabel(label, "Arrival time:")
			}
		}
	}

	if d := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classDuration))); d != "" {
		f.Duration = &d
	}
	if s := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classStops))); s != "" {
		f.Stops = ParseStops(s)
	}
	if p := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classPrice))); p != "" {
		f.Price = ParsePrice(p)
	}
	if a := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classAhead))); a != "" {
		f.ArrivalTimeAhead = &a
	}
	if d := scrape.Text(scrape.FindFirst(item, scrape.ByClass(classDelay))); d != "" {
		f.Delay = &d
	}

	return f
}

func cleanTimeLabel(label, prefix string) string {
	s := strings.TrimPrefix(label, prefix)
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	return s
}
