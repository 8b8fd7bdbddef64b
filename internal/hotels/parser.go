package hotels

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"traveld/internal/scrape"
)

// ErrNoResults is returned when a fetched page has no recognizable hotel
// listings.
var ErrNoResults = errors.New("no hotel results found in page")

const hotelsBaseURL = "https://www.google.com/travel/hotels"

// Class names observed on Google Travel hotel listings. Layout changes
// surface as ErrNoResults rather than bad data.
const (
	classCard      = "uaTTDe" // listing card container
	className      = "QT7m7"  // hotel name heading
	classPrice     = "kixHKb" // nightly price span
	classRating    = "KFi5wf" // star rating span
	classAmenities = "RJM8Kc" // amenity chip
	classLink      = "PVOOXe" // anchor to the hotel page
)

// SearchURL returns the Google Travel hotels URL for a validated request.
func SearchURL(r SearchRequest) string {
	q := url.Values{}
	q.Set("q", r.Location)
	q.Set("checkin", r.CheckinDate)
	q.Set("checkout", r.CheckoutDate)
	q.Set("adults", strconv.Itoa(r.Adults))
	if r.Children > 0 {
		q.Set("children", strconv.Itoa(r.Children))
	}
	q.Set("hl", "en")
	q.Set("curr", "USD")
	return hotelsBaseURL + "?" + q.Encode()
}

var ratingRe = regexp.MustCompile(`\d+(\.\d+)?`)

// ParsePage extracts hotel listings from a rendered page.
func ParsePage(doc string) (*Result, error) {
	root, err := scrape.Parse(doc)
	if err != nil {
		return nil, err
	}

	cards := scrape.FindAll(root, scrape.ByClass(classCard))
	if len(cards) == 0 {
		return nil, ErrNoResults
	}

	res := &Result{}
	for _, card := range cards {
		name := scrape.Text(scrape.FindFirst(card, scrape.ByClass(className)))
		if name == "" {
			continue
		}
		h := Hotel{Name: name}

		if p := scrape.Text(scrape.FindFirst(card, scrape.ByClass(classPrice))); p != "" {
			h.Price = parsePrice(p)
		}
		if r := scrape.Text(scrape.FindFirst(card, scrape.ByClass(classRating))); r != "" {
			if m := ratingRe.FindString(r); m != "" {
				if v, err := strconv.ParseFloat(m, 64); err == nil {
					h.Rating = &v
				}
			}
		}
		for _, chip := range scrape.FindAll(card, scrape.ByClass(classAmenities)) {
			if a := scrape.Text(chip); a != "" {
				h.Amenities = append(h.Amenities, a)
			}
		}
		if link := scrape.FindFirst(card, scrape.ByClass(classLink)); link != nil {
			if href := scrape.Attr(link, "href"); href != "" {
				u := absoluteURL(href)
				h.URL = &u
			}
		}

		res.Hotels = append(res.Hotels, h)
	}

	if len(res.Hotels) == 0 {
		return nil, ErrNoResults
	}
	return res, nil
}

var priceRe = regexp.MustCompile(`[\d,.]+`)

func parsePrice(s string) *float64 {
	m := priceRe.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return "https://www.google.com" + href
	}
	return href
}
