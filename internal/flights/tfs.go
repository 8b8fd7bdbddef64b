package flights

import (
	"encoding/base64"
	"net/url"
)

// Google Flights encodes the search in a `tfs` query parameter: a
// base64url protobuf blob. The message layout below was recovered by
// diffing URLs the web UI produces; only the fields the service sets are
// modeled, written with a minimal varint/length-delimited encoder.
//
//	field 3  (repeated message): flight leg
//	    field 2  (string): travel date YYYY-MM-DD
//	    field 13 (message): origin      { field 2 (string): IATA code }
//	    field 14 (message): destination { field 2 (string): IATA code }
//	field 8  (repeated enum): passengers (adult=1 child=2 infant-seat=3 infant-lap=4)
//	field 9  (enum): seat class (economy=1 premium=2 business=3 first=4)
//	field 19 (enum): trip type (round-trip=1 one-way=2 multi-city=3)

const flightsBaseURL = "https://www.google.com/travel/flights"

type protoWriter struct {
	buf []byte
}

func (w *protoWriter) varint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

func (w *protoWriter) tag(field int, wire int) {
	w.varint(uint64(field)<<3 | uint64(wire))
}

// writeEnum writes a varint-typed field.
func (w *protoWriter) writeEnum(field int, v int) {
	w.tag(field, 0)
	w.varint(uint64(v))
}

// writeBytes writes a length-delimited field.
func (w *protoWriter) writeBytes(field int, b []byte) {
	w.tag(field, 2)
	w.varint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *protoWriter) writeString(field int, s string) {
	w.writeBytes(field, []byte(s))
}

var seatEnum = map[string]int{
	SeatEconomy:        1,
	SeatPremiumEconomy: 2,
	SeatBusiness:       3,
	SeatFirst:          4,
}

var tripEnum = map[string]int{
	TripRoundTrip: 1,
	TripOneWay:    2,
	TripMultiCity: 3,
}

func encodeAirport(code string) []byte {
	var w protoWriter
	w.writeString(2, code)
	return w.buf
}

func encodeLeg(date, from, to string) []byte {
	var w protoWriter
	w.writeString(2, date)
	w.writeBytes(13, encodeAirport(from))
	w.writeBytes(14, encodeAirport(to))
	return w.buf
}

// encodeTFS builds the raw tfs blob for a validated request.
func encodeTFS(r SearchRequest) []byte {
	var w protoWriter
	w.writeBytes(3, encodeLeg(r.Date, r.FromAirport, r.ToAirport))
	for i := 0; i < r.Adults; i++ {
		w.writeEnum(8, 1)
	}
	for i := 0; i < r.Children; i++ {
		w.writeEnum(8, 2)
	}
	for i := 0; i < r.InfantsInSeat; i++ {
		w.writeEnum(8, 3)
	}
	for i := 0; i < r.InfantsOnLap; i++ {
		w.writeEnum(8, 4)
	}
	w.writeEnum(9, seatEnum[r.Seat])
	w.writeEnum(19, tripEnum[r.Trip])
	return w.buf
}

// SearchURL returns the Google Flights URL for a validated request.
func SearchURL(r SearchRequest) string {
	tfs := base64.RawURLEncoding.EncodeToString(encodeTFS(r))
	q := url.Values{}
	q.Set("tfs", tfs)
	q.Set("hl", "en")
	q.Set("curr", "USD")
	return flightsBaseURL + "?" + q.Encode()
}
