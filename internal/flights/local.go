package flights

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Sample itineraries for the local fetch mode, used in development and
// tests so nothing leaves the machine.
//
//go:embed samples.json
var sampleData []byte

func localFlights(req SearchRequest) (*Result, error) {
	var res Result
	if err := json.Unmarshal(sampleData, &res); err != nil {
		return nil, fmt.Errorf("decode flight samples: %w", err)
	}
	// Stamp the route into the sample names so responses read sensibly.
	for i := range res.Flights {
		res.Flights[i].Name = fmt.Sprintf("%s (%s-%s)", res.Flights[i].Name, req.FromAirport, req.ToAirport)
	}
	return &res, nil
}
