package hotels

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Sample listings for the local fetch mode.
//
//go:embed samples.json
var sampleData []byte

func localHotels(req SearchRequest) (*Result, error) {
	var res Result
	if err := json.Unmarshal(sampleData, &res); err != nil {
		return nil, fmt.Errorf("decode hotel samples: %w", err)
	}
	for i := range res.Hotels {
		res.Hotels[i].Name = fmt.Sprintf("%s, %s", res.Hotels[i].Name, req.Location)
	}
	return &res, nil
}
