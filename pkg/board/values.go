package board

import (
	"math"
	"strconv"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// mapToInt linearly maps x from [inMin, inMax] onto [outMin, outMax],
// truncated to the integer the firmware expects.
func mapToInt(x, inMin, inMax float64, outMin, outMax int) int {
	return int((x-inMin)*float64(outMax-outMin)/(inMax-inMin) + float64(outMin))
}

// mapToFloat linearly maps x from [inMin, inMax] onto [outMin, outMax],
// rounded to three decimal places as board readings conventionally are.
func mapToFloat(x, inMin, inMax int, outMin, outMax float64) float64 {
	v := float64(x-inMin)*(outMax-outMin)/float64(inMax-inMin) + outMin
	return math.Round(v*1000) / 1000
}

// boundsCheck validates a float argument against its legal range.
func boundsCheck(value, min, max float64, what string) error {
	if math.IsNaN(value) || value < min || value > max {
		return &ValueOutOfRangeError{What: what, Min: min, Max: max, Got: value}
	}
	return nil
}

// parseMilli converts a firmware milli-unit reading to base units.
func parseMilli(raw string) (float64, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return float64(v) / 1000, nil
}

func parseBoolFlag(raw string) bool {
	return raw == "1"
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

// atoiField parses one integer field of a reply, reporting the whole raw
// reply on failure.
func atoiField(field, raw string) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, &protocol.Error{Raw: raw, Reason: "bad integer field"}
	}
	return v, nil
}
