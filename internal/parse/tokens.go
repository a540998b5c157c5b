package parse

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// fieldKey identifies the record field a key alias assigns to.
type fieldKey int

const (
	keySerial fieldKey = iota
	keyTemperature
	keyHumidity
	keyBatteryLevel
	keyBatteryMax
	keyBatteryMin
	keyState
	keyManufacturer
	keyType
	keyError
	keyVoltage

	fieldCount
)

// aliases maps every accepted key spelling onto its record field.
// Lookups are case-folded before matching.
var aliases = map[string]fieldKey{
	"serial":       keySerial,
	"serialnumber": keySerial,
	"temp":         keyTemperature,
	"hum":          keyHumidity,
	"bat":          keyBatteryLevel,
	"batlevel":     keyBatteryLevel,
	"batterylevel": keyBatteryLevel,
	"batmax":       keyBatteryMax,
	"batmin":       keyBatteryMin,
	"state":        keyState,
	"manu":         keyManufacturer,
	"manufac":      keyManufacturer,
	"manufacturer": keyManufacturer,
	"type":         keyType,
	"error":        keyError,
	"v":            keyVoltage,
	"v2":           keyVoltage,
	"v3":           keyVoltage,
}

// aliasesByLength holds every alias longest-first so that scanning prefers
// "batterylevel" over "bat" when both match at the same position.
var aliasesByLength = sortedAliases()

func sortedAliases() []string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b string) int {
		if d := len(b) - len(a); d != 0 {
			return d
		}

		return strings.Compare(a, b)
	})

	return keys
}

// token is one extracted key/value pair.
type token struct {
	key   fieldKey
	value string
}

// keyMatch locates a key alias inside a lower-cased line.
type keyMatch struct {
	start int // first byte of the alias
	next  int // just past the ':'
	key   fieldKey
}

// findKey locates the earliest known key alias at or after from. A match is
// an alias immediately followed by a colon; unknown alpha runs never
// delimit, which lets values like "Qualcomm" sit flush against the next key.
func findKey(lower string, from int) (keyMatch, bool) {
	for i := from; i < len(lower); i++ {
		for _, alias := range aliasesByLength {
			end := i + len(alias)
			if end >= len(lower) {
				continue
			}

			if lower[i:end] == alias && lower[end] == ':' {
				return keyMatch{start: i, next: end + 1, key: aliases[alias]}, true
			}
		}
	}

	return keyMatch{}, false
}

// scan splits a raw line into key/value tokens. A value runs from its key's
// colon to the start of the next known key, or end of line. Case folds on
// keys only; values keep their original casing.
func scan(raw string) []token {
	lower := strings.ToLower(raw)

	var tokens []token

	match, ok := findKey(lower, 0)
	for ok {
		next, hasNext := findKey(lower, match.next)

		end := len(raw)
		if hasNext {
			end = next.start
		}

		tokens = append(tokens, token{key: match.key, value: strings.TrimSpace(raw[match.next:end])})
		match, ok = next, hasNext
	}

	return tokens
}

// extract folds scanned tokens into record fields. The first non-empty
// occurrence of a field wins; later duplicates are ignored. The boolean
// reports whether any field received a value.
func extract(raw string) (record.Fields, bool) {
	var (
		fields record.Fields
		seen   [fieldCount]bool
		found  bool
	)

	for _, tok := range scan(raw) {
		if tok.value == "" || seen[tok.key] {
			continue
		}

		seen[tok.key] = true
		found = true

		switch tok.key {
		case keySerial:
			fields.Serial = tok.value
		case keyTemperature:
			fields.Temperature = coerceFloat(tok.value)
		case keyHumidity:
			fields.Humidity = coerceFloat(tok.value)
		case keyBatteryLevel:
			fields.BatteryLevel = coerceFloat(tok.value)
		case keyBatteryMax:
			fields.BatteryMax = coerceFloat(tok.value)
		case keyBatteryMin:
			fields.BatteryMin = coerceFloat(tok.value)
		case keyState:
			fields.State = tok.value
		case keyManufacturer:
			fields.Manufacturer = tok.value
		case keyType:
			fields.Type = record.ParseType(tok.value)
		case keyError:
			fields.Error = tok.value
		case keyVoltage:
			fields.Voltage = coerceFloat(tok.value)
		case fieldCount:
		}
	}

	return fields, found
}

// coerceFloat parses a numeric value, mapping failures to 0 so that one bad
// number never drops the whole record.
func coerceFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}

	return f
}
