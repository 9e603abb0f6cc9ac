// Package polyline encodes and decodes Google encoded polylines, the format
// both the Directions API and OpenRouteService use for route geometry.
// Algorithm: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ErrMalformed is returned when the input ends in the middle of a value or
// holds an odd number of values.
var ErrMalformed = errors.New("malformed polyline")

// precision is the fixed five-decimal scale of the format.
const precision = 1e5

// Decode decodes an encoded polyline into a line string. Points are in
// orb order: [lng, lat].
func Decode(encoded string) (orb.LineString, error) {
	if encoded == "" {
		return nil, nil
	}

	var (
		ls       orb.LineString
		index    int
		lat, lng int
	)
	for index < len(encoded) {
		dLat, next, ok := decodeValue(encoded, index)
		if !ok {
			return nil, ErrMalformed
		}
		dLng, next, ok := decodeValue(encoded, next)
		if !ok {
			return nil, ErrMalformed
		}
		index = next
		lat += dLat
		lng += dLng
		ls = append(ls, orb.Point{float64(lng) / precision, float64(lat) / precision})
	}
	return ls, nil
}

// decodeValue reads one zig-zag varint starting at index. ok is false when
// the string ends before the value's final chunk.
func decodeValue(encoded string, index int) (value, next int, ok bool) {
	shift, result := 0, 0
	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}
	return 0, index, false
}

// Encode encodes a line string.
func Encode(ls orb.LineString) string {
	if len(ls) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(ls)*6)
	prevLat, prevLng := 0, 0
	for _, p := range ls {
		lat := int(math.Round(p.Lat() * precision))
		lng := int(math.Round(p.Lon() * precision))
		buf = encodeValue(buf, lat-prevLat)
		buf = encodeValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}
	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Length returns the length of the line in meters.
func Length(ls orb.LineString) float64 {
	return geo.Length(ls)
}

// Sample returns points spaced roughly intervalMeters apart along the line,
// always including both ends.
func Sample(ls orb.LineString, intervalMeters float64) []orb.Point {
	if len(ls) == 0 {
		return nil
	}
	if intervalMeters <= 0 {
		return append([]orb.Point(nil), ls...)
	}

	sampled := []orb.Point{ls[0]}
	accumulated := 0.0
	for i := 1; i < len(ls); i++ {
		from, to := ls[i-1], ls[i]
		segment := geo.Distance(from, to)
		travelled := 0.0

		for accumulated+(segment-travelled) >= intervalMeters {
			travelled += intervalMeters - accumulated
			f := travelled / segment
			sampled = append(sampled, orb.Point{
				from.Lon() + f*(to.Lon()-from.Lon()),
				from.Lat() + f*(to.Lat()-from.Lat()),
			})
			accumulated = 0
		}
		accumulated += segment - travelled
	}

	if last := ls[len(ls)-1]; sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}
	return sampled
}

// Near reports whether p lies within meters of any sampled point of ls.
func Near(ls orb.LineString, p orb.Point, meters float64) bool {
	for _, s := range Sample(ls, meters/2) {
		if geo.Distance(s, p) <= meters {
			return true
		}
	}
	return false
}
