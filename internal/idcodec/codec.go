// Package idcodec maps wall-clock instants onto time-ordered opaque
// identifiers so that identifier ranges can stand in for timestamp filters.
package idcodec

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidIdentifier is returned for identifiers that carry no decodable time.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Codec builds range boundaries and decodes identifiers to calendar days.
type Codec interface {
	// Lower returns the smallest identifier minted during t's second.
	Lower(t time.Time) string
	// Upper returns the largest identifier minted during t's second.
	Upper(t time.Time) string
	DecodeDate(id string) (Date, error)
}

// ObjectIDCodec works on hex encoded Mongo ObjectIDs, whose first four bytes
// are big-endian epoch seconds. Lowercase hex keeps lexical order equal to
// byte order.
type ObjectIDCodec struct{}

var _ Codec = ObjectIDCodec{}

// Lower returns the smallest ObjectID minted during t's second.
func (ObjectIDCodec) Lower(t time.Time) string {
	return primitive.NewObjectIDFromTimestamp(t).Hex()
}

// Upper returns the largest ObjectID minted during t's second.
func (ObjectIDCodec) Upper(t time.Time) string {
	id := primitive.NewObjectIDFromTimestamp(t)
	for i := 4; i < len(id); i++ {
		id[i] = 0xff
	}
	return id.Hex()
}

// DecodeDate returns the UTC calendar day embedded in an ObjectID.
func (ObjectIDCodec) DecodeDate(id string) (Date, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidIdentifier, id, err)
	}
	return DateOf(oid.Timestamp()), nil
}

// IdentifierRange is an inclusive identifier window. A nil bound is open.
type IdentifierRange struct {
	Lower *string
	Upper *string
}

// Unbounded reports whether neither side is constrained.
func (r IdentifierRange) Unbounded() bool {
	return r.Lower == nil && r.Upper == nil
}

// ResolveRange turns an optional day window into identifier bounds. A start
// day without an end day is capped at now; with neither day the range is open.
func ResolveRange(c Codec, start, end *Date, now time.Time) IdentifierRange {
	var r IdentifierRange
	if start != nil {
		lower := c.Lower(start.Start())
		r.Lower = &lower
	}
	switch {
	case end != nil:
		upper := c.Upper(end.End())
		r.Upper = &upper
	case start != nil:
		upper := c.Upper(now)
		r.Upper = &upper
	}
	return r
}
