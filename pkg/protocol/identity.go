package protocol

import (
	"strings"
)

// Identity is the parsed reply to the *IDN? query:
// manufacturer:board_type:asset_tag:sw_version.
type Identity struct {
	Manufacturer string
	BoardType    string
	AssetTag     string
	SWVersion    string
}

// ParseIdentity splits an identity value. A reply with fewer than four
// fields is malformed; extra fields are joined into the version, as some
// firmwares embed ':' in it.
func ParseIdentity(value string) (Identity, error) {
	fields := strings.SplitN(value, ":", 4)
	if len(fields) < 4 {
		return Identity{}, &Error{Raw: value, Reason: "identity needs 4 fields"}
	}
	return Identity{
		Manufacturer: fields[0],
		BoardType:    fields[1],
		AssetTag:     fields[2],
		SWVersion:    fields[3],
	}, nil
}

func (id Identity) String() string {
	return id.BoardType + ":" + id.AssetTag
}
