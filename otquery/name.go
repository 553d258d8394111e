package otquery

import (
	"encoding/binary"

	"github.com/npillmayer/gtype/ot"
	"golang.org/x/text/encoding/unicode"
)

// Name IDs of table `name` (OpenType spec section on naming).
const (
	nameIDFamily    = 1
	nameIDSubfamily = 2
	nameIDVersion   = 5
)

// FontName returns the family name of a font, or "" if the font has no
// usable `name` table.
func FontName(otf *ot.Font) string {
	return nameString(otf, nameIDFamily)
}

// NameInfo returns a map with selected fields from table `name`.
// Will include (if available in the font) "family", "subfamily", "version".
func NameInfo(otf *ot.Font) map[string]string {
	names := make(map[string]string)
	for field, nameID := range map[string]int{
		"family":    nameIDFamily,
		"subfamily": nameIDSubfamily,
		"version":   nameIDVersion,
	} {
		if s := nameString(otf, nameID); s != "" {
			names[field] = s
		}
	}
	return names
}

// nameString scans the records of table `name` for a given name ID,
// accepting Unicode (platform 0) and Windows (platform 3) records, whose
// strings are encoded as UTF-16BE.
func nameString(otf *ot.Font, nameID int) string {
	table := otf.Table(ot.T("name"))
	if table == nil {
		tracer().Debugf("no name table found in font")
		return ""
	}
	b := table.Binary()
	if len(b) < 6 {
		return ""
	}
	count := int(binary.BigEndian.Uint16(b[2:]))
	stringOffset := int(binary.BigEndian.Uint16(b[4:]))
	for i := 0; i < count; i++ {
		rec := 6 + 12*i
		if rec+12 > len(b) {
			break
		}
		platformID := binary.BigEndian.Uint16(b[rec:])
		id := int(binary.BigEndian.Uint16(b[rec+6:]))
		if id != nameID || (platformID != 0 && platformID != 3) {
			continue
		}
		length := int(binary.BigEndian.Uint16(b[rec+8:]))
		offset := stringOffset + int(binary.BigEndian.Uint16(b[rec+10:]))
		if offset+length > len(b) {
			continue
		}
		utf16be := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		s, err := utf16be.NewDecoder().Bytes(b[offset : offset+length])
		if err != nil {
			tracer().Infof("undecodable name record %d in font", id)
			continue
		}
		return string(s)
	}
	return ""
}
