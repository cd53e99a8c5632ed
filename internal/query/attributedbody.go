package query

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"howett.net/plist"
)

// Messages sometimes leaves message.text NULL and stores the body only in
// the attributedBody blob. The blob is an archived NSAttributedString in one
// of two containers: an NSKeyedArchiver binary plist, or the older
// typedstream format. Extraction here is best-effort; callers fall back to a
// placeholder when nothing readable comes out.

type keyedArchive struct {
	Objects []interface{} `plist:"$objects"`
}

func extractAttributedBodyText(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	if s := textFromKeyedArchive(blob); s != "" {
		return s
	}
	return textFromTypedStream(blob)
}

// textFromKeyedArchive decodes an NSKeyedArchiver plist and returns the
// first user string from $objects, skipping archiver bookkeeping values.
func textFromKeyedArchive(blob []byte) string {
	if !bytes.HasPrefix(blob, []byte("bplist00")) {
		return ""
	}
	var archive keyedArchive
	if _, err := plist.Unmarshal(blob, &archive); err != nil {
		return ""
	}
	for _, obj := range archive.Objects {
		s, ok := obj.(string)
		if !ok {
			continue
		}
		if s == "" || s == "$null" || strings.HasPrefix(s, "NS") || strings.HasPrefix(s, "__k") {
			continue
		}
		return s
	}
	return ""
}

// textFromTypedStream pulls the string payload out of a typedstream archive.
// The payload follows the NSString class record: five bookkeeping bytes,
// then a length marker (0x81 introduces a two-byte little-endian length for
// strings of 128 bytes or more), then the UTF-8 bytes themselves.
func textFromTypedStream(blob []byte) string {
	idx := bytes.Index(blob, []byte("NSString"))
	if idx < 0 {
		return ""
	}
	rest := blob[idx+len("NSString"):]
	if len(rest) < 7 {
		return ""
	}
	rest = rest[5:]

	var length int
	if rest[0] == 0x81 {
		if len(rest) < 3 {
			return ""
		}
		length = int(rest[1]) | int(rest[2])<<8
		rest = rest[3:]
	} else {
		length = int(rest[0])
		rest = rest[1:]
	}
	if length <= 0 || length > len(rest) {
		return ""
	}

	s := string(rest[:length])
	if !utf8.ValidString(s) {
		return ""
	}
	return s
}
