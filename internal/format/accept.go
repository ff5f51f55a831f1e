package format

import (
	"mime"
	"sort"
	"strconv"
	"strings"
)

// AcceptEntry is a single media range from an Accept header
type AcceptEntry struct {
	MimeType string
	Quality  float64
	Params   map[string]string
}

// ParseAccept splits an Accept header into its media ranges ordered by
// preference. Entries with equal quality keep their declaration order.
// Malformed entries and entries with q=0 are dropped.
func ParseAccept(header string) []AcceptEntry {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	entries := make([]AcceptEntry, 0, strings.Count(header, ",")+1)
	for _, part := range strings.Split(header, ",") {
		entry, ok := parseAcceptEntry(part)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Quality > entries[j].Quality
	})

	return entries
}

func parseAcceptEntry(part string) (AcceptEntry, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return AcceptEntry{}, false
	}

	mediaType, params, err := mime.ParseMediaType(part)
	if err != nil {
		return AcceptEntry{}, false
	}
	typ, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || typ == "" || subtype == "" {
		return AcceptEntry{}, false
	}

	quality := 1.0
	if raw, ok := params["q"]; ok {
		q, err := strconv.ParseFloat(raw, 64)
		if err != nil || q < 0 || q > 1 {
			return AcceptEntry{}, false
		}
		quality = q
		delete(params, "q")
	}
	if quality == 0 {
		return AcceptEntry{}, false
	}

	return AcceptEntry{
		MimeType: mediaType,
		Quality:  quality,
		Params:   params,
	}, true
}
