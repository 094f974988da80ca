package extract

import "strings"

// googleDocsChunkMarker precedes each text run in the markup Google Docs
// serves instead of regular HTML.
const googleDocsChunkMarker = `"s":"`

// GoogleDocs reassembles document text from the chunked script payload of a
// Google Docs page. Returns an empty string when the marker is absent.
func GoogleDocs(markup string) (string, error) {
	chunks := strings.Split(markup, googleDocsChunkMarker)
	if len(chunks) < 2 {
		return "", nil
	}
	// Docs encodes newlines as \n and vertical tabs as \u000b.
	replacer := strings.NewReplacer(`\n`, "\n", `\u000b`, "\n")
	var b strings.Builder
	for _, chunk := range chunks[1:] {
		run, _, _ := strings.Cut(chunk, `"},`)
		b.WriteString(replacer.Replace(run))
	}
	return strings.TrimSpace(b.String()), nil
}
