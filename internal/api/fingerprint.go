package api

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// songNamespace scopes fingerprint UUIDs to this application.
var songNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://radiocalico.live/songs"))

// fieldSeparator cannot appear in normalized artist or title text.
const fieldSeparator = "\x1f"

// Fingerprint derives the stable song identifier for an artist/title pair.
func Fingerprint(artist, title string) string {
	key := NormalizeSongField(artist) + fieldSeparator + NormalizeSongField(title)
	return uuid.NewSHA1(songNamespace, []byte(key)).String()
}

// NormalizeSongField trims, collapses whitespace, case folds, and applies NFC.
func NormalizeSongField(value string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(value)), " ")
	// cases.Caser is stateful, so a fresh one is built per call.
	folded := cases.Fold().String(collapsed)
	return strings.ReplaceAll(norm.NFC.String(folded), fieldSeparator, "")
}
