package upload

import (
	"encoding/base64"
	"strings"
)

// MetadataPair is one entry of the Upload-Metadata header.
type MetadataPair struct {
	Key   string
	Value string
}

// EncodeMetadata renders pairs in order as "key base64(value)" joined by commas.
func EncodeMetadata(pairs []MetadataPair) string {
	encoded := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		encoded = append(encoded, pair.Key+" "+base64.StdEncoding.EncodeToString([]byte(pair.Value)))
	}
	return strings.Join(encoded, ",")
}
