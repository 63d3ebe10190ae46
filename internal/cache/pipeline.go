package cache

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/biograph/trapi-engine/internal/recordstore"
)

// chunkSizeLimit bounds a single hash-field write (spec §4.5: "Chunks are
// bounded (≈100 KB) to keep individual writes small").
const chunkSizeLimit = 100 * 1024

// tokenDelimiter separates per-record tokens within a chunk. It is the ASCII
// record separator, which never appears in base64url output.
const tokenDelimiter = "\x1e"

// EncodeChunks runs the spec §9 encode pipeline — serialize, LZ4-compress,
// base64url-encode, then pack into delimited, size-bounded chunks — over
// records in order. The final, possibly under-sized chunk is still flushed.
func EncodeChunks(records []*recordstore.Record) ([]string, error) {
	var chunks []string
	var cur strings.Builder

	for _, r := range records {
		token, err := encodeToken(r)
		if err != nil {
			return nil, err
		}
		if cur.Len() > 0 && cur.Len()+len(tokenDelimiter)+len(token) > chunkSizeLimit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(tokenDelimiter)
		}
		cur.WriteString(token)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks, nil
}

// DecodeChunks reverses EncodeChunks. Malformed tokens are reported as
// errors rather than aborting the decode (spec §7f): the caller logs each
// one as a dropped malformed record and keeps the rest.
func DecodeChunks(chunks []string) ([]*recordstore.Record, []error) {
	var records []*recordstore.Record
	var warnings []error
	for _, chunk := range chunks {
		if chunk == "" {
			continue
		}
		for _, tok := range strings.Split(chunk, tokenDelimiter) {
			if tok == "" {
				continue
			}
			r, err := decodeToken(tok)
			if err != nil {
				warnings = append(warnings, err)
				continue
			}
			records = append(records, r)
		}
	}
	return records, warnings
}

func encodeToken(r *recordstore.Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal record for cache: %w", err)
	}
	compressed, err := lz4Compress(data)
	if err != nil {
		return "", fmt.Errorf("lz4 compress record: %w", err)
	}
	return base64.URLEncoding.EncodeToString(compressed), nil
}

func decodeToken(tok string) (*recordstore.Record, error) {
	compressed, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return nil, fmt.Errorf("base64url decode cached token: %w", err)
	}
	data, err := lz4Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress cached token: %w", err)
	}
	var r recordstore.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal cached record: %w", err)
	}
	return &r, nil
}

func lz4Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
