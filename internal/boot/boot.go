package boot

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/reliclang/relic/internal/runtime"
)

// The boot blob carries the data half of startup: error message templates
// and the mezzanine (the part of the standard library written in the
// language itself). It is a zstd-compressed YAML document, so hosts can
// ship a patched catalog or an extended mezzanine without rebuilding the
// interpreter. relic-boot produces the file; a compiled-in copy of the
// same document keeps the interpreter self-sufficient.

// Doc is the decoded boot document.
type Doc struct {
	// Errors maps error ids to printf-style message templates, merged over
	// the compiled-in catalog.
	Errors map[string]string `yaml:"errors"`

	// Mezzanine is source evaluated into lib during startup.
	Mezzanine string `yaml:"mezzanine"`
}

// blobMagic guards against feeding arbitrary zstd files to the decoder.
var blobMagic = []byte("RELICBOOT\x00")

// Encode serializes and compresses a boot document.
func Encode(doc Doc) ([]byte, error) {
	payload, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal boot document: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(blobMagic)
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode inflates and parses a boot blob.
func Decode(blob []byte) (Doc, error) {
	var doc Doc
	if !bytes.HasPrefix(blob, blobMagic) {
		return doc, fmt.Errorf("not a boot blob (bad magic)")
	}
	r, err := zstd.NewReader(bytes.NewReader(blob[len(blobMagic):]))
	if err != nil {
		return doc, err
	}
	defer r.Close()
	var payload bytes.Buffer
	if _, err := payload.ReadFrom(r); err != nil {
		return doc, fmt.Errorf("cannot decompress boot blob: %w", err)
	}
	if err := yaml.Unmarshal(payload.Bytes(), &doc); err != nil {
		return doc, fmt.Errorf("cannot parse boot document: %w", err)
	}
	return doc, nil
}

// Builtin is the compiled-in boot document, used when no external blob is
// given. relic-boot encodes exactly this.
func Builtin() Doc {
	return Doc{
		Errors:    builtinErrors,
		Mezzanine: mezzanine,
	}
}

// Startup applies a boot document to a fresh runtime: catalog templates are
// merged, then the mezzanine is evaluated with lib as its binding so its
// definitions land next to the natives.
func Startup(rt *runtime.Runtime, doc Doc) error {
	runtime.RegisterErrors(doc.Errors)
	if doc.Mezzanine == "" {
		return nil
	}
	arr, err := rt.Scan(doc.Mezzanine)
	if err != nil {
		return fmt.Errorf("mezzanine does not scan: %w", err)
	}
	var out runtime.Cell
	if err := rt.RunArrayFully(arr, 0, rt.Lib, &out); err != nil {
		return fmt.Errorf("mezzanine failed to evaluate: %w", err)
	}
	return nil
}
