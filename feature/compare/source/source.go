package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"criteria-diff/core/reconcile"
	"criteria-diff/core/storage"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for an unknown document format name.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument is returned when a source holds no document at all.
	ErrEmptyDocument = errors.New("empty document")
)

// Format is the serialization of a source document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string means "detect".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat infers the format from a file or object name.
// Anything that is not .yaml or .yml is read as JSON.
func DetectFormat(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses data into a raw document. JSON numbers are kept as
// json.Number so their literal form survives until comparison.
func Decode(data []byte, format Format) (reconcile.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	switch format {
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if doc == nil {
			return nil, ErrEmptyDocument
		}
		return stringKeys(doc), nil
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var doc any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, errors.New("failed to parse JSON: unexpected data after document")
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// stringKeys converts YAML mappings with non-string keys so every mapping in
// the document is a map[string]any.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}

// Kind tells where a source document lives.
type Kind string

const (
	KindFile    Kind = "file"
	KindStorage Kind = "storage"
)

// Ref points to one source document.
type Ref struct {
	// Kind is the location type.
	Kind Kind
	// Bucket overrides the default bucket for storage refs.
	Bucket string
	// Path is the file path or object key.
	Path string
	// Format is the document format; empty means detect from Path.
	Format Format
}

// ParseRef parses a source reference. "s3://bucket/key" and "storage:key"
// point to object storage; anything else is a local file path.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Ref{}, errors.New("empty source reference")
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return Ref{}, fmt.Errorf("invalid storage reference %q (want s3://bucket/key)", s)
		}
		return Ref{Kind: KindStorage, Bucket: bucket, Path: key}, nil
	case strings.HasPrefix(s, "storage:"):
		key := strings.TrimPrefix(s, "storage:")
		if key == "" {
			return Ref{}, fmt.Errorf("invalid storage reference %q", s)
		}
		return Ref{Kind: KindStorage, Path: key}, nil
	default:
		return Ref{Kind: KindFile, Path: s}, nil
	}
}

// ObjectRef points to an object in the default bucket.
func ObjectRef(key string) Ref {
	return Ref{Kind: KindStorage, Path: key}
}

// FileRef points to a local file.
func FileRef(p string) Ref {
	return Ref{Kind: KindFile, Path: p}
}

// String returns a stable key for the reference, usable as a cache key.
func (r Ref) String() string {
	if r.Kind == KindStorage {
		return "s3://" + r.Bucket + "/" + r.Path
	}
	return r.Path
}

// Loader reads and decodes source documents from disk or object storage.
type Loader struct {
	client storage.Client
	bucket string
}

// NewLoader creates a loader. client may be nil when only files are read.
func NewLoader(client storage.Client, bucket string) *Loader {
	return &Loader{client: client, bucket: bucket}
}

// Resolve fills in the default bucket of a storage ref.
func (l *Loader) Resolve(ref Ref) Ref {
	if ref.Kind == KindStorage && ref.Bucket == "" {
		ref.Bucket = l.bucket
	}
	return ref
}

// Load reads and decodes the document ref points to.
func (l *Loader) Load(ctx context.Context, ref Ref) (reconcile.Document, error) {
	ref = l.Resolve(ref)

	var (
		doc reconcile.Document
		err error
	)
	switch ref.Kind {
	case KindStorage:
		if l.client == nil {
			return nil, fmt.Errorf("source %s: storage is not configured", ref)
		}
		doc, err = LoadObject(ctx, l.client, ref.Bucket, ref.Path, ref.Format)
	default:
		doc, err = LoadFile(ref.Path, ref.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", ref, err)
	}
	return doc, nil
}

// LoadFile reads and decodes a local file. An empty format is detected from
// the file name.
func LoadFile(name string, format Format) (reconcile.Document, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = DetectFormat(name)
	}
	return Decode(data, format)
}

// LoadObject downloads and decodes an object. An empty format is detected
// from the object key.
func LoadObject(ctx context.Context, client storage.Client, bucket, object string, format Format) (reconcile.Document, error) {
	data, err := storage.ReadObject(ctx, client, bucket, object)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = DetectFormat(object)
	}
	return Decode(data, format)
}
