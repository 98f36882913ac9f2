package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/buger/jsonparser"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

const (
	PackageFile = "package.json"
	AppFile     = "app.json"
	indent      = "  "
)

var (
	ErrNotObject = errors.New("manifest root is not a JSON object")
	ErrInvalid   = errors.New("manifest is not valid JSON")
	// ErrDuplicateKey marks documents whose meaning depends on which copy of
	// a key the reader keeps.
	ErrDuplicateKey = errors.New("duplicate key")
)

type Status string

const (
	StatusPatched Status = "patched"
	StatusMissing Status = "missing"
	StatusInvalid Status = "invalid"
)

// Patcher rewrites one JSON file relative to the project directory.
// Apply receives the raw document and returns the edited one; it does not
// need to care about formatting.
type Patcher struct {
	File  string
	Apply func(doc []byte, name string) ([]byte, error)
}

type Result struct {
	File   string
	Status Status
	Before []byte
	After  []byte
	Err    error
}

// Defaults returns the patchers applied to every scaffolded project.
func Defaults() []Patcher {
	return []Patcher{
		{File: PackageFile, Apply: PatchPackage},
		{File: AppFile, Apply: PatchApp},
	}
}

// PatchPackage sets "name" and makes sure "private" is a boolean, defaulting
// it to true. An existing boolean is left alone.
func PatchPackage(doc []byte, name string) ([]byte, error) {
	out, err := setString(doc, name, "name")
	if err != nil {
		return nil, err
	}
	_, typ, _, err := jsonparser.Get(out, "private")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, err
	}
	if typ == jsonparser.Boolean {
		return out, nil
	}
	return jsonparser.Set(out, []byte("true"), "private")
}

// PatchApp overwrites expo.name and expo.slug. Documents without an "expo"
// object are returned unchanged.
func PatchApp(doc []byte, name string) ([]byte, error) {
	_, typ, _, err := jsonparser.Get(doc, "expo")
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return doc, nil
		}
		return nil, err
	}
	if typ != jsonparser.Object {
		return doc, nil
	}
	out, err := setString(doc, name, "expo", "name")
	if err != nil {
		return nil, err
	}
	return setString(out, name, "expo", "slug")
}

func setString(doc []byte, v string, keys ...string) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonparser.Set(doc, raw, keys...)
}

// PatchAll runs each patcher against dir. Missing and malformed files are
// reported in the results and never stop the loop; only a failed write is
// returned as an error.
func PatchAll(dir, name string, patchers []Patcher) ([]Result, error) {
	results := make([]Result, 0, len(patchers))
	for _, p := range patchers {
		res, err := patchFile(filepath.Join(dir, p.File), name, p)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func patchFile(path, name string, p Patcher) (Result, error) {
	res := Result{File: p.File}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Status = StatusMissing
			return res, nil
		}
		res.Status = StatusInvalid
		res.Err = errdef.Wrap(errdef.CodeManifest, err, "stat %s", p.File)
		return res, nil
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusInvalid
		res.Err = errdef.Wrap(errdef.CodeManifest, err, "read %s", p.File)
		return res, nil
	}
	res.Before = doc

	if err := checkObject(doc); err != nil {
		res.Status = StatusInvalid
		res.Err = errdef.Wrap(errdef.CodeManifest, err, "parse %s", p.File)
		return res, nil
	}
	edited, err := p.Apply(doc, name)
	if err != nil {
		res.Status = StatusInvalid
		res.Err = errdef.Wrap(errdef.CodeManifest, err, "patch %s", p.File)
		return res, nil
	}
	out, err := Format(edited)
	if err != nil {
		res.Status = StatusInvalid
		res.Err = errdef.Wrap(errdef.CodeManifest, err, "format %s", p.File)
		return res, nil
	}

	if err := writeAtomic(path, info.Mode().Perm(), out); err != nil {
		return res, errdef.Wrap(errdef.CodeManifest, err, "write %s", p.File)
	}
	res.Status = StatusPatched
	res.After = out
	return res, nil
}

func checkObject(doc []byte) error {
	if !json.Valid(doc) {
		return ErrInvalid
	}
	if trimmed := bytes.TrimSpace(doc); len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotObject
	}
	return uniqueKeys(doc)
}

func uniqueKeys(obj []byte) error {
	seen := make(map[string]struct{})
	return jsonparser.ObjectEach(obj, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		k := string(key)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w %q", ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}
		return uniqueNested(value, typ)
	})
}

func uniqueNested(value []byte, typ jsonparser.ValueType) error {
	switch typ {
	case jsonparser.Object:
		return uniqueKeys(value)
	case jsonparser.Array:
		var first error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			if first == nil {
				first = uniqueNested(v, t)
			}
		})
		if first != nil {
			return first
		}
		return err
	}
	return nil
}

// Format re-indents doc with two spaces and a trailing newline, keeping key
// order and value spelling as written.
func Format(doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(doc), "", indent); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
