// Package jsonpatch applies RFC 6902 JSON Patch documents to decoded FHIR
// resources. Only add/replace/remove/test are required by the resource
// layer; move/copy are supported as extras for callers that need them.
package jsonpatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operation is a single RFC 6902 patch operation.
type Operation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
	From  string      `json:"from,omitempty"`
}

// Parse decodes a JSON Patch document from raw bytes.
func Parse(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("invalid JSON Patch document: %w", err)
	}
	return ops, nil
}

// Apply runs ops against doc and returns a new document, leaving doc
// untouched. A failed "test" operation, or any error encountered while
// applying an operation, causes the whole patch to fail and Apply returns
// a nil document — "no patched document" per the failure contract callers
// surface as HTTP 422. Operations with an unrecognized op are skipped.
func Apply(doc map[string]interface{}, ops []Operation) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("patch failed: %v", r)
		}
	}()

	out := deepCopy(doc)
	for i, op := range ops {
		switch op.Op {
		case "add":
			err = patchAdd(out, op.Path, op.Value)
		case "remove":
			err = patchRemove(out, op.Path)
		case "replace":
			err = patchReplace(out, op.Path, op.Value)
		case "test":
			err = patchTest(out, op.Path, op.Value)
		case "move":
			err = patchMove(out, op.From, op.Path)
		case "copy":
			err = patchCopy(out, op.From, op.Path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("patch operation %d (%s) failed: %w", i, op.Op, err)
		}
	}
	return out, nil
}

func patchAdd(doc map[string]interface{}, path string, value interface{}) error {
	if path == "" || path == "/" {
		return fmt.Errorf("cannot replace root document")
	}
	parent, lastKey, err := resolvePath(doc, path, true)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case map[string]interface{}:
		p[lastKey] = value
	case []interface{}:
		if lastKey == "-" {
			return setParentSlice(doc, path, append(p, value))
		}
		idx, err := strconv.Atoi(lastKey)
		if err != nil {
			return fmt.Errorf("invalid array index: %s", lastKey)
		}
		if idx < 0 || idx > len(p) {
			return fmt.Errorf("array index out of bounds: %d", idx)
		}
		newArr := make([]interface{}, len(p)+1)
		copy(newArr, p[:idx])
		newArr[idx] = value
		copy(newArr[idx+1:], p[idx:])
		return setParentSlice(doc, path, newArr)
	default:
		return fmt.Errorf("cannot add into non-container at %s", path)
	}
	return nil
}

func patchRemove(doc map[string]interface{}, path string) error {
	parent, lastKey, err := resolvePath(doc, path, false)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case map[string]interface{}:
		if _, ok := p[lastKey]; !ok {
			return fmt.Errorf("path not found: %s", path)
		}
		delete(p, lastKey)
	case []interface{}:
		idx, err := strconv.Atoi(lastKey)
		if err != nil {
			return fmt.Errorf("invalid array index: %s", lastKey)
		}
		if idx < 0 || idx >= len(p) {
			return fmt.Errorf("array index out of bounds: %d", idx)
		}
		newArr := append(append([]interface{}{}, p[:idx]...), p[idx+1:]...)
		return setParentSlice(doc, path, newArr)
	default:
		return fmt.Errorf("cannot remove from non-container at %s", path)
	}
	return nil
}

func patchReplace(doc map[string]interface{}, path string, value interface{}) error {
	parent, lastKey, err := resolvePath(doc, path, false)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case map[string]interface{}:
		if _, ok := p[lastKey]; !ok {
			return fmt.Errorf("path not found: %s", path)
		}
		p[lastKey] = value
	case []interface{}:
		idx, err := strconv.Atoi(lastKey)
		if err != nil {
			return fmt.Errorf("invalid array index: %s", lastKey)
		}
		if idx < 0 || idx >= len(p) {
			return fmt.Errorf("array index out of bounds: %d", idx)
		}
		p[idx] = value
	default:
		return fmt.Errorf("cannot replace into non-container at %s", path)
	}
	return nil
}

func patchTest(doc map[string]interface{}, path string, expected interface{}) error {
	parent, lastKey, err := resolvePath(doc, path, false)
	if err != nil {
		return fmt.Errorf("test path not found: %w", err)
	}
	var actual interface{}
	switch p := parent.(type) {
	case map[string]interface{}:
		actual = p[lastKey]
	case []interface{}:
		idx, err := strconv.Atoi(lastKey)
		if err != nil {
			return fmt.Errorf("invalid array index: %s", lastKey)
		}
		if idx < 0 || idx >= len(p) {
			return fmt.Errorf("array index out of bounds: %d", idx)
		}
		actual = p[idx]
	}
	actualJSON, _ := json.Marshal(actual)
	expectedJSON, _ := json.Marshal(expected)
	if string(actualJSON) != string(expectedJSON) {
		return fmt.Errorf("test failed: expected %s but got %s at %s", expectedJSON, actualJSON, path)
	}
	return nil
}

func patchMove(doc map[string]interface{}, from, path string) error {
	value, err := valueAt(doc, from)
	if err != nil {
		return fmt.Errorf("move from: %w", err)
	}
	if err := patchRemove(doc, from); err != nil {
		return fmt.Errorf("move remove: %w", err)
	}
	if err := patchAdd(doc, path, value); err != nil {
		return fmt.Errorf("move add: %w", err)
	}
	return nil
}

func patchCopy(doc map[string]interface{}, from, path string) error {
	value, err := valueAt(doc, from)
	if err != nil {
		return fmt.Errorf("copy from: %w", err)
	}
	return patchAdd(doc, path, value)
}

func valueAt(doc map[string]interface{}, path string) (interface{}, error) {
	parent, lastKey, err := resolvePath(doc, path, false)
	if err != nil {
		return nil, err
	}
	switch p := parent.(type) {
	case map[string]interface{}:
		return p[lastKey], nil
	case []interface{}:
		idx, err := strconv.Atoi(lastKey)
		if err != nil || idx < 0 || idx >= len(p) {
			return nil, fmt.Errorf("invalid array index: %s", lastKey)
		}
		return p[idx], nil
	default:
		return nil, fmt.Errorf("path not found: %s", path)
	}
}

// resolvePath walks doc to the parent container of the final path segment.
func resolvePath(doc map[string]interface{}, path string, createMissing bool) (interface{}, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("empty path")
	}
	var current interface{} = doc
	for i := 0; i < len(parts)-1; i++ {
		switch c := current.(type) {
		case map[string]interface{}:
			next, ok := c[parts[i]]
			if !ok {
				if createMissing {
					newMap := make(map[string]interface{})
					c[parts[i]] = newMap
					current = newMap
					continue
				}
				return nil, "", fmt.Errorf("path not found at segment: %s", parts[i])
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(parts[i])
			if err != nil {
				return nil, "", fmt.Errorf("invalid array index: %s", parts[i])
			}
			if idx < 0 || idx >= len(c) {
				return nil, "", fmt.Errorf("array index out of bounds: %d", idx)
			}
			current = c[idx]
		default:
			return nil, "", fmt.Errorf("cannot traverse into non-container at: %s", parts[i])
		}
	}
	return current, parts[len(parts)-1], nil
}

// setParentSlice re-attaches a replacement slice to its parent container,
// needed because appending or removing an element on a []interface{}
// cannot mutate the parent's reference to it in place.
func setParentSlice(doc map[string]interface{}, path string, newSlice []interface{}) error {
	parts := splitPath(path)
	if len(parts) == 1 {
		return fmt.Errorf("cannot rebind array at root path %s", path)
	}
	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	parent, _, err := resolvePath(doc, parentPath, false)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case map[string]interface{}:
		p[parts[len(parts)-2]] = newSlice
		return nil
	default:
		return fmt.Errorf("array parent at %s is not addressable", parentPath)
	}
}

func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func deepCopy(m map[string]interface{}) map[string]interface{} {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		panic(err)
	}
	return result
}
