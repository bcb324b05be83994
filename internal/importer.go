package internal

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Importer reads a file into loosely typed records, one map per subscription.
// The records are checked by ValidateImport before anything is stored.
type Importer interface {
	Import(path string) ([]any, error)
}

// ImporterFunc is a function that implements Importer
type ImporterFunc func(path string) ([]any, error)

func (f ImporterFunc) Import(path string) ([]any, error) {
	return f(path)
}

// importers is the registry of available import formats
var importers = map[string]Importer{}

// RegisterImporter registers an importer under a format name
func RegisterImporter(name string, i Importer) {
	importers[name] = i
}

// GetImporter returns the importer for the given format
func GetImporter(format string) (Importer, error) {
	i, ok := importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown import format: %s (available: %v)", format, AvailableFormats())
	}
	return i, nil
}

// AvailableFormats returns the registered import formats, sorted
func AvailableFormats() []string {
	var formats []string
	for name := range importers {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// IsKnownFormat returns true if the name is a registered import format
func IsKnownFormat(name string) bool {
	_, ok := importers[name]
	return ok
}

// ParseFileArg splits an optional "format:" prefix from a file argument.
// Example: "csv:export.txt" → ("csv", "export.txt")
// Example: "C:\data\subs.json" → ("", "C:\data\subs.json")
func ParseFileArg(arg string) (format, path string) {
	idx := strings.Index(arg, ":")
	if idx == -1 {
		return "", arg
	}
	prefix := arg[:idx]
	if IsKnownFormat(prefix) {
		return prefix, arg[idx+1:]
	}
	return "", arg
}

// FormatFromExtension guesses the format from the file extension
func FormatFromExtension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ImportFile resolves the format of arg, reads it and validates the records
func ImportFile(arg string) ([]Subscription, error) {
	format, path := ParseFileArg(arg)
	if format == "" {
		format = FormatFromExtension(path)
	}
	imp, err := GetImporter(format)
	if err != nil {
		return nil, err
	}
	items, err := imp.Import(path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return ValidateImport(items)
}

// recordFromRow builds a record from header/value pairs of a tabular file.
// amount is read as a number and the two flags as "true"/"false".
func recordFromRow(headers, values []string) map[string]any {
	item := make(map[string]any, len(headers))
	for i, h := range headers {
		key := strings.Trim(strings.TrimSpace(h), `"`)
		if key == "" {
			continue
		}
		value := ""
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		switch key {
		case "amount":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				item[key] = f
			} else {
				item[key] = value
			}
		case "activeStatus", "autoRenew":
			item[key] = strings.EqualFold(value, "true")
		case "id":
			if value != "" {
				item[key] = value
			}
		default:
			item[key] = value
		}
	}
	return item
}

func init() {
	RegisterImporter("json", ImporterFunc(ImportJSON))
	RegisterImporter("csv", ImporterFunc(ImportCSV))
	RegisterImporter("xlsx", ImporterFunc(ImportXLSX))
}
