package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// flatEntry is one line of the discovery tool's generated config. The
// "type" key is the pre-rename spelling of "role"; both are accepted.
type flatEntry struct {
	SKU           string `json:"sku" yaml:"sku"`
	Name          string `json:"name" yaml:"name"`
	Platform      string `json:"platform" yaml:"platform"`
	Role          string `json:"role" yaml:"role"`
	Type          string `json:"type" yaml:"type"`
	URL           string `json:"url" yaml:"url"`
	Selector      string `json:"selector" yaml:"selector"`
	StockSelector string `json:"stock_selector" yaml:"stock_selector"`
}

// Load reads the listing configuration and normalizes it to []SKU.
//
// The discovery tool has emitted three shapes over time: a flat entry
// list, a list of {sku_name, urls:{platform:{...}}} objects, and a
// top-level sku->platform map. All of them normalize here so the engine
// only ever sees one schema. SKU and platform order follow the file.
func Load(path string) ([]SKU, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: err.Error()}
	}

	var skus []SKU
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		skus, err = parseYAML(path, data)
	default:
		skus, err = parseJSON(path, data)
	}
	if err != nil {
		return nil, err
	}
	if len(skus) == 0 {
		return nil, &ConfigError{Path: path, Reason: "no SKUs configured"}
	}
	for _, s := range skus {
		if len(s.Listings) == 0 {
			return nil, &ConfigError{Path: path, SKU: s.Name, Reason: "no platforms configured"}
		}
	}
	return skus, nil
}

func parseJSON(path string, data []byte) ([]SKU, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &ConfigError{Path: path, Reason: "empty file"}
	}
	if trimmed[0] == '{' {
		return parseJSONMap(path, trimmed)
	}

	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid JSON: " + err.Error()}
	}
	if len(probe) > 0 {
		if _, nested := probe[0]["urls"]; nested {
			return parseJSONNested(path, trimmed)
		}
	}

	var entries []flatEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid JSON: " + err.Error()}
	}
	return groupFlat(path, entries)
}

// parseJSONNested handles [{"sku_name": ..., "urls": {platform: entry}}].
// The urls object is walked token by token so platform order matches
// the file rather than Go's map iteration.
func parseJSONNested(path string, data []byte) ([]SKU, error) {
	var raw []struct {
		SKUName string          `json:"sku_name"`
		URLs    json.RawMessage `json:"urls"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid JSON: " + err.Error()}
	}
	skus := make([]SKU, 0, len(raw))
	for _, p := range raw {
		if p.SKUName == "" {
			return nil, &ConfigError{Path: path, Reason: "entry missing sku_name"}
		}
		listings, err := decodeListingObject(path, p.SKUName, p.URLs)
		if err != nil {
			return nil, err
		}
		skus = append(skus, SKU{Name: p.SKUName, Listings: listings})
	}
	return skus, nil
}

// parseJSONMap handles {"SKU-1": {platform: entry}, ...}.
func parseJSONMap(path string, data []byte) ([]SKU, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid JSON: " + err.Error()}
	}
	var skus []SKU
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ConfigError{Path: path, Reason: "invalid JSON: " + err.Error()}
		}
		name := tok.(string)
		var obj json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			return nil, &ConfigError{Path: path, SKU: name, Reason: "invalid JSON: " + err.Error()}
		}
		listings, err := decodeListingObject(path, name, obj)
		if err != nil {
			return nil, err
		}
		skus = append(skus, SKU{Name: name, Listings: listings})
	}
	return skus, nil
}

// decodeListingObject decodes {platform: {role, url, selector}} keeping
// the key order of the document.
func decodeListingObject(path, sku string, raw json.RawMessage) ([]Listing, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, &ConfigError{Path: path, SKU: sku, Reason: "urls is not an object"}
	}
	var out []Listing
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ConfigError{Path: path, SKU: sku, Reason: "invalid JSON: " + err.Error()}
		}
		platform := tok.(string)
		var e flatEntry
		if err := dec.Decode(&e); err != nil {
			return nil, &ConfigError{Path: path, SKU: sku, Reason: "invalid JSON: " + err.Error()}
		}
		l, err := buildListing(path, sku, platform, e)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func parseYAML(path string, data []byte) ([]SKU, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid YAML: " + err.Error()}
	}
	if len(root.Content) == 0 {
		return nil, &ConfigError{Path: path, Reason: "empty file"}
	}
	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		var entries []flatEntry
		if err := doc.Decode(&entries); err != nil {
			return nil, &ConfigError{Path: path, Reason: "invalid YAML: " + err.Error()}
		}
		return groupFlat(path, entries)
	case yaml.MappingNode:
		// sku -> platform -> entry; mapping nodes keep document order.
		var skus []SKU
		for i := 0; i+1 < len(doc.Content); i += 2 {
			name := doc.Content[i].Value
			platforms := doc.Content[i+1]
			if platforms.Kind != yaml.MappingNode {
				return nil, &ConfigError{Path: path, SKU: name, Reason: "platforms is not a mapping"}
			}
			var listings []Listing
			for j := 0; j+1 < len(platforms.Content); j += 2 {
				var e flatEntry
				if err := platforms.Content[j+1].Decode(&e); err != nil {
					return nil, &ConfigError{Path: path, SKU: name, Reason: "invalid YAML: " + err.Error()}
				}
				l, err := buildListing(path, name, platforms.Content[j].Value, e)
				if err != nil {
					return nil, err
				}
				listings = append(listings, l)
			}
			skus = append(skus, SKU{Name: name, Listings: listings})
		}
		return skus, nil
	}
	return nil, &ConfigError{Path: path, Reason: "unrecognized YAML shape (want list or mapping)"}
}

func groupFlat(path string, entries []flatEntry) ([]SKU, error) {
	var skus []SKU
	index := make(map[string]int)
	for _, e := range entries {
		if e.SKU == "" {
			return nil, &ConfigError{Path: path, Reason: "entry missing sku"}
		}
		l, err := buildListing(path, e.SKU, e.Platform, e)
		if err != nil {
			return nil, err
		}
		i, seen := index[e.SKU]
		if !seen {
			i = len(skus)
			index[e.SKU] = i
			skus = append(skus, SKU{Name: e.SKU})
		}
		skus[i].Listings = append(skus[i].Listings, l)
	}
	return skus, nil
}

func buildListing(path, sku, platform string, e flatEntry) (Listing, error) {
	if platform == "" {
		return Listing{}, &ConfigError{Path: path, SKU: sku, Reason: "entry missing platform name"}
	}
	roleStr := e.Role
	if roleStr == "" {
		roleStr = e.Type
	}
	role, err := ParseRole(roleStr)
	if err != nil {
		return Listing{}, &ConfigError{Path: path, SKU: sku, Reason: fmt.Sprintf("platform %q: %v", platform, err)}
	}
	return Listing{
		Platform:      platform,
		Role:          role,
		URL:           e.URL,
		Selector:      e.Selector,
		StockSelector: e.StockSelector,
	}, nil
}
