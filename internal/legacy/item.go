package legacy

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Item is one document of a legacy collection: an id plus free-form fields.
type Item struct {
	ID     string
	Fields map[string]any
}

// MarshalJSON flattens the item into {"id": ..., <fields>}.
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Fields)+1)
	for k, v := range i.Fields {
		out[k] = v
	}
	out["id"] = i.ID
	return json.Marshal(out)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"]; ok {
		s, ok := id.(string)
		if !ok {
			return fmt.Errorf("legacy item id must be a string, got %T", id)
		}
		i.ID = s
		delete(raw, "id")
	}
	i.Fields = raw
	return nil
}

// Get returns the field named key.
func (i Item) Get(key string) (any, bool) {
	v, ok := i.Fields[key]
	return v, ok
}

// matches compares a stored field to value after normalizing both through JSON, so 3 and 3.0 are equal.
func matches(stored, value any) bool {
	a, errA := normalize(stored)
	b, errB := normalize(value)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
