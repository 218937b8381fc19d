package dbtypes

import "testing"

func TestJSONMapScanAndValue(t *testing.T) {
	m := JSONMap{"name": "Tomato", "category": "vegetables"}
	v, err := m.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out JSONMap
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out["name"] != "Tomato" || out["category"] != "vegetables" {
		t.Fatalf("unexpected map %v", out)
	}

	if err := out.Scan(nil); err != nil || len(out) != 0 {
		t.Fatalf("nil should scan to empty map, got %v %v", out, err)
	}
	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestJSONMapNilValue(t *testing.T) {
	var m JSONMap
	v, err := m.Value()
	if err != nil || v != "{}" {
		t.Fatalf("expected empty object, got %v %v", v, err)
	}
}
