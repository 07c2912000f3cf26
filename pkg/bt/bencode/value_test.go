package bencode

import "testing"

func TestValueString(t *testing.T) {
	tt := []struct {
		name   string
		value  Value
		wanted string
	}{
		{"string", String("spam"), `"spam"`},
		{"list", NewList(Integer(1), String("a")), `[1, "a"]`},
		{"dict", NewDict(Entry{"k", NewList()}), `{"k": []}`},
		{"nil in dict", NewDict(Entry{"a", nil}), `{"a": <nil>}`},
		{"nil in list", NewList(String("a"), nil), `["a", <nil>]`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.value.String(); got != tc.wanted {
				t.Errorf("wrong string - expected %s got %s", tc.wanted, got)
			}
		})
	}
}
