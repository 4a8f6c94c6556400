package yamlutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/simp-lee/epubsplit/internal/yamlutil"
)

type testUnit struct {
	ID        string   `yaml:"id"`
	Fragments []string `yaml:"fragments"`
}

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		check   func(t *testing.T, v any)
	}{
		{
			name: "known fields",
			data: []byte("id: method-01\nfragments: [a.xhtml, b.xhtml]"),
			dest: &testUnit{},
			check: func(t *testing.T, v any) {
				u := v.(*testUnit)
				if u.ID != "method-01" {
					t.Errorf("ID = %q, want %q", u.ID, "method-01")
				}
				if len(u.Fragments) != 2 || u.Fragments[1] != "b.xhtml" {
					t.Errorf("Fragments = %v, want [a.xhtml b.xhtml]", u.Fragments)
				}
			},
		},
		{
			name: "unicode content",
			data: []byte("id: 第一法"),
			dest: &testUnit{},
			check: func(t *testing.T, v any) {
				if got := v.(*testUnit).ID; got != "第一法" {
					t.Errorf("ID = %q, want %q", got, "第一法")
				}
			},
		},
		{
			name:    "unknown field",
			data:    []byte("id: x\nfragmnts: [a.xhtml]"),
			dest:    &testUnit{},
			wantErr: errors.New("yamlutil:"),
		},
		{
			name:    "invalid syntax",
			data:    []byte("id: [unclosed"),
			dest:    &testUnit{},
			wantErr: errors.New("yamlutil:"),
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testUnit{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("id: x"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if errors.Is(err, tt.wantErr) {
					return
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.dest)
			}
		})
	}
}

func TestUnmarshalStrict_InputTooLarge(t *testing.T) {
	data := []byte("id: " + strings.Repeat("x", yamlutil.MaxInputSize))
	err := yamlutil.UnmarshalStrict(data, &testUnit{})
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Fatalf("error = %v, want ErrInputTooLarge", err)
	}
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	out, err := yamlutil.Marshal(testUnit{ID: "method-02", Fragments: []string{"c.xhtml"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var back testUnit
	if err := yamlutil.UnmarshalStrict(out, &back); err != nil {
		t.Fatalf("unmarshal marshalled output: %v", err)
	}
	if back.ID != "method-02" || len(back.Fragments) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}
