package graph

import "testing"

func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want string
	}{
		{
			name: "single hop",
			path: Path{
				Nodes: []Node{
					{Label: "Company", Name: "techflow"},
					{Label: "Product", Name: "flowchips"},
				},
				Relationships: []string{"MANUFACTURES"},
				Length:        1,
			},
			want: "techflow -[MANUFACTURES]-> flowchips",
		},
		{
			name: "two hops",
			path: Path{
				Nodes: []Node{
					{Label: "Company", Name: "techflow"},
					{Label: "Product", Name: "flowchips"},
					{Label: "Location", Name: "singapore"},
				},
				Relationships: []string{"MANUFACTURES", "STORED_IN"},
				Length:        2,
			},
			want: "techflow -[MANUFACTURES]-> flowchips -[STORED_IN]-> singapore",
		},
		{
			name: "empty path",
			path: Path{},
			want: "",
		},
		{
			name: "single node no relationships",
			path: Path{Nodes: []Node{{Name: "techflow"}}},
			want: "techflow",
		},
		{
			name: "more relationships than nodes truncates",
			path: Path{
				Nodes:         []Node{{Name: "a"}, {Name: "b"}},
				Relationships: []string{"DEPENDS_ON", "AFFECTS"},
			},
			want: "a -[DEPENDS_ON]-> b",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.path.String(); got != tc.want {
				t.Errorf("Path.String() = %q, want %q", got, tc.want)
			}
		})
	}
}
