// SPDX-License-Identifier: MIT
package build

import "testing"

func TestInfoDevDefaults(t *testing.T) {
	// Without ldflags, every field must carry a usable placeholder.
	info := Info()

	if info.Name == "" {
		t.Error("Name should never be empty")
	}
	if info.Version == "" {
		t.Error("Version should never be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should never be empty")
	}
	if info.Time == "" {
		t.Error("Time should never be empty")
	}
}

func TestOrDev(t *testing.T) {
	tests := []struct {
		name string
		v    string
		def  string
		want string
	}{
		{"Empty", "", "dev", "dev"},
		{"Set", "v1.2.3", "dev", "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orDev(tt.v, tt.def); got != tt.want {
				t.Errorf("orDev(%q, %q) = %q, want %q", tt.v, tt.def, got, tt.want)
			}
		})
	}
}
