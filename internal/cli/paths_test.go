package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestFileCacheDir(t *testing.T) {
	tests := []struct {
		name string
		xdg  string
		cfg  cacheConfig
		want string
	}{
		{
			name: "xdg",
			xdg:  "/tmp/custom-cache",
			want: filepath.Join("/tmp/custom-cache", appName),
		},
		{
			name: "configured dir wins",
			xdg:  "/tmp/custom-cache",
			cfg:  cacheConfig{Dir: "/data/simpg-cache"},
			want: "/data/simpg-cache",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := fileCacheDir(tt.cfg)
			if err != nil {
				t.Fatalf("fileCacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("fileCacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
