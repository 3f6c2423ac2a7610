package mediatypes

import "testing"

func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		allowed bool
	}{
		{"jpeg", "photo.jpg", true},
		{"uppercase extension", "PHOTO.JPG", true},
		{"mixed case heic", "IMG_0042.HeIc", true},
		{"video", "clip.mp4", true},
		{"matroska", "clip.mkv", true},
		{"executable", "malware.exe", false},
		{"no extension", "README", false},
		{"trailing dot", "file.", false},
		{"empty", "", false},
		{"double extension uses last", "archive.jpg.zip", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Allowed(tt.file); got != tt.allowed {
				t.Errorf("Allowed(%q) = %v, want %v", tt.file, got, tt.allowed)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		want Kind
	}{
		{"a.png", KindImage},
		{"a.heic", KindImage},
		{"a.mov", KindVideo},
		{"a.AVI", KindVideo},
		{"mystery.bin", KindImage}, // tolerated foreign files render as images
	}

	for _, tt := range tests {
		if got := KindOf(tt.file); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

func TestMimeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		want string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.webp", "image/webp"},
		{"a.mp4", "video/mp4"},
		{"a.mov", "video/quicktime"},
		{"a.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := MimeOf(tt.file); got != tt.want {
			t.Errorf("MimeOf(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestFormatFlags(t *testing.T) {
	t.Parallel()

	heic, ok := Lookup("x.heic")
	if !ok || !heic.Normalize {
		t.Errorf("Expected .heic to require normalization, got %+v ok=%v", heic, ok)
	}
	jpg, _ := Lookup("x.jpg")
	if jpg.Normalize || jpg.Thumbnail {
		t.Errorf("Expected .jpg to need no processing, got %+v", jpg)
	}

	for ext, f := range Formats {
		if f.Kind == KindVideo && !f.Thumbnail {
			t.Errorf("Video extension %s should derive a thumbnail", ext)
		}
		if f.Kind == KindImage && f.Thumbnail {
			t.Errorf("Image extension %s should not derive a thumbnail", ext)
		}
	}
}
