package blobstore

import "testing"

func TestKeyFromRef(t *testing.T) {
	tests := []struct {
		ref    string
		bucket string
		want   string
	}{
		{"garments/u1/a.jpg", "fitly", "garments/u1/a.jpg"},
		{"/garments/u1/a.jpg", "fitly", "garments/u1/a.jpg"},
		{"https://fitly.s3.ap-south-1.amazonaws.com/garments/u1/a.jpg", "fitly", "garments/u1/a.jpg"},
		{"https://fitly.s3.amazonaws.com/garments/u1/a.jpg?X-Amz-Signature=abc", "fitly", "garments/u1/a.jpg"},
		{"http://localhost:9000/fitly/garments/u1/a.jpg", "fitly", "garments/u1/a.jpg"},
		{"http://localhost:9000/fitly/garments/u1/my%20shirt.jpg", "fitly", "garments/u1/my shirt.jpg"},
	}
	for _, tt := range tests {
		if got := keyFromRef(tt.ref, tt.bucket); got != tt.want {
			t.Errorf("keyFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
