package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/raushankrgupta/fitly-outfits/pipeline"
)

func TestParseGarmentInputs(t *testing.T) {
	t.Run("request body", func(t *testing.T) {
		items, err := parseGarmentInputs([]byte(`{"images":[{"url":"https://a/top.jpg","bottom":{"url":"https://a/pants.jpg"},"upscale":true}]}`))
		if err != nil {
			t.Fatalf("parseGarmentInputs: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		if items[0].TopImageURL != "https://a/top.jpg" || items[0].BottomURL() != "https://a/pants.jpg" || !items[0].Upscale {
			t.Fatalf("unexpected item %+v", items[0])
		}
	})

	t.Run("bare array", func(t *testing.T) {
		items, err := parseGarmentInputs([]byte("  [{\"url\":\"x\"},{\"url\":\"y\"}]\n"))
		if err != nil {
			t.Fatalf("parseGarmentInputs: %v", err)
		}
		if len(items) != 2 || items[1].TopImageURL != "y" {
			t.Fatalf("unexpected items %+v", items)
		}
	})

	t.Run("empty", func(t *testing.T) {
		for _, in := range []string{"", "[]", `{"images":[]}`} {
			if _, err := parseGarmentInputs([]byte(in)); !errors.Is(err, pipeline.ErrNoImages) {
				t.Fatalf("%q: expected ErrNoImages, got %v", in, err)
			}
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := parseGarmentInputs([]byte(`{"images":`)); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"generate", "describe", "find-image"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("help output missing %q:\n%s", name, out.String())
		}
	}
}
