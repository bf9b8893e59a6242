package env

import (
	"slices"
	"strings"
	"testing"
)

func get(list []string, key string) (string, bool) {
	for _, kv := range list {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

func TestMergePrecedence(t *testing.T) {
	e := New()
	e.env = Var{"PATH": "/usr/bin", "HOME": "/home/u", "TZ": "CET"}
	e.Set("TZ", "UTC")

	out := e.Merge([]string{"NODE_PATH=/work/node_modules", "HOME=/override"})

	if v, _ := get(out, "TZ"); v != "UTC" {
		t.Fatalf("override lost: TZ=%q", v)
	}
	if v, _ := get(out, "HOME"); v != "/override" {
		t.Fatalf("per-launch entry must win: HOME=%q", v)
	}
	if v, _ := get(out, "PATH"); v != "/usr/bin" {
		t.Fatalf("base lost: PATH=%q", v)
	}
	if v, _ := get(out, "NODE_PATH"); v != "/work/node_modules" {
		t.Fatalf("per-launch entry missing: NODE_PATH=%q", v)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	e := New()
	e.env = Var{"B": "2", "A": "1", "C": "3"}
	out := e.Merge(nil)
	if !slices.IsSorted(out) {
		t.Fatalf("expected sorted output, got %v", out)
	}
}

func TestMergeSkipsMalformedEntries(t *testing.T) {
	e := New()
	e.env = Var{}
	out := e.Merge([]string{"=novalue", "plain", "OK=yes"})
	if len(out) != 1 || out[0] != "OK=yes" {
		t.Fatalf("got %v", out)
	}
}

func TestSetAll(t *testing.T) {
	e := New()
	e.env = Var{}
	e.SetAll(map[string]string{"A": "1", "B": "2"})
	out := e.Merge(nil)
	if len(out) != 2 {
		t.Fatalf("got %v", out)
	}
}
