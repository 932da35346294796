package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_Valid(t *testing.T) {
	path := writeFile(t, "hb.json", `{
  "id": "hb",
  "fields": [{"name": "known", "kind": "select", "options": [{"value": ""}, {"value": "yes"}], "choices": {"yes": ["hb"]}}],
  "groups": [{"id": "hb", "fields": [{"name": "hb_value"}]}]
}`)
	out, err := run("check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+path+"#hb")
}

func TestCheck_ReportsEveryDefect(t *testing.T) {
	path := writeFile(t, "bad.json", `{
  "id": "bad",
  "fields": [
    {"name": "a", "kind": "select", "options": [{"value": "x"}], "choices": {"x": ["ghost"], "y": ["g"]}}
  ],
  "groups": [{"id": "g"}]
}`)
	out, err := run("check", path)
	require.ErrorIs(t, err, errDefects)
	assert.Contains(t, out, "FAIL "+path+"#bad")
	assert.Contains(t, out, `"ghost"`)
	assert.Contains(t, out, `"y"`)
	assert.NotContains(t, out, "invalid form definition\n")
}

func TestCheck_UnreadableFile(t *testing.T) {
	out, err := run("check", filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, errDefects)
	assert.Contains(t, out, "FAIL")
}

func TestRender_HidesUnselectedGroups(t *testing.T) {
	path := writeFile(t, "page.html", `<html><body><form id="hb">
<select name="known" choices="[{'yes': ['hb']}]"><option value=""></option><option value="yes">yes</option></select>
<div class="hi-light hb"><input type="text" name="hb_value" value="12"></div>
</form></body></html>`)
	out, err := run("render", path)
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="hi-light hb" hidden="">`)
	assert.Contains(t, out, `name="hb_value" value=""`)
}
