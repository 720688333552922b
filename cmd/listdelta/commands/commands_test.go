package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/listdelta/cmd/listdelta/commands"
	"github.com/Sumatoshi-tech/listdelta/internal/bench"
	"github.com/Sumatoshi-tech/listdelta/internal/script"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

const playlist = `name: playlist
initial: [intro, verse, chorus, outro]
steps:
  - op: insert
    index: 1
    values: [bridge, solo]
  - op: set
    index: 0
    value: overture
  - op: remove
    index: 5
  - op: sort
  - op: clear
`

func init() {
	color.NoColor = true
}

// execute runs a subcommand under a root carrying the global flags, with
// an empty config file so the working directory is never searched.
func execute(t *testing.T, build func(*commands.App) *cobra.Command, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "listdelta.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o600))

	app := &commands.App{}
	root := &cobra.Command{Use: "listdelta", SilenceUsage: true, SilenceErrors: true}
	app.BindFlags(root)

	sub := build(app)
	root.AddCommand(sub)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{sub.Name(), "--config", cfgPath}, args...))

	err := root.Execute()

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestReplay_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewReplayCommand, "--json", writeFile(t, "playlist.yaml", playlist))
	require.NoError(t, err)

	var res script.Result

	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "playlist", res.Name)
	assert.Equal(t, 5, res.Steps)
	assert.Empty(t, res.Final)
	require.Len(t, res.Records, 5)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 1, Length: 2, Kind: listevent.Insert}}, res.Records[0].Blocks)
	assert.True(t, res.Records[3].IsReordering())
}

func TestReplay_Table(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewReplayCommand, writeFile(t, "playlist.yaml", playlist))
	require.NoError(t, err)

	assert.Contains(t, out, "insert")
	assert.Contains(t, out, "reorder")
	assert.Contains(t, out, "delete")
}

func TestReplay_DumpThenInspect(t *testing.T) {
	t.Parallel()

	dump := filepath.Join(t.TempDir(), "events.bin")

	_, err := execute(t, commands.NewReplayCommand, "--dump", dump, writeFile(t, "playlist.yaml", playlist))
	require.NoError(t, err)

	out, err := execute(t, commands.NewInspectCommand, "--json", dump)
	require.NoError(t, err)

	var records []eventcodec.Record

	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 5)
	assert.Equal(t, []listevent.ChangeBlock{{Start: 5, Length: 1, Kind: listevent.Delete}}, records[2].Blocks)

	table, err := execute(t, commands.NewInspectCommand, dump)
	require.NoError(t, err)
	assert.Contains(t, table, dump)
}

func TestReplay_LazySnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, "first.yaml", "lazy: true\nsteps:\n  - op: load\n    values: [a, b]\n  - op: add\n    value: c\n")
	second := writeFile(t, "second.yaml", "lazy: true\nsteps:\n  - op: load\n  - op: remove\n    index: 0\n")

	_, err := execute(t, commands.NewReplayCommand, "--snapshot-dir", dir, "--codec", "gob+lz4", first)
	require.NoError(t, err)

	out, err := execute(t, commands.NewReplayCommand, "--snapshot-dir", dir, "--codec", "gob+lz4", "--json", second)
	require.NoError(t, err)

	var res script.Result

	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"b", "c"}, res.Final)
}

func TestReplay_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewReplayCommand, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = execute(t, commands.NewReplayCommand, "--snapshot-dir", t.TempDir(), "--codec", "xml",
		writeFile(t, "s.yaml", "steps:\n  - op: clear\n"))
	require.Error(t, err)

	_, err = execute(t, commands.NewReplayCommand, writeFile(t, "bad.yaml", "steps:\n  - op: remove\n    index: 3\n"))
	require.Error(t, err)
}

func TestInspect_NotADump(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewInspectCommand, writeFile(t, "junk.bin", "not a dump"))
	require.Error(t, err)
}

func TestDiff_JSON(t *testing.T) {
	t.Parallel()

	prev := writeFile(t, "old.txt", "a\nb\nc\n")
	next := writeFile(t, "new.txt", "a\nx\nc\nd\n")

	out, err := execute(t, commands.NewDiffCommand, "--json", prev, next)
	require.NoError(t, err)

	var records []eventcodec.Record

	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, []listevent.ChangeBlock{
		{Start: 1, Length: 1, Kind: listevent.Update},
		{Start: 3, Length: 1, Kind: listevent.Insert},
	}, records[0].Blocks)
}

func TestDiff_IdenticalFilesPublishEmptyEvent(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "same.txt", "one\ntwo\n")

	out, err := execute(t, commands.NewDiffCommand, "--json", path, path)
	require.NoError(t, err)

	var records []eventcodec.Record

	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Blocks)
}

func TestBench_JSONAndChart(t *testing.T) {
	t.Parallel()

	chart := filepath.Join(t.TempDir(), "bench.html")

	out, err := execute(t, commands.NewBenchCommand, "--operations", "50", "--seed", "7", "--json", "--html", chart)
	require.NoError(t, err)

	var results []bench.Result

	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 6)

	for _, r := range results {
		assert.Equal(t, 50, r.Operations)
	}

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
}

func TestMCPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand(&commands.App{})
	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestApp_AssemblerOptionsBeforeStart(t *testing.T) {
	t.Parallel()

	app := &commands.App{}

	assert.NotNil(t, app.Logger())
	assert.Len(t, app.AssemblerOptions(), 1)
}
