package materialize

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsk-dev/tsk/internal/cache"
	"github.com/tsk-dev/tsk/internal/config"
	"github.com/tsk-dev/tsk/internal/expr"
	"github.com/tsk-dev/tsk/internal/resolve"
)

const testConfig = `
quote: never
env:
  FILE_VAR: from-file
tasks:
  outputs:
    program: cc
    args: ["{map('-o %s', f)}"]
  txt:
    script: echo {map('%s.txt', $@)}
  list:
    program: ls
    args: [-l, "{$@?}"]
  need_name:
    program: greet
    args: [--hello, "{name}"]
  mixed:
    program: build
    args: ["--out={name}"]
  editor:
    program: "{$EDITOR}"
    args: ["{$FILE_VAR}"]
  env_task:
    script: echo {$X}
    env: {X: task}
  in_dir:
    wd: sub
    script: pwd
  ok_task:
    script: exit 0
  fail_task:
    script: exit 3
  never_run_task:
    script: echo never
  chain:
    cmds: [ok_task, {task: fail_task}, never_run_task]
  inline:
    env: {INLINE: yes}
    wd: /work
    cmds:
      - echo {$1} '{map("-I %s", inc?)}'
      - ok_task
  loop_a:
    cmds: [loop_b]
  loop_b:
    cmds: [loop_a]
  empty:
    help: nothing here
`

func setup(t *testing.T, content string) (*Materializer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/tsk.yml", []byte(content), 0o644))
	r := resolve.New(config.NewSet(fs, []string{"/proj/tsk.yml"}), fs, config.Linux, nil)
	return New(r, cache.New(fs, "/cache", nil), nil), fs
}

func ctxWith(args ...string) *expr.Context {
	return expr.NewContext(args, map[string]string{"PATH": "/bin", "X": "process"}, "/cwd")
}

func TestMaterialize_MapUnpacksIntoArgv(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("outputs", ctxWith("--f=out1.txt", "--f=out2.txt"))
	require.NoError(t, err)

	prog, ok := exec.(*ProgramExecution)
	require.True(t, ok, "execution is %T", exec)
	assert.Equal(t, "cc", prog.Program)
	assert.Equal(t, []string{"-o", "out1.txt", "-o", "out2.txt"}, prog.Args)
	assert.Equal(t, []string{"cc", "-o", "out1.txt", "-o", "out2.txt"}, prog.Argv())
}

func TestMaterialize_MapKeepsValuesWhole(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("outputs", ctxWith("--f", "my file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-o", "my file.txt"}, exec.(*ProgramExecution).Args)
}

func TestMaterialize_ScriptText(t *testing.T) {
	t.Parallel()
	m, fs := setup(t, testConfig)

	exec, err := m.MaterializeName("txt", ctxWith("a", "b"))
	require.NoError(t, err)

	script, ok := exec.(*ScriptExecution)
	require.True(t, ok, "execution is %T", exec)
	assert.Equal(t, "echo a.txt b.txt", script.Script)
	assert.Equal(t, []string{"bash"}, script.Runner)
	assert.Equal(t, []string{"bash", script.ScriptPath}, script.Argv())
	assert.Equal(t, "/cwd", script.Dir)

	data, err := afero.ReadFile(fs, script.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "echo a.txt b.txt", string(data))
}

func TestMaterialize_IdenticalScriptsShareCacheFile(t *testing.T) {
	t.Parallel()
	m, fs := setup(t, testConfig)
	first, err := m.MaterializeName("txt", ctxWith("a", "b"))
	require.NoError(t, err)

	// A second invocation with its own resolver and cache over the same files.
	r := resolve.New(config.NewSet(fs, []string{"/proj/tsk.yml"}), fs, config.Linux, nil)
	second, err := New(r, cache.New(fs, "/cache", nil), nil).MaterializeName("txt", ctxWith("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, first.(*ScriptExecution).ScriptPath, second.(*ScriptExecution).ScriptPath)

	other, err := m.MaterializeName("txt", ctxWith("c"))
	require.NoError(t, err)
	assert.NotEqual(t, first.(*ScriptExecution).ScriptPath, other.(*ScriptExecution).ScriptPath)
}

func TestMaterialize_OptionalProducesNoArgument(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("list", ctxWith())
	require.NoError(t, err)
	assert.Equal(t, []string{"-l"}, exec.(*ProgramExecution).Args)

	exec, err = m.MaterializeName("list", ctxWith("x", "y z"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-l", "x", "y z"}, exec.(*ProgramExecution).Args)
}

func TestMaterialize_MissingValue(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	_, err := m.MaterializeName("need_name", ctxWith())
	require.Error(t, err)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "need_name", merr.Task)
	assert.Equal(t, "args[1]", merr.Field)

	var eerr *expr.EvalError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, expr.MissingValue, eerr.Kind)
}

func TestMaterialize_MixedTagAndLiteral(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	_, err := m.MaterializeName("mixed", ctxWith("--name", "x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, expr.ErrMixedTagAndLiteral), "error = %v", err)
}

func TestMaterialize_ProgramTemplateAndEnv(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	ctx := expr.NewContext(nil, map[string]string{"EDITOR": "vim", "FILE_VAR": "process"}, "/cwd")
	exec, err := m.MaterializeName("editor", ctx)
	require.NoError(t, err)

	prog := exec.(*ProgramExecution)
	assert.Equal(t, "vim", prog.Program)
	assert.Equal(t, []string{"from-file"}, prog.Args, "config env overrides the process env")
	assert.Equal(t, "vim", prog.Env["EDITOR"])
	assert.Equal(t, "from-file", prog.Env["FILE_VAR"])

	_, err = m.MaterializeName("editor", ctxWith())
	assert.True(t, expr.IsMissing(err), "error = %v", err)
}

func TestMaterialize_TaskEnvAndDir(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("env_task", ctxWith())
	require.NoError(t, err)
	script := exec.(*ScriptExecution)
	assert.Equal(t, "echo task", script.Script)
	assert.Equal(t, map[string]string{"PATH": "/bin", "X": "task", "FILE_VAR": "from-file"}, script.Env)

	exec, err = m.MaterializeName("in_dir", ctxWith())
	require.NoError(t, err)
	assert.Equal(t, "/proj/sub", exec.(*ScriptExecution).Dir)
}

func TestMaterialize_SerialOrder(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("chain", ctxWith())
	require.NoError(t, err)

	serial, ok := exec.(*SerialExecution)
	require.True(t, ok, "execution is %T", exec)
	require.Len(t, serial.Steps, 3)

	var names, scripts []string
	for _, step := range serial.Steps {
		names = append(names, step.TaskName())
		scripts = append(scripts, step.(*ScriptExecution).Script)
	}
	assert.Equal(t, []string{"ok_task", "fail_task", "never_run_task"}, names)
	assert.Equal(t, []string{"exit 0", "exit 3", "echo never"}, scripts)
}

func TestMaterialize_InlineCommands(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	exec, err := m.MaterializeName("inline", ctxWith("hello", "--inc", "a", "--inc", "b c"))
	require.NoError(t, err)

	serial := exec.(*SerialExecution)
	require.Len(t, serial.Steps, 2)

	echo, ok := serial.Steps[0].(*ProgramExecution)
	require.True(t, ok, "step 0 is %T", serial.Steps[0])
	assert.Equal(t, "inline", echo.Task)
	assert.Equal(t, "echo", echo.Program)
	assert.Equal(t, []string{"hello", "-I", "a", "-I", "b c"}, echo.Args)
	assert.Equal(t, "/work", echo.Dir)
	assert.Equal(t, "yes", echo.Env["INLINE"])

	ok2, ok := serial.Steps[1].(*ScriptExecution)
	require.True(t, ok, "step 1 is %T", serial.Steps[1])
	assert.Equal(t, "ok_task", ok2.Task)
	assert.Equal(t, "/cwd", ok2.Dir)
	assert.NotContains(t, ok2.Env, "INLINE")
}

func TestMaterialize_RecursiveCmds(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	_, err := m.MaterializeName("loop_a", ctxWith())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop_a -> loop_b -> loop_a")
}

func TestMaterialize_NothingToRun(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	_, err := m.MaterializeName("empty", ctxWith())
	assert.ErrorIs(t, err, ErrNothingToRun)
}

func TestMaterialize_UnknownTask(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, testConfig)

	_, err := m.MaterializeName("ghost", ctxWith())
	var rerr *resolve.Error
	require.True(t, errors.As(err, &rerr), "error = %v", err)
	assert.Equal(t, resolve.TaskNotFound, rerr.Kind)
}

func TestMaterialize_CacheFailure(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/tsk.yml", []byte(testConfig), 0o644))
	r := resolve.New(config.NewSet(fs, []string{"/proj/tsk.yml"}), fs, config.Linux, nil)
	m := New(r, cache.New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/cache", nil), nil)

	_, err := m.MaterializeName("txt", ctxWith("a"))
	var cerr *cache.Error
	require.True(t, errors.As(err, &cerr), "error = %v", err)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "script", merr.Field)
}

func TestMaterialize_LegacySyntax(t *testing.T) {
	t.Parallel()
	m, _ := setup(t, `
version: 0
tasks:
  greet:
    script: echo {(Hello )name?}!
  tag:
    program: git
    args: [tag, "-m={1}", "--file={*?}"]
`)

	exec, err := m.MaterializeName("greet", ctxWith("--name", "Bob"))
	require.NoError(t, err)
	assert.Equal(t, `echo "Hello Bob"!`, exec.(*ScriptExecution).Script)

	exec, err = m.MaterializeName("greet", ctxWith())
	require.NoError(t, err)
	assert.Equal(t, "echo !", exec.(*ScriptExecution).Script)

	exec, err = m.MaterializeName("tag", ctxWith("v1", "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tag", "-m=v1", "--file=v1", "--file=notes.md"}, exec.(*ProgramExecution).Args)
}

func TestRenderScript_QuoteModes(t *testing.T) {
	t.Parallel()
	ctx := expr.NewContext([]string{"a b", "c"}, nil, "")
	tests := []struct {
		mode config.QuoteMode
		src  string
		want string
	}{
		{config.QuoteAlways, "echo {$@}", `echo "a b" "c"`},
		{config.QuoteSpaces, "echo {$@}", `echo "a b" c`},
		{config.QuoteNever, "echo {$@}", `echo a b c`},
		{config.QuoteAlways, "echo {$1}{/ note /}", `echo "a b"`},
		{config.QuoteAlways, "echo {$3?}.", `echo .`},
		{config.QuoteAlways, "echo {{x}} {$2}", `echo {x} "c"`},
		{config.QuoteSpaces, "echo {join(',', $@)}", `echo "a b,c"`},
		{config.QuoteNever, "echo {$@[-1]} {$@[0:0]}", `echo c `},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode)+" "+tt.src, func(t *testing.T) {
			t.Parallel()
			got, err := RenderScript(expr.SyntaxCurrent, tt.src, ctx, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderScript_Errors(t *testing.T) {
	t.Parallel()
	ctx := expr.NewContext(nil, nil, "")
	_, err := RenderScript(expr.SyntaxCurrent, "echo {", ctx, config.QuoteAlways)
	var perr *expr.ParseError
	assert.True(t, errors.As(err, &perr), "error = %v", err)

	_, err = RenderScript(expr.SyntaxCurrent, "echo {nope($1)?}", expr.NewContext([]string{"x"}, nil, ""), config.QuoteAlways)
	var eerr *expr.EvalError
	require.True(t, errors.As(err, &eerr), "error = %v", err)
	assert.Equal(t, expr.UnknownFunction, eerr.Kind, "optional must not hide unknown functions")
}
