package deployment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epam/wlsctl/cmd/wlsctl/util"
	"github.com/epam/wlsctl/cmd/wlsctl/weblogic"
)

type fakeSession struct {
	bound     weblogic.Application
	calls     []string
	failOn    map[string]error
	connectTo string
	deployed  weblogic.Application
	activated weblogic.Application
}

func (f *fakeSession) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

func (f *fakeSession) Connect(ctx context.Context, username, password, url string) error {
	f.connectTo = username + "@" + url
	return f.record("connect")
}

func (f *fakeSession) DeployDefault(ctx context.Context) error {
	f.deployed = f.bound
	return f.record("deployDefault")
}

func (f *fakeSession) Deploy(ctx context.Context, app weblogic.Application) error {
	f.deployed = app
	return f.record("deploy")
}

func (f *fakeSession) Activate(ctx context.Context, app weblogic.Application) error {
	f.activated = app
	return f.record("activate")
}

func (f *fakeSession) Disconnect(ctx context.Context) error {
	return f.record("disconnect")
}

func (f *fakeSession) DumpStack() string {
	return "fake session dump\n"
}

func newFake(failOn map[string]error) (*fakeSession, SessionFactory) {
	fake := &fakeSession{failOn: failOn}
	return fake, func(app weblogic.Application) Session {
		fake.bound = app
		return fake
	}
}

func archiveProperties(t *testing.T) *Properties {
	props := validProperties()
	props.ArchivePath = filepath.Join(t.TempDir(), "myapp.ear")
	require.NoError(t, os.WriteFile(props.ArchivePath, []byte("PK\x03\x04 ear"), 0644))
	return props
}

func TestRunArchiveSuccess(t *testing.T) {
	props := archiveProperties(t)
	fake, open := newFake(nil)

	res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant, WorkDir: t.TempDir()}, open)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"connect", "deployDefault", "activate", "disconnect"}, fake.calls)
	assert.Equal(t, "weblogic@t3://admin-server:7001", fake.connectTo)
	assert.Equal(t, "myapp", fake.deployed.Name)
	assert.Equal(t, props.ArchivePath, fake.deployed.Archive)
	assert.Equal(t, []string{"cluster-1"}, fake.deployed.Targets)
	assert.True(t, fake.deployed.Remote)
	assert.True(t, fake.deployed.Upload)
	assert.Equal(t, fake.deployed, fake.activated)
	assert.Equal(t, Disconnected, res.State)
	assert.Equal(t, ExitOk, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Ok())
	assert.NotEmpty(t, res.ID)
}

func TestRunEncodedSuccess(t *testing.T) {
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	props := validProperties()
	props.NodeArchivePath = filepath.Join(t.TempDir(), "myapp.ear")
	require.NoError(t, os.WriteFile(props.NodeArchivePath, util.EncodeBase64(data), 0644))
	workDir := t.TempDir()
	fake, open := newFake(nil)

	res := Run(context.Background(), Request{Properties: props, Variant: EncodedVariant, WorkDir: workDir}, open)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"connect", "deploy", "activate", "disconnect"}, fake.calls)
	decoded := filepath.Join(workDir, "myapp.ear")
	assert.Equal(t, decoded, fake.deployed.Archive)
	assert.Equal(t, "myapp", fake.deployed.Name)
	got, err := os.ReadFile(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, ExitOk, res.Outcome)
}

func TestRunEncodedInPlace(t *testing.T) {
	data := []byte("PK\x03\x04 decoded over its own source")
	dir := t.TempDir()
	props := validProperties()
	props.NodeArchivePath = filepath.Join(dir, "myapp.ear")
	require.NoError(t, os.WriteFile(props.NodeArchivePath, util.EncodeBase64(data), 0644))
	_, open := newFake(nil)

	res := Run(context.Background(), Request{Properties: props, Variant: EncodedVariant, WorkDir: dir}, open)

	require.NoError(t, res.Err)
	got, err := os.ReadFile(props.NodeArchivePath)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRunConfigFailure(t *testing.T) {
	props := validProperties()
	props.AdminHost = ""
	props.Targets = ""
	opened := false
	open := func(app weblogic.Application) Session {
		opened = true
		return &fakeSession{}
	}

	res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant}, open)

	assert.False(t, opened)
	assert.Equal(t, Start, res.State)
	assert.Equal(t, ExitFailConfig, res.Outcome)
	assert.Equal(t, 1, res.ExitCode)
	var configErr *ConfigError
	require.True(t, errors.As(res.Err, &configErr))
	assert.Equal(t, []string{"admin_host", "targets"}, configErr.Missing)
}

func TestRunInvalidBase64(t *testing.T) {
	props := validProperties()
	props.NodeArchivePath = filepath.Join(t.TempDir(), "myapp.ear")
	require.NoError(t, os.WriteFile(props.NodeArchivePath, []byte("not*base64!"), 0644))
	fake, open := newFake(nil)

	res := Run(context.Background(), Request{Properties: props, Variant: EncodedVariant, WorkDir: t.TempDir()}, open)

	assert.Empty(t, fake.calls)
	assert.Equal(t, ConfigReady, res.State)
	assert.Equal(t, ExitFailGeneric, res.Outcome)
	assert.Equal(t, 1, res.ExitCode)
	var opErr *OperationError
	require.True(t, errors.As(res.Err, &opErr))
	assert.Equal(t, OpDecode, opErr.Op)
}

func TestRunOperationFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		failOn    string
		wantCalls []string
		wantState State
	}{
		{"Connect failure skips deploy and activate", "connect",
			[]string{"connect"}, ConfigReady},
		{"Deploy failure skips activate", "deployDefault",
			[]string{"connect", "deployDefault"}, Connected},
		{"Activate failure skips disconnect", "activate",
			[]string{"connect", "deployDefault", "activate"}, Deployed},
		{"Disconnect failure is operational", "disconnect",
			[]string{"connect", "deployDefault", "activate", "disconnect"}, Activated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := archiveProperties(t)
			fake, open := newFake(map[string]error{tt.failOn: boom})

			res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant, WorkDir: t.TempDir()}, open)

			assert.Equal(t, tt.wantCalls, fake.calls)
			assert.Equal(t, tt.wantState, res.State)
			assert.Equal(t, ExitFailGeneric, res.Outcome)
			assert.Equal(t, 1, res.ExitCode)
			assert.ErrorIs(t, res.Err, boom)
			assert.Equal(t, "fake session dump\n", res.Dump)
		})
	}
}

func TestRunStagesCompressedArchive(t *testing.T) {
	data := []byte("PK\x03\x04 compressed ear")
	gz, err := util.Gzip(data)
	require.NoError(t, err)
	props := validProperties()
	props.ArchivePath = filepath.Join(t.TempDir(), "myapp.ear")
	require.NoError(t, os.WriteFile(props.ArchivePath, gz, 0644))
	workDir := t.TempDir()
	fake, open := newFake(nil)

	res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant, WorkDir: workDir}, open)

	require.NoError(t, res.Err)
	assert.Equal(t, Disconnected, res.State)
	staged := filepath.Join(workDir, "myapp.ear")
	assert.Equal(t, staged, fake.deployed.Archive)
	got, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRunStagingKeepsSource(t *testing.T) {
	data := []byte("PK\x03\x04 compressed ear")
	gz, err := util.Gzip(data)
	require.NoError(t, err)

	tests := []struct {
		name     string
		relative bool
	}{
		{"Should not overwrite source in work directory", false},
		{"Should not overwrite relative source in current directory", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			source := filepath.Join(dir, "myapp.ear")
			require.NoError(t, os.WriteFile(source, gz, 0644))
			props := validProperties()
			props.ArchivePath = source
			workDir := dir
			if tt.relative {
				cwd, err := os.Getwd()
				require.NoError(t, err)
				require.NoError(t, os.Chdir(dir))
				defer os.Chdir(cwd)
				props.ArchivePath = "myapp.ear"
				workDir = "."
			}
			fake, open := newFake(nil)

			res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant, WorkDir: workDir}, open)

			require.NoError(t, res.Err)
			kept, err := os.ReadFile(source)
			require.NoError(t, err)
			assert.Equal(t, gz, kept)
			assert.True(t, util.IsGzipData(kept))

			assert.Equal(t, "myapp.ear", filepath.Base(fake.deployed.Archive))
			assert.Equal(t, filepath.Join(workDir, stagingDir, "myapp.ear"), fake.deployed.Archive)
			staged, err := os.ReadFile(filepath.Join(dir, stagingDir, "myapp.ear"))
			require.NoError(t, err)
			assert.Equal(t, data, staged)
		})
	}
}

func TestPrintFailure(t *testing.T) {
	var out bytes.Buffer
	res := (&Result{}).finish(&ConfigError{Missing: []string{"admin_host"}})
	PrintFailure(&out, res, "Call script as:\nwlsctl deploy --load-properties domain.properties\n")
	assert.Contains(t, out.String(), "Apparently properties not set.\n")
	assert.Contains(t, out.String(), "Please check the property: admin_host\n")
	assert.Contains(t, out.String(), "Call script as:\n")
	assert.NotContains(t, out.String(), "Deployment failed")

	out.Reset()
	res = (&Result{Dump: "session dump"}).finish(&OperationError{Op: OpConnect, Err: errors.New("refused")})
	PrintFailure(&out, res, "usage")
	assert.Equal(t, "Deployment failed\nsession dump\nError: connect failed: refused\n\tcaused by: refused\n", out.String())

	out.Reset()
	PrintFailure(&out, (&Result{}).finish(nil), "usage")
	assert.Empty(t, out.String())
}
