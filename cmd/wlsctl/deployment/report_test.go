package deployment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

func TestReportPaths(t *testing.T) {
	res := &Result{ID: "42", Plan: &Plan{ApplicationName: "myapp", Variant: EncodedVariant}}
	paths, err := ReportPaths([]string{"reports/{{application}}-{{id}}.yaml", "s3://bucket/{{variant}}/report.yaml"}, res)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/myapp-42.yaml", "s3://bucket/encoded/report.yaml"}, paths)

	_, err = ReportPaths([]string{"{{unknown}}.yaml"}, res)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	defer func(compressed, encrypted bool) {
		config.Compressed, config.Encrypted = compressed, encrypted
	}(config.Compressed, config.Encrypted)
	config.Compressed, config.Encrypted = false, false

	props := archiveProperties(t)
	props.AdminPassword = "s3cr3t-pa55"
	_, open := newFake(map[string]error{"activate": errors.New("activation rejected")})
	res := Run(context.Background(), Request{Properties: props, Variant: ArchiveVariant, WorkDir: t.TempDir()}, open)
	require.Error(t, res.Err)

	dir := t.TempDir()
	written := WriteReport(context.Background(), []string{filepath.Join(dir, "{{application}}.yaml")}, res)
	require.Equal(t, []string{filepath.Join(dir, "myapp.yaml")}, written)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cr3t-pa55")

	var report Report
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, res.ID, report.Id)
	assert.Equal(t, "myapp", report.Application)
	assert.Equal(t, "DEPLOYED", report.State)
	assert.Equal(t, "EXIT_FAIL_GENERIC", report.Outcome)
	assert.Equal(t, 1, report.ExitCode)
	assert.Equal(t, OpActivate, report.Failed)
	assert.Contains(t, report.Error, "activation rejected")
	assert.Equal(t, "weblogic", report.Username)
}
