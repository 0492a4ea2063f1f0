// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/storage"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

// stagingDir receives a staged archive when workDir already holds the source
const stagingDir = ".wlsctl-staging"

// Materialize makes plan.Archive point to a local archive file in workDir
// when needed. For the encoded variant it decodes the base64 source; for the
// archive variant it stages remote, encrypted, or compressed sources. A plain
// local archive is used in place. The encoded source is read fully before the
// output is written, so both may be the same file. A staged archive never
// replaces its source.
func Materialize(ctx context.Context, plan *Plan, workDir string) (bool, error) {
	if plan.Variant == EncodedVariant {
		return true, decode(ctx, plan, workDir)
	}
	needed, err := storage.NeedsStaging(plan.Source)
	if err != nil {
		if util.NoSuchFile(err) {
			// the admin server call reports the missing archive
			return false, nil
		}
		return false, &OperationError{Op: OpStage, Err: err}
	}
	if !needed {
		plan.Archive = plan.Source
		return false, nil
	}
	data, err := storage.Read(ctx, plan.Source, "archive")
	if err != nil {
		return false, &OperationError{Op: OpStage, Err: err}
	}
	dir, err := stageDir(plan, workDir)
	if err != nil {
		return false, &OperationError{Op: OpStage, Err: err}
	}
	if err := writeArchive(plan, dir, data); err != nil {
		return false, &OperationError{Op: OpStage, Err: err}
	}
	return true, nil
}

func decode(ctx context.Context, plan *Plan, workDir string) error {
	encoded, err := storage.Read(ctx, plan.Source, "node archive")
	if err != nil {
		return &OperationError{Op: OpDecode, Err: err}
	}
	data, err := util.DecodeBase64(encoded)
	if err != nil {
		return &OperationError{Op: OpDecode, Err: fmt.Errorf("`%s`: %w", plan.Source, err)}
	}
	if err := writeArchive(plan, workDir, data); err != nil {
		return &OperationError{Op: OpDecode, Err: err}
	}
	return nil
}

// stageDir is workDir unless the staged file would land on the local source.
func stageDir(plan *Plan, workDir string) (string, error) {
	if workDir == "" {
		workDir = "."
	}
	if storage.IsRemote(plan.Source) {
		return workDir, nil
	}
	source, err := filepath.Abs(plan.Source)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(filepath.Join(workDir, plan.ArchiveName))
	if err != nil {
		return "", err
	}
	if source == target || sameFile(source, target) {
		return filepath.Join(workDir, stagingDir), nil
	}
	return workDir, nil
}

func sameFile(a, b string) bool {
	aInfo, err := os.Stat(a)
	if err != nil {
		return false
	}
	bInfo, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(aInfo, bInfo)
}

func writeArchive(plan *Plan, workDir string, data []byte) error {
	if workDir == "" {
		workDir = "."
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("Unable to create work directory `%s`: %v", workDir, err)
	}
	archive := filepath.Join(workDir, plan.ArchiveName)
	if err := os.WriteFile(archive, data, 0644); err != nil {
		return fmt.Errorf("Unable to write archive `%s`: %v", archive, err)
	}
	if config.Verbose {
		log.Printf("Wrote %s (%d bytes)", archive, len(data))
	}
	plan.Archive = archive
	return nil
}
