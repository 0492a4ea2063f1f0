// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/epam/wlsctl/cmd/wlsctl/aws"
	"github.com/epam/wlsctl/cmd/wlsctl/azure"
	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/crypto"
	"github.com/epam/wlsctl/cmd/wlsctl/gcp"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
)

func writeFile(ctx context.Context, file *File, data []byte) error {
	switch file.Kind {
	case "fs":
		if dir := filepath.Dir(file.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		return os.WriteFile(file.Path, data, 0644)

	case "s3":
		return aws.WriteS3(ctx, file.Path, data)

	case "gs":
		return gcp.WriteGCS(ctx, file.Path, data)

	case "az":
		return azure.WriteStorageBlob(ctx, file.Path, data)
	}
	return fmt.Errorf("Unknown storage kind `%s`", file.Kind)
}

// Write stores data into every path, gzipped and encrypted per
// --compressed and --encrypted settings. Returns paths written.
func Write(ctx context.Context, paths []string, kind string, data []byte) ([]string, []error) {
	var errs []error
	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		file, err := checkPath(path, kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, errs
	}

	var err error
	if config.Compressed {
		data, err = util.Gzip(data)
		if err != nil {
			return nil, append(errs, fmt.Errorf("Unable to gzip %s: %v", kind, err))
		}
	}
	if config.Encrypted {
		data, err = crypto.Encrypt(data)
		if err != nil {
			return nil, append(errs, fmt.Errorf("Unable to encrypt %s: %v", kind, err))
		}
	}

	written := make([]string, 0, len(files))
	for _, file := range files {
		if err := writeFile(ctx, file, data); err != nil {
			errs = append(errs, fmt.Errorf("Unable to write %s `%s`: %v", kind, file.Path, err))
			continue
		}
		written = append(written, file.Path)
	}
	if config.Verbose && len(written) > 0 {
		log.Printf("Wrote %s %s", kind, util.HighlightColor(fmt.Sprint(written)))
	}
	return written, errs
}
