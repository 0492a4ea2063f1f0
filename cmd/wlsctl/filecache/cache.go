// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package filecache

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

const maxDeployments = 20

// ReadCache opens the cache file with flag. A missing file is not an error:
// both file and cache are nil then. An empty file yields nil cache.
func ReadCache(flag int) (*os.File, *FileCache, error) {
	if config.CacheFile == "" {
		return nil, nil, errors.New("No cache file set, try --cache")
	}
	if config.Trace {
		log.Printf("Opening `%s` mode %d", config.CacheFile, flag)
	}
	file, err := os.OpenFile(config.CacheFile, flag, 0640)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	yamlBytes, err := io.ReadAll(file)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if len(yamlBytes) == 0 {
		return file, nil, nil
	}
	var cache FileCache
	err = yaml.Unmarshal(yamlBytes, &cache)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("Unable to parse `%s`: %v", config.CacheFile, err)
	}
	return file, &cache, nil
}

// WriteCache replaces file content with the cache.
func WriteCache(file *os.File, cache *FileCache) error {
	if cache.Version == 0 {
		cache.Version = 1
	}
	yamlBytes, err := yaml.Marshal(cache)
	if err != nil {
		return err
	}
	if config.Trace {
		log.Printf("Writing `%s`", config.CacheFile)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := file.Truncate(0); err != nil {
		return err
	}
	wrote, err := file.Write(yamlBytes)
	if err != nil {
		return err
	}
	if wrote != len(yamlBytes) {
		return fmt.Errorf("Wrote %d out of %d bytes", wrote, len(yamlBytes))
	}
	return nil
}

// Update reads the cache for writing, creating it when missing, applies
// mutate, and writes the result back.
func Update(mutate func(*FileCache)) error {
	file, cache, err := ReadCache(os.O_RDWR | os.O_CREATE)
	if err != nil {
		return err
	}
	if file == nil {
		return errors.New("No cache file created")
	}
	defer file.Close()
	if cache == nil {
		cache = &FileCache{}
	}
	mutate(cache)
	return WriteCache(file, cache)
}

// RememberDeployment records the run, replacing an earlier one for the same
// admin server and application. Oldest entries are dropped first.
func RememberDeployment(d Deployment) error {
	return Update(func(cache *FileCache) {
		kept := make([]Deployment, 0, len(cache.Deployments)+1)
		for _, prev := range cache.Deployments {
			if prev.Url != d.Url || prev.Application != d.Application {
				kept = append(kept, prev)
			}
		}
		kept = append(kept, d)
		if len(kept) > maxDeployments {
			kept = kept[len(kept)-maxDeployments:]
		}
		cache.Deployments = kept
	})
}
