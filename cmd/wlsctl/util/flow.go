// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
)

var (
	atDone           []func() <-chan struct{}
	interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
)

func AtDone(cleanup func() <-chan struct{}) {
	atDone = append(atDone, cleanup)
}

// Done runs registered cleanups and waits for the asynchronous ones.
func Done() {
	var chs []<-chan struct{}
	for _, cleanup := range atDone {
		ch := cleanup()
		if ch != nil {
			chs = append(chs, ch)
		}
	}
	atDone = nil
	for _, ch := range chs {
		<-ch
	}
}

// WatchInterrupt returns a context cancelled on first SIGINT/SIGTERM.
// Second signal exits the process with code 3.
func WatchInterrupt(parent context.Context) context.Context {
	ctx, interrupted := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	unwatch := make(chan struct{})
	signal.Notify(sigs, interruptSignals...)
	go func() {
		for {
			select {
			case sig := <-sigs:
				if ctx.Err() != nil {
					os.Exit(3)
				}
				interrupted()
				if config.Verbose {
					log.Writer().Write([]byte("\n"))
					log.Printf("%s, wlsctl exiting... Send ^C again to force exit", sig.String())
				}

			case <-unwatch:
				signal.Reset(interruptSignals...)
				return
			}
		}
	}()
	AtDone(func() <-chan struct{} {
		close(unwatch)
		return nil
	})
	return ctx
}
